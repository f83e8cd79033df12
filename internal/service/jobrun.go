package service

import "context"

type jobRunKey struct{}

// JobRun identifies the queue attempt an ingestion executes under.
// RetryCount is the number of earlier runs of the same job.
type JobRun struct {
	JobID      int64
	RetryCount int32
}

func WithJobRun(ctx context.Context, run JobRun) context.Context {
	return context.WithValue(ctx, jobRunKey{}, run)
}

func JobRunFrom(ctx context.Context) (JobRun, bool) {
	run, ok := ctx.Value(jobRunKey{}).(JobRun)
	return run, ok
}
