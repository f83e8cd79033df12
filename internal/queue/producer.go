package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Notifier publishes job notifications. Failures are reported to the caller,
// who treats them as best effort.
type Notifier interface {
	JobReady(ctx context.Context, n JobReady) error
	DeadLettered(ctx context.Context, n DeadLettered) error
	Close() error
}

type redisNotifier struct {
	client    *redis.Client
	stream    string
	dlqStream string
	logger    *slog.Logger
}

func NewRedisNotifier(client *redis.Client, stream, dlqStream string, logger *slog.Logger) Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisNotifier{
		client:    client,
		stream:    stream,
		dlqStream: dlqStream,
		logger:    logger,
	}
}

func (p *redisNotifier) JobReady(ctx context.Context, n JobReady) error {
	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: n.values(),
	}).Err(); err != nil {
		return fmt.Errorf("xadd job ready (stream=%s): %w", p.stream, err)
	}

	p.logger.DebugContext(ctx, "published job ready", "job_id", n.JobID, "tenant_id", n.TenantID, "job_type", n.JobType)
	return nil
}

func (p *redisNotifier) DeadLettered(ctx context.Context, n DeadLettered) error {
	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.dlqStream,
		Values: n.values(),
	}).Err(); err != nil {
		return fmt.Errorf("xadd dlq alert (stream=%s): %w", p.dlqStream, err)
	}

	p.logger.WarnContext(ctx, "published dlq alert",
		"dlq_id", n.DLQID,
		"job_id", n.JobID,
		"error_class", n.ErrorClass,
		"attempt_count", n.AttemptCount)
	return nil
}

func (p *redisNotifier) Close() error {
	return p.client.Close()
}

type nopNotifier struct{}

// NewNopNotifier is used when no Redis is configured; workers fall back to
// polling.
func NewNopNotifier() Notifier {
	return nopNotifier{}
}

func (nopNotifier) JobReady(context.Context, JobReady) error         { return nil }
func (nopNotifier) DeadLettered(context.Context, DeadLettered) error { return nil }
func (nopNotifier) Close() error                                     { return nil }
