package queue

import (
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"firmdesk.app/intake/internal/model"
)

// JobReady tells idle workers a job can be claimed. It is a hint: workers
// always claim through the database.
type JobReady struct {
	JobID    int64
	TenantID int64
	JobType  model.JobType
	Priority int32
	TraceID  string
}

// DeadLettered announces that a job exhausted its retries.
type DeadLettered struct {
	DLQID        int64
	JobID        int64
	TenantID     int64
	JobType      model.JobType
	ErrorClass   model.ErrorClass
	AttemptCount int32
	TraceID      string
}

func (n JobReady) values() map[string]any {
	values := map[string]any{
		"job_id":    n.JobID,
		"tenant_id": n.TenantID,
		"job_type":  string(n.JobType),
		"priority":  n.Priority,
	}
	if n.TraceID != "" {
		values["trace_id"] = n.TraceID
	}
	return values
}

func (n DeadLettered) values() map[string]any {
	values := map[string]any{
		"dlq_id":        n.DLQID,
		"job_id":        n.JobID,
		"tenant_id":     n.TenantID,
		"job_type":      string(n.JobType),
		"error_class":   string(n.ErrorClass),
		"attempt_count": n.AttemptCount,
	}
	if n.TraceID != "" {
		values["trace_id"] = n.TraceID
	}
	return values
}

// ParseJobReady validates a notification read from the stream.
func ParseJobReady(msg redis.XMessage) (JobReady, error) {
	jobID, err := parseInt64(msg.Values, "job_id")
	if err != nil {
		return JobReady{}, err
	}
	tenantID, err := parseInt64(msg.Values, "tenant_id")
	if err != nil {
		return JobReady{}, err
	}
	jobType, err := parseString(msg.Values, "job_type")
	if err != nil {
		return JobReady{}, err
	}
	priority, err := parseOptionalInt(msg.Values, "priority")
	if err != nil {
		return JobReady{}, err
	}
	traceID, err := parseOptionalString(msg.Values, "trace_id")
	if err != nil {
		return JobReady{}, err
	}
	if jobID <= 0 || tenantID <= 0 {
		return JobReady{}, fmt.Errorf("job_id and tenant_id must be positive")
	}

	return JobReady{
		JobID:    jobID,
		TenantID: tenantID,
		JobType:  model.JobType(jobType),
		Priority: int32(priority),
		TraceID:  traceID,
	}, nil
}

func parseInt64(values map[string]any, key string) (int64, error) {
	raw, ok := values[key]
	if !ok {
		return 0, fmt.Errorf("missing %s", key)
	}
	str := fmt.Sprint(raw)
	num, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return num, nil
}

func parseString(values map[string]any, key string) (string, error) {
	raw, ok := values[key]
	if !ok {
		return "", fmt.Errorf("missing %s", key)
	}
	return fmt.Sprint(raw), nil
}

func parseOptionalInt(values map[string]any, key string) (int, error) {
	raw, ok := values[key]
	if !ok {
		return 0, nil
	}
	str := fmt.Sprint(raw)
	num, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return num, nil
}

func parseOptionalString(values map[string]any, key string) (string, error) {
	raw, ok := values[key]
	if !ok {
		return "", nil
	}
	return fmt.Sprint(raw), nil
}
