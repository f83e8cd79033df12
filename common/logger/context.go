package logger

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields are attached to every record logged with a context that carries
// them, so handlers never have to repeat tenant or job ids by hand.
type LogFields struct {
	TenantID      *int64
	ArtifactID    *int64
	ConnectionID  *int64
	JobID         *int64
	DLQID         *int64
	CorrelationID *string
	WorkerID      *string
	MessageID     *string // Redis stream message id of a job-ready notification
	Component     string  // e.g. "intake.worker", "intake.ingestion"
}

// WithLogFields merges fields into ctx. Newer non-nil values win.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields returns the fields stored in ctx, or the zero value.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.TenantID != nil {
		result.TenantID = new.TenantID
	}
	if new.ArtifactID != nil {
		result.ArtifactID = new.ArtifactID
	}
	if new.ConnectionID != nil {
		result.ConnectionID = new.ConnectionID
	}
	if new.JobID != nil {
		result.JobID = new.JobID
	}
	if new.DLQID != nil {
		result.DLQID = new.DLQID
	}
	if new.CorrelationID != nil {
		result.CorrelationID = new.CorrelationID
	}
	if new.WorkerID != nil {
		result.WorkerID = new.WorkerID
	}
	if new.MessageID != nil {
		result.MessageID = new.MessageID
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

func (f LogFields) attrs() []slog.Attr {
	var attrs []slog.Attr
	for _, id := range []struct {
		key string
		v   *int64
	}{
		{"tenant_id", f.TenantID},
		{"artifact_id", f.ArtifactID},
		{"connection_id", f.ConnectionID},
		{"job_id", f.JobID},
		{"dlq_id", f.DLQID},
	} {
		if id.v != nil {
			attrs = append(attrs, slog.Int64(id.key, *id.v))
		}
	}
	for _, s := range []struct {
		key string
		v   *string
	}{
		{"correlation_id", f.CorrelationID},
		{"worker_id", f.WorkerID},
		{"message_id", f.MessageID},
	} {
		if s.v != nil {
			attrs = append(attrs, slog.String(s.key, *s.v))
		}
	}
	if f.Component != "" {
		attrs = append(attrs, slog.String("component", f.Component))
	}
	return attrs
}

// Ptr returns a pointer to v.
// Handy inline: logger.WithLogFields(ctx, logger.LogFields{JobID: logger.Ptr(job.ID)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate cuts s to maxLen bytes, appending "..." if it was longer.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

const redactedMaxLen = 500

var (
	emailPattern  = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	digitsPattern = regexp.MustCompile(`\d{6,}`)
)

// Redact strips addresses and long numbers from an error message before it
// is persisted in attempt logs or DLQ rows, then bounds its length.
func Redact(s string) string {
	s = emailPattern.ReplaceAllString(s, "<email>")
	s = digitsPattern.ReplaceAllString(s, "<num>")
	s = strings.Join(strings.Fields(s), " ")
	return Truncate(s, redactedMaxLen)
}
