package model

import (
	"context"
	"errors"
	"net"
	"time"
)

// ErrorClass tells the queue how a failure may be retried. It is attached
// where the failure happens, never inferred by the queue itself.
type ErrorClass string

const (
	ErrorClassTransient    ErrorClass = "transient"
	ErrorClassRetryable    ErrorClass = "retryable"
	ErrorClassNonRetryable ErrorClass = "non_retryable"
	ErrorClassRateLimited  ErrorClass = "rate_limited"
)

func (c ErrorClass) Valid() bool {
	switch c {
	case ErrorClassTransient, ErrorClassRetryable, ErrorClassNonRetryable, ErrorClassRateLimited:
		return true
	}
	return false
}

// JobError wraps a failure with its retry class.
type JobError struct {
	Class      ErrorClass
	RetryAfter time.Duration // only meaningful for rate_limited
	Err        error
}

func (e *JobError) Error() string {
	if e.Err == nil {
		return string(e.Class)
	}
	return e.Err.Error()
}

func (e *JobError) Unwrap() error {
	return e.Err
}

func NewJobError(class ErrorClass, err error) *JobError {
	return &JobError{Class: class, Err: err}
}

func RateLimitedError(err error, retryAfter time.Duration) *JobError {
	return &JobError{Class: ErrorClassRateLimited, RetryAfter: retryAfter, Err: err}
}

// ClassOf returns the class carried by err. Unclassified timeouts count as
// transient; anything else unclassified is retryable.
func ClassOf(err error) ErrorClass {
	if err == nil {
		return ""
	}
	var je *JobError
	if errors.As(err, &je) && je.Class.Valid() {
		return je.Class
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorClassTransient
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return ErrorClassTransient
	}
	return ErrorClassRetryable
}

// RetryAfterOf returns the provider-requested cooldown carried by err, if any.
func RetryAfterOf(err error) time.Duration {
	var je *JobError
	if errors.As(err, &je) {
		return je.RetryAfter
	}
	return 0
}
