package provider

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"firmdesk.app/intake/internal/model"
)

// maxMessageBytes caps how much of a provider response we read.
const maxMessageBytes = 4 << 20

// getMessage performs an authorised GET and classifies failures so the job
// queue can decide how to retry them.
func getMessage(ctx context.Context, client *http.Client, url string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, model.NewJobError(model.ErrorClassNonRetryable, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxMessageBytes))
		return nil, classifyStatus(resp)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxMessageBytes))
	if err != nil {
		return nil, model.NewJobError(model.ErrorClassTransient, fmt.Errorf("read response: %w", err))
	}
	return body, nil
}

func classifyTransportError(err error) error {
	return model.NewJobError(model.ErrorClassTransient, fmt.Errorf("provider request: %w", err))
}

func classifyStatus(resp *http.Response) error {
	status := resp.StatusCode
	switch {
	case status == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
		slog.Warn("provider rate limited request", "status", status, "retry_after", retryAfter)
		return model.RateLimitedError(fmt.Errorf("provider returned HTTP %d", status), retryAfter)
	case status == http.StatusNotFound:
		return model.NewJobError(model.ErrorClassNonRetryable, ErrMessageNotFound)
	case status >= 500:
		return model.NewJobError(model.ErrorClassRetryable, fmt.Errorf("provider returned HTTP %d", status))
	default:
		return model.NewJobError(model.ErrorClassNonRetryable, fmt.Errorf("provider returned HTTP %d", status))
	}
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(value string, now time.Time) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
