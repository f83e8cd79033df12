package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"firmdesk.app/intake/common/logger"
)

type ListenerConfig struct {
	Stream    string        // Redis stream carrying job-ready hints
	Group     string        // consumer group shared by all workers
	Consumer  string        // this worker's consumer name
	BatchSize int64         // notifications read per call
	Block     time.Duration // how long Wait blocks for a notification
}

// Listener blocks until job-ready hints arrive.
type Listener interface {
	Wait(ctx context.Context) ([]JobReady, error)
}

type RedisListener struct {
	client *redis.Client
	cfg    ListenerConfig
}

func NewRedisListener(client *redis.Client, cfg ListenerConfig) (*RedisListener, error) {
	listener := &RedisListener{
		client: client,
		cfg:    cfg,
	}

	if err := listener.ensureGroup(context.Background()); err != nil { //nolint:contextcheck
		return nil, err
	}

	return listener, nil
}

func (l *RedisListener) ensureGroup(ctx context.Context) error {
	if err := l.client.XGroupCreateMkStream(ctx, l.cfg.Stream, l.cfg.Group, "$").Err(); err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return fmt.Errorf("creating consumer group: %w", err)
	}
	return nil
}

// Wait reads new notifications and acknowledges them immediately. Lost hints
// only delay work until the next poll.
func (l *RedisListener) Wait(ctx context.Context) ([]JobReady, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "intake.queue.listener",
	})

	streams, err := l.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    l.cfg.Group,
		Consumer: l.cfg.Consumer,
		Streams:  []string{l.cfg.Stream, ">"},
		Count:    l.cfg.BatchSize,
		Block:    l.cfg.Block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []JobReady{}, nil
		}
		return nil, fmt.Errorf("reading from stream: %w", err)
	}

	var (
		ready []JobReady
		ids   []string
	)
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			ids = append(ids, msg.ID)
			parsed, parseErr := ParseJobReady(msg)
			if parseErr != nil {
				slog.ErrorContext(ctx, "failed to parse job notification",
					"error", parseErr,
					"raw_message_id", msg.ID,
					"stream", l.cfg.Stream)
				continue
			}
			ready = append(ready, parsed)
		}
	}

	if len(ids) > 0 {
		if err := l.client.XAck(ctx, l.cfg.Stream, l.cfg.Group, ids...).Err(); err != nil {
			slog.WarnContext(ctx, "failed to ack job notifications", "error", err, "count", len(ids))
		}
	}

	return ready, nil
}

// PollListener stands in for Redis by sleeping for the poll interval.
type PollListener struct {
	Interval time.Duration
}

func (p PollListener) Wait(ctx context.Context) ([]JobReady, error) {
	timer := time.NewTimer(p.Interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, nil
	}
}
