// Package queue is a small Redis backed job queue. Every job key owns one
// Redis list; producers LPUSH encoded jobs and a Worker BRPOPs them.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/meetapp/internal/config"
)

// Job is the envelope stored in Redis.
type Job struct {
	ID         string          `json:"id"`
	Key        string          `json:"key"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

type Queue struct {
	client *redis.Client
	prefix string
}

func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("queue: failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	log.Info().Str("addr", cfg.Addr).Msg("Connected to Redis")
	return client, nil
}

func New(client *redis.Client, prefix string) *Queue {
	return &Queue{client: client, prefix: prefix}
}

// ListName returns the Redis list holding jobs for key.
func (q *Queue) ListName(key string) string {
	return q.prefix + ":" + key
}

// Add schedules payload for the handler registered under key. It returns
// once the job is stored; the job itself runs later on a Worker.
func (q *Queue) Add(ctx context.Context, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("queue: failed to encode payload for %s: %w", key, err)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("queue: failed to generate job id: %w", err)
	}

	job, err := json.Marshal(Job{
		ID:         id.String(),
		Key:        key,
		Payload:    data,
		EnqueuedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("queue: failed to encode job %s: %w", key, err)
	}

	if err := q.client.LPush(ctx, q.ListName(key), job).Err(); err != nil {
		return fmt.Errorf("queue: failed to push job %s: %w", key, err)
	}

	log.Debug().Str("job_id", id.String()).Str("job_key", key).Msg("queue: job enqueued")
	return nil
}
