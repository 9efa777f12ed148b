package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

// Handler processes the payload of one job key.
type Handler interface {
	Key() string
	Handle(ctx context.Context, payload json.RawMessage) error
}

type Worker struct {
	queue       *Queue
	handlers    map[string]Handler
	lists       []string
	pollTimeout time.Duration
	jobTimeout  time.Duration
}

func NewWorker(q *Queue, handlers ...Handler) *Worker {
	w := &Worker{
		queue:       q,
		handlers:    make(map[string]Handler, len(handlers)),
		pollTimeout: time.Second,
		jobTimeout:  30 * time.Second,
	}
	for _, h := range handlers {
		w.handlers[h.Key()] = h
		w.lists = append(w.lists, q.ListName(h.Key()))
	}
	return w
}

// Run processes jobs until ctx is cancelled. A failed job is logged and
// dropped.
func (w *Worker) Run(ctx context.Context) error {
	if len(w.lists) == 0 {
		<-ctx.Done()
		return nil
	}

	log.Info().Strs("lists", w.lists).Msg("queue: worker started")
	for {
		if ctx.Err() != nil {
			log.Info().Msg("queue: worker stopped")
			return nil
		}

		if err := w.ProcessNext(ctx); err != nil {
			if ctx.Err() != nil {
				log.Info().Msg("queue: worker stopped")
				return nil
			}
			log.Error().Err(err).Msg("queue: failed to fetch job")
			select {
			case <-ctx.Done():
			case <-time.After(w.pollTimeout):
			}
		}
	}
}

// ProcessNext waits up to the poll timeout for one job and runs it. It
// returns nil when no job arrived in time.
func (w *Worker) ProcessNext(ctx context.Context) error {
	res, err := w.queue.client.BRPop(ctx, w.pollTimeout, w.lists...).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}

	// res is [list, value]
	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		log.Error().Err(err).Str("list", res[0]).Msg("queue: dropping malformed job")
		return nil
	}

	handler, ok := w.handlers[job.Key]
	if !ok {
		log.Error().Str("job_key", job.Key).Str("job_id", job.ID).Msg("queue: no handler for job")
		return nil
	}

	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	started := time.Now()
	if err := handler.Handle(jobCtx, job.Payload); err != nil {
		log.Error().Err(err).Str("job_key", job.Key).Str("job_id", job.ID).Msg("queue: job failed")
		return nil
	}

	log.Info().
		Str("job_key", job.Key).
		Str("job_id", job.ID).
		Dur("duration", time.Since(started)).
		Msg("queue: job done")
	return nil
}
