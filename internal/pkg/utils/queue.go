package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/vgarvardt/gue/v5"
)

const maxSimpleHandlerErrors = 2

// CreateHandler helper func to wrap gue worker main func, retries failed job a few times
func CreateHandler[TM any, SD any](data *SD, hf func(context.Context, *TM, *SD) error) gue.WorkFunc {
	return func(ctx context.Context, j *gue.Job) error {
		var m TM
		if err := json.Unmarshal(j.Args, &m); err != nil {
			goapp.Log.Error().Err(err).Str("queue", j.Queue).Msg("drop msg")
			return nil
		}
		goapp.Log.Debug().Str("queue", j.Queue).Str("type", j.Type).Int32("errCount", j.ErrorCount).Msg("got msg")
		if j.ErrorCount > maxSimpleHandlerErrors {
			goapp.Log.Error().Int32("time", j.ErrorCount).Str("lastError", j.LastError.String).Msg("msg failed, will not retry")
			return nil
		}
		if err := hf(ctx, &m, data); err != nil {
			return fmt.Errorf("handle %s: %w", j.Type, err)
		}
		return nil
	}
}

// PoolOptions configure a gue worker pool listening on a single queue,
// the job type must equal the queue name
type PoolOptions struct {
	Queue        string
	ID           string
	Workers      int
	PollInterval time.Duration
}

// StartPool runs the pool until ctx is cancelled, the returned channel gets a value when all workers are finished
func StartPool(ctx context.Context, gc *gue.Client, wf gue.WorkFunc, o PoolOptions) (chan struct{}, error) {
	if o.PollInterval <= 0 {
		o.PollInterval = 500 * time.Millisecond
	}
	pool, err := gue.NewWorkerPool(
		gc, gue.WorkMap{o.Queue: wf}, o.Workers,
		gue.WithPoolQueue(o.Queue),
		gue.WithPoolLogger(NewGueLoggerAdapter(o.ID)),
		gue.WithPoolPollInterval(o.PollInterval),
		gue.WithPoolPollStrategy(gue.RunAtPollStrategy),
		gue.WithPoolID(o.ID),
	)
	if err != nil {
		return nil, fmt.Errorf("could not build gue workers pool: %w", err)
	}
	res := make(chan struct{}, 1)
	go func() {
		goapp.Log.Info().Str("pool", o.ID).Int("workers", o.Workers).Msg("Starting workers")
		if err := pool.Run(ctx); err != nil {
			goapp.Log.Error().Err(err).Str("pool", o.ID).Msg("pool error")
		}
		goapp.Log.Info().Str("pool", o.ID).Msg("Pool workers finished")
		res <- struct{}{}
	}()
	return res, nil
}
