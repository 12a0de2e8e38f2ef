package handler

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"time"

	"github.com/airenas/dubly/internal/pkg/utils"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/vgarvardt/gue/v5"
)

// Opts configures job handling
type Opts[TM any] struct {
	backoff    gue.Backoff
	timeout    time.Duration
	maxRetries int32
	giveUp     func(context.Context, *TM, error) error
}

// Create helper func to wrap gue worker main func.
// A failed job is rescheduled with backoff until maxRetries is reached
// or the error is non retryable, then the give up handler is invoked.
func Create[TM any, SD any](data *SD, hf func(context.Context, *TM, *SD) error, opts *Opts[TM]) gue.WorkFunc {
	if opts == nil {
		goapp.Log.Panic().Msg("no opts provided")
	}
	return func(ctx context.Context, j *gue.Job) error {
		goapp.Log.Info().Str("queue", j.Queue).Str("type", j.Type).Int32("errCount", j.ErrorCount).Msg("got msg")

		var m TM
		if err := json.Unmarshal(j.Args, &m); err != nil {
			goapp.Log.Error().Err(err).Str("queue", j.Queue).Str("type", j.Type).Msg("could not unmarshal message, drop")
			return nil
		}
		wrkCtx, cf := context.WithTimeout(ctx, opts.timeout)
		defer cf()
		err := hf(wrkCtx, &m, data)
		if err == nil {
			return nil
		}
		goapp.Log.Warn().Err(err).Str("queue", j.Queue).Str("type", j.Type).Msg("fail")

		var nrErr *utils.ErrNonRetryable
		if !errors.As(err, &nrErr) && j.ErrorCount+1 < opts.maxRetries {
			delay := opts.backoff(int(j.ErrorCount + 1))
			goapp.Log.Info().Str("queue", j.Queue).Str("type", j.Type).Dur("after", delay).Msg("retry after")
			return gue.ErrRescheduleJobIn(delay, err.Error())
		}
		if opts.giveUp == nil {
			goapp.Log.Error().Err(err).Str("queue", j.Queue).Str("type", j.Type).Msg("give up")
			return nil
		}
		if errGU := opts.giveUp(ctx, &m, err); errGU != nil {
			goapp.Log.Error().Err(errGU).Str("queue", j.Queue).Str("type", j.Type).Int32("errCount", j.ErrorCount).Msg("give up handler failed")
			if j.ErrorCount > opts.maxRetries+3 {
				return nil
			}
			return gue.ErrRescheduleJobIn(opts.backoff(1), errGU.Error())
		}
		return nil
	}
}

// DefaultOpts returns 15 min timeout, 5 attempts, exponential backoff
func DefaultOpts[TM any]() *Opts[TM] {
	return &Opts[TM]{timeout: time.Minute * 15, maxRetries: 5, backoff: ExponentialBackoff(time.Second*2, time.Minute*5)}
}

// ExponentialBackoff doubles the delay on each retry starting from initial, capped by max
func ExponentialBackoff(initial, max time.Duration) gue.Backoff {
	return func(retries int) time.Duration {
		d := initial
		for i := 1; i < retries && d < max; i++ {
			d *= 2
		}
		if d > max {
			d = max
		}
		return d/2 + fullJitter(d/2)
	}
}

// NoBackoff retries immediately
func NoBackoff() gue.Backoff {
	return func(retries int) time.Duration {
		return 0
	}
}

// DefaultBackoffOrTest returns NoBackoff in test mode
func DefaultBackoffOrTest(test bool) gue.Backoff {
	if test {
		return NoBackoff()
	}
	return ExponentialBackoff(time.Second*2, time.Minute*5)
}

// WithGiveUp sets the handler invoked when retries are exhausted
func (o *Opts[TM]) WithGiveUp(giveUp func(context.Context, *TM, error) error) *Opts[TM] {
	o.giveUp = giveUp
	return o
}

// WithTimeout sets a timeout for one attempt
func (o *Opts[TM]) WithTimeout(timeout time.Duration) *Opts[TM] {
	o.timeout = timeout
	return o
}

// WithBackoff sets the delay policy
func (o *Opts[TM]) WithBackoff(b gue.Backoff) *Opts[TM] {
	o.backoff = b
	return o
}

// WithMaxRetries sets the number of attempts
func (o *Opts[TM]) WithMaxRetries(n int) *Opts[TM] {
	if n < 1 {
		n = 1
	}
	o.maxRetries = int32(n)
	return o
}

// fullJitter return randomized duration in interval [0, t)
// as suggested by https://aws.amazon.com/blogs/architecture/exponential-backoff-and-jitter/
func fullJitter(t time.Duration) time.Duration {
	// `rand` here is used just for backoff jitter,
	return time.Duration(float64(t) * rand.Float64())
}
