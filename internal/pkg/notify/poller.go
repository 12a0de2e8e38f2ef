package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/airenas/dubly/internal/pkg/persistence"
	"github.com/airenas/go-app/pkg/goapp"
)

// Fetcher returns the latest snapshot of a project
type Fetcher interface {
	Snapshot(ctx context.Context, id string) (*Snapshot, error)
}

// Poller is the polling fallback, single use: it fetches a snapshot on a fixed interval
// until the project is terminal, the context is cancelled or Stop is called
type Poller struct {
	fetcher  Fetcher
	interval time.Duration

	lock    sync.Mutex
	cancelF context.CancelFunc
	done    chan struct{}
}

// NewPoller creates poller
func NewPoller(fetcher Fetcher, interval time.Duration) (*Poller, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("no fetcher")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("wrong interval %v", interval)
	}
	return &Poller{fetcher: fetcher, interval: interval}, nil
}

// Start begins polling the project, the returned channel is closed when polling ends.
// Fetch errors are logged and polling continues, except for an unknown project.
func (p *Poller) Start(ctx context.Context, id string) (<-chan Snapshot, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.cancelF != nil {
		return nil, fmt.Errorf("poller already started")
	}
	ctx, cf := context.WithCancel(ctx)
	p.cancelF = cf
	p.done = make(chan struct{})
	res := make(chan Snapshot, 1)
	go func() {
		defer close(p.done)
		defer close(res)
		defer cf()
		p.run(ctx, id, res)
	}()
	return res, nil
}

// Stop cancels polling and waits for the polling routine to finish
func (p *Poller) Stop() {
	p.lock.Lock()
	cf, done := p.cancelF, p.done
	p.lock.Unlock()
	if cf == nil {
		return
	}
	cf()
	<-done
}

func (p *Poller) run(ctx context.Context, id string, res chan<- Snapshot) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		s, err := p.fetcher.Snapshot(ctx, id)
		if err != nil {
			if errors.Is(err, persistence.ErrNotFound) {
				goapp.Log.Warn().Str("ID", id).Msg("project not found, stop polling")
				return
			}
			if ctx.Err() != nil {
				return
			}
			goapp.Log.Warn().Err(err).Str("ID", id).Msg("can't fetch snapshot")
		} else {
			select {
			case res <- *s:
			case <-ctx.Done():
				return
			}
			if s.IsTerminal() {
				goapp.Log.Debug().Str("ID", id).Str("status", s.Status.String()).Msg("terminal status, stop polling")
				return
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
