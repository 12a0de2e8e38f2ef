package notify

import (
	"context"
	"sync"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
)

// Broker is an in-process publish/subscribe registry keyed by project ID
type Broker struct {
	lock   sync.Mutex
	subs   map[string]map[*Subscription]struct{}
	buffer int
	wait   time.Duration
}

const (
	defaultBuffer = 50
	defaultWait   = 100 * time.Millisecond
)

// Subscription receives snapshots of one project until closed
type Subscription struct {
	id     string
	ch     chan Snapshot
	broker *Broker
	closed bool
}

// NewBroker creates broker, buffer is a per subscriber queue size
func NewBroker(buffer int) *Broker {
	if buffer < 1 {
		buffer = defaultBuffer
	}
	return &Broker{subs: map[string]map[*Subscription]struct{}{}, buffer: buffer, wait: defaultWait}
}

// WithWait sets how long one Publish may wait for slow subscribers
func (b *Broker) WithWait(d time.Duration) *Broker {
	if d > 0 {
		b.wait = d
	}
	return b
}

// Subscribe registers a new subscriber for the project
func (b *Broker) Subscribe(id string) *Subscription {
	res := &Subscription{id: id, ch: make(chan Snapshot, b.buffer), broker: b}
	b.lock.Lock()
	defer b.lock.Unlock()
	subs, ok := b.subs[id]
	if !ok {
		subs = map[*Subscription]struct{}{}
		b.subs[id] = subs
	}
	subs[res] = struct{}{}
	goapp.Log.Debug().Str("ID", id).Int("subs", len(subs)).Msg("subscribed")
	return res
}

// Publish delivers the snapshot to every subscriber of the project.
// A full subscriber queue is awaited up to the broker wait, then the oldest snapshot is dropped.
func (b *Broker) Publish(s *Snapshot) {
	b.lock.Lock()
	defer b.lock.Unlock()
	var deadline context.Context
	for sub := range b.subs[s.ID] {
		select {
		case sub.ch <- *s:
			continue
		default:
		}
		if deadline == nil {
			var cf context.CancelFunc
			deadline, cf = context.WithTimeout(context.Background(), b.wait)
			defer cf()
		}
		select {
		case sub.ch <- *s:
			continue
		case <-deadline.Done():
		}
		select {
		case <-sub.ch:
			goapp.Log.Warn().Str("ID", s.ID).Msg("slow subscriber, dropped oldest")
		default:
		}
		select {
		case sub.ch <- *s:
		default:
			goapp.Log.Warn().Str("ID", s.ID).Msg("can't deliver snapshot")
		}
	}
}

// Notify implements Notifier
func (b *Broker) Notify(_ context.Context, s *Snapshot) error {
	b.Publish(s)
	return nil
}

// Subscribers returns count of active subscriptions for the project
func (b *Broker) Subscribers(id string) int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return len(b.subs[id])
}

func (b *Broker) unsubscribe(s *Subscription) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if subs, ok := b.subs[s.id]; ok {
		delete(subs, s)
		if len(subs) == 0 {
			delete(b.subs, s.id)
		}
	}
	close(s.ch)
}

// ID returns the project ID
func (s *Subscription) ID() string {
	return s.id
}

// C returns the snapshot stream, it is closed after Close
func (s *Subscription) C() <-chan Snapshot {
	return s.ch
}

// Close unsubscribes, safe to call many times
func (s *Subscription) Close() {
	s.broker.unsubscribe(s)
}
