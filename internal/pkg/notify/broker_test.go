package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/airenas/dubly/internal/pkg/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroker_Publish(t *testing.T) {
	b := NewBroker(5)
	s1, s2, other := b.Subscribe("1"), b.Subscribe("1"), b.Subscribe("2")
	defer s1.Close()
	defer s2.Close()
	defer other.Close()

	b.Publish(&Snapshot{ID: "1", Status: status.Diarizing, Progress: 10})

	for _, s := range []*Subscription{s1, s2} {
		got := <-s.C()
		assert.Equal(t, status.Diarizing, got.Status)
		assert.Equal(t, 10.0, got.Progress)
	}
	assert.Equal(t, 0, len(other.C()))
}

func TestBroker_NoDedup(t *testing.T) {
	b := NewBroker(5)
	s := b.Subscribe("1")
	defer s.Close()
	sn := &Snapshot{ID: "1", Status: status.Diarizing, Progress: 10}

	require.Nil(t, b.Notify(context.Background(), sn))
	require.Nil(t, b.Notify(context.Background(), sn))

	assert.Equal(t, 2, len(s.C()))
}

func TestBroker_DropsOldest(t *testing.T) {
	b := NewBroker(2).WithWait(time.Millisecond)
	s := b.Subscribe("1")
	defer s.Close()

	for i := 1; i <= 3; i++ {
		b.Publish(&Snapshot{ID: "1", Status: status.Dubbing, Progress: float64(i)})
	}

	assert.Equal(t, 2.0, (<-s.C()).Progress)
	assert.Equal(t, 3.0, (<-s.C()).Progress)
}

func TestBroker_WaitsForSlowSubscriber(t *testing.T) {
	b := NewBroker(1).WithWait(5 * time.Second)
	s := b.Subscribe("1")
	defer s.Close()

	gotCh := make(chan []float64, 1)
	go func() {
		var res []float64
		for len(res) < 5 {
			time.Sleep(5 * time.Millisecond)
			res = append(res, (<-s.C()).Progress)
		}
		gotCh <- res
	}()
	for i := 1; i <= 5; i++ {
		b.Publish(&Snapshot{ID: "1", Status: status.Dubbing, Progress: float64(i)})
	}
	select {
	case got := <-gotCh:
		assert.Equal(t, []float64{1, 2, 3, 4, 5}, got)
	case <-time.After(5 * time.Second):
		require.Fail(t, "not delivered")
	}
}

func TestNewBroker_Defaults(t *testing.T) {
	b := NewBroker(0)
	assert.Equal(t, defaultBuffer, b.buffer)
	assert.Equal(t, defaultWait, b.wait)
	assert.Equal(t, defaultWait, b.WithWait(0).wait)
	assert.Equal(t, time.Second, b.WithWait(time.Second).wait)
}

func TestBroker_Close(t *testing.T) {
	b := NewBroker(2)
	s := b.Subscribe("1")
	assert.Equal(t, 1, b.Subscribers("1"))

	s.Close()
	s.Close()

	_, ok := <-s.C()
	assert.False(t, ok)
	assert.Equal(t, 0, b.Subscribers("1"))
	b.Publish(&Snapshot{ID: "1"})
}

func TestBroker_Concurrent(t *testing.T) {
	b := NewBroker(1)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s := b.Subscribe("1")
			time.Sleep(time.Millisecond)
			s.Close()
		}()
		go func(i int) {
			defer wg.Done()
			b.Publish(&Snapshot{ID: "1", Progress: float64(i)})
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 0, b.Subscribers("1"))
}

func TestSnapshot_Same(t *testing.T) {
	now := time.Now()
	a := &Snapshot{ID: "1", Status: status.Mixing, Progress: 1, UpdatedAt: now}
	assert.True(t, a.Same(&Snapshot{ID: "1", Status: status.Mixing, Progress: 1, UpdatedAt: now}))
	assert.False(t, a.Same(&Snapshot{ID: "1", Status: status.Mixing, Progress: 2, UpdatedAt: now}))
	assert.False(t, a.Same(nil))
	assert.True(t, (*Snapshot)(nil).Same(nil))
}

func TestSnapshot_Older(t *testing.T) {
	now := time.Now()
	a := &Snapshot{ID: "1", Status: status.Mixing, UpdatedAt: now}
	assert.True(t, a.Older(&Snapshot{ID: "1", UpdatedAt: now.Add(time.Second)}))
	assert.False(t, a.Older(&Snapshot{ID: "1", UpdatedAt: now}))
	assert.False(t, a.Older(&Snapshot{ID: "1", UpdatedAt: now.Add(-time.Second)}))
	assert.False(t, a.Older(nil))
	assert.False(t, (*Snapshot)(nil).Older(a))
}
