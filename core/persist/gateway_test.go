package persist

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"MacanFM/model"
)

type countingStore struct {
	mu         sync.Mutex
	writes     int
	concurrent int32
	maxSeen    int32
	delay      time.Duration
	last       *model.PlaybackSnapshot
}

func (s *countingStore) SaveSnapshot(_ context.Context, snap *model.PlaybackSnapshot) error {
	n := atomic.AddInt32(&s.concurrent, 1)
	for {
		max := atomic.LoadInt32(&s.maxSeen)
		if n <= max || atomic.CompareAndSwapInt32(&s.maxSeen, max, n) {
			break
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	s.writes++
	s.last = snap
	s.mu.Unlock()
	atomic.AddInt32(&s.concurrent, -1)
	return nil
}

func (s *countingStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func snapshotSource() *model.PlaybackSnapshot {
	return &model.PlaybackSnapshot{CurrentIndex: 1, Volume: 70}
}

func TestDebounceCoalesces(t *testing.T) {
	store := &countingStore{}
	g := newGatewayWithWindows(store, snapshotSource, 50*time.Millisecond, 10*time.Millisecond)

	// a burst of changes inside the window produces exactly one write
	for i := 0; i < 20; i++ {
		g.Schedule()
		time.Sleep(time.Millisecond)
	}

	deadline := time.Now().Add(time.Second)
	for store.writeCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)

	if got := store.writeCount(); got != 1 {
		t.Errorf("writes = %d, want 1", got)
	}
}

func TestNoConcurrentWrites(t *testing.T) {
	store := &countingStore{delay: 60 * time.Millisecond}
	g := newGatewayWithWindows(store, snapshotSource, 5*time.Millisecond, 5*time.Millisecond)

	g.Schedule()
	time.Sleep(20 * time.Millisecond) // first write is now in flight
	g.Schedule()                      // lands while in flight, must retry not stack

	deadline := time.Now().Add(2 * time.Second)
	for store.writeCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if got := store.writeCount(); got < 2 {
		t.Fatalf("second write never happened, writes = %d", got)
	}
	if max := atomic.LoadInt32(&store.maxSeen); max > 1 {
		t.Errorf("observed %d concurrent writes, want at most 1", max)
	}
}

func TestFlushWritesImmediately(t *testing.T) {
	store := &countingStore{}
	g := newGatewayWithWindows(store, snapshotSource, time.Hour, time.Hour)

	g.Schedule() // would not fire for an hour
	g.Flush()

	if got := store.writeCount(); got != 1 {
		t.Errorf("writes after Flush = %d, want 1", got)
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.last == nil || store.last.Volume != 70 {
		t.Errorf("flushed snapshot = %+v", store.last)
	}
}

func TestNilSnapshotSkipsWrite(t *testing.T) {
	store := &countingStore{}
	g := newGatewayWithWindows(store, func() *model.PlaybackSnapshot { return nil }, time.Millisecond, time.Millisecond)

	g.Schedule()
	time.Sleep(50 * time.Millisecond)
	if got := store.writeCount(); got != 0 {
		t.Errorf("writes = %d, want 0 for nil snapshot", got)
	}
}
