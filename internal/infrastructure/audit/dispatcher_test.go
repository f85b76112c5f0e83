package audit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/aurora-ai/aurora-api/internal/core/domain"
)

type recordingStore struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (s *recordingStore) Store(_ context.Context, event domain.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingStore) Recent(context.Context, int64) ([]domain.AuditEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AuditEvent, len(s.events))
	copy(out, s.events)
	return out, nil
}

func waitForEvents(t *testing.T, store *recordingStore, want int) []domain.AuditEvent {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		events, _ := store.Recent(context.Background(), int64(want))
		if len(events) >= want {
			return events
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d audit events", want)
	return nil
}

func TestDispatcher_PersistsRecordedEvents(t *testing.T) {
	store := &recordingStore{}
	d := NewDispatcher(2, store, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Record(domain.AuditEvent{UserID: "u1", Action: domain.AuditActionLogin, At: time.Now()})
	d.Record(domain.AuditEvent{UserID: "u2", Action: domain.AuditActionRefresh, At: time.Now()})

	events := waitForEvents(t, store, 2)
	actions := map[string]bool{}
	for _, e := range events {
		actions[e.Action] = true
	}
	if !actions[domain.AuditActionLogin] || !actions[domain.AuditActionRefresh] {
		t.Fatalf("expected both actions persisted, got %v", actions)
	}
}

func TestDispatcher_PreservesPerUserOrder(t *testing.T) {
	store := &recordingStore{}
	d := NewDispatcher(4, store, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	const n = 20
	for i := 0; i < n; i++ {
		d.Record(domain.AuditEvent{
			UserID: "same-user",
			Action: domain.AuditActionAuth,
			At:     time.Unix(int64(i), 0),
		})
	}

	events := waitForEvents(t, store, n)
	for i := 1; i < len(events); i++ {
		if events[i].At.Before(events[i-1].At) {
			t.Fatalf("events for one user persisted out of order at index %d", i)
		}
	}
}

func TestDispatcher_SameUserSameWorker(t *testing.T) {
	d := NewDispatcher(8, &recordingStore{}, zerolog.Nop())
	first := d.shardIndex("user-abc")
	for i := 0; i < 10; i++ {
		if got := d.shardIndex("user-abc"); got != first {
			t.Fatalf("shard index not deterministic: %d vs %d", got, first)
		}
	}
}

func TestDispatcher_StopsOnContextCancel(t *testing.T) {
	store := &recordingStore{}
	d := NewDispatcher(1, store, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		d.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("workers did not stop after context cancellation")
	}
}
