package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/collabhub/timesheet-api/internal/core/domain"
)

type recordingProcessor struct {
	mu     sync.Mutex
	events []domain.ResourceEvent
	err    error
}

func (p *recordingProcessor) Process(_ context.Context, ev domain.ResourceEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingProcessor) snapshot() []domain.ResourceEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.ResourceEvent(nil), p.events...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestDispatcher_PreservesPerOwnerOrder(t *testing.T) {
	proc := &recordingProcessor{}
	d := NewDispatcher(4, proc, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	owner := uuid.New()
	ids := make([]uuid.UUID, 50)
	for i := range ids {
		ids[i] = uuid.New()
		d.Notify(domain.ResourceEvent{Type: domain.TimesheetCreated, OwnerID: owner, ResourceID: ids[i]})
	}

	waitFor(t, func() bool { return len(proc.snapshot()) == len(ids) })
	cancel()
	d.Wait()

	for i, ev := range proc.snapshot() {
		if ev.ResourceID != ids[i] {
			t.Fatalf("event %d out of order", i)
		}
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(0, &recordingProcessor{}, zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, len(d.workers))
	}
	owner := uuid.New()
	first := d.shardIndex(owner)
	for i := 0; i < 10; i++ {
		if got := d.shardIndex(owner); got != first || got < 0 || got >= defaultWorkers {
			t.Fatalf("unstable shard index %d (first %d)", got, first)
		}
	}
}

func TestDispatcher_ProcessingErrorDoesNotStopWorker(t *testing.T) {
	proc := &recordingProcessor{err: errors.New("stream down")}
	d := NewDispatcher(1, proc, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer func() { cancel(); d.Wait() }()
	d.Start(ctx)

	owner := uuid.New()
	d.Notify(domain.ResourceEvent{Type: domain.ProjectCreated, OwnerID: owner})
	d.Notify(domain.ResourceEvent{Type: domain.ProjectDeleted, OwnerID: owner})

	waitFor(t, func() bool { return len(proc.snapshot()) == 2 })
}

func TestDispatcher_NotifyDropsWhenFull(t *testing.T) {
	proc := &recordingProcessor{}
	d := NewDispatcher(1, proc, zerolog.Nop())

	// Workers are not started, so the channel fills up.
	owner := uuid.New()
	done := make(chan struct{})
	go func() {
		for i := 0; i < channelBuffer+10; i++ {
			d.Notify(domain.ResourceEvent{Type: domain.TaskCreated, OwnerID: owner})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked on a full queue")
	}
	if got := len(d.workers[0]); got != channelBuffer {
		t.Fatalf("expected %d queued events, got %d", channelBuffer, got)
	}
}
