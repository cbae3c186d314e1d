package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeExecutor struct {
	mu       sync.Mutex
	owned    map[string]bool
	pending  map[string]bool
	executed []string
	// gates holds per-id channels an Execute call blocks on, letting a test
	// act while a turn is mid-flight.
	gates map[string]chan struct{}
}

func (f *fakeExecutor) Owns(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.owned[id]
}

func (f *fakeExecutor) Pending(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending[id]
}

func (f *fakeExecutor) Execute(ctx context.Context, id string) {
	f.mu.Lock()
	f.executed = append(f.executed, id)
	delete(f.pending, id)
	gate := f.gates[id]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
}

func (f *fakeExecutor) executedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.executed))
	copy(out, f.executed)
	return out
}

func newTestRunner(q *Queue, exec TurnExecutor) (*Runner, *[]time.Duration) {
	r := NewRunner(q, exec, 8*time.Second, 15*time.Second, zerolog.Nop())
	waits := &[]time.Duration{}
	var mu sync.Mutex
	r.sleep = func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		*waits = append(*waits, d)
		mu.Unlock()
		return nil
	}
	return r, waits
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
	t.Fatalf("condition not reached in time")
}

func TestRunnerExecutesOwnedPendingHead(t *testing.T) {
	q := New()
	exec := &fakeExecutor{owned: map[string]bool{"A": true}, pending: map[string]bool{"A": true}}
	r, _ := newTestRunner(q, exec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	q.Join("A")
	r.Notify()

	waitFor(t, func() bool { return q.Len() == 0 })
	if got := exec.executedIDs(); len(got) != 1 || got[0] != "A" {
		t.Fatalf("executed = %v, want [A]", got)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() = %v, want context.Canceled", err)
	}
}

func TestHeadLeavingMidTurnKeepsNextWaiter(t *testing.T) {
	q := New()
	release := make(chan struct{})
	exec := &fakeExecutor{
		owned:   map[string]bool{"A": true, "B": true},
		pending: map[string]bool{"A": true, "B": true},
		gates:   map[string]chan struct{}{"A": release},
	}
	r, _ := newTestRunner(q, exec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = r.Run(ctx) }()

	q.Join("A")
	q.Join("B")
	r.Notify()

	// A's turn is running, blocked inside the executor.
	waitFor(t, func() bool { return len(exec.executedIDs()) == 1 })
	// A gives up its place while its own turn executes, shifting B to the
	// head. The runner must not pop B in A's stead.
	q.Leave("A")
	close(release)

	waitFor(t, func() bool { return q.Len() == 0 })
	if got := exec.executedIDs(); len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Fatalf("executed = %v, want [A B]", got)
	}
}

func TestRunnerSimulatesForeignTurnThenExecutesLocal(t *testing.T) {
	q := New()
	exec := &fakeExecutor{owned: map[string]bool{"B": true}, pending: map[string]bool{"B": true}}
	r, waits := newTestRunner(q, exec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = r.Run(ctx) }()

	q.Join("A") // foreign
	q.Join("B") // local
	r.Notify()

	waitFor(t, func() bool { return q.Len() == 0 })
	if got := exec.executedIDs(); len(got) != 1 || got[0] != "B" {
		t.Fatalf("executed = %v, want [B]", got)
	}
	if len(*waits) != 1 {
		t.Fatalf("simulated waits = %d, want 1", len(*waits))
	}
	if w := (*waits)[0]; w < 8*time.Second || w > 15*time.Second {
		t.Fatalf("simulated wait %v outside [8s, 15s]", w)
	}
}

func TestRunnerSkipsOwnedHeadWithoutPayload(t *testing.T) {
	q := New()
	exec := &fakeExecutor{owned: map[string]bool{"A": true}, pending: map[string]bool{}}
	r, waits := newTestRunner(q, exec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = r.Run(ctx) }()

	q.Join("A")
	r.Notify()

	waitFor(t, func() bool { return q.Len() == 0 })
	if got := exec.executedIDs(); len(got) != 0 {
		t.Fatalf("executed = %v, want none", got)
	}
	if len(*waits) != 0 {
		t.Fatalf("simulated waits = %d, want 0", len(*waits))
	}
}

func TestSimulatedWaitBounds(t *testing.T) {
	r := NewRunner(New(), &fakeExecutor{}, 8*time.Second, 15*time.Second, zerolog.Nop())
	for i := 0; i < 100; i++ {
		w := r.simulatedWait()
		if w < 8*time.Second || w >= 15*time.Second {
			t.Fatalf("simulatedWait() = %v outside [8s, 15s)", w)
		}
	}
}

func TestSimulatedWaitEqualBounds(t *testing.T) {
	r := NewRunner(New(), &fakeExecutor{}, 10*time.Second, 10*time.Second, zerolog.Nop())
	if w := r.simulatedWait(); w != 10*time.Second {
		t.Fatalf("simulatedWait() = %v, want 10s", w)
	}
}
