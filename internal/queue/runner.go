package queue

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// TurnExecutor runs the head entry's unit of work when its turn arrives.
type TurnExecutor interface {
	// Owns reports whether a session for id is registered in this process.
	Owns(id string) bool
	// Pending reports whether id's session still holds its request payload.
	Pending(id string) bool
	// Execute runs id's queued generation to completion.
	Execute(ctx context.Context, id string)
}

// Runner drains the queue one entry at a time. A head entry owned by this
// process with a pending payload executes the real generation; a foreign head
// stands in for another visitor's turn and is simulated with a randomized
// wait; an owned head without a payload (payload lost, e.g. session reset
// mid-queue) is skipped immediately so the line never stalls.
type Runner struct {
	queue  *Queue
	exec   TurnExecutor
	logger zerolog.Logger

	minWait time.Duration
	maxWait time.Duration

	busy atomic.Bool
	wake chan struct{}

	mu  sync.Mutex
	rng *rand.Rand

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRunner constructs a Runner with the given simulated-wait bounds.
func NewRunner(q *Queue, exec TurnExecutor, minWait, maxWait time.Duration, logger zerolog.Logger) *Runner {
	if minWait <= 0 {
		minWait = 8 * time.Second
	}
	if maxWait < minWait {
		maxWait = minWait
	}
	return &Runner{
		queue:   q,
		exec:    exec,
		logger:  logger,
		minWait: minWait,
		maxWait: maxWait,
		wake:    make(chan struct{}, 1),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:   sleepCtx,
	}
}

// Notify kicks the runner after a Join so the new entry is picked up.
func (r *Runner) Notify() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Busy reports whether a turn (real or simulated) is currently processing.
func (r *Runner) Busy() bool {
	return r.busy.Load()
}

// TryAcquire claims the generation slot for an immediate turn, bypassing the
// queue. It fails when a turn is already processing.
func (r *Runner) TryAcquire() bool {
	return r.busy.CompareAndSwap(false, true)
}

// Release frees the slot after an immediate turn and re-kicks the drain so
// queued entries are not left waiting.
func (r *Runner) Release() {
	r.busy.Store(false)
	r.Notify()
}

// Run drains the queue until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.wake:
		}
		if err := r.drain(ctx); err != nil {
			return err
		}
	}
}

func (r *Runner) drain(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		head, ok := r.queue.Head()
		if !ok {
			return nil
		}
		// An immediate turn holds the slot; Release will wake us again.
		if !r.busy.CompareAndSwap(false, true) {
			return nil
		}
		r.processHead(ctx, head)
		// Pop only the entry we processed. If the head left the line while
		// its turn ran, a plain advance would drop the next waiter instead.
		r.queue.AdvanceIf(head)
		r.busy.Store(false)
	}
}

func (r *Runner) processHead(ctx context.Context, head string) {
	switch {
	case r.exec.Pending(head):
		r.logger.Debug().Str("visitor_id", head).Msg("queue: executing turn")
		r.exec.Execute(ctx, head)
	case r.exec.Owns(head):
		// Failsafe: the payload vanished while waiting.
		r.logger.Warn().Str("visitor_id", head).Msg("queue: payload missing, skipping turn")
	default:
		wait := r.simulatedWait()
		r.logger.Debug().Str("visitor_id", head).Dur("wait", wait).Msg("queue: simulating foreign turn")
		if err := r.sleep(ctx, wait); err != nil {
			return
		}
	}
}

func (r *Runner) simulatedWait() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	span := r.maxWait - r.minWait
	if span <= 0 {
		return r.minWait
	}
	return r.minWait + time.Duration(r.rng.Int63n(int64(span)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
