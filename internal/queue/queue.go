// Package queue serializes the shared generation slot among anonymous
// visitors. The queue is per-process, in-memory state: it is an admission
// simulation, not a distributed fairness guarantee.
package queue

import "sync"

// Queue is a FIFO of visitor ids. An id appears at most once.
type Queue struct {
	mu  sync.Mutex
	ids []string
}

func New() *Queue {
	return &Queue{}
}

// Join appends id to the tail. No-op if id is already queued.
func (q *Queue) Join(id string) {
	if id == "" {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, queued := range q.ids {
		if queued == id {
			return
		}
	}
	q.ids = append(q.ids, id)
}

// Leave removes id wherever positioned. No-op if absent.
func (q *Queue) Leave(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, queued := range q.ids {
		if queued == id {
			q.ids = append(q.ids[:i], q.ids[i+1:]...)
			return
		}
	}
}

// AdvanceIf removes the head entry only when it still equals id, reporting
// whether the pop happened. A false return means the line shifted underneath
// the caller, e.g. the head left mid-turn, and the new head must keep its
// place.
func (q *Queue) AdvanceIf(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.ids) == 0 || q.ids[0] != id {
		return false
	}
	q.ids = q.ids[1:]
	return true
}

// Head returns the current head entry without removing it.
func (q *Queue) Head() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.ids) == 0 {
		return "", false
	}
	return q.ids[0], true
}

// PositionOf returns the 1-based position of id for display, or 0 if absent.
func (q *Queue) PositionOf(id string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, queued := range q.ids {
		if queued == id {
			return i + 1
		}
	}
	return 0
}

// Len returns the number of queued ids.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ids)
}

// Snapshot returns a copy of the queued ids in order.
func (q *Queue) Snapshot() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, len(q.ids))
	copy(out, q.ids)
	return out
}
