package event

import (
	"context"
	"sync"

	"github.com/lixenwraith/tickpipe/parameter"
)

// Queue is a mutex-guarded FIFO of pipeline events
// Thread-Safety:
//   - Push: any number of producers
//   - TryPop / Drain: never block beyond the internal lock
//   - WaitPop: blocks until an event arrives or ctx is done
//
// Ordering is strict FIFO across all operations
type Queue struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items []Event
	head  int
}

// NewQueue creates an empty queue
func NewQueue() *Queue {
	q := &Queue{
		items: make([]Event, 0, parameter.EventQueueInitialCap),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends ev to the tail and wakes one waiter
func (q *Queue) Push(ev Event) {
	q.mu.Lock()
	q.items = append(q.items, ev)
	q.mu.Unlock()
	q.cond.Signal()
}

// TryPop removes and returns the head, false when empty
func (q *Queue) TryPop() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.lenLocked() == 0 {
		return nil, false
	}
	return q.popLocked(), true
}

// WaitPop removes and returns the head, blocking until one is available
// Returns ctx.Err() if ctx is done first
func (q *Queue) WaitPop(ctx context.Context) (Event, error) {
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	for q.lenLocked() == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q.cond.Wait()
	}
	return q.popLocked(), nil
}

// Drain pops every queued event in FIFO order and appends them to dst
// Events pushed after the lock is taken are left for the next call
func (q *Queue) Drain(dst []Event) []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.lenLocked() > 0 {
		dst = append(dst, q.popLocked())
	}
	return dst
}

// Len returns the pending event count
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lenLocked()
}

func (q *Queue) lenLocked() int {
	return len(q.items) - q.head
}

// popLocked removes the head, compacting the backing slice once drained
func (q *Queue) popLocked() Event {
	ev := q.items[q.head]
	q.items[q.head] = nil
	q.head++
	switch {
	case q.head == len(q.items):
		q.items = q.items[:0]
		q.head = 0
	case q.head >= parameter.EventQueueInitialCap && q.head*2 >= len(q.items):
		// Slide live tail down so a consumer that never fully drains cannot grow the slice forever
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	return ev
}
