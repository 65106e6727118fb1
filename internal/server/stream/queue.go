package stream

import "github.com/OCharnyshevich/voxelsrv/pkg/world/gen"

// Entry is one pending chunk delivery.
type Entry struct {
	PlayerID string
	Pos      gen.ChunkPos
}

// Queue is the global delivery FIFO: a bounded channel plus the set of
// outstanding entries, so a (player, chunk) pair is queued at most once.
// It belongs to the scheduler goroutine and is not safe for concurrent use.
type Queue struct {
	ch      chan Entry
	pending map[Entry]struct{}
}

// NewQueue creates a queue holding at most capacity entries.
func NewQueue(capacity int) *Queue {
	return &Queue{
		ch:      make(chan Entry, capacity),
		pending: make(map[Entry]struct{}, capacity),
	}
}

// TryEnqueue adds e unless it is already outstanding or the queue is full.
// It never blocks.
func (q *Queue) TryEnqueue(e Entry) bool {
	if _, dup := q.pending[e]; dup {
		return false
	}
	select {
	case q.ch <- e:
		q.pending[e] = struct{}{}
		return true
	default:
		return false
	}
}

// Pop removes the oldest entry, if any. It never blocks.
func (q *Queue) Pop() (Entry, bool) {
	select {
	case e := <-q.ch:
		delete(q.pending, e)
		return e, true
	default:
		return Entry{}, false
	}
}

// Len returns the number of queued entries.
func (q *Queue) Len() int { return len(q.ch) }

// Outstanding reports whether e is queued.
func (q *Queue) Outstanding(e Entry) bool {
	_, ok := q.pending[e]
	return ok
}
