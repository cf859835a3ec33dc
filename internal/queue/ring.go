package queue

import (
	"sync"
	"time"

	"github.com/keymx/keymx/iokit"
	"github.com/keymx/keymx/log2"
)

// Ring is a fixed circular buffer. Push always succeeds: when full,
// the oldest unread event is discarded and the tail advances before
// the new event is written. Delivery order stays FIFO.
type Ring struct {
	mu       sync.Mutex
	buf      []Event
	head     int // next write
	tail     int // next read
	count    int
	staleAge iokit.Millis
	stat     Stat
	log      *log2.Log
}

var _ Queue = new(Ring)

func NewRing(capacity int, staleAge time.Duration, log *log2.Log) *Ring {
	return &Ring{
		buf:      make([]Event, capacity),
		staleAge: iokit.Millis(staleAge / time.Millisecond),
		log:      log,
	}
}

func (r *Ring) Push(e Event) {
	r.mu.Lock()
	r.buf[r.head] = e
	r.head = (r.head + 1) % len(r.buf)
	overwrite := r.count == len(r.buf)
	if overwrite {
		r.tail = (r.tail + 1) % len(r.buf)
		r.stat.Overflow++
	} else {
		r.count++
	}
	r.stat.Push++
	r.mu.Unlock()
	if overwrite {
		r.log.Debugf("queue full, overwriting oldest change")
	}
}

func (r *Ring) Pop() (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.count == 0 {
		return Event{}, false
	}
	e := r.buf[r.tail]
	r.tail = (r.tail + 1) % len(r.buf)
	r.count--
	r.stat.Delivered++
	return e, true
}

// Drain pops at most the count present on entry. Events pushed while
// draining wait for the next poll.
func (r *Ring) Drain(to []Event) []Event {
	n := r.Len()
	for i := 0; i < n; i++ {
		e, ok := r.Pop()
		if !ok {
			break
		}
		to = append(to, e)
	}
	return to
}

func (r *Ring) EvictStale(now iokit.Millis) int {
	r.mu.Lock()
	evicted := 0
	// time-ordered queue: stop at the first fresh event
	for r.count > 0 {
		if iokit.Age(r.buf[r.tail].At, now) <= time.Duration(r.staleAge)*time.Millisecond {
			break
		}
		r.tail = (r.tail + 1) % len(r.buf)
		r.count--
		r.stat.Stale++
		evicted++
	}
	r.mu.Unlock()
	if evicted > 0 {
		r.log.Debugf("queue evicted %d stale changes", evicted)
	}
	return evicted
}

func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

func (r *Ring) Cap() int { return len(r.buf) }

func (r *Ring) Stat() Stat {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stat
}
