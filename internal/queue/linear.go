package queue

import (
	"sync"

	"github.com/keymx/keymx/iokit"
	"github.com/keymx/keymx/log2"
)

// Linear is a fixed buffer fully emptied on every poll. A push into a
// full buffer drops the new event, it relies on the master polling
// before overflow.
type Linear struct {
	mu    sync.Mutex
	buf   []Event
	count int
	stat  Stat
	log   *log2.Log
}

var _ Queue = new(Linear)

func NewLinear(capacity int, log *log2.Log) *Linear {
	return &Linear{
		buf: make([]Event, capacity),
		log: log,
	}
}

func (l *Linear) Push(e Event) {
	l.mu.Lock()
	full := l.count == len(l.buf)
	if !full {
		l.buf[l.count] = e
		l.count++
		l.stat.Push++
	} else {
		l.stat.Overflow++
	}
	l.mu.Unlock()
	if full {
		l.log.Debugf("queue full, dropping %s", e.String())
	}
}

func (l *Linear) Pop() (Event, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.count == 0 {
		return Event{}, false
	}
	e := l.buf[0]
	copy(l.buf, l.buf[1:l.count])
	l.count--
	l.stat.Delivered++
	return e, true
}

// Drain atomically returns every buffered event and resets the count.
func (l *Linear) Drain(to []Event) []Event {
	l.mu.Lock()
	to = append(to, l.buf[:l.count]...)
	l.stat.Delivered += uint32(l.count)
	l.count = 0
	l.mu.Unlock()
	return to
}

func (l *Linear) EvictStale(iokit.Millis) int { return 0 }

func (l *Linear) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

func (l *Linear) Cap() int { return len(l.buf) }

func (l *Linear) Stat() Stat {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stat
}
