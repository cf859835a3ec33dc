// Package queue holds confirmed key change events pending delivery to
// the bus master.
//
// Two policies exist, mirroring the two controller generations in the
// field: Ring overwrites the oldest unread event when full and evicts
// events that outlive a staleness age, Linear drops new events when
// full and is emptied wholesale on every poll.
package queue

import (
	"fmt"
	"time"

	"github.com/juju/errors"
	"github.com/keymx/keymx/iokit"
	"github.com/keymx/keymx/log2"
)

const (
	PolicyRing   = "ring"
	PolicyLinear = "linear"

	DefaultRingCapacity   = 4
	DefaultLinearCapacity = 8
	DefaultStaleAge       = 100 * time.Millisecond
)

// Event is a confirmed key transition, immutable once created.
type Event struct {
	Code    uint16
	Pressed bool
	At      iokit.Millis
}

func (e Event) String() string {
	state := "released"
	if e.Pressed {
		state = "pressed"
	}
	return fmt.Sprintf("key=%d %s at=%d", e.Code, state, e.At)
}

type Stat struct {
	Push      uint32
	Delivered uint32
	Overflow  uint32
	Stale     uint32
}

// Queue is shared between the scan loop (producer) and the poll
// callback (consumer). Implementations keep each critical section to
// the index/count arithmetic only, so a poll landing mid-scan never
// observes an inconsistent head/tail/count triple.
type Queue interface {
	// Push never fails, the policy decides what overflow discards.
	Push(e Event)
	Pop() (Event, bool)
	// Drain moves queued events into to, oldest first.
	Drain(to []Event) []Event
	// EvictStale removes undelivered events older than the policy age,
	// returns how many were dropped. No-op for Linear.
	EvictStale(now iokit.Millis) int
	Len() int
	Cap() int
	Stat() Stat
}

func New(policy string, capacity int, staleAge time.Duration, log *log2.Log) (Queue, error) {
	// wire frame counts events in one byte
	if capacity > 255 {
		return nil, errors.NotValidf("queue capacity=%d", capacity)
	}
	switch policy {
	case PolicyRing, "":
		if capacity <= 0 {
			capacity = DefaultRingCapacity
		}
		if staleAge <= 0 {
			staleAge = DefaultStaleAge
		}
		return NewRing(capacity, staleAge, log), nil
	case PolicyLinear:
		if capacity <= 0 {
			capacity = DefaultLinearCapacity
		}
		return NewLinear(capacity, log), nil
	}
	return nil, errors.NotValidf("queue policy=%s", policy)
}
