package keyboard

import (
	"time"

	"github.com/keymx/keymx/iokit"
)

const DefaultDebounceWindow = 20 * time.Millisecond

// keyState is mutated only by Observe during a scan pass.
type keyState struct {
	pressed    bool // confirmed
	lastRaw    bool
	lastChange iokit.Millis // previous confirmed change
}

// Debouncer rate-limits confirmed transitions to one per window per
// key, counting from the previous confirmed change. A raw flip inside
// an open window is ignored outright, not buffered: if the level
// swings back before the window expires the transition is lost. That
// leak is the intended filter, not restart-on-edge debouncing.
type Debouncer struct {
	window time.Duration
	states []keyState
}

func NewDebouncer(keys int, window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Debouncer{
		window: window,
		states: make([]keyState, keys),
	}
}

// Observe feeds one raw sample for key idx. changed=true reports a
// confirmed transition to pressed.
func (d *Debouncer) Observe(idx int, raw bool, now iokit.Millis) (changed, pressed bool) {
	ks := &d.states[idx]
	ks.lastRaw = raw
	if raw == ks.pressed {
		return false, ks.pressed
	}
	if iokit.Age(ks.lastChange, now) <= d.window {
		return false, ks.pressed
	}
	ks.pressed = raw
	ks.lastChange = now
	return true, raw
}

// Pressed returns the confirmed state of key idx.
func (d *Debouncer) Pressed(idx int) bool { return d.states[idx].pressed }
