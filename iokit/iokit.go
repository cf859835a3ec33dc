// Package iokit abstracts the digital IO and millisecond clock
// consumed by the keyboard controller.
package iokit

import "time"

// Millis is a monotonic millisecond timestamp. Arithmetic wraps,
// ages must be computed with Age(), not direct comparison.
type Millis uint32

// Age returns now-since with uint32 wraparound.
func Age(since, now Millis) time.Duration {
	return time.Duration(uint32(now-since)) * time.Millisecond
}

type Clock interface {
	Now() Millis
}

// HostClock counts milliseconds since construction using the Go
// runtime monotonic clock.
type HostClock struct {
	origin time.Time
}

func NewHostClock() *HostClock { return &HostClock{origin: time.Now()} }

func (hc *HostClock) Now() Millis {
	return Millis(time.Since(hc.origin) / time.Millisecond)
}

// Digital is a bank of GPIO lines, output writes buffered until Flush.
// Inputs are sampled as one snapshot, values in the order the input
// lines were configured.
type Digital interface {
	Set(line uint32, value byte)
	Flush() error
	ReadInputs(buf []byte) error
	Close() error
}
