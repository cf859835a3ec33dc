package iokit

import "sync"

// Mem is an in-memory Digital for tests and the host simulator.
// InputFunc computes the sampled level of an input line from the
// currently flushed output levels, default is all high (pull-up).
type Mem struct {
	mu        sync.Mutex
	pending   map[uint32]byte
	outputs   map[uint32]byte
	inLines   []uint32
	InputFunc func(line uint32, outputs map[uint32]byte) byte
}

var _ Digital = new(Mem)

func NewMem(inputs []uint32) *Mem {
	return &Mem{
		pending: make(map[uint32]byte),
		outputs: make(map[uint32]byte),
		inLines: inputs,
	}
}

func (m *Mem) Set(line uint32, value byte) {
	m.mu.Lock()
	m.pending[line] = value
	m.mu.Unlock()
}

func (m *Mem) Flush() error {
	m.mu.Lock()
	for line, v := range m.pending {
		m.outputs[line] = v
	}
	m.mu.Unlock()
	return nil
}

func (m *Mem) ReadInputs(buf []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, line := range m.inLines {
		if i >= len(buf) {
			break
		}
		if m.InputFunc != nil {
			buf[i] = m.InputFunc(line, m.outputs)
		} else {
			buf[i] = 1
		}
	}
	return nil
}

func (m *Mem) Close() error { return nil }

// Output returns the last flushed level of an output line, high if
// never written.
func (m *Mem) Output(line uint32) byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.outputs[line]; ok {
		return v
	}
	return 1
}

// StubClock is a hand-advanced Clock for tests.
type StubClock struct {
	mu sync.Mutex
	v  Millis
}

func (sc *StubClock) Now() Millis {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.v
}

func (sc *StubClock) Set(v Millis) {
	sc.mu.Lock()
	sc.v = v
	sc.mu.Unlock()
}

func (sc *StubClock) Advance(d Millis) {
	sc.mu.Lock()
	sc.v += d
	sc.mu.Unlock()
}
