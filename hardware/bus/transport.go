package bus

import "sync"

// RequestFunc produces the response payload for one master poll. It
// must not block and must return a complete frame every time.
type RequestFunc func() []byte

// Slaver is the transport seen by the firmware: it registers the
// producer callback and invokes it whenever the external master
// issues a read.
type Slaver interface {
	Open(options string) error
	OnRequest(f RequestFunc)
	Close() error
}

// Master is the transport seen by the polling side.
type Master interface {
	Open(options string) error
	Poll(buf []byte) (int, error)
	Close() error
}

// Loopback couples a slave and a master in one process. Used by the
// host simulator and tests.
type Loopback struct {
	mu sync.Mutex
	f  RequestFunc
}

var (
	_ Slaver = new(Loopback)
	_ Master = new(Loopback)
)

func (lb *Loopback) Open(string) error { return nil }
func (lb *Loopback) Close() error      { return nil }

func (lb *Loopback) OnRequest(f RequestFunc) {
	lb.mu.Lock()
	lb.f = f
	lb.mu.Unlock()
}

func (lb *Loopback) Poll(buf []byte) (int, error) {
	lb.mu.Lock()
	f := lb.f
	lb.mu.Unlock()
	if f == nil {
		// unregistered slave answers nothing useful
		return 0, nil
	}
	return copy(buf, f()), nil
}
