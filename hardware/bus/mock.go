// Public API to easy create bus stubs for test code.

package bus

import (
	"encoding/hex"
	"sync"
	"testing"
	"time"

	"github.com/juju/errors"
)

const MockTimeout = 5 * time.Second

// MockMaster replays scripted poll responses in order. When the
// script runs out it answers with the empty frame, like an idle slave.
type MockMaster struct {
	t  testing.TB
	mu sync.Mutex
	q  []string
}

var _ Master = new(MockMaster)

func NewMockMaster(t testing.TB) *MockMaster {
	return &MockMaster{t: t}
}

func (mm *MockMaster) Open(string) error { return nil }

func (mm *MockMaster) Close() error {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	if len(mm.q) > 0 {
		err := errors.Errorf("bus-mock: Close() with %d responses still scripted", len(mm.q))
		mm.t.Error(err)
		return err
	}
	return nil
}

// Expect appends hex-encoded poll responses.
func (mm *MockMaster) Expect(responses ...string) {
	mm.t.Helper()
	mm.mu.Lock()
	for _, r := range responses {
		if _, err := hex.DecodeString(r); err != nil {
			mm.t.Fatalf("bus-mock: invalid response hex=%s err=%v", r, err)
		}
		mm.q = append(mm.q, r)
	}
	mm.mu.Unlock()
}

func (mm *MockMaster) Pending() int {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	return len(mm.q)
}

func (mm *MockMaster) Poll(buf []byte) (int, error) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	if len(mm.q) == 0 {
		return copy(buf, []byte{DataTypeKeypress, 0}), nil
	}
	r := mm.q[0]
	mm.q = mm.q[1:]
	bs, err := hex.DecodeString(r)
	if err != nil {
		return 0, errors.Trace(err) // validated in Expect
	}
	return copy(buf, bs), nil
}
