package keyboard

import (
	"sync"
	"testing"
	"time"

	"github.com/keymx/keymx/internal/queue"
	"github.com/keymx/keymx/iokit"
	"github.com/keymx/keymx/log2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testRows = []uint32{0, 1, 2, 3}
	testCols = []uint32{4, 5, 6, 7, 8, 9, 10, 11, 12, 13}
)

// simMatrix emulates the electrical matrix on iokit.Mem: a column
// samples low only while its row is strobed low and the switch at the
// crossing is closed.
type simMatrix struct {
	mem     *iokit.Mem
	mu      sync.Mutex
	pressed map[[2]int]bool
}

func newSimMatrix() *simMatrix {
	sm := &simMatrix{
		mem:     iokit.NewMem(testCols),
		pressed: make(map[[2]int]bool),
	}
	sm.mem.InputFunc = func(line uint32, outputs map[uint32]byte) byte {
		col := -1
		for ci, cl := range testCols {
			if cl == line {
				col = ci
				break
			}
		}
		sm.mu.Lock()
		defer sm.mu.Unlock()
		for ri, rl := range testRows {
			if outputs[rl] == 0 && sm.pressed[[2]int{ri, col}] {
				return 0
			}
		}
		return 1
	}
	return sm
}

func (sm *simMatrix) set(row, col int, down bool) {
	sm.mu.Lock()
	sm.pressed[[2]int{row, col}] = down
	sm.mu.Unlock()
}

func newTestController(t testing.TB, q queue.Queue, clock iokit.Clock) (*Controller, *simMatrix) {
	sm := newSimMatrix()
	c, err := New(sm.mem, clock, q, Options{
		Rows:   testRows,
		Cols:   testCols,
		Settle: time.Microsecond,
	}, log2.NewTest(t, log2.LDebug))
	require.NoError(t, err)
	return c, sm
}

func TestKeymapStockNumbering(t *testing.T) {
	t.Parallel()
	km := NewKeymap(4, 10)
	assert.Equal(t, uint16(401), km.At(0, 0))
	assert.Equal(t, uint16(410), km.At(0, 9))
	assert.Equal(t, uint16(301), km.At(1, 0))
	assert.Equal(t, uint16(101), km.At(3, 0))
	assert.Equal(t, uint16(110), km.At(3, 9))
	require.NoError(t, km.Validate())
}

func TestKeymapOverride(t *testing.T) {
	t.Parallel()
	km := NewKeymap(4, 10)
	require.NoError(t, km.SetCode(0, 0, 999))
	assert.Equal(t, uint16(999), km.At(0, 0))
	require.Error(t, km.SetCode(4, 0, 1))

	// duplicate codes must not pass validation
	require.NoError(t, km.SetCode(0, 1, 999))
	require.Error(t, km.Validate())
}

func TestDebounceSinglePress(t *testing.T) {
	t.Parallel()
	d := NewDebouncer(1, DefaultDebounceWindow)

	// released and stable: no transitions
	for now := iokit.Millis(0); now < 30; now += 2 {
		changed, _ := d.Observe(0, false, now)
		assert.False(t, changed)
	}
	// raw press outside the window confirms on first sight
	changed, pressed := d.Observe(0, true, 30)
	require.True(t, changed)
	assert.True(t, pressed)
	// stable pressed: exactly one transition total
	for now := iokit.Millis(32); now < 60; now += 2 {
		changed, _ = d.Observe(0, true, now)
		assert.False(t, changed)
	}
}

func TestDebounceOscillationWithinWindow(t *testing.T) {
	t.Parallel()
	d := NewDebouncer(1, DefaultDebounceWindow)

	changed, _ := d.Observe(0, true, 25)
	require.True(t, changed)

	// contact bounce entirely inside the open window: zero transitions
	raw := false
	for now := iokit.Millis(26); now <= 44; now += 2 {
		changed, _ = d.Observe(0, raw, now)
		assert.False(t, changed, "now=%d", now)
		raw = !raw
	}
	assert.True(t, d.Pressed(0))
}

func TestDebounceLeakyWindowMissesTransition(t *testing.T) {
	t.Parallel()
	d := NewDebouncer(1, DefaultDebounceWindow)

	changed, _ := d.Observe(0, true, 25)
	require.True(t, changed)

	// release inside the window is ignored, not buffered
	changed, _ = d.Observe(0, false, 30)
	assert.False(t, changed)
	// level swings back before the window expires: release was never seen
	changed, _ = d.Observe(0, true, 50)
	assert.False(t, changed)
	assert.True(t, d.Pressed(0))
}

func TestDebounceReleaseAfterWindow(t *testing.T) {
	t.Parallel()
	d := NewDebouncer(1, DefaultDebounceWindow)

	changed, _ := d.Observe(0, true, 25)
	require.True(t, changed)
	changed, pressed := d.Observe(0, false, 46)
	require.True(t, changed)
	assert.False(t, pressed)
}

func TestControllerSinglePressScenario(t *testing.T) {
	t.Parallel()
	clock := new(iokit.StubClock)
	q := queue.NewRing(4, queue.DefaultStaleAge, log2.NewTest(t, log2.LDebug))
	c, sm := newTestController(t, q, clock)

	// key released for the first 24ms
	for ms := 0; ms < 24; ms += 2 {
		clock.Set(iokit.Millis(ms))
		require.NoError(t, c.ScanOnce())
	}
	require.Equal(t, 0, q.Len())

	// key at row 0 col 0 goes down and stays down
	sm.set(0, 0, true)
	clock.Set(25)
	require.NoError(t, c.ScanOnce())
	clock.Set(27)
	require.NoError(t, c.ScanOnce())

	require.Equal(t, 1, q.Len(), "exactly one transition queued")
	e, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, queue.Event{Code: 401, Pressed: true, At: 25}, e)
}

func TestControllerScanParksRowsHigh(t *testing.T) {
	t.Parallel()
	clock := new(iokit.StubClock)
	q := queue.NewRing(4, queue.DefaultStaleAge, log2.NewTest(t, log2.LDebug))
	c, sm := newTestController(t, q, clock)

	clock.Set(25)
	require.NoError(t, c.ScanOnce())
	for _, line := range testRows {
		assert.Equal(t, byte(1), sm.mem.Output(line), "row line=%d", line)
	}
}

func TestControllerStartStop(t *testing.T) {
	t.Parallel()
	q := queue.NewRing(4, queue.DefaultStaleAge, log2.NewTest(t, log2.LError))
	c, sm := newTestController(t, q, iokit.NewHostClock())

	c.Start()
	sm.set(2, 7, true)
	time.Sleep(50 * time.Millisecond)
	c.Stop()

	require.Equal(t, 1, q.Len())
	e, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, uint16(208), e.Code)
	assert.True(t, e.Pressed)
	assert.NotZero(t, c.Stat().Scans)
}
