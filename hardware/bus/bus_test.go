package bus

import (
	"testing"
	"time"

	"github.com/keymx/keymx/internal/queue"
	"github.com/keymx/keymx/log2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	t.Parallel()
	pushed := []queue.Event{
		{Code: 401, Pressed: true, At: 10},
		{Code: 110, Pressed: false, At: 11},
		{Code: 305, Pressed: true, At: 12},
	}
	frame := AppendFrame(nil, pushed)
	require.Len(t, frame, FrameLen(3))

	decoded, err := ParseFrame(frame)
	require.NoError(t, err)
	require.Len(t, decoded, 3)
	for i, ke := range decoded {
		assert.Equal(t, pushed[i].Code, ke.Code)
		assert.Equal(t, pushed[i].Pressed, ke.Pressed)
	}
}

func TestParseFrameErrors(t *testing.T) {
	t.Parallel()

	_, err := ParseFrame([]byte{0x02})
	assert.Error(t, err)

	_, err = ParseFrame([]byte{0x07, 0x00})
	assert.Error(t, err)

	// declared two events, carries one
	_, err = ParseFrame([]byte{0x02, 0x02, 0x01, 0x91, 0x01})
	assert.Error(t, err)

	// trailing garbage after declared count is tolerated
	events, err := ParseFrame([]byte{0x02, 0x01, 0x01, 0x91, 0x01, 0xee, 0xee})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, KeyEvent{Code: 401, Pressed: true}, events[0])
}

func TestResponderSinglePress(t *testing.T) {
	t.Parallel()
	q := queue.NewRing(4, queue.DefaultStaleAge, log2.NewTest(t, log2.LDebug))
	r := NewResponder(q, log2.NewTest(t, log2.LDebug))

	q.Push(queue.Event{Code: 401, Pressed: true, At: 42})
	assert.Equal(t, []byte{0x02, 0x01, 0x01, 0x91, 0x01}, r.OnRequest())
}

func TestResponderEmptyPoll(t *testing.T) {
	t.Parallel()
	q := queue.NewRing(4, queue.DefaultStaleAge, log2.NewTest(t, log2.LDebug))
	r := NewResponder(q, log2.NewTest(t, log2.LDebug))

	assert.Equal(t, []byte{0x02, 0x00}, r.OnRequest())
	st := r.Stat()
	assert.Equal(t, uint32(1), st.Polls)
	assert.Equal(t, uint32(0), st.EventsSent)
}

func TestResponderOverflowScenario(t *testing.T) {
	t.Parallel()
	q := queue.NewRing(4, queue.DefaultStaleAge, log2.NewTest(t, log2.LDebug))
	r := NewResponder(q, log2.NewTest(t, log2.LDebug))

	codes := []uint16{401, 402, 403, 404, 405}
	for _, code := range codes {
		q.Push(queue.Event{Code: code, Pressed: true})
	}
	// transition 1 discarded, poll delivers 2..5 in order
	events, err := ParseFrame(r.OnRequest())
	require.NoError(t, err)
	require.Len(t, events, 4)
	for i, ke := range events {
		assert.Equal(t, codes[i+1], ke.Code)
	}

	// delivered exactly once
	assert.Equal(t, []byte{0x02, 0x00}, r.OnRequest())
}

func TestResponderLinearDrain(t *testing.T) {
	t.Parallel()
	q := queue.NewLinear(8, log2.NewTest(t, log2.LDebug))
	r := NewResponder(q, log2.NewTest(t, log2.LDebug))

	q.Push(queue.Event{Code: 208, Pressed: true})
	q.Push(queue.Event{Code: 208, Pressed: false})
	assert.Equal(t, []byte{0x02, 0x02, 0x00, 0xd0, 0x01, 0x00, 0xd0, 0x00}, r.OnRequest())
	assert.Equal(t, 0, q.Len())
}

func TestLoopback(t *testing.T) {
	t.Parallel()
	q := queue.NewRing(4, queue.DefaultStaleAge, log2.NewTest(t, log2.LDebug))
	r := NewResponder(q, log2.NewTest(t, log2.LDebug))

	lb := new(Loopback)
	require.NoError(t, lb.Open(""))
	lb.OnRequest(r.OnRequest)

	q.Push(queue.Event{Code: 401, Pressed: true})
	buf := make([]byte, FrameLen(4))
	n, err := lb.Poll(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x01, 0x01, 0x91, 0x01}, buf[:n])
}

func TestClientPoll(t *testing.T) {
	t.Parallel()
	mock := NewMockMaster(t)
	mock.Expect(
		"0200",
		"0201019101",       // key 401 pressed
		"0202019100012c01", // 401 released, 300 pressed
	)

	c := NewClient(mock, time.Millisecond, log2.NewTest(t, log2.LDebug))
	c.Start()

	expect := []KeyEvent{
		{Code: 401, Pressed: true},
		{Code: 401, Pressed: false},
		{Code: 300, Pressed: true},
	}
	for i, want := range expect {
		select {
		case ke := <-c.Events:
			assert.Equal(t, want, ke, "event i=%d", i)
		case <-time.After(MockTimeout):
			t.Fatalf("timeout waiting for event i=%d", i)
		}
	}
	assert.Equal(t, 0, mock.Pending())
	require.NoError(t, c.Close())
	st := c.Stat()
	assert.Equal(t, uint32(3), st.Events)
	assert.Equal(t, uint32(0), st.Errors)
}
