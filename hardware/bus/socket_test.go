package bus

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/keymx/keymx/internal/queue"
	"github.com/keymx/keymx/log2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSocketSlaveSingleMaster(t *testing.T) {
	t.Parallel()
	log := log2.NewTest(t, log2.LDebug)
	q := queue.NewRing(4, queue.DefaultStaleAge, log)
	r := NewResponder(q, log)

	sock := filepath.Join(t.TempDir(), "bus.sock")
	slave := NewSocketSlave(log)
	require.NoError(t, slave.Open(sock))
	defer slave.Close()
	slave.OnRequest(r.OnRequest)

	m := NewSocketMaster(log)
	require.NoError(t, m.Open(sock))
	defer m.Close()

	q.Push(queue.Event{Code: 401, Pressed: true, At: 25})
	buf := make([]byte, FrameLen(4))
	n, err := m.Poll(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x01, 0x01, 0x91, 0x01}, buf[:n])

	n, err = m.Poll(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x00}, buf[:n])
}

// Several masters on one bench socket: every answer must still be one
// complete well-formed frame.
func TestSocketSlaveConcurrentMasters(t *testing.T) {
	t.Parallel()
	log := log2.NewTest(t, log2.LError)
	q := queue.NewRing(4, queue.DefaultStaleAge, log)
	r := NewResponder(q, log)

	sock := filepath.Join(t.TempDir(), "bus.sock")
	slave := NewSocketSlave(log)
	require.NoError(t, slave.Open(sock))
	defer slave.Close()
	slave.OnRequest(r.OnRequest)

	const masters = 3
	const polls = 200
	errch := make(chan error, masters*polls)
	var wg sync.WaitGroup
	for i := 0; i < masters; i++ {
		m := NewSocketMaster(log)
		require.NoError(t, m.Open(sock))
		wg.Add(1)
		go func(m *SocketMaster) {
			defer wg.Done()
			defer m.Close()
			buf := make([]byte, FrameLen(4))
			for j := 0; j < polls; j++ {
				q.Push(queue.Event{Code: 401, Pressed: j%2 == 0})
				n, err := m.Poll(buf)
				if err != nil {
					errch <- err
					return
				}
				if _, err = ParseFrame(buf[:n]); err != nil {
					errch <- err
					return
				}
			}
		}(m)
	}
	wg.Wait()
	close(errch)
	for err := range errch {
		require.NoError(t, err)
	}
}
