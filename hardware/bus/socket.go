package bus

import (
	"io"
	"net"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/keymx/keymx/log2"
	"github.com/temoto/alive/v2"
)

// Unix socket transport for bench setups without bus hardware.
// Protocol: master writes a single request byte, slave answers with
// one frame.

const socketPollTimeout = 5 * time.Second

type SocketSlave struct {
	Log   *log2.Log
	alive *alive.Alive
	ln    net.Listener
	mu    sync.Mutex
	f     RequestFunc
}

var _ Slaver = new(SocketSlave)

func NewSocketSlave(log *log2.Log) *SocketSlave {
	return &SocketSlave{
		Log:   log,
		alive: alive.NewAlive(),
	}
}

func (ss *SocketSlave) Open(options string) error {
	ln, err := net.Listen("unix", options)
	if err != nil {
		return errors.Annotatef(err, "socket-slave listen=%s", options)
	}
	ss.ln = ln
	ss.alive.Add(1)
	go ss.acceptLoop()
	return nil
}

func (ss *SocketSlave) OnRequest(f RequestFunc) {
	ss.mu.Lock()
	ss.f = f
	ss.mu.Unlock()
}

func (ss *SocketSlave) Close() error {
	ss.alive.Stop()
	var err error
	if ss.ln != nil {
		err = ss.ln.Close()
	}
	ss.alive.Wait()
	return err
}

func (ss *SocketSlave) acceptLoop() {
	defer ss.alive.Done()
	for ss.alive.IsRunning() {
		conn, err := ss.ln.Accept()
		if err != nil {
			if ss.alive.IsRunning() {
				ss.Log.Error(errors.Annotate(err, "socket-slave accept"))
			}
			return
		}
		ss.alive.Add(1)
		go ss.serve(conn)
	}
}

func (ss *SocketSlave) serve(conn net.Conn) {
	defer ss.alive.Done()
	defer conn.Close()
	reqByte := make([]byte, 1)
	for ss.alive.IsRunning() {
		if _, err := io.ReadFull(conn, reqByte); err != nil {
			if err != io.EOF && ss.alive.IsRunning() {
				ss.Log.Debugf("socket-slave read err=%v", err)
			}
			return
		}
		// the responder reuses its frame buffer between calls, so with
		// several masters connected each call-and-write must finish
		// before the next one starts
		ss.mu.Lock()
		f := ss.f
		if f == nil {
			ss.mu.Unlock()
			ss.Log.Errorf("socket-slave poll before OnRequest registration")
			return
		}
		_, err := conn.Write(f())
		ss.mu.Unlock()
		if err != nil {
			ss.Log.Debugf("socket-slave write err=%v", err)
			return
		}
	}
}

type SocketMaster struct {
	Log  *log2.Log
	conn net.Conn
}

var _ Master = new(SocketMaster)

func NewSocketMaster(log *log2.Log) *SocketMaster {
	return &SocketMaster{Log: log}
}

func (sm *SocketMaster) Open(options string) error {
	conn, err := net.DialTimeout("unix", options, socketPollTimeout)
	if err != nil {
		return errors.Annotatef(err, "socket-master dial=%s", options)
	}
	sm.conn = conn
	return nil
}

func (sm *SocketMaster) Poll(buf []byte) (int, error) {
	if err := sm.conn.SetDeadline(time.Now().Add(socketPollTimeout)); err != nil {
		return 0, errors.Trace(err)
	}
	if _, err := sm.conn.Write([]byte{DataTypeKeypress}); err != nil {
		return 0, errors.Annotate(err, "socket-master request")
	}
	if _, err := io.ReadFull(sm.conn, buf[:frameHeaderSize]); err != nil {
		return 0, errors.Annotate(err, "socket-master header")
	}
	n := FrameLen(int(buf[1]))
	if n > len(buf) {
		return frameHeaderSize, errors.Annotatef(ErrFrameShort, "socket-master buf=%d need=%d", len(buf), n)
	}
	if _, err := io.ReadFull(sm.conn, buf[frameHeaderSize:n]); err != nil {
		return frameHeaderSize, errors.Annotate(err, "socket-master body")
	}
	return n, nil
}

func (sm *SocketMaster) Close() error {
	if sm.conn == nil {
		return nil
	}
	return sm.conn.Close()
}
