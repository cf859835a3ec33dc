package bus

import (
	"sync/atomic"

	"github.com/keymx/keymx/internal/queue"
	"github.com/keymx/keymx/log2"
	"github.com/temoto/atomic_clock"
)

type ResponderStat struct {
	Polls      uint32
	EventsSent uint32
}

// Responder answers master polls by draining the queue into a wire
// frame. Work per call is bounded by queue capacity, an empty queue
// yields the empty frame [tag, 0]. It never blocks waiting for events
// and never reports failure to the transport.
//
// The transport invokes OnRequest from a single goroutine, the scratch
// buffers rely on that.
type Responder struct {
	q        queue.Queue
	log      *log2.Log
	stat     ResponderStat
	LastPoll *atomic_clock.Clock
	scratch  []queue.Event
	frame    []byte
}

func NewResponder(q queue.Queue, log *log2.Log) *Responder {
	return &Responder{
		q:        q,
		log:      log,
		LastPoll: atomic_clock.New(),
		scratch:  make([]queue.Event, 0, q.Cap()),
		frame:    make([]byte, 0, FrameLen(q.Cap())),
	}
}

// OnRequest builds the poll response. The returned slice is valid
// until the next call.
func (r *Responder) OnRequest() []byte {
	r.LastPoll.SetNow()
	atomic.AddUint32(&r.stat.Polls, 1)

	r.scratch = r.q.Drain(r.scratch[:0])
	r.frame = AppendFrame(r.frame[:0], r.scratch)
	if n := len(r.scratch); n > 0 {
		atomic.AddUint32(&r.stat.EventsSent, uint32(n))
		r.log.Debugf("poll sending %d key changes, %d remaining", n, r.q.Len())
	}
	return r.frame
}

func (r *Responder) Stat() ResponderStat {
	return ResponderStat{
		Polls:      atomic.LoadUint32(&r.stat.Polls),
		EventsSent: atomic.LoadUint32(&r.stat.EventsSent),
	}
}
