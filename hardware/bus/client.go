package bus

import (
	"sync/atomic"
	"time"

	"github.com/juju/errors"
	"github.com/keymx/keymx/log2"
	"github.com/temoto/alive/v2"
	"github.com/temoto/atomic_clock"
)

const DefaultPollPeriod = 10 * time.Millisecond

type ClientStat struct {
	Polls  uint32
	Events uint32
	Errors uint32
}

// Client runs the master side: polls the slave on a fixed period,
// decodes frames and publishes key events. Events is drained by the
// input dispatch, a slow consumer loses events rather than stalling
// the poll loop.
type Client struct {
	Log    *log2.Log
	Events chan KeyEvent
	LastOk *atomic_clock.Clock

	m      Master
	alive  *alive.Alive
	period time.Duration
	stat   ClientStat
	buf    []byte
}

func NewClient(m Master, period time.Duration, log *log2.Log) *Client {
	if period <= 0 {
		period = DefaultPollPeriod
	}
	return &Client{
		Log:    log,
		Events: make(chan KeyEvent, 16),
		LastOk: atomic_clock.New(),
		m:      m,
		alive:  alive.NewAlive(),
		period: period,
		buf:    make([]byte, FrameLen(255)),
	}
}

func (c *Client) Start() {
	c.alive.Add(1)
	go c.pollLoop()
}

func (c *Client) Close() error {
	c.alive.Stop()
	c.alive.Wait()
	close(c.Events)
	return c.m.Close()
}

func (c *Client) Stat() ClientStat {
	return ClientStat{
		Polls:  atomic.LoadUint32(&c.stat.Polls),
		Events: atomic.LoadUint32(&c.stat.Events),
		Errors: atomic.LoadUint32(&c.stat.Errors),
	}
}

func (c *Client) pollLoop() {
	defer c.alive.Done()
	stopch := c.alive.StopChan()

	for c.alive.IsRunning() {
		select {
		case <-stopch:
			return
		case <-time.After(c.period):
		}
		c.pollOnce()
	}
}

func (c *Client) pollOnce() {
	atomic.AddUint32(&c.stat.Polls, 1)
	n, err := c.m.Poll(c.buf)
	if err != nil {
		atomic.AddUint32(&c.stat.Errors, 1)
		c.Log.Error(errors.Annotate(err, "bus-client poll"))
		return
	}
	events, err := ParseFrame(c.buf[:n])
	if err != nil {
		atomic.AddUint32(&c.stat.Errors, 1)
		c.Log.Error(errors.Annotatef(err, "bus-client frame=%x", c.buf[:n]))
		return
	}
	c.LastOk.SetNow()
	for _, ke := range events {
		atomic.AddUint32(&c.stat.Events, 1)
		select {
		case c.Events <- ke:
		default:
			c.Log.Debugf("bus-client consumer busy, dropping %s", ke.String())
		}
	}
}
