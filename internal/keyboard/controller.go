// Package keyboard is the firmware core: it scans the switch matrix
// on a fixed cadence, debounces raw samples into confirmed
// transitions and queues them for the bus responder.
package keyboard

import (
	"sync/atomic"
	"time"

	"github.com/juju/errors"
	"github.com/keymx/keymx/internal/queue"
	"github.com/keymx/keymx/iokit"
	"github.com/keymx/keymx/log2"
	"github.com/temoto/alive/v2"
	"github.com/temoto/atomic_clock"
)

const DefaultScanPeriod = 2 * time.Millisecond

type Options struct {
	Rows           []uint32
	Cols           []uint32
	Keymap         *Keymap
	DebounceWindow time.Duration
	ScanPeriod     time.Duration
	Settle         time.Duration
}

type Stat struct {
	Scans       uint32
	Transitions uint32
	ScanErrors  uint32
}

type Controller struct {
	Log      *log2.Log
	LastScan *atomic_clock.Clock

	clock      iokit.Clock
	q          queue.Queue
	scanner    *Scanner
	deb        *Debouncer
	keymap     *Keymap
	cols       int
	scanPeriod time.Duration
	alive      *alive.Alive
	stat       Stat
}

func New(io iokit.Digital, clock iokit.Clock, q queue.Queue, opt Options, log *log2.Log) (*Controller, error) {
	if len(opt.Rows) == 0 || len(opt.Cols) == 0 {
		return nil, errors.NotValidf("keyboard matrix %dx%d", len(opt.Rows), len(opt.Cols))
	}
	km := opt.Keymap
	if km == nil {
		km = NewKeymap(len(opt.Rows), len(opt.Cols))
	}
	if err := km.Validate(); err != nil {
		return nil, errors.Annotate(err, "keyboard keymap")
	}
	period := opt.ScanPeriod
	if period <= 0 {
		period = DefaultScanPeriod
	}
	c := &Controller{
		Log:        log,
		LastScan:   atomic_clock.New(),
		clock:      clock,
		q:          q,
		scanner:    NewScanner(io, opt.Rows, opt.Cols, opt.Settle),
		deb:        NewDebouncer(len(opt.Rows)*len(opt.Cols), opt.DebounceWindow),
		keymap:     km,
		cols:       len(opt.Cols),
		scanPeriod: period,
		alive:      alive.NewAlive(),
	}
	return c, nil
}

// ScanOnce runs one scan-debounce-enqueue pass plus staleness upkeep.
func (c *Controller) ScanOnce() error {
	now := c.clock.Now()
	err := c.scanner.ScanOnce(func(row, col int, rawPressed bool) {
		changed, pressed := c.deb.Observe(row*c.cols+col, rawPressed, now)
		if !changed {
			return
		}
		code := c.keymap.At(row, col)
		c.q.Push(queue.Event{Code: code, Pressed: pressed, At: now})
		atomic.AddUint32(&c.stat.Transitions, 1)
		state := "released"
		if pressed {
			state = "pressed"
		}
		c.Log.Debugf("key %d %s (buffered: %d)", code, state, c.q.Len())
	})
	if err != nil {
		atomic.AddUint32(&c.stat.ScanErrors, 1)
		return err
	}
	c.q.EvictStale(c.clock.Now())
	c.LastScan.SetNow()
	atomic.AddUint32(&c.stat.Scans, 1)
	return nil
}

// Start runs the scan loop until Stop. Scan errors are logged and the
// loop keeps going, a flaky GPIO read must not halt scanning.
func (c *Controller) Start() {
	c.alive.Add(1)
	go c.scanLoop()
}

func (c *Controller) Stop() {
	c.alive.Stop()
	c.alive.Wait()
}

func (c *Controller) Stat() Stat {
	return Stat{
		Scans:       atomic.LoadUint32(&c.stat.Scans),
		Transitions: atomic.LoadUint32(&c.stat.Transitions),
		ScanErrors:  atomic.LoadUint32(&c.stat.ScanErrors),
	}
}

func (c *Controller) scanLoop() {
	defer c.alive.Done()
	stopch := c.alive.StopChan()

	for c.alive.IsRunning() {
		if err := c.ScanOnce(); err != nil {
			c.Log.Error(errors.Annotate(err, "keyboard scan"))
		}
		select {
		case <-stopch:
			return
		case <-time.After(c.scanPeriod):
		}
	}
}
