package state

import (
	"context"
	"fmt"

	"github.com/juju/errors"
	"github.com/keymx/keymx/hardware/bus"
	"github.com/keymx/keymx/internal/keyboard"
	"github.com/keymx/keymx/internal/queue"
	"github.com/keymx/keymx/internal/tele"
	"github.com/keymx/keymx/iokit"
	"github.com/keymx/keymx/log2"
	"github.com/temoto/alive/v2"
)

type Global struct {
	Alive        *alive.Alive
	BuildVersion string
	Config       *Config
	Log          *log2.Log
	Tele         tele.Teler

	Hardware struct {
		IO        iokit.Digital
		Clock     iokit.Clock
		Queue     queue.Queue
		Keyboard  *keyboard.Controller
		Responder *bus.Responder
	}
}

const ContextKey = "run/state-global"

func NewContext(log *log2.Log, teler tele.Teler) (context.Context, *Global) {
	if log == nil {
		panic("code error state.NewContext log=nil")
	}
	g := &Global{
		Alive: alive.NewAlive(),
		Log:   log,
		Tele:  teler,
	}
	ctx := context.WithValue(context.Background(), ContextKey, g)
	return ctx, g
}

func GetGlobal(ctx context.Context) *Global {
	v := ctx.Value(ContextKey)
	if v == nil {
		panic(fmt.Sprintf("context['%s'] is nil", ContextKey))
	}
	if g, ok := v.(*Global); ok {
		return g
	}
	panic(fmt.Sprintf("context['%s'] expected type *Global actual=%#v", ContextKey, v))
}

// Init brings up telemetry and the firmware pipeline: IO, queue,
// controller, responder. Tests and the host simulator preset
// Hardware.IO/Clock, on a device they are opened from config.
func (g *Global) Init(ctx context.Context, cfg *Config) error {
	g.Config = cfg
	cfg.Normalize()

	// tele only ships diagnostics, an unreachable broker must not keep
	// the scanner down
	if err := g.Tele.Init(ctx, g.Log.Clone(log2.LInfo), *cfg.Tele); err != nil {
		g.Log.Errorf("tele disabled: %v", err)
		g.Tele = tele.Noop{}
	}
	g.Log.SetErrorFunc(g.Tele.Error)

	if g.Hardware.Clock == nil {
		g.Hardware.Clock = iokit.NewHostClock()
	}
	if g.Hardware.IO == nil {
		kb := cfg.Keyboard
		cdev, err := iokit.NewCdev(kb.GpioChip, "keymx", kb.RowLines(), kb.ColLines())
		if err != nil {
			return errors.Annotate(err, "gpio init")
		}
		g.Hardware.IO = cdev
	}

	q, err := queue.New(cfg.Queue.Policy, cfg.Queue.Capacity, cfg.Queue.StaleAge(), g.Log)
	if err != nil {
		return errors.Annotate(err, "queue init")
	}
	g.Hardware.Queue = q

	opt, err := cfg.Keyboard.ControllerOptions()
	if err != nil {
		return errors.Annotate(err, "keyboard config")
	}
	ctrl, err := keyboard.New(g.Hardware.IO, g.Hardware.Clock, q, opt, g.Log)
	if err != nil {
		return errors.Annotate(err, "keyboard init")
	}
	g.Hardware.Keyboard = ctrl
	g.Hardware.Responder = bus.NewResponder(q, g.Log)
	g.Log.Debugf("keymx init complete matrix=%dx%d queue=%s/%d",
		len(opt.Rows), len(opt.Cols), cfg.Queue.Policy, q.Cap())
	return nil
}

func (g *Global) MustInit(ctx context.Context, cfg *Config) {
	if err := g.Init(ctx, cfg); err != nil {
		g.Log.Fatal(errors.ErrorStack(err))
	}
}

func (g *Global) Stop() {
	if g.Hardware.Keyboard != nil {
		g.Hardware.Keyboard.Stop()
	}
	if g.Hardware.IO != nil {
		if err := g.Hardware.IO.Close(); err != nil {
			g.Log.Error(errors.Annotate(err, "gpio close"))
		}
	}
	g.Tele.Close()
	g.Alive.Stop()
}

// ReportStat pushes current pipeline counters into telemetry.
func (g *Global) ReportStat(ctx context.Context) error {
	if g.Hardware.Keyboard == nil {
		return nil
	}
	ks := g.Hardware.Keyboard.Stat()
	qs := g.Hardware.Queue.Stat()
	rs := g.Hardware.Responder.Stat()
	g.Tele.StatModify(func(s *tele.Stat) {
		s.KeyTransitions = ks.Transitions
		s.ScanErrors = ks.ScanErrors
		s.QueueOverflow = qs.Overflow
		s.QueueStale = qs.Stale
		s.Polls = rs.Polls
	})
	return g.Tele.Report(ctx)
}
