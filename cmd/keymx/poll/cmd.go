// Bench tool: poll a scanner over the bus and print key events.
// Without bus hardware in config it runs the whole firmware in
// process and lets you press keys from the prompt.
package poll

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/c-bata/go-prompt"
	"github.com/juju/errors"
	"github.com/keymx/keymx/cmd/keymx/subcmd"
	"github.com/keymx/keymx/hardware/bus"
	"github.com/keymx/keymx/hardware/input"
	"github.com/keymx/keymx/helpers/cli"
	"github.com/keymx/keymx/internal/state"
	"github.com/keymx/keymx/internal/types"
)

const (
	modName = "poll"
	tapHold = 60 * time.Millisecond
)

var Mod = subcmd.Mod{Name: modName, Main: Main}

type bench struct {
	g      *state.Global
	client *bus.Client
	sim    *simulator
}

func Main(ctx context.Context, args ...[]string) error {
	g := state.GetGlobal(ctx)
	b := &bench{g: g}

	master, err := b.openMaster(ctx)
	if err != nil {
		return errors.Annotate(err, "bus master open")
	}
	defer master.Close()

	b.client = bus.NewClient(master, g.Config.Bus.PollPeriod(), g.Log)
	b.client.Start()
	defer b.client.Close()

	stop := g.Alive.StopChan()
	d := input.NewDispatch(g.Log, stop)
	d.SubscribeFunc(modName, func(e types.InputEvent) {
		edge := "press"
		if e.Up {
			edge = "release"
		}
		g.Log.Infof("key %d %s source=%s", e.Key, edge, e.Source)
	}, stop)

	sources := []input.Source{input.NewMatrixKeyboard(b.client)}
	if len(args) > 0 && len(args[0]) > 1 && args[0][1] == "kbd" {
		kbd, err := input.NewDevInputEventSource("")
		if err != nil {
			return errors.Annotate(err, "dev-input source")
		}
		sources = append(sources, kbd)
	}
	go d.Run(sources)

	g.Log.Debugf("poll init complete period=%v", g.Config.Bus.PollPeriod())
	cli.MainLoop(modName, b.newExecutor(), b.newCompleter())
	return nil
}

// openMaster picks the transport from config: i2c device node first,
// then unix socket, then the in-process simulator.
func (b *bench) openMaster(ctx context.Context) (bus.Master, error) {
	cfg := b.g.Config.Bus
	if cfg.Device != "" {
		m := bus.NewI2CMaster(b.g.Log, uint8(cfg.Address))
		return m, m.Open(cfg.Device)
	}
	if cfg.Socket != "" {
		m := bus.NewSocketMaster(b.g.Log)
		return m, m.Open(cfg.Socket)
	}
	sim, err := newSimulator(ctx, b.g)
	if err != nil {
		return nil, err
	}
	b.sim = sim
	return sim.lb, nil
}

func (b *bench) newCompleter() func(d prompt.Document) []prompt.Suggest {
	suggests := []prompt.Suggest{
		{Text: "stat", Description: "print poll and scan counters"},
		{Text: "press", Description: "press row col (simulator only)"},
		{Text: "release", Description: "release row col (simulator only)"},
		{Text: "tap", Description: "press and release row col (simulator only)"},
		{Text: "exit", Description: ""},
	}
	return func(d prompt.Document) []prompt.Suggest {
		return prompt.FilterHasPrefix(suggests, d.GetWordBeforeCursor(), true)
	}
}

func (b *bench) newExecutor() func(string) {
	g := b.g
	return func(line string) {
		words := strings.Fields(line)
		if len(words) == 0 {
			return
		}
		switch words[0] {
		case "stat":
			cs := b.client.Stat()
			fmt.Printf("client polls=%d events=%d errors=%d\n", cs.Polls, cs.Events, cs.Errors)
			if b.sim != nil {
				ks := g.Hardware.Keyboard.Stat()
				qs := g.Hardware.Queue.Stat()
				fmt.Printf("scan scans=%d transitions=%d errors=%d\n", ks.Scans, ks.Transitions, ks.ScanErrors)
				fmt.Printf("queue push=%d delivered=%d overflow=%d stale=%d\n", qs.Push, qs.Delivered, qs.Overflow, qs.Stale)
			}
		case "press", "release", "tap":
			if b.sim == nil {
				g.Log.Errorf("%s works only with the in-process simulator", words[0])
				return
			}
			row, col, err := parseRowCol(words)
			if err != nil {
				g.Log.Errorf("%v", err)
				return
			}
			switch words[0] {
			case "press":
				b.sim.setKey(row, col, true)
			case "release":
				b.sim.setKey(row, col, false)
			case "tap":
				b.sim.setKey(row, col, true)
				time.Sleep(tapHold)
				b.sim.setKey(row, col, false)
			}
		case "exit", "quit":
			g.Stop()
			os.Exit(0)
		default:
			g.Log.Errorf("unknown command %q, try: stat press release tap exit", words[0])
		}
	}
}

func parseRowCol(words []string) (int, int, error) {
	if len(words) != 3 {
		return 0, 0, errors.NotValidf("usage: %s <row> <col>", words[0])
	}
	row, err := strconv.Atoi(words[1])
	if err != nil {
		return 0, 0, errors.NotValidf("row=%s", words[1])
	}
	col, err := strconv.Atoi(words[2])
	if err != nil {
		return 0, 0, errors.NotValidf("col=%s", words[2])
	}
	return row, col, nil
}
