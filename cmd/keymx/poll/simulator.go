package poll

import (
	"context"
	"sync"

	"github.com/juju/errors"
	"github.com/keymx/keymx/hardware/bus"
	"github.com/keymx/keymx/internal/state"
	"github.com/keymx/keymx/iokit"
)

// simulator runs the scanner against an in-memory matrix and exposes
// it through a loopback transport. Keys are pressed from the prompt.
type simulator struct {
	lb   *bus.Loopback
	rows []uint32
	cols []uint32

	mu      sync.Mutex
	pressed map[[2]int]bool
}

func newSimulator(ctx context.Context, g *state.Global) (*simulator, error) {
	kb := g.Config.Keyboard
	sim := &simulator{
		lb:      new(bus.Loopback),
		rows:    kb.RowLines(),
		cols:    kb.ColLines(),
		pressed: make(map[[2]int]bool),
	}

	mem := iokit.NewMem(sim.cols)
	mem.InputFunc = sim.sample
	g.Hardware.IO = mem
	g.MustInit(ctx, g.Config)
	g.Hardware.Keyboard.Start()

	if err := sim.lb.Open(""); err != nil {
		return nil, errors.Trace(err)
	}
	sim.lb.OnRequest(g.Hardware.Responder.OnRequest)
	return sim, nil
}

// sample gives the level of one column line given the flushed row
// levels: low when any strobed (low) row has a pressed key in this
// column, high otherwise.
func (sim *simulator) sample(line uint32, outputs map[uint32]byte) byte {
	col := -1
	for ci, cl := range sim.cols {
		if cl == line {
			col = ci
			break
		}
	}
	if col < 0 {
		return 1
	}
	sim.mu.Lock()
	defer sim.mu.Unlock()
	for ri, rl := range sim.rows {
		if outputs[rl] == 0 && sim.pressed[[2]int{ri, col}] {
			return 0
		}
	}
	return 1
}

func (sim *simulator) setKey(row, col int, down bool) {
	sim.mu.Lock()
	sim.pressed[[2]int{row, col}] = down
	sim.mu.Unlock()
}
