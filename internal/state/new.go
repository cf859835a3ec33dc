package state

import (
	"context"
	"testing"

	"github.com/keymx/keymx/internal/tele"
	"github.com/keymx/keymx/iokit"
	"github.com/keymx/keymx/log2"
)

// NewTestContext builds a Global over in-memory IO and a hand-driven
// clock. confString may be empty for stock defaults.
func NewTestContext(t testing.TB, confString string) (context.Context, *Global) {
	log := log2.NewTest(t, log2.LDebug)
	log.SetFlags(log2.LTestFlags)
	ctx, g := NewContext(log, tele.Noop{})
	g.BuildVersion = "test"

	cfg, err := ReadConfigString(log, confString)
	if err != nil {
		t.Fatal(err)
	}
	g.Hardware.IO = iokit.NewMem(cfg.Keyboard.ColLines())
	g.Hardware.Clock = new(iokit.StubClock)
	g.MustInit(ctx, cfg)
	return ctx, g
}
