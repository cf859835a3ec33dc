package state

import (
	"context"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/keymx/keymx/internal/queue"
	"github.com/keymx/keymx/internal/tele"
	tele_config "github.com/keymx/keymx/internal/tele/config"
	"github.com/keymx/keymx/iokit"
	"github.com/keymx/keymx/log2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	t.Parallel()
	c, err := ReadConfigString(log2.NewTest(t, log2.LDebug), "")
	require.NoError(t, err)

	assert.Equal(t, "/dev/gpiochip0", c.Keyboard.GpioChip)
	assert.Equal(t, []uint32{0, 1, 2, 3}, c.Keyboard.RowLines())
	assert.Len(t, c.Keyboard.ColLines(), 10)
	assert.Equal(t, queue.PolicyRing, c.Queue.Policy)
	assert.Equal(t, 100*time.Millisecond, c.Queue.StaleAge())
	assert.Equal(t, DefaultBusAddress, c.Bus.Address)
	assert.False(t, c.Tele.Enabled)
}

func TestConfigFull(t *testing.T) {
	t.Parallel()
	content := `
keyboard {
  gpio_chip = "/dev/gpiochip1"
  rows = [10, 11, 12, 13]
  cols = [20, 21, 22, 23, 24, 25, 26, 27, 28, 29]
  debounce_ms = 25
  scan_period_ms = 1
  settle_us = 15
  key "service" {
    row = 0
    col = 0
    code = 999
  }
}
queue {
  policy = "linear"
  capacity = 8
}
bus {
  address = 32
  device = "/dev/i2c-1"
  poll_period_ms = 5
}
tele {
  enable = true
  device_id = 7
  mqtt_broker = "tcp://broker.local:1883"
}
`
	c, err := ReadConfigString(log2.NewTest(t, log2.LDebug), content)
	require.NoError(t, err)

	opt, err := c.Keyboard.ControllerOptions()
	require.NoError(t, err)
	assert.Equal(t, []uint32{10, 11, 12, 13}, opt.Rows)
	assert.Equal(t, 25*time.Millisecond, opt.DebounceWindow)
	assert.Equal(t, time.Millisecond, opt.ScanPeriod)
	assert.Equal(t, 15*time.Microsecond, opt.Settle)
	assert.Equal(t, uint16(999), opt.Keymap.At(0, 0))

	assert.Equal(t, queue.PolicyLinear, c.Queue.Policy)
	assert.Equal(t, 32, c.Bus.Address)
	assert.Equal(t, 5*time.Millisecond, c.Bus.PollPeriod())
	assert.True(t, c.Tele.Enabled)
	assert.Equal(t, 7, c.Tele.DeviceId)
}

func TestConfigBadOverride(t *testing.T) {
	t.Parallel()
	content := `
keyboard {
  key "oob" {
    row = 9
    col = 0
    code = 1
  }
}
`
	c, err := ReadConfigString(log2.NewTest(t, log2.LDebug), content)
	require.NoError(t, err)
	_, err = c.Keyboard.ControllerOptions()
	require.Error(t, err)
}

type failingTele struct{ tele.Noop }

func (failingTele) Init(context.Context, *log2.Log, tele_config.Config) error {
	return errors.New("broker unreachable")
}

// A dead diagnostics broker must not keep the scanner down.
func TestInitSurvivesTeleFailure(t *testing.T) {
	t.Parallel()
	log := log2.NewTest(t, log2.LDebug)
	ctx, g := NewContext(log, failingTele{})
	cfg, err := ReadConfigString(log, "")
	require.NoError(t, err)
	g.Hardware.IO = iokit.NewMem(cfg.Keyboard.ColLines())
	g.Hardware.Clock = new(iokit.StubClock)

	require.NoError(t, g.Init(ctx, cfg))
	assert.IsType(t, tele.Noop{}, g.Tele)
	require.NotNil(t, g.Hardware.Keyboard)
	require.NoError(t, g.Hardware.Keyboard.ScanOnce())
	g.Stop()
}

func TestNewTestContextInit(t *testing.T) {
	t.Parallel()
	_, g := NewTestContext(t, `queue { policy = "linear" }`)
	require.NotNil(t, g.Hardware.Keyboard)
	require.NotNil(t, g.Hardware.Responder)
	assert.Equal(t, queue.DefaultLinearCapacity, g.Hardware.Queue.Cap())

	// pipeline is runnable on the in-memory hardware
	require.NoError(t, g.Hardware.Keyboard.ScanOnce())
	assert.Equal(t, []byte{0x02, 0x00}, g.Hardware.Responder.OnRequest())
	g.Stop()
}
