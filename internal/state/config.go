package state

import (
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/juju/errors"
	"github.com/keymx/keymx/helpers"
	"github.com/keymx/keymx/internal/keyboard"
	"github.com/keymx/keymx/internal/queue"
	tele_config "github.com/keymx/keymx/internal/tele/config"
	"github.com/keymx/keymx/log2"
)

const DefaultBusAddress = 0x10

type Config struct {
	Keyboard *KeyboardConfig     `hcl:"keyboard,block"`
	Queue    *QueueConfig        `hcl:"queue,block"`
	Bus      *BusConfig          `hcl:"bus,block"`
	Tele     *tele_config.Config `hcl:"tele,block"`
}

type KeyboardConfig struct {
	GpioChip     string        `hcl:"gpio_chip,optional"`
	Rows         []int         `hcl:"rows,optional"`
	Cols         []int         `hcl:"cols,optional"`
	DebounceMs   int           `hcl:"debounce_ms,optional"`
	ScanPeriodMs int           `hcl:"scan_period_ms,optional"`
	SettleUs     int           `hcl:"settle_us,optional"`
	Keys         []KeyOverride `hcl:"key,block"`
}

// KeyOverride reassigns the code of one matrix position.
type KeyOverride struct {
	Name string `hcl:"name,label"`
	Row  int    `hcl:"row"`
	Col  int    `hcl:"col"`
	Code int    `hcl:"code"`
}

type QueueConfig struct {
	Policy   string `hcl:"policy,optional"`
	Capacity int    `hcl:"capacity,optional"`
	StaleMs  int    `hcl:"stale_ms,optional"`
}

type BusConfig struct {
	Address      int    `hcl:"address,optional"`
	Device       string `hcl:"device,optional"` // master side i2c-dev node
	Socket       string `hcl:"socket,optional"` // bench transport
	PollPeriodMs int    `hcl:"poll_period_ms,optional"`
}

func ReadConfig(log *log2.Log, path string) (*Config, error) {
	c := &Config{}
	if err := hclsimple.DecodeFile(path, nil, c); err != nil {
		return nil, errors.Annotatef(err, "config file=%s", path)
	}
	c.Normalize()
	log.Debugf("config loaded file=%s", path)
	return c, nil
}

func ReadConfigString(log *log2.Log, content string) (*Config, error) {
	c := &Config{}
	if err := hclsimple.Decode("config.hcl", []byte(content), nil, c); err != nil {
		return nil, errors.Annotate(err, "config inline")
	}
	c.Normalize()
	return c, nil
}

// Normalize fills absent blocks and fields with the stock 4x10
// controller values.
func (c *Config) Normalize() {
	if c.Keyboard == nil {
		c.Keyboard = &KeyboardConfig{}
	}
	kb := c.Keyboard
	if kb.GpioChip == "" {
		kb.GpioChip = "/dev/gpiochip0"
	}
	if len(kb.Rows) == 0 {
		kb.Rows = []int{0, 1, 2, 3}
	}
	if len(kb.Cols) == 0 {
		kb.Cols = []int{4, 5, 6, 7, 8, 9, 10, 11, 12, 13}
	}
	if c.Queue == nil {
		c.Queue = &QueueConfig{}
	}
	if c.Queue.Policy == "" {
		c.Queue.Policy = queue.PolicyRing
	}
	if c.Bus == nil {
		c.Bus = &BusConfig{}
	}
	if c.Bus.Address == 0 {
		c.Bus.Address = DefaultBusAddress
	}
	if c.Tele == nil {
		c.Tele = &tele_config.Config{}
	}
}

func (kb *KeyboardConfig) RowLines() []uint32 { return toLines(kb.Rows) }
func (kb *KeyboardConfig) ColLines() []uint32 { return toLines(kb.Cols) }

func (kb *KeyboardConfig) ControllerOptions() (keyboard.Options, error) {
	km := keyboard.NewKeymap(len(kb.Rows), len(kb.Cols))
	for _, ko := range kb.Keys {
		if err := km.SetCode(ko.Row, ko.Col, uint16(ko.Code)); err != nil {
			return keyboard.Options{}, errors.Annotatef(err, "key override name=%s", ko.Name)
		}
	}
	return keyboard.Options{
		Rows:           kb.RowLines(),
		Cols:           kb.ColLines(),
		Keymap:         km,
		DebounceWindow: helpers.IntMillisecondDefault(kb.DebounceMs, keyboard.DefaultDebounceWindow),
		ScanPeriod:     helpers.IntMillisecondDefault(kb.ScanPeriodMs, keyboard.DefaultScanPeriod),
		Settle:         time.Duration(kb.SettleUs) * time.Microsecond,
	}, nil
}

func (qc *QueueConfig) StaleAge() time.Duration {
	return helpers.IntMillisecondDefault(qc.StaleMs, queue.DefaultStaleAge)
}

func (bc *BusConfig) PollPeriod() time.Duration {
	return helpers.IntMillisecondDefault(bc.PollPeriodMs, 10*time.Millisecond)
}

func toLines(xs []int) []uint32 {
	lines := make([]uint32, len(xs))
	for i, x := range xs {
		lines[i] = uint32(x)
	}
	return lines
}
