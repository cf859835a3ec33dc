package iokit

import (
	"github.com/juju/errors"
	gpio "github.com/temoto/gpio-cdev-go"
)

// Cdev drives GPIO lines through the Linux gpio character device.
type Cdev struct {
	chip    gpio.Chiper
	outs    gpio.Lineser
	ins     gpio.Lineser
	setters map[uint32]gpio.LineSetFunc
	inLines []uint32
}

var _ Digital = new(Cdev) // compile-time interface compliance test

func NewCdev(chipPath, consumer string, outputs, inputs []uint32) (*Cdev, error) {
	c := &Cdev{
		setters: make(map[uint32]gpio.LineSetFunc, len(outputs)),
		inLines: inputs,
	}
	var err error
	if c.chip, err = gpio.Open(chipPath, consumer); err != nil {
		return nil, errors.Annotatef(err, "gpio open chip=%s", chipPath)
	}
	if c.outs, err = c.chip.OpenLines(gpio.GPIOHANDLE_REQUEST_OUTPUT, consumer, outputs...); err != nil {
		c.chip.Close()
		return nil, errors.Annotatef(err, "gpio output lines=%v", outputs)
	}
	for _, line := range outputs {
		c.setters[line] = c.outs.SetFunc(line)
	}
	if c.ins, err = c.chip.OpenLines(gpio.GPIOHANDLE_REQUEST_INPUT, consumer, inputs...); err != nil {
		c.outs.Close()
		c.chip.Close()
		return nil, errors.Annotatef(err, "gpio input lines=%v", inputs)
	}
	return c, nil
}

func (c *Cdev) Set(line uint32, value byte) {
	set, ok := c.setters[line]
	if !ok {
		panic(errors.Errorf("code error gpio set line=%d is not configured as output", line))
	}
	set(value)
}

func (c *Cdev) Flush() error { return c.outs.Flush() }

func (c *Cdev) ReadInputs(buf []byte) error {
	data, err := c.ins.Read()
	if err != nil {
		return errors.Annotate(err, "gpio read inputs")
	}
	copy(buf, data.Values[:len(c.inLines)])
	return nil
}

func (c *Cdev) Close() error {
	// line handles are released with the chip fd
	c.outs.Close()
	c.ins.Close()
	return c.chip.Close()
}
