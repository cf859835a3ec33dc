//go:build linux

package bus

import (
	"github.com/juju/errors"
	"github.com/keymx/keymx/log2"
	"golang.org/x/sys/unix"
)

// ioctl request from linux i2c-dev.h, x/sys/unix does not export it
const i2cSlave = 0x0703

// I2CMaster polls the keyboard slave over a Linux i2c-dev node.
// The controller answers any read at its address with one frame, so a
// poll is a plain read of the maximum frame size.
type I2CMaster struct {
	Log  *log2.Log
	addr uint8
	fd   int
}

var _ Master = new(I2CMaster)

func NewI2CMaster(log *log2.Log, addr uint8) *I2CMaster {
	return &I2CMaster{Log: log, addr: addr, fd: -1}
}

func (im *I2CMaster) Open(options string) error {
	fd, err := unix.Open(options, unix.O_RDWR, 0)
	if err != nil {
		return errors.Annotatef(err, "i2c open=%s", options)
	}
	if err = unix.IoctlSetInt(fd, i2cSlave, int(im.addr)); err != nil {
		unix.Close(fd)
		return errors.Annotatef(err, "i2c ioctl slave addr=%02x", im.addr)
	}
	im.fd = fd
	im.Log.Debugf("i2c-master open=%s addr=%02x", options, im.addr)
	return nil
}

func (im *I2CMaster) Poll(buf []byte) (int, error) {
	n, err := unix.Read(im.fd, buf)
	if err != nil {
		return n, errors.Annotatef(err, "i2c read addr=%02x", im.addr)
	}
	return n, nil
}

func (im *I2CMaster) Close() error {
	if im.fd < 0 {
		return nil
	}
	err := unix.Close(im.fd)
	im.fd = -1
	return err
}
