// Package bus implements the keymx poll protocol: the slave side
// serializes queued key changes into a response frame on demand, the
// master side polls and decodes.
//
// Frame layout, big-endian:
//
//	[0]      data type tag, 0x02 = keypress event batch
//	[1]      event count N
//	[2+3i]   key code high byte
//	[3+3i]   key code low byte
//	[4+3i]   state, 1=pressed 0=released
package bus

import (
	"encoding/binary"
	"fmt"

	"github.com/juju/errors"
	"github.com/keymx/keymx/internal/queue"
)

const (
	DataTypeKeypress byte = 0x02

	frameHeaderSize = 2
	eventWireSize   = 3
)

var (
	ErrFrameShort = errors.New("bus: frame shorter than declared count")
	ErrFrameType  = errors.New("bus: unexpected data type tag")
)

// FrameLen returns the encoded size of a frame carrying n events.
func FrameLen(n int) int { return frameHeaderSize + n*eventWireSize }

func AppendFrame(dst []byte, events []queue.Event) []byte {
	dst = append(dst, DataTypeKeypress, byte(len(events)))
	for _, e := range events {
		var code [2]byte
		binary.BigEndian.PutUint16(code[:], e.Code)
		state := byte(0)
		if e.Pressed {
			state = 1
		}
		dst = append(dst, code[0], code[1], state)
	}
	return dst
}

// KeyEvent is a decoded wire event, master side.
type KeyEvent struct {
	Code    uint16
	Pressed bool
}

func (ke KeyEvent) String() string {
	state := "released"
	if ke.Pressed {
		state = "pressed"
	}
	return fmt.Sprintf("key=%d %s", ke.Code, state)
}

// ParseFrame decodes a poll response. Trailing bytes beyond the
// declared count are ignored, the master may read more than the slave
// had to say.
func ParseFrame(b []byte) ([]KeyEvent, error) {
	if len(b) < frameHeaderSize {
		return nil, errors.Annotatef(ErrFrameShort, "len=%d", len(b))
	}
	if b[0] != DataTypeKeypress {
		return nil, errors.Annotatef(ErrFrameType, "tag=%02x", b[0])
	}
	n := int(b[1])
	if len(b) < FrameLen(n) {
		return nil, errors.Annotatef(ErrFrameShort, "count=%d len=%d", n, len(b))
	}
	if n == 0 {
		return nil, nil
	}
	events := make([]KeyEvent, n)
	for i := 0; i < n; i++ {
		off := frameHeaderSize + i*eventWireSize
		events[i] = KeyEvent{
			Code:    binary.BigEndian.Uint16(b[off : off+2]),
			Pressed: b[off+2] == 1,
		}
	}
	return events, nil
}
