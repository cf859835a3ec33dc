package input

import (
	"io"

	"github.com/keymx/keymx/hardware/bus"
	"github.com/keymx/keymx/internal/types"
)

const MatrixKeyboardSourceTag = "matrix-keyboard"

// MatrixKeyboard adapts the bus poll client into an input Source.
type MatrixKeyboard struct{ c *bus.Client }

// compile-time interface compliance test
var _ Source = new(MatrixKeyboard)

func NewMatrixKeyboard(client *bus.Client) *MatrixKeyboard {
	mk := &MatrixKeyboard{c: client}
drain:
	for {
		select {
		case <-mk.c.Events:
		default:
			break drain
		}
	}
	return mk
}

func (mk *MatrixKeyboard) String() string { return MatrixKeyboardSourceTag }

func (mk *MatrixKeyboard) Read() (types.InputEvent, error) {
	ke, ok := <-mk.c.Events
	if !ok {
		return types.InputEvent{}, io.EOF
	}
	return types.InputEvent{
		Source: MatrixKeyboardSourceTag,
		Key:    types.InputKey(ke.Code),
		Up:     !ke.Pressed,
	}, nil
}
