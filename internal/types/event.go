package types

type InputKey uint16

// InputEvent is a key event on the master side, after bus decode.
type InputEvent struct {
	Source string
	Key    InputKey
	Up     bool
}
