package input

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/keymx/keymx/internal/types"
	"github.com/temoto/inputevent-go"
)

const DevInputEventTag = "dev-input-event"

// DevInputEventSource reads key events from a Linux evdev node, used
// on bench setups with a regular keyboard instead of the matrix.
type DevInputEventSource struct {
	f io.ReadCloser
}

// compile-time interface compliance test
var _ Source = new(DevInputEventSource)

func (ds *DevInputEventSource) String() string { return DevInputEventTag }

func NewDevInputEventSource(device string) (*DevInputEventSource, error) {
	if device == "" {
		const byPath = "/dev/input/by-path/"
		entries, err := os.ReadDir(byPath)
		if err != nil {
			return nil, errors.New("no input device found, set device name manually")
		}
		for i := range entries {
			file := entries[i].Name()
			if strings.Contains(file, "kbd") {
				device = byPath + file
				break
			}
		}
	}
	f, err := os.Open(device)
	if err != nil {
		return nil, err
	}
	return &DevInputEventSource{f: f}, nil
}

func (ds *DevInputEventSource) Close() error { return ds.f.Close() }

func (ds *DevInputEventSource) Read() (types.InputEvent, error) {
	for {
		ie, err := inputevent.ReadOne(ds.f)
		if err != nil {
			return types.InputEvent{}, err
		}
		if ie.Type == inputevent.EV_KEY {
			return types.InputEvent{
				Source: DevInputEventTag,
				Key:    types.InputKey(ie.Code),
				Up:     ie.Value == int32(inputevent.KeyStateUp),
			}, nil
		}
	}
}
