package keyboard

import "github.com/juju/errors"

// Keymap assigns a stable key code to every matrix position. Codes
// are fixed at config time and must be unique.
type Keymap struct {
	rows, cols int
	codes      []uint16
}

// NewKeymap builds the stock numbering: the top row counts down from
// rows*100, so a 4x10 matrix reads 401..410, 301..310, 201..210,
// 101..110.
func NewKeymap(rows, cols int) *Keymap {
	km := &Keymap{
		rows:  rows,
		cols:  cols,
		codes: make([]uint16, rows*cols),
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			km.codes[r*cols+c] = uint16((rows-r)*100 + c + 1)
		}
	}
	return km
}

func (km *Keymap) At(row, col int) uint16 {
	return km.codes[row*km.cols+col]
}

func (km *Keymap) SetCode(row, col int, code uint16) error {
	if row < 0 || row >= km.rows || col < 0 || col >= km.cols {
		return errors.NotValidf("keymap override row=%d col=%d", row, col)
	}
	km.codes[row*km.cols+col] = code
	return nil
}

func (km *Keymap) Validate() error {
	seen := make(map[uint16]int, len(km.codes))
	for i, code := range km.codes {
		if prev, ok := seen[code]; ok {
			return errors.NotValidf("keymap code=%d at positions %d and %d", code, prev, i)
		}
		seen[code] = i
	}
	return nil
}
