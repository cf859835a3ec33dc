package keyboard

import (
	"time"

	"github.com/juju/errors"
	"github.com/keymx/keymx/iokit"
)

const DefaultSettle = 10 * time.Microsecond

// Scanner strobes the matrix rows and samples the columns. Rows are
// active low, columns idle high on pull-ups, so a low column during an
// active row means the switch at that crossing is closed.
type Scanner struct {
	io      iokit.Digital
	rows    []uint32
	cols    []uint32
	settle  time.Duration
	samples []byte
}

func NewScanner(io iokit.Digital, rows, cols []uint32, settle time.Duration) *Scanner {
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &Scanner{
		io:      io,
		rows:    rows,
		cols:    cols,
		settle:  settle,
		samples: make([]byte, len(cols)),
	}
}

// ScanOnce produces one raw pressed/released sample for every matrix
// position. All rows are parked high afterwards so a poll between
// scans cannot see a half-driven matrix.
func (s *Scanner) ScanOnce(visit func(row, col int, rawPressed bool)) error {
	for r := range s.rows {
		for r2, line := range s.rows {
			level := byte(1)
			if r2 == r {
				level = 0
			}
			s.io.Set(line, level)
		}
		if err := s.io.Flush(); err != nil {
			return errors.Annotatef(err, "scan row=%d strobe", r)
		}
		time.Sleep(s.settle)
		if err := s.io.ReadInputs(s.samples); err != nil {
			return errors.Annotatef(err, "scan row=%d sample", r)
		}
		for c := range s.cols {
			visit(r, c, s.samples[c] == 0)
		}
	}

	for _, line := range s.rows {
		s.io.Set(line, 1)
	}
	return errors.Annotate(s.io.Flush(), "scan park rows")
}
