//go:build linux

package bus

import (
	"testing"

	"github.com/keymx/keymx/log2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestI2CMasterOpenMissingDevice(t *testing.T) {
	t.Parallel()
	m := NewI2CMaster(log2.NewTest(t, log2.LDebug), 0x10)
	err := m.Open("/dev/i2c-does-not-exist")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "i2c open")
	assert.NoError(t, m.Close())
}
