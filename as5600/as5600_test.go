package as5600

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

const testAddr = 0x36

func statusOp(status byte) i2ctest.IO {
	return i2ctest.IO{Addr: testAddr, W: []byte{regStatus}, R: []byte{status}}
}

func TestNewI2CRejectsBadAddress(t *testing.T) {
	bus := i2ctest.Playback{}
	_, err := NewI2C(&bus, 0x40)
	assert.Error(t, err)
}

func TestStatusFlags(t *testing.T) {
	bus := i2ctest.Playback{
		Ops: []i2ctest.IO{
			statusOp(statusMD),
			statusOp(statusMD | statusML),
			statusOp(0x00),
		},
	}
	d, err := NewI2C(&bus, testAddr)
	require.NoError(t, err)

	s, err := d.Status()
	require.NoError(t, err)
	assert.True(t, s.Detected)
	assert.True(t, s.TooWeak)
	assert.Equal(t, "magnet too weak", s.String())

	s, err = d.Status()
	require.NoError(t, err)
	assert.False(t, s.Detected)
	assert.Equal(t, "no magnet", s.String())
}

func TestReadAngle(t *testing.T) {
	bus := i2ctest.Playback{
		Ops: []i2ctest.IO{
			statusOp(statusMD),
			// 0x0800 = 2048 counts = 180 degrees
			{Addr: testAddr, W: []byte{regAngle}, R: []byte{0x08, 0x00}},
			// top nibble of the high byte is undefined and must be masked:
			// 0xF3FF -> 0x3FF = 1023 counts
			{Addr: testAddr, W: []byte{regAngle}, R: []byte{0xF3, 0xFF}},
		},
	}
	d, err := NewI2C(&bus, testAddr)
	require.NoError(t, err)

	deg, err := d.ReadAngleDegrees()
	require.NoError(t, err)
	assert.InDelta(t, 180.0, deg, 1e-9)

	raw, err := d.ReadAngleRaw()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x3FF), raw)
}
