package veml7700

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

const testAddr = 0x10

func TestNewI2CRejectsBadAddress(t *testing.T) {
	bus := i2ctest.Playback{}
	_, err := NewI2C(&bus, 0x29, nil)
	assert.Error(t, err)
}

func TestResolutionTracksConfiguration(t *testing.T) {
	cases := []struct {
		gain Gain
		it   IntegrationTime
		want float64
	}{
		{Gain1, IT100ms, 0.0576},
		{Gain2, IT800ms, 0.0036},
		{GainEighth, IT25ms, 1.8432},
	}
	for _, c := range cases {
		bus := i2ctest.Playback{
			Ops: []i2ctest.IO{
				{Addr: testAddr, W: []byte{regConfig, uint8(uint16(c.gain) | uint16(c.it)), uint8((uint16(c.gain) | uint16(c.it)) >> 8)}},
			},
		}
		d, err := NewI2C(&bus, testAddr, &Opts{Gain: c.gain, IntegrationTime: c.it})
		require.NoError(t, err)
		assert.InDelta(t, c.want, d.Resolution(), 1e-9)
	}
}

func TestReadLux(t *testing.T) {
	bus := i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: testAddr, W: []byte{regConfig, 0x00, 0x00}},
			// ALS count 4660 (0x1234, LSB first) at 0.0576 lux/count
			{Addr: testAddr, W: []byte{regALS}, R: []byte{0x34, 0x12}},
		},
	}
	d, err := NewI2C(&bus, testAddr, nil)
	require.NoError(t, err)

	lux, err := d.ReadLux()
	require.NoError(t, err)
	assert.InDelta(t, 268.416, lux, 1e-9)
}

func TestPowerDownUp(t *testing.T) {
	bus := i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: testAddr, W: []byte{regConfig, 0x00, 0x00}},
			// power down: read config, write it back with ALS_SD set
			{Addr: testAddr, W: []byte{regConfig}, R: []byte{0x00, 0x00}},
			{Addr: testAddr, W: []byte{regConfig, 0x01, 0x00}},
			// power up: read config, write it back with ALS_SD cleared
			{Addr: testAddr, W: []byte{regConfig}, R: []byte{0x01, 0x00}},
			{Addr: testAddr, W: []byte{regConfig, 0x00, 0x00}},
		},
	}
	d, err := NewI2C(&bus, testAddr, nil)
	require.NoError(t, err)

	require.NoError(t, d.PowerDown())
	require.NoError(t, d.PowerUp())
}
