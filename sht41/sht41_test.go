package sht41

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"
)

const testAddr = 0x44

func resetOp() i2ctest.IO {
	return i2ctest.IO{Addr: testAddr, W: []byte{cmdSoftReset}}
}

func TestCRC8DatasheetVector(t *testing.T) {
	// the datasheet's worked example: 0xBEEF checksums to 0x92
	assert.Equal(t, uint8(0x92), crc8([]byte{0xBE, 0xEF}))
	assert.Equal(t, uint8(0x81), crc8([]byte{0x00, 0x00}))
	assert.Equal(t, uint8(0xAC), crc8([]byte{0xFF, 0xFF}))
}

func TestNewI2CRejectsBadAddress(t *testing.T) {
	bus := i2ctest.Playback{}
	_, err := NewI2C(&bus, 0x77)
	assert.Error(t, err)
}

func TestSense(t *testing.T) {
	bus := i2ctest.Playback{
		Ops: []i2ctest.IO{
			resetOp(),
			{Addr: testAddr, W: []byte{cmdMeasureHighPrecision}},
			// raw 0x6666 on both channels: exactly 25C and 44%RH
			{Addr: testAddr, R: []byte{0x66, 0x66, 0x93, 0x66, 0x66, 0x93}},
		},
	}
	d, err := NewI2C(&bus, testAddr)
	require.NoError(t, err)

	e := physic.Env{}
	require.NoError(t, d.Sense(&e))
	assert.InDelta(t, 25.0, e.Temperature.Celsius(), 1e-6)
	assert.InDelta(t, 44.0, float64(e.Humidity)/float64(physic.PercentRH), 1e-4)
}

func TestSenseHumidityClamped(t *testing.T) {
	bus := i2ctest.Playback{
		Ops: []i2ctest.IO{
			resetOp(),
			{Addr: testAddr, W: []byte{cmdMeasureHighPrecision}},
			// humidity raw 0x0000 converts to -6%RH, reported as 0
			{Addr: testAddr, R: []byte{0x66, 0x66, 0x93, 0x00, 0x00, 0x81}},
		},
	}
	d, err := NewI2C(&bus, testAddr)
	require.NoError(t, err)

	e := physic.Env{}
	require.NoError(t, d.Sense(&e))
	assert.Equal(t, physic.RelativeHumidity(0), e.Humidity)
}

func TestSenseChecksumMismatch(t *testing.T) {
	bus := i2ctest.Playback{
		Ops: []i2ctest.IO{
			resetOp(),
			{Addr: testAddr, W: []byte{cmdMeasureHighPrecision}},
			// corrupted temperature word
			{Addr: testAddr, R: []byte{0x66, 0x67, 0x93, 0x66, 0x66, 0x93}},
		},
	}
	d, err := NewI2C(&bus, testAddr)
	require.NoError(t, err)

	e := physic.Env{}
	err = d.Sense(&e)
	assert.ErrorIs(t, err, ErrChecksum)
	// a rejected measurement must not leak partial values
	assert.Equal(t, physic.Env{}, e)
}
