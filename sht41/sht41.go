// Package sht41 reads a Sensirion SHT41 temperature and relative humidity
// sensor over I²C. Every measurement word carries a CRC-8 that is checked
// before the value is used.
package sht41

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

const (
	cmdMeasureHighPrecision = 0xFD
	cmdSoftReset            = 0x94

	resetDelay   = 2 * time.Millisecond
	measureDelay = 10 * time.Millisecond
)

// ErrChecksum is returned when a measurement word fails CRC validation.
var ErrChecksum = errors.New("sht41: measurement failed crc check")

// Dev is a handle to an SHT41 on an I²C bus.
type Dev struct {
	d  conn.Conn
	mu sync.Mutex
}

// NewI2C opens an SHT41 at addr (0x44 to 0x46 across the SHT4x family) and
// soft-resets it. A sensor that does not acknowledge the reset is treated
// as absent.
func NewI2C(b i2c.Bus, addr uint16) (*Dev, error) {
	switch addr {
	case 0x44, 0x45, 0x46:
	default:
		return nil, errors.New("sht41: address must be 0x44, 0x45 or 0x46")
	}
	d := &Dev{d: &i2c.Dev{Bus: b, Addr: addr}}
	if err := d.SoftReset(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("SHT41{%s}", d.d)
}

// SoftReset reboots the sensor and waits out the datasheet reset time.
func (d *Dev) SoftReset() error {
	if err := d.d.Tx([]byte{cmdSoftReset}, nil); err != nil {
		return fmt.Errorf("sht41: %w", err)
	}
	time.Sleep(resetDelay)
	return nil
}

// Halt implements conn.Resource. The sensor idles between commands on its
// own, so there is nothing to stop.
func (d *Dev) Halt() error {
	return nil
}

// Sense triggers a high precision measurement and fills e.Temperature and
// e.Humidity. Both measurement words are CRC checked; a mismatch returns
// ErrChecksum and leaves e untouched.
func (d *Dev) Sense(e *physic.Env) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.d.Tx([]byte{cmdMeasureHighPrecision}, nil); err != nil {
		return fmt.Errorf("sht41: %w", err)
	}
	time.Sleep(measureDelay)

	// temp msb, temp lsb, temp crc, hum msb, hum lsb, hum crc
	var raw [6]byte
	if err := d.d.Tx(nil, raw[:]); err != nil {
		return fmt.Errorf("sht41: %w", err)
	}

	if crc8(raw[0:2]) != raw[2] || crc8(raw[3:5]) != raw[5] {
		return ErrChecksum
	}

	tRaw := uint16(raw[0])<<8 | uint16(raw[1])
	hRaw := uint16(raw[3])<<8 | uint16(raw[4])

	temperatureC := -45.0 + 175.0*float64(tRaw)/65535.0
	humidityRH := -6.0 + 125.0*float64(hRaw)/65535.0
	// the transfer function can stray slightly outside the physical range
	if humidityRH < 0 {
		humidityRH = 0
	}
	if humidityRH > 100 {
		humidityRH = 100
	}

	e.Temperature = physic.Temperature(temperatureC*float64(physic.Kelvin)) + physic.ZeroCelsius
	e.Humidity = physic.RelativeHumidity(humidityRH * float64(physic.PercentRH))
	return nil
}

// crc8 is the sensor's checksum: polynomial 0x31, init 0xFF, no final xor.
func crc8(data []byte) uint8 {
	crc := uint8(0xFF)
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x31
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

var _ conn.Resource = &Dev{}
