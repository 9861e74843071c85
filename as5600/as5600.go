// Package as5600 reads an ams AS5600 12-bit magnetic rotary position
// sensor over I²C. The station mounts one under the wind vane, so the
// shaft angle is the wind direction.
package as5600

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
)

const (
	regStatus = 0x0B
	regAngle  = 0x0E // scaled angle, high byte first

	statusMH = 1 << 3 // magnet too strong
	statusML = 1 << 4 // magnet too weak
	statusMD = 1 << 5 // magnet detected
)

// MagnetStatus describes the field the sensor sees.
type MagnetStatus struct {
	Detected  bool
	TooStrong bool
	TooWeak   bool
}

func (s MagnetStatus) String() string {
	switch {
	case !s.Detected:
		return "no magnet"
	case s.TooStrong:
		return "magnet too strong"
	case s.TooWeak:
		return "magnet too weak"
	default:
		return "magnet ok"
	}
}

// Dev is a handle to an AS5600 on an I²C bus.
type Dev struct {
	d  conn.Conn
	mu sync.Mutex
}

// NewI2C opens the AS5600 at its fixed address 0x36 and reads the magnet
// status once to confirm the sensor answers. A missing or badly placed
// magnet is reported by Status, not treated as an open failure, since the
// vane may be fitted after the electronics.
func NewI2C(b i2c.Bus, addr uint16) (*Dev, error) {
	if addr != 0x36 {
		return nil, errors.New("as5600: address must be 0x36")
	}
	d := &Dev{d: &i2c.Dev{Bus: b, Addr: addr}}
	if _, err := d.Status(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("AS5600{%s}", d.d)
}

// Halt implements conn.Resource; the sensor has no run state to stop.
func (d *Dev) Halt() error {
	return nil
}

// Status reads the magnet detection flags.
func (d *Dev) Status() (MagnetStatus, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var b [1]byte
	if err := d.readReg(regStatus, b[:]); err != nil {
		return MagnetStatus{}, err
	}
	return MagnetStatus{
		Detected:  b[0]&statusMD != 0,
		TooStrong: b[0]&statusMH != 0,
		TooWeak:   b[0]&statusML != 0,
	}, nil
}

// ReadAngleRaw returns the 12-bit shaft angle, 0..4095.
func (d *Dev) ReadAngleRaw() (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var b [2]byte
	if err := d.readReg(regAngle, b[:]); err != nil {
		return 0, err
	}
	return (uint16(b[0])<<8 | uint16(b[1])) & 0x0FFF, nil
}

// ReadAngleDegrees returns the shaft angle in degrees, [0, 360).
func (d *Dev) ReadAngleDegrees() (float64, error) {
	raw, err := d.ReadAngleRaw()
	if err != nil {
		return 0, err
	}
	return float64(raw) * 360.0 / 4096.0, nil
}

func (d *Dev) readReg(reg uint8, b []byte) error {
	if err := d.d.Tx([]byte{reg}, b); err != nil {
		return fmt.Errorf("as5600: %w", err)
	}
	return nil
}

var _ conn.Resource = &Dev{}
