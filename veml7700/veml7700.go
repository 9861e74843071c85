// Package veml7700 reads a Vishay VEML7700 ambient light sensor over I²C.
// Registers are 16-bit little-endian. The lux-per-count resolution is a
// function of the configured gain and integration time, so it is derived
// from the configuration rather than fixed.
package veml7700

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
)

const (
	regConfig = 0x00
	regALS    = 0x04

	confShutdown = 0x0001 // ALS_SD

	// maximum resolution in lux/count, reached at gain x2 with 800ms
	// integration; all other settings scale up from here
	baseResolution = 0.0036
)

// Gain is the ALS gain selection in the configuration register.
type Gain uint16

const (
	Gain1       Gain = 0x0000
	Gain2       Gain = 0x0400
	GainEighth  Gain = 0x0800
	GainQuarter Gain = 0x0C00
)

func (g Gain) factor() float64 {
	switch g {
	case Gain2:
		return 2
	case GainEighth:
		return 0.125
	case GainQuarter:
		return 0.25
	default:
		return 1
	}
}

// IntegrationTime is the ALS integration time selection in the
// configuration register.
type IntegrationTime uint16

const (
	IT25ms  IntegrationTime = 0x0300
	IT50ms  IntegrationTime = 0x0200
	IT100ms IntegrationTime = 0x0000
	IT200ms IntegrationTime = 0x0040
	IT400ms IntegrationTime = 0x0080
	IT800ms IntegrationTime = 0x00C0
)

func (it IntegrationTime) duration() time.Duration {
	switch it {
	case IT25ms:
		return 25 * time.Millisecond
	case IT50ms:
		return 50 * time.Millisecond
	case IT200ms:
		return 200 * time.Millisecond
	case IT400ms:
		return 400 * time.Millisecond
	case IT800ms:
		return 800 * time.Millisecond
	default:
		return 100 * time.Millisecond
	}
}

// Opts selects the gain and integration time written at init.
type Opts struct {
	Gain            Gain
	IntegrationTime IntegrationTime
}

// DefaultOpts is gain x1 with 100ms integration, good to roughly 7500 lux
// outdoors before the ALS count saturates.
var DefaultOpts = Opts{
	Gain:            Gain1,
	IntegrationTime: IT100ms,
}

// Dev is a handle to a VEML7700 on an I²C bus.
type Dev struct {
	d          conn.Conn
	resolution float64 // lux per count for the configuration in force
	mu         sync.Mutex
}

// NewI2C opens the VEML7700 at its fixed address 0x10, writes the
// configuration and waits out the first integration period.
func NewI2C(b i2c.Bus, addr uint16, opts *Opts) (*Dev, error) {
	if addr != 0x10 {
		return nil, errors.New("veml7700: address must be 0x10")
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	d := &Dev{d: &i2c.Dev{Bus: b, Addr: addr}}
	itMs := float64(opts.IntegrationTime.duration() / time.Millisecond)
	d.resolution = baseResolution * (800 / itMs) * (2 / opts.Gain.factor())

	if err := d.writeReg(regConfig, uint16(opts.Gain)|uint16(opts.IntegrationTime)); err != nil {
		return nil, err
	}
	// first reading is valid only after a full integration period
	time.Sleep(opts.IntegrationTime.duration() + 50*time.Millisecond)
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("VEML7700{%s}", d.d)
}

// Halt shuts the sensor down.
func (d *Dev) Halt() error {
	return d.PowerDown()
}

// Resolution returns the lux-per-count factor for the configuration in
// force.
func (d *Dev) Resolution() float64 {
	return d.resolution
}

// ReadLux returns the ambient light level in lux.
func (d *Dev) ReadLux() (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	raw, err := d.readReg(regALS)
	if err != nil {
		return 0, err
	}
	return float64(raw) * d.resolution, nil
}

// PowerDown sets the shutdown bit, dropping supply current to a couple of
// microamps between polls.
func (d *Dev) PowerDown() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	conf, err := d.readReg(regConfig)
	if err != nil {
		return err
	}
	return d.writeReg(regConfig, conf|confShutdown)
}

// PowerUp clears the shutdown bit and waits for the oscillator to settle.
func (d *Dev) PowerUp() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	conf, err := d.readReg(regConfig)
	if err != nil {
		return err
	}
	if err := d.writeReg(regConfig, conf&^confShutdown); err != nil {
		return err
	}
	time.Sleep(5 * time.Millisecond)
	return nil
}

func (d *Dev) readReg(reg uint8) (uint16, error) {
	var b [2]byte
	if err := d.d.Tx([]byte{reg}, b[:]); err != nil {
		return 0, fmt.Errorf("veml7700: %w", err)
	}
	// LSB first
	return uint16(b[0]) | uint16(b[1])<<8, nil
}

func (d *Dev) writeReg(reg uint8, value uint16) error {
	if err := d.d.Tx([]byte{reg, uint8(value & 0xFF), uint8(value >> 8)}, nil); err != nil {
		return fmt.Errorf("veml7700: %w", err)
	}
	return nil
}

var _ conn.Resource = &Dev{}
