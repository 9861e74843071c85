// Package dps368 controls an Infineon DPS368 barometric pressure and
// temperature sensor over I²C.
//
// The sensor ships with factory calibration coefficients packed into an
// 18 byte register block. Raw readings are scaled by a divisor that
// depends on the configured oversampling level and then corrected by the
// datasheet compensation polynomial.
package dps368

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
)

const (
	regPressure    = 0x00 // PSR_B2..B0
	regTemperature = 0x03 // TMP_B2..B0
	regPrsCfg      = 0x06
	regTmpCfg      = 0x07
	regMeasCfg     = 0x08
	regCfg         = 0x09
	regProductID   = 0x0D
	regCoef        = 0x10

	productID = 0x10

	measIdle           = 0x00
	measContinuousBoth = 0x07

	// CFG_REG result shift bits, required for oversampling above x8.
	prsShiftEnable = 0b0100
	tmpShiftEnable = 0b1000

	coefBlockLen = 18
)

// Rate is a background measurement rate in measurements per second.
type Rate uint8

const (
	R1Hz Rate = iota
	R2Hz
	R4Hz
	R8Hz
	R16Hz
	R32Hz
	R64Hz
	R128Hz
)

// Oversampling selects how many internal samples the sensor averages per
// reported reading. The raw-value scale divisor changes with it.
type Oversampling uint8

const (
	O1x Oversampling = iota
	O2x
	O4x
	O8x
	O16x
	O32x
	O64x
	O128x
)

func (o Oversampling) String() string {
	if o > O128x {
		return fmt.Sprintf("Oversampling(%d)", uint8(o))
	}
	return fmt.Sprintf("%dx", 1<<o)
}

// scaleFactor is the raw-reading divisor per oversampling level, from the
// datasheet compensation scale table. Indexed by Oversampling.
var scaleFactor = [8]float64{
	524288,
	1572864,
	3670016,
	7864320,
	253952,
	516096,
	1040384,
	2088960,
}

// Opts holds the per-channel measurement configuration.
type Opts struct {
	PressureRate            Rate
	PressureOversampling    Oversampling
	TemperatureRate         Rate
	TemperatureOversampling Oversampling
}

// DefaultOpts runs pressure at 8 measurements/sec with x8 oversampling and
// temperature at 1/sec with x1, which suits a slow weather poll loop.
var DefaultOpts = Opts{
	PressureRate:            R8Hz,
	PressureOversampling:    O8x,
	TemperatureRate:         R1Hz,
	TemperatureOversampling: O1x,
}

// ErrNotCalibrated is returned when a measurement is requested before the
// calibration coefficient block has been loaded.
var ErrNotCalibrated = errors.New("dps368: calibration coefficients not loaded")

// Coefficients is the decoded factory calibration set.
type Coefficients struct {
	C0, C1                  int32
	C00, C10                int32
	C01, C11, C20, C21, C30 int32
}

// coefLayout drives the unpacking of the calibration block: bit offset of
// each field within the block and its width. Fields are packed MSB first
// with no padding; every field is an independent two's-complement value.
var coefLayout = [9]struct {
	bit   uint
	width uint
}{
	{0, 12},   // c0
	{12, 12},  // c1
	{24, 20},  // c00
	{44, 20},  // c10
	{64, 16},  // c01
	{80, 16},  // c11
	{96, 16},  // c20
	{112, 16}, // c21
	{128, 16}, // c30
}

// unpackSigned extracts width bits starting at bit offset within the block
// and sign-extends from the field's own sign bit.
func unpackSigned(block []byte, bit, width uint) int32 {
	var v uint32
	for i := uint(0); i < width; i++ {
		idx := bit + i
		v = v<<1 | uint32(block[idx/8]>>(7-idx%8)&1)
	}
	if v&(1<<(width-1)) != 0 {
		return int32(v) - int32(1)<<width
	}
	return int32(v)
}

// DecodeCoefficients unpacks the nine signed calibration fields from the
// raw 18 byte register block. Every bit pattern is a valid coefficient
// set, so decoding cannot fail.
func DecodeCoefficients(block [coefBlockLen]byte) Coefficients {
	var v [9]int32
	for i, f := range coefLayout {
		v[i] = unpackSigned(block[:], f.bit, f.width)
	}
	return Coefficients{
		C0: v[0], C1: v[1],
		C00: v[2], C10: v[3],
		C01: v[4], C11: v[5], C20: v[6], C21: v[7], C30: v[8],
	}
}

// Dev is a handle to a DPS368 on an I²C bus.
type Dev struct {
	d    conn.Conn
	opts Opts
	kP   float64 // pressure scale divisor for opts.PressureOversampling
	kT   float64 // temperature scale divisor for opts.TemperatureOversampling

	mu   sync.Mutex
	coef *Coefficients // nil until the calibration block is loaded
}

// NewI2C opens a DPS368 at addr (0x76 or 0x77), verifies the product id,
// loads the calibration block and starts continuous measurement.
func NewI2C(b i2c.Bus, addr uint16, opts *Opts) (*Dev, error) {
	switch addr {
	case 0x76, 0x77:
	default:
		return nil, errors.New("dps368: address must be 0x76 or 0x77")
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	if opts.PressureOversampling > O128x || opts.TemperatureOversampling > O128x {
		return nil, errors.New("dps368: oversampling out of range")
	}
	if opts.PressureRate > R128Hz || opts.TemperatureRate > R128Hz {
		return nil, errors.New("dps368: measurement rate out of range")
	}
	d := &Dev{
		d:    &i2c.Dev{Bus: b, Addr: addr},
		opts: *opts,
		kP:   scaleFactor[opts.PressureOversampling],
		kT:   scaleFactor[opts.TemperatureOversampling],
	}
	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) init() error {
	var id [1]byte
	if err := d.readReg(regProductID, id[:]); err != nil {
		return err
	}
	if id[0] != productID {
		return fmt.Errorf("dps368: unexpected product id 0x%02x", id[0])
	}

	var block [coefBlockLen]byte
	if err := d.readReg(regCoef, block[:]); err != nil {
		return err
	}
	coef := DecodeCoefficients(block)
	d.coef = &coef

	if err := d.writeReg(regPrsCfg, uint8(d.opts.PressureRate)<<4|uint8(d.opts.PressureOversampling)); err != nil {
		return err
	}
	if err := d.writeReg(regTmpCfg, uint8(d.opts.TemperatureRate)<<4|uint8(d.opts.TemperatureOversampling)); err != nil {
		return err
	}

	// Oversampling above x8 widens the result beyond 24 bits; the sensor
	// must then be told to right-shift results into range.
	var shift uint8
	if d.opts.PressureOversampling > O8x {
		shift |= prsShiftEnable
	}
	if d.opts.TemperatureOversampling > O8x {
		shift |= tmpShiftEnable
	}
	if shift != 0 {
		if err := d.writeReg(regCfg, shift); err != nil {
			return err
		}
	}

	return d.writeReg(regMeasCfg, measContinuousBoth)
}

func (d *Dev) String() string {
	return fmt.Sprintf("DPS368{%s}", d.d)
}

// Halt puts the sensor into idle mode.
func (d *Dev) Halt() error {
	return d.writeReg(regMeasCfg, measIdle)
}

// Coefficients returns the decoded calibration set, or false if the block
// has not been loaded.
func (d *Dev) Coefficients() (Coefficients, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.coef == nil {
		return Coefficients{}, false
	}
	return *d.coef, true
}

// ReadTemperature returns the compensated temperature in °C.
func (d *Dev) ReadTemperature() (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.coef == nil {
		return 0, ErrNotCalibrated
	}
	tRaw, err := d.readRaw(regTemperature)
	if err != nil {
		return 0, err
	}
	tSc := float64(tRaw) / d.kT
	return float64(d.coef.C0)*0.5 + float64(d.coef.C1)*tSc, nil
}

// ReadPressure returns the temperature-compensated pressure in hPa. The
// temperature channel is read as well because the compensation polynomial
// needs it even when only pressure is wanted.
func (d *Dev) ReadPressure() (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.coef == nil {
		return 0, ErrNotCalibrated
	}
	pRaw, err := d.readRaw(regPressure)
	if err != nil {
		return 0, err
	}
	tRaw, err := d.readRaw(regTemperature)
	if err != nil {
		return 0, err
	}

	pSc := float64(pRaw) / d.kP
	tSc := float64(tRaw) / d.kT
	c := d.coef
	pa := float64(c.C00) +
		pSc*(float64(c.C10)+pSc*(float64(c.C20)+pSc*float64(c.C30))) +
		tSc*float64(c.C01) +
		tSc*pSc*(float64(c.C11)+pSc*float64(c.C21))
	return pa / 100, nil
}

// readRaw reads a 24-bit big-endian two's-complement measurement triple.
func (d *Dev) readRaw(reg uint8) (int32, error) {
	var b [3]byte
	if err := d.readReg(reg, b[:]); err != nil {
		return 0, err
	}
	v := int32(b[0])<<16 | int32(b[1])<<8 | int32(b[2])
	if v&0x800000 != 0 {
		v -= 0x1000000
	}
	return v, nil
}

func (d *Dev) readReg(reg uint8, b []byte) error {
	if err := d.d.Tx([]byte{reg}, b); err != nil {
		return fmt.Errorf("dps368: %w", err)
	}
	return nil
}

func (d *Dev) writeReg(reg uint8, value uint8) error {
	if err := d.d.Tx([]byte{reg, value}, nil); err != nil {
		return fmt.Errorf("dps368: %w", err)
	}
	return nil
}

var _ conn.Resource = &Dev{}
