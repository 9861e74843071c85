package sensors

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gr-butler/caelum/env"
	logger "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/gpio"
)

// AnalogReader is the part of analog.PinADC the gauge needs.
type AnalogReader interface {
	Read() (analog.Sample, error)
}

// ErrNotSampled is returned by the report accessors before the first
// successful voltage read.
var ErrNotSampled = errors.New("battery: no reading taken yet")

// Battery measures the pack voltage behind a MOSFET-switched resistive
// divider. The divider is only energised for the few milliseconds of an
// acquisition, otherwise it would slowly drain the pack it measures.
type Battery struct {
	gate      gpio.PinIO
	adc       AnalogReader
	calibrate func(raw int64) int64 // raw code to mV at the ADC pin, nil for the linear fallback

	lock           sync.Mutex
	lastVoltageMV  int
	lastPercentage int
	sampled        bool
}

func NewBattery(gate gpio.PinIO, adc AnalogReader, calibrate func(int64) int64) (*Battery, error) {
	if gate == nil {
		return nil, errors.New("battery: gate pin is required")
	}
	if adc == nil {
		return nil, errors.New("battery: analog reader is required")
	}
	if err := gate.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("battery: gate setup: %w", err)
	}
	return &Battery{gate: gate, adc: adc, calibrate: calibrate}, nil
}

// ReadVoltage energises the divider, averages a fixed odd number of raw
// samples and returns the pack voltage in millivolts. The gate is driven
// low again on every exit path. On success the reading and its percentage
// are cached for the report accessors.
func (b *Battery) ReadVoltage() (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if err := b.gate.Out(gpio.High); err != nil {
		return 0, fmt.Errorf("battery: gate enable: %w", err)
	}
	defer func() { _ = b.gate.Out(gpio.Low) }()
	time.Sleep(env.BatterySettleDelay)

	var sum int64
	for i := 0; i < env.BatterySampleCount; i++ {
		if i > 0 {
			time.Sleep(env.BatterySampleDelay)
		}
		s, err := b.adc.Read()
		if err != nil {
			return 0, fmt.Errorf("battery: sample %d of %d: %w", i+1, env.BatterySampleCount, err)
		}
		sum += int64(s.Raw)
	}
	mean := sum / env.BatterySampleCount

	var mv int64
	if b.calibrate != nil {
		mv = b.calibrate(mean)
	} else {
		mv = mean * env.AdcReferenceMV / env.AdcFullScale
	}
	// back-calculate the pack voltage from the divided one
	batteryMV := int(mv * (env.BatteryDividerR1Ohm + env.BatteryDividerR2Ohm) / env.BatteryDividerR2Ohm)

	b.lastVoltageMV = batteryMV
	b.lastPercentage = VoltageToPercentage(batteryMV)
	b.sampled = true
	logger.Debugf("Battery [%v]mV [%v]%%", b.lastVoltageMV, b.lastPercentage)
	return batteryMV, nil
}

// VoltageToPercentage maps a pack voltage onto the Li-Ion discharge curve,
// linear between the empty and full anchors and saturating outside them.
func VoltageToPercentage(mv int) int {
	if mv <= env.BatteryEmptyMV {
		return 0
	}
	if mv >= env.BatteryFullMV {
		return 100
	}
	return (mv - env.BatteryEmptyMV) * 100 / (env.BatteryFullMV - env.BatteryEmptyMV)
}

// LastReading returns the cached voltage and percentage without touching
// the hardware.
func (b *Battery) LastReading() (mv int, percent int, err error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if !b.sampled {
		return 0, 0, ErrNotSampled
	}
	return b.lastVoltageMV, b.lastPercentage, nil
}

// ReportVoltage returns the cached voltage in tenths of a volt, the unit
// the report payload carries.
func (b *Battery) ReportVoltage() (uint8, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if !b.sampled {
		return 0, ErrNotSampled
	}
	return uint8(b.lastVoltageMV / 100), nil
}

// ReportPercentage returns the cached charge on the doubled report scale,
// 200 = 100%.
func (b *Battery) ReportPercentage() (uint8, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if !b.sampled {
		return 0, ErrNotSampled
	}
	return uint8(b.lastPercentage * 2), nil
}
