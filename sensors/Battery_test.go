package sensors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// scriptedADC plays back one sample or error per read and records whether
// the gate was energised at the time.
type scriptedADC struct {
	gate    *gpiotest.Pin
	samples []analog.Sample
	errs    []error
	reads   int
	gateLow bool // set if any read saw the gate de-energised
}

func (s *scriptedADC) Read() (analog.Sample, error) {
	i := s.reads
	s.reads++
	if s.gate != nil && s.gate.L != gpio.High {
		s.gateLow = true
	}
	if i < len(s.errs) && s.errs[i] != nil {
		return analog.Sample{}, s.errs[i]
	}
	if i < len(s.samples) {
		return s.samples[i], nil
	}
	return analog.Sample{}, errors.New("scripted adc: no more samples")
}

func rawSamples(codes ...int32) []analog.Sample {
	s := make([]analog.Sample, len(codes))
	for i, c := range codes {
		s[i] = analog.Sample{Raw: c}
	}
	return s
}

func TestVoltageToPercentage(t *testing.T) {
	assert.Equal(t, 0, VoltageToPercentage(2700))
	assert.Equal(t, 100, VoltageToPercentage(4200))
	assert.Equal(t, 50, VoltageToPercentage(3450))
	// outside the anchors the curve saturates, it never extrapolates
	assert.Equal(t, 0, VoltageToPercentage(1000))
	assert.Equal(t, 100, VoltageToPercentage(5000))
}

func TestNewBatteryValidation(t *testing.T) {
	pin := &gpiotest.Pin{N: "GATE"}
	_, err := NewBattery(nil, &scriptedADC{}, nil)
	assert.Error(t, err)
	_, err = NewBattery(pin, nil, nil)
	assert.Error(t, err)
}

func TestReadVoltageFallbackConversion(t *testing.T) {
	pin := &gpiotest.Pin{N: "GATE"}
	adc := &scriptedADC{gate: pin, samples: rawSamples(2048, 2048, 2048)}
	b, err := NewBattery(pin, adc, nil)
	require.NoError(t, err)

	mv, err := b.ReadVoltage()
	require.NoError(t, err)
	// mean 2048 -> 2048*3300/4095 = 1650mV at the pin, x2 for the divider
	assert.Equal(t, 3300, mv)
	assert.Equal(t, 3, adc.reads)
	assert.False(t, adc.gateLow, "gate must be energised while sampling")
	assert.Equal(t, gpio.Low, pin.L, "gate must be released after sampling")

	gotMV, pct, err := b.LastReading()
	require.NoError(t, err)
	assert.Equal(t, 3300, gotMV)
	assert.Equal(t, 40, pct)
}

func TestReadVoltageCalibrated(t *testing.T) {
	pin := &gpiotest.Pin{N: "GATE"}
	adc := &scriptedADC{gate: pin, samples: rawSamples(16800, 16800, 16800)}
	b, err := NewBattery(pin, adc, func(raw int64) int64 {
		return raw * 4096 / 32768
	})
	require.NoError(t, err)

	mv, err := b.ReadVoltage()
	require.NoError(t, err)
	// 16800 codes -> 2100mV at the pin -> 4200mV pack
	assert.Equal(t, 4200, mv)

	rv, err := b.ReportVoltage()
	require.NoError(t, err)
	assert.Equal(t, uint8(42), rv)
	rp, err := b.ReportPercentage()
	require.NoError(t, err)
	assert.Equal(t, uint8(200), rp)
}

func TestReadVoltageMeanTruncates(t *testing.T) {
	pin := &gpiotest.Pin{N: "GATE"}
	adc := &scriptedADC{gate: pin, samples: rawSamples(100, 200, 301)}
	b, err := NewBattery(pin, adc, func(raw int64) int64 { return raw })
	require.NoError(t, err)

	mv, err := b.ReadVoltage()
	require.NoError(t, err)
	// mean of {100,200,301} truncates to 200
	assert.Equal(t, 400, mv)
}

func TestReadVoltageSampleFailureReleasesGate(t *testing.T) {
	pin := &gpiotest.Pin{N: "GATE"}
	adc := &scriptedADC{
		gate:    pin,
		samples: rawSamples(2048, 0, 2048),
		errs:    []error{nil, errors.New("i2c: bus stuck"), nil},
	}
	b, err := NewBattery(pin, adc, nil)
	require.NoError(t, err)

	_, err = b.ReadVoltage()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sample 2 of 3")
	assert.Equal(t, gpio.Low, pin.L, "gate leaked after a failed acquisition")

	// the failed session must not have populated the cache
	_, _, err = b.LastReading()
	assert.ErrorIs(t, err, ErrNotSampled)
}

func TestReportBeforeFirstSample(t *testing.T) {
	pin := &gpiotest.Pin{N: "GATE"}
	b, err := NewBattery(pin, &scriptedADC{}, nil)
	require.NoError(t, err)

	_, err = b.ReportVoltage()
	assert.ErrorIs(t, err, ErrNotSampled)
	_, err = b.ReportPercentage()
	assert.ErrorIs(t, err, ErrNotSampled)
	_, _, err = b.LastReading()
	assert.ErrorIs(t, err, ErrNotSampled)
}
