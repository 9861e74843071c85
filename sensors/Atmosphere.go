package sensors

import (
	"errors"
	"math"

	"github.com/gr-butler/caelum/dps368"
	"github.com/gr-butler/caelum/env"
	"github.com/gr-butler/caelum/sht41"
	logger "github.com/sirupsen/logrus"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
)

type PressurehPa float64
type RelHumidity float64
type TemperatureC float64

func (p PressurehPa) Float64() float64 {
	return float64(p)
}

func (r RelHumidity) Float64() float64 {
	return float64(r)
}

func (t TemperatureC) Float64() float64 {
	return float64(t)
}

// ErrNoPressureSensor is returned when neither barometer initialised.
var ErrNoPressureSensor = errors.New("atmosphere: no pressure sensor available")

// ErrNoHumiditySensor is returned when the SHT41 did not initialise.
var ErrNoHumiditySensor = errors.New("atmosphere: no humidity sensor available")

// Atmosphere wraps the pressure, temperature and humidity sensors. The
// DPS368 is the barometer on the current head; hardware v1 heads carry a
// BME280, so that is the fallback when the DPS368 probe fails.
type Atmosphere struct {
	baro     *dps368.Dev
	fallback *bmxx80.Dev
	th       *sht41.Dev
	args     env.Args
}

func NewAtmosphere(bus i2c.Bus, args env.Args) *Atmosphere {
	a := &Atmosphere{args: args}

	logger.Infof("Starting DPS368 barometer [%x]", DPS368_I2C)
	baro, err := dps368.NewI2C(bus, DPS368_I2C, &dps368.DefaultOpts)
	if err != nil {
		logger.Warnf("DPS368 probe failed [%v], trying BME280 [%x]", err, BMP280_I2C)
		bme, err := bmxx80.NewI2C(bus, BMP280_I2C, &bmxx80.DefaultOpts)
		if err != nil {
			logger.Errorf("Failed to initialise a barometer [%v]", err)
		} else {
			a.fallback = bme
		}
	} else {
		a.baro = baro
	}

	logger.Infof("Starting SHT41 temperature/humidity sensor [%x]", SHT41_I2C)
	th, err := sht41.NewI2C(bus, SHT41_I2C)
	if err != nil {
		logger.Errorf("Failed to open SHT41 [%v]", err)
	} else {
		a.th = th
	}

	if a.baro == nil && a.fallback == nil && a.th == nil {
		logger.Error("No atmospheric sensors found")
		return nil
	}
	return a
}

// PressureSource names the barometer in use, for the startup log and the
// web status page.
func (a *Atmosphere) PressureSource() string {
	switch {
	case a.baro != nil:
		return "DPS368"
	case a.fallback != nil:
		return "BME280"
	default:
		return "none"
	}
}

func (a *Atmosphere) GetPressure() (PressurehPa, error) {
	if a.baro != nil {
		hPa, err := a.baro.ReadPressure()
		if err != nil {
			return 0, err
		}
		return PressurehPa(math.Round(hPa*100) / 100), nil
	}
	if a.fallback != nil {
		em := physic.Env{}
		if err := a.fallback.Sense(&em); err != nil {
			return 0, err
		}
		hPa := float64(em.Pressure) / float64(100*physic.Pascal)
		return PressurehPa(math.Round(hPa*100) / 100), nil
	}
	return 0, ErrNoPressureSensor
}

// GetTemperature prefers the SHT41, which sits away from the board's self
// heating; the barometer's temperature channel is the backup.
func (a *Atmosphere) GetTemperature() (TemperatureC, error) {
	if a.th != nil {
		em := physic.Env{}
		if err := a.th.Sense(&em); err != nil {
			return 0, err
		}
		return TemperatureC(em.Temperature.Celsius()), nil
	}
	if a.baro != nil {
		c, err := a.baro.ReadTemperature()
		if err != nil {
			return 0, err
		}
		return TemperatureC(c), nil
	}
	if a.fallback != nil {
		em := physic.Env{}
		if err := a.fallback.Sense(&em); err != nil {
			return 0, err
		}
		return TemperatureC(em.Temperature.Celsius()), nil
	}
	return 0, ErrNoPressureSensor
}

func (a *Atmosphere) GetHumidity() (RelHumidity, error) {
	if a.th != nil {
		em := physic.Env{}
		if err := a.th.Sense(&em); err != nil {
			return 0, err
		}
		return RelHumidity(math.Round(float64(em.Humidity) / float64(physic.PercentRH))), nil
	}
	if a.fallback != nil {
		em := physic.Env{}
		if err := a.fallback.Sense(&em); err != nil {
			return 0, err
		}
		return RelHumidity(math.Round(float64(em.Humidity) / float64(physic.PercentRH))), nil
	}
	return 0, ErrNoHumiditySensor
}
