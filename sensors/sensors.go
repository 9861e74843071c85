package sensors

import (
	"github.com/gr-butler/caelum/env"
	"github.com/gr-butler/caelum/led"
	logger "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/host/v3"
)

/*
 * Sensors is responsible for reading the head hardware and converting
 * sensor output to real values. Each member is nil when its hardware did
 * not come up; the monitors check before use so one dead sensor doesn't
 * take the station down.
 */

const (
	DPS368_I2C   = 0x77
	BMP280_I2C   = 0x76
	SHT41_I2C    = 0x44
	VEML7700_I2C = 0x10
	AS5600_I2C   = 0x36
)

type Sensors struct {
	Bus   i2c.BusCloser
	Atm   *Atmosphere
	Wind  *Anemometer
	Vane  *WindVane
	Rain  *Rainmeter
	Bat   *Battery
	Light *Lightmeter

	heartbeatLed *led.LED
}

func (s *Sensors) InitSensors(args env.Args) error {
	if _, err := host.Init(); err != nil {
		logger.Errorf("Failed to init periph host [%v]", err)
		return err
	}

	bus, err := i2creg.Open(*args.Bus)
	if err != nil {
		logger.Errorf("Failed to open I²C [%v]", err)
		return err
	}
	s.Bus = bus

	s.Atm = NewAtmosphere(bus, args)
	s.Vane = NewWindVane(bus, args)
	s.Light = NewLightmeter(bus)
	s.Wind = NewAnemometer(args)
	s.Rain = NewRainmeter(args)
	s.Bat = s.initBattery(bus)

	s.heartbeatLed = led.ByName("Heartbeat", env.HeartbeatLed)

	logger.Infof("Sensors initialized, pressure source [%v]", s.pressureSource())
	return nil
}

func (s *Sensors) initBattery(bus i2c.Bus) *Battery {
	logger.Info("Starting battery ADC")
	adc, err := ads1x15.NewADS1115(bus, &ads1x15.DefaultOpts)
	if err != nil {
		logger.Errorf("Failed to open ADS1115 [%v]", err)
		return nil
	}
	// 4.096V full scale covers half the pack voltage with headroom
	pin, err := adc.PinForChannel(ads1x15.Channel1, 4096*physic.MilliVolt, 1*physic.Hertz, ads1x15.SaveEnergy)
	if err != nil {
		logger.Errorf("Failed to get battery ADC channel [%v]", err)
		return nil
	}
	gate := gpioreg.ByName(env.BatteryGateOut)
	if gate == nil {
		logger.Errorf("Failed to find %v - battery gate pin", env.BatteryGateOut)
		return nil
	}
	// ADS1115 at 4.096V FSR reads 32768 counts full scale, so one count
	// is 0.125mV at the pin.
	bat, err := NewBattery(gate, pin, func(raw int64) int64 {
		return raw * 4096 / 32768
	})
	if err != nil {
		logger.Errorf("Failed to create battery gauge [%v]", err)
		return nil
	}
	return bat
}

func (s *Sensors) pressureSource() string {
	if s.Atm == nil {
		return "none"
	}
	return s.Atm.PressureSource()
}

// Heartbeat flashes the status LED to say the daemon is alive.
func (s *Sensors) Heartbeat() {
	if s.heartbeatLed != nil {
		s.heartbeatLed.Flash()
	}
}
