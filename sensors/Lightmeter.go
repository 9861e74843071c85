package sensors

import (
	"github.com/gr-butler/caelum/veml7700"
	logger "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
)

// Lightmeter reads ambient light from the VEML7700 on the head board.
type Lightmeter struct {
	dev *veml7700.Dev
}

func NewLightmeter(bus i2c.Bus) *Lightmeter {
	dev, err := veml7700.NewI2C(bus, VEML7700_I2C, &veml7700.DefaultOpts)
	if err != nil {
		logger.Errorf("Failed to open VEML7700 [%v]", err)
		return nil
	}
	return &Lightmeter{dev: dev}
}

func (l *Lightmeter) GetLux() (float64, error) {
	return l.dev.ReadLux()
}
