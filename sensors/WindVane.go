package sensors

import (
	"math"

	"github.com/gr-butler/caelum/as5600"
	"github.com/gr-butler/caelum/env"
	logger "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
)

// WindVane reads the magnetic angle sensor under the vane and corrects
// for how the sensor happens to be mounted relative to true north.
type WindVane struct {
	dev    *as5600.Dev
	offset float64
	args   env.Args
}

func NewWindVane(bus i2c.Bus, args env.Args) *WindVane {
	dev, err := as5600.NewI2C(bus, AS5600_I2C)
	if err != nil {
		logger.Errorf("Failed to open AS5600 [%v]", err)
		return nil
	}
	status, err := dev.Status()
	if err != nil {
		logger.Errorf("Failed to read AS5600 status [%v]", err)
		return nil
	}
	// the vane magnet may be fitted after the electronics, so a bad field
	// is a warning rather than a failure
	if !status.Detected || status.TooStrong || status.TooWeak {
		logger.Warnf("Wind vane magnet: %v", status)
	}
	return &WindVane{dev: dev, offset: env.VaneOffsetDegrees, args: args}
}

// GetDirection returns the wind direction in degrees, [0, 360), 0 = north.
func (v *WindVane) GetDirection() (float64, error) {
	deg, err := v.dev.ReadAngleDegrees()
	if err != nil {
		return 0, err
	}
	dir := normalizeDegrees(deg - v.offset)
	if *v.args.Diron {
		logger.Infof("Vane raw [%v] dir [%v] %v", deg, dir, DegreesToCardinal(dir))
	}
	return dir, nil
}

func normalizeDegrees(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}

var cardinals = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// DegreesToCardinal maps a direction onto the 16 point compass rose.
func DegreesToCardinal(d float64) string {
	idx := int(math.Mod(d+11.25, 360) / 22.5)
	return cardinals[idx]
}
