package sensors

import (
	"time"

	"github.com/gr-butler/caelum/buffer"
	"github.com/gr-butler/caelum/env"
	"github.com/gr-butler/caelum/pulse"
	"github.com/jonboulle/clockwork"
	logger "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// Anemometer derives wind speed from the hall sensor on the cup rotor.
// The edge goroutine feeds the pulse meter; once a second the accumulated
// window is converted to m/s and pushed into the rolling buffers.
type Anemometer struct {
	gpioPin  gpio.PinIO
	meter    *pulse.Meter
	speedBuf *buffer.SampleBuffer
	gustBuf  *buffer.SampleBuffer
	args     env.Args
}

func NewAnemometer(args env.Args) *Anemometer {
	a := &Anemometer{args: args}

	pin := gpioreg.ByName(env.WindSensorIn)
	if pin == nil {
		logger.Errorf("Failed to find %v - wind pin", env.WindSensorIn)
		return nil
	}
	logger.Infof("%s: %s", pin, pin.Function())
	if err := pin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		logger.Errorf("Failed to set up wind pin [%v]", err)
		return nil
	}
	a.gpioPin = pin

	m, err := pulse.NewMeter(clockwork.NewRealClock(),
		env.WindPulsesPerRev, env.WindRotorRadiusM, env.WindSpeedCalibration)
	if err != nil {
		logger.Errorf("Failed to create pulse meter [%v]", err)
		return nil
	}
	a.meter = m

	a.speedBuf = buffer.NewBuffer(env.WindBufferSeconds)
	a.gustBuf = buffer.NewBuffer(env.WindBufferSeconds)

	go a.monitorWindGPIO()
	go a.sample()
	return a
}

func (a *Anemometer) monitorWindGPIO() {
	logger.Info("Starting wind sensor")
	defer func() { _ = a.gpioPin.Halt() }()
	for {
		a.gpioPin.WaitForEdge(-1)
		a.meter.Pulse()
	}
}

func (a *Anemometer) sample() {
	for range time.Tick(time.Second) {
		speed := a.meter.MeasureRate()
		a.speedBuf.AddItem(speed)
		a.gustBuf.AddItem(speed)
		if *a.args.Speedon {
			logger.Infof("Wind speed [%.2f] m/s", speed)
		}
	}
}

// GetSpeed returns the rolling one minute average in m/s.
func (a *Anemometer) GetSpeed() float64 {
	avg, _, _, _ := a.speedBuf.GetAverageMinMaxSum()
	return float64(avg)
}

// GetGust returns the maximum three second average in the buffer window,
// the met office definition of a gust.
func (a *Anemometer) GetGust() float64 {
	data, s, _ := a.gustBuf.GetRawData()
	size := int(s)
	window := env.WindGustWindowSeconds
	threeSecMax := 0.0
	for i := 0; i < size; i++ {
		x := 0.0
		for j := 0; j < window; j++ {
			x += data[getWrappedIndex(i+j, size)]
		}
		if x > threeSecMax {
			threeSecMax = x
		}
	}
	return threeSecMax / float64(window)
}

func getWrappedIndex(x int, size int) int {
	if x >= size {
		return x - size
	}
	return x
}
