package sensors

import (
	"sync/atomic"
	"time"

	"github.com/gr-butler/caelum/buffer"
	"github.com/gr-butler/caelum/env"
	"github.com/gr-butler/caelum/led"
	"github.com/gr-butler/caelum/pulse"
	logger "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpioutil"
)

type mmHr float64
type mm float64

func (m mmHr) Float64() float64 {
	return float64(m)
}

func (m mm) Float64() float64 {
	return float64(m)
}

// Rainmeter counts tipping bucket events from the debounced reed switch.
// Tips land in the counter from the edge goroutine; every ten seconds the
// count is banked into an hour-long ring.
type Rainmeter struct {
	gpioPin      gpio.PinIO
	counter      *pulse.Counter
	accumulation atomic.Int64 // tips since the last report reset
	ledOut       *led.LED
	tipBuf       *buffer.SampleBuffer // tips per 10s slot, one hour of slots
	args         env.Args
}

func NewRainmeter(args env.Args) *Rainmeter {
	r := &Rainmeter{args: args}

	rp := gpioreg.ByName(env.RainSensorIn)
	if rp == nil {
		logger.Errorf("Failed to find %v - rain pin", env.RainSensorIn)
		return nil
	}
	logger.Infof("%s: %s", rp, rp.Function())

	// Ignore glitches lasting less than 100ms, and ignore repeated edges
	// within 500ms.
	rainpin, err := gpioutil.Debounce(rp, 100*time.Millisecond, 500*time.Millisecond, gpio.FallingEdge)
	if err != nil {
		logger.Errorf("Failed to set debounce [%v]", err)
		return nil
	}
	r.gpioPin = rainpin

	r.ledOut = led.ByName("Rain Tip", env.RainTipLed)
	r.counter = pulse.NewCounter()
	// every 10 seconds for the last hour = 3600 / 10 = 360
	r.tipBuf = buffer.NewBuffer(360)

	go r.monitorRainGPIO()
	go r.bankTips()
	return r
}

// GetRate projects the last hour of tips to a mm/hr rate.
func (r *Rainmeter) GetRate() mmHr {
	_, _, _, sum := r.tipBuf.GetAverageMinMaxSum()
	return mmHr(env.MmPerTip * float64(sum))
}

// GetAccumulation returns the rainfall since the last reset in mm.
func (r *Rainmeter) GetAccumulation() mm {
	return mm(float64(r.accumulation.Load()) * env.MmPerTip)
}

func (r *Rainmeter) ResetAccumulation() {
	r.accumulation.Store(0)
}

func (r *Rainmeter) monitorRainGPIO() {
	logger.Info("Starting tip bucket monitor")
	defer func() { _ = r.gpioPin.Halt() }()
	for {
		r.gpioPin.WaitForEdge(-1)
		if r.gpioPin.Read() == gpio.Low {
			r.counter.Pulse()
			r.accumulation.Add(1)
			if *r.args.Rainon {
				logger.Infof("Bucket tip @ %v", time.Now().Format(time.ANSIC))
			}
			r.ledOut.Flash()
		}
	}
}

func (r *Rainmeter) bankTips() {
	for range time.Tick(time.Second * 10) {
		r.tipBuf.AddItem(float64(r.counter.Take()))
	}
}
