package led

import (
	"sync"
	"time"

	"github.com/gr-butler/caelum/env"
	logger "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

type LED struct {
	Name    string
	lock    sync.Mutex
	on      bool
	gpioPin gpio.PinIO
}

// ByName looks the pin up in the gpio registry. A missing LED pin is not
// fatal, the returned LED just does nothing.
func ByName(name string, pinName string) *LED {
	logger.Infof("Creating LED [%v] on pin [%v]", name, pinName)
	pin := gpioreg.ByName(pinName)
	if pin == nil {
		logger.Errorf("Failed to find %v pin for LED [%v]", pinName, name)
	}
	return New(name, pin)
}

func New(name string, pin gpio.PinIO) *LED {
	l := &LED{
		Name:    name,
		gpioPin: pin,
	}
	if l.gpioPin != nil {
		// flicker to show it's wired up
		_ = l.gpioPin.Out(gpio.Low)
		for i := 0; i < 2; i++ {
			_ = l.gpioPin.Out(gpio.High)
			time.Sleep(env.LEDFlashDuration)
			_ = l.gpioPin.Out(gpio.Low)
			time.Sleep(env.LEDFlashDuration)
		}
	}
	return l
}

func (l *LED) On() {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.on = true
	if l.gpioPin != nil {
		_ = l.gpioPin.Out(gpio.High)
	}
}

func (l *LED) Off() {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.on = false
	if l.gpioPin != nil {
		_ = l.gpioPin.Out(gpio.Low)
	}
}

func (l *LED) Flash() {
	if l.gpioPin == nil {
		return
	}
	if !l.lock.TryLock() {
		// if a flash is already in progress there is no point queueing
		// another one behind the mutex, drop it
		return
	}
	defer l.lock.Unlock()
	if !l.on {
		_ = l.gpioPin.Out(gpio.High)
		time.Sleep(env.LEDFlashDuration)
		_ = l.gpioPin.Out(gpio.Low)
	} else {
		// 'off' flash
		_ = l.gpioPin.Out(gpio.Low)
		time.Sleep(env.LEDFlashDuration)
		_ = l.gpioPin.Out(gpio.High)
	}
}

func (l *LED) IsOn() bool {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.on
}
