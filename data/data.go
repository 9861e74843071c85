package data

import (
	"sync"

	"github.com/gr-butler/caelum/buffer"
)

// holder for all the sample streams the sensors produce

type WeatherData struct {
	lock    sync.RWMutex
	buffers map[string]*buffer.SampleBuffer
}

func CreateWeatherData() *WeatherData {
	wd := WeatherData{}
	wd.buffers = make(map[string]*buffer.SampleBuffer)
	return &wd
}

func (wd *WeatherData) AddBuffer(name string, b *buffer.SampleBuffer) {
	wd.lock.Lock()
	defer wd.lock.Unlock()
	wd.buffers[name] = b
}

func (wd *WeatherData) GetBuffer(name string) *buffer.SampleBuffer {
	wd.lock.RLock()
	defer wd.lock.RUnlock()
	return wd.buffers[name]
}
