package main

import (
	"time"

	"github.com/gr-butler/caelum/buffer"
	logger "github.com/sirupsen/logrus"
)

func (w *weatherstation) StartRainMonitor() {
	logger.Info("Starting rain monitor")
	w.data.AddBuffer("rainRate", buffer.NewBuffer(60))

	for range time.Tick(time.Minute) {
		if w.s.Rain == nil {
			continue
		}
		rate := w.s.Rain.GetRate().Float64()
		w.data.GetBuffer("rainRate").AddItem(rate)
		Prom_rainRatePerHour.Set(rate)
		logger.Debugf("Rain rate [%.2f] mm/hr, since last report [%.2f] mm",
			rate, w.s.Rain.GetAccumulation().Float64())
	}
}
