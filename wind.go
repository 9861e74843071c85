package main

import (
	"time"

	"github.com/gr-butler/caelum/buffer"
	logger "github.com/sirupsen/logrus"
)

/*
Measuring gusts and wind intensity

Because wind is an element that varies rapidly over very short periods of
time it is sampled at high frequency to capture the intensity of gusts, or
short-lived peaks in speed, which inflict greatest damage in storms. The
gust speed and direction are defined by the maximum three second average
wind speed occurring in any period.

A better measure of the overall wind intensity is defined by the average
speed and direction over the ten minute period leading up to the reporting
time.

The anemometer itself does the per-second sampling; this monitor reads the
rolling figures out for reporting.
*/

func (w *weatherstation) StartWindMonitor() {
	logger.Info("Starting wind monitor")
	w.data.AddBuffer("windSpeed", buffer.NewBuffer(60))
	w.data.AddBuffer("windGust", buffer.NewBuffer(60))
	w.data.AddBuffer("windDirection", buffer.NewBuffer(60))

	for range time.Tick(time.Second * 10) {
		if w.s.Wind == nil {
			continue
		}
		speed := w.s.Wind.GetSpeed()
		gust := w.s.Wind.GetGust()
		w.data.GetBuffer("windSpeed").AddItem(speed)
		w.data.GetBuffer("windGust").AddItem(gust)
		Prom_windspeed.Set(speed)
		Prom_windgust.Set(gust)

		if w.s.Vane != nil {
			if speed > 0 {
				if deg, err := w.s.Vane.GetDirection(); err != nil {
					logger.Warnf("No wind direction data [%v]", err)
				} else {
					w.data.GetBuffer("windDirection").AddItem(deg)
					Prom_windDirection.Set(deg)
				}
			} else {
				// becalmed, the vane position is garbage; hold the last
				// direction
				last := w.data.GetBuffer("windDirection").GetLast()
				w.data.GetBuffer("windDirection").AddItem(last)
			}
		}
	}
}
