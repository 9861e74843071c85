package main

import (
	"time"

	"github.com/gr-butler/caelum/buffer"
	logger "github.com/sirupsen/logrus"
)

func (w *weatherstation) StartBatteryMonitor() {
	logger.Info("Starting battery monitor")
	w.data.AddBuffer("batteryMV", buffer.NewBuffer(60))

	for range time.Tick(time.Minute) {
		if w.s.Bat == nil {
			continue
		}
		mv, err := w.s.Bat.ReadVoltage()
		if err != nil {
			// no retry here; the next tick is soon enough and the report
			// layer can fall back on the cached reading
			logger.Errorf("Battery read failed [%v]", err)
			continue
		}
		_, pct, _ := w.s.Bat.LastReading()
		w.data.GetBuffer("batteryMV").AddItem(float64(mv))
		Prom_batteryMV.Set(float64(mv))
		Prom_batteryPercent.Set(float64(pct))
		if *w.args.Batteryon {
			logger.Infof("Battery [%v]mV [%v]%%", mv, pct)
		}
	}
}
