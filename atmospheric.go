package main

import (
	"time"

	"github.com/gr-butler/caelum/buffer"
	logger "github.com/sirupsen/logrus"
)

func (w *weatherstation) StartAtmosphericMonitor() {
	logger.Info("Starting atmosphere monitor")
	w.data.AddBuffer("temperature", buffer.NewBuffer(60))
	w.data.AddBuffer("humidity", buffer.NewBuffer(60))
	w.data.AddBuffer("pressurehPa", buffer.NewBuffer(60))
	w.data.AddBuffer("lux", buffer.NewBuffer(60))

	// sample and store sensor data
	for range time.Tick(time.Second * 10) {
		if w.s.Atm != nil {
			if t, err := w.s.Atm.GetTemperature(); err != nil {
				logger.Warnf("No temperature data [%v]", err)
			} else {
				w.data.GetBuffer("temperature").AddItem(t.Float64())
				Prom_temperature.Set(t.Float64())
			}
			if rh, err := w.s.Atm.GetHumidity(); err != nil {
				logger.Warnf("No humidity data [%v]", err)
			} else {
				w.data.GetBuffer("humidity").AddItem(rh.Float64())
				Prom_humidity.Set(rh.Float64())
			}
			if hPa, err := w.s.Atm.GetPressure(); err != nil {
				logger.Warnf("No pressure data [%v]", err)
			} else {
				w.data.GetBuffer("pressurehPa").AddItem(hPa.Float64())
				Prom_atmPressure.Set(hPa.Float64())
			}
		}
		if w.s.Light != nil {
			if lux, err := w.s.Light.GetLux(); err != nil {
				logger.Warnf("No light data [%v]", err)
			} else {
				w.data.GetBuffer("lux").AddItem(lux)
				Prom_illuminance.Set(lux)
			}
		}
	}
}
