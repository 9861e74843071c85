package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gr-butler/caelum/db/postgres"
	"github.com/gr-butler/caelum/env"
	"github.com/gr-butler/caelum/sensors"
	logger "github.com/sirupsen/logrus"
)

const observationTopic = "caelum/observation"

// observation is the payload published over MQTT once a minute. The two
// battery code fields are the compact report units consumers of the old
// head firmware expect: tenths of a volt and a doubled percentage.
type observation struct {
	Time             string  `json:"time"`
	TemperatureC     float64 `json:"temperature_c"`
	HumidityRH       float64 `json:"humidity_rh"`
	PressureHPa      float64 `json:"pressure_hpa"`
	RainRateMmHr     float64 `json:"rain_rate_mm_hr"`
	RainMm           float64 `json:"rain_mm"`
	WindSpeedMS      float64 `json:"wind_speed_ms"`
	WindGustMS       float64 `json:"wind_gust_ms"`
	WindDirectionDeg float64 `json:"wind_direction_deg"`
	WindCardinal     string  `json:"wind_cardinal"`
	BatteryMV        int     `json:"battery_mv"`
	BatteryPercent   int     `json:"battery_percent"`
	BatteryCodeV     uint8   `json:"battery_voltage_code"`
	BatteryCodePct   uint8   `json:"battery_percent_code"`
	Lux              float64 `json:"illuminance_lux"`
}

// Reporting publishes an observation over MQTT every minute and archives
// one to the database every report period.
func (w *weatherstation) Reporting() {
	var client mqtt.Client
	if !*w.args.NoMqtt && !*w.args.Test {
		broker, ok := os.LookupEnv("MQTTBROKER")
		if !ok {
			broker = "tcp://localhost:1883"
		}
		opts := mqtt.NewClientOptions().
			AddBroker(broker).
			SetClientID("caelum").
			SetAutoReconnect(true).
			SetConnectTimeout(time.Second * 10)
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			logger.Errorf("Failed to connect to MQTT broker [%v] [%v]", broker, token.Error())
			client = nil
		} else {
			logger.Infof("Connected to MQTT broker [%v]", broker)
		}
	}

	for t := range time.Tick(time.Minute) {
		obs := w.gatherObservation(t)

		if client != nil {
			js, err := json.Marshal(obs)
			if err != nil {
				logger.Errorf("Observation JSON error [%v]", err)
			} else if token := client.Publish(observationTopic, 0, false, js); token.Wait() && token.Error() != nil {
				logger.Errorf("Failed to publish observation [%v]", token.Error())
			}
		}

		if w.db != nil && t.Minute()%env.ReportFreqMin == 0 {
			logger.Info("Saving record to db")
			err := w.db.WriteRecord(context.Background(), postgres.WriteRecordParams{
				Temperature:    obs.TemperatureC,
				Humidity:       obs.HumidityRH,
				Pressure:       obs.PressureHPa,
				RainMm:         obs.RainMm,
				WindSpeed:      obs.WindSpeedMS,
				WindGust:       obs.WindGustMS,
				WindDirection:  obs.WindDirectionDeg,
				BatteryMV:      obs.BatteryMV,
				BatteryPercent: obs.BatteryPercent,
				Lux:            obs.Lux,
			})
			if err != nil {
				logger.Errorf("Failed to write to db [%v]", err)
			}
		}
	}
}

func (w *weatherstation) gatherObservation(t time.Time) observation {
	obs := observation{
		Time: t.UTC().Format(time.RFC3339),
	}
	if w.s.Atm != nil {
		if v, err := w.s.Atm.GetTemperature(); err == nil {
			obs.TemperatureC = v.Float64()
		}
		if v, err := w.s.Atm.GetHumidity(); err == nil {
			obs.HumidityRH = v.Float64()
		}
		if v, err := w.s.Atm.GetPressure(); err == nil {
			obs.PressureHPa = v.Float64()
		}
	}
	if w.s.Rain != nil {
		obs.RainRateMmHr = w.s.Rain.GetRate().Float64()
		obs.RainMm = w.s.Rain.GetAccumulation().Float64()
	}
	if w.s.Wind != nil {
		obs.WindSpeedMS = w.s.Wind.GetSpeed()
		obs.WindGustMS = w.s.Wind.GetGust()
	}
	if w.s.Vane != nil {
		if deg, err := w.s.Vane.GetDirection(); err == nil {
			obs.WindDirectionDeg = deg
			obs.WindCardinal = sensors.DegreesToCardinal(deg)
		}
	}
	if w.s.Bat != nil {
		// cached values only, the battery monitor owns the sampling
		if mv, pct, err := w.s.Bat.LastReading(); err == nil {
			obs.BatteryMV = mv
			obs.BatteryPercent = pct
		}
		if code, err := w.s.Bat.ReportVoltage(); err == nil {
			obs.BatteryCodeV = code
		}
		if code, err := w.s.Bat.ReportPercentage(); err == nil {
			obs.BatteryCodePct = code
		}
	}
	if w.s.Light != nil {
		if lux, err := w.s.Light.GetLux(); err == nil {
			obs.Lux = lux
		}
	}
	return obs
}
