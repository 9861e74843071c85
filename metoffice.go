package main

import (
	"math"
	"net/http"
	"os"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/gr-butler/caelum/env"
	logger "github.com/sirupsen/logrus"
)

/*

https://wow.metoffice.gov.uk/support/dataformats

WOW expects an HTTP request, in the form of either GET or POST, to
http://wow.metoffice.gov.uk/automaticreading? followed by a set of
key/value pairs.

All uploads must contain 4 pieces of mandatory information plus at least 1
piece of weather data: siteid, siteAuthenticationKey, dateutc and
softwaretype. The date must be in the format YYYY-mm-DD HH:mm:ss adjusted
to UTC, with ':' URL-encoded.

KEY             Description                                 UNIT
baromin         Barometric Pressure                         Inch of Mercury
dewptf          Outdoor Dewpoint                            Fahrenheit
humidity        Outdoor Humidity                            0-100 %
rainin          Accumulated rainfall since last observation Inches
tempf           Outdoor Temperature                         Fahrenheit
winddir         Instantaneous Wind Direction                Degrees (0-360)
windspeedmph    Instantaneous Wind Speed                    Miles per Hour
windgustmph     Current Wind Gust                           Miles per Hour

*/

const baseUrl = "http://wow.metoffice.gov.uk/automaticreading?"

const Rd = 287.1   // gas constant for dry air J/(kg K)
const g = 9.807    // gravity
const z0 = 24.71   // station altitude above sea level, m
const kelvin = 273.1

type wowData struct {
	SiteId       string  `url:"siteid,omitempty"`
	AuthKey      string  `url:"siteAuthenticationKey,omitempty"`
	DateString   string  `url:"dateutc,omitempty"`
	SoftwareType string  `url:"softwaretype,omitempty"`
	PressureIn   float64 `url:"baromin,omitempty"`
	Humidity     float64 `url:"humidity,omitempty"`
	TempF        float64 `url:"tempf,omitempty"`
	DewPointF    float64 `url:"dewptf,omitempty"`
	RainIn       float64 `url:"rainin,omitempty"`
	WindDir      float64 `url:"winddir,omitempty"`
	WindSpeedMph float64 `url:"windspeedmph,omitempty"`
	WindGustMph  float64 `url:"windgustmph,omitempty"`
}

// MetofficeProcessor uploads an observation to WOW every report period:
// on the hour, then 15, 30 and 45 past.
func (w *weatherstation) MetofficeProcessor() {
	wowsiteid, idok := os.LookupEnv("WOWSITEID")
	wowpin, pinok := os.LookupEnv("WOWPIN")
	if !(idok && pinok) {
		logger.Error("SiteId and or pin not set! WOWSITEID and WOWPIN must be set.")
		return
	}

	for t := range time.Tick(time.Minute) {
		if t.Minute()%env.ReportFreqMin != 0 {
			continue
		}
		data := w.prepWowData()
		data.SiteId = wowsiteid
		data.AuthKey = wowpin

		vals, err := query.Values(data)
		if err != nil {
			logger.Errorf("Failed to encode WOW data [%v]", err)
			continue
		}
		logger.Infof("Sending data to met office [%v]", vals.Encode())

		// WOW accepts a GET, which is easier, so use that
		client := http.Client{Timeout: time.Second * 30}
		resp, err := client.Get(baseUrl + vals.Encode())
		if err != nil {
			logger.Errorf("Failed to send data [%v]", err)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			logger.Errorf("Failed to send data HTTP [%v]", resp.Status)
		}
		_ = resp.Body.Close()

		// WOW wants rain since the previous observation
		if w.s.Rain != nil {
			w.s.Rain.ResetAccumulation()
		}
	}
}

func (w *weatherstation) prepWowData() *wowData {
	wd := wowData{}

	// "The date must be in the following format: YYYY-mm-DD HH:mm:ss"
	// go magic date is Mon Jan 2 15:04:05 MST 2006
	wd.DateString = time.Now().UTC().Format("2006-01-02+15:04:05")
	wd.SoftwareType = version

	var tempC, humidity float64
	if w.s.Atm != nil {
		if t, err := w.s.Atm.GetTemperature(); err == nil {
			tempC = t.Float64()
			wd.TempF = ctof(tempC)
		}
		if h, err := w.s.Atm.GetHumidity(); err == nil {
			humidity = h.Float64()
			wd.Humidity = humidity
		}
		if p, err := w.s.Atm.GetPressure(); err == nil {
			wd.PressureIn = seaLevelInHg(p.Float64(), tempC)
		}
	}
	wd.DewPointF = dewPointF(tempC, humidity)

	if w.s.Rain != nil {
		wd.RainIn = mmToIn(w.s.Rain.GetAccumulation().Float64())
	}
	if w.s.Wind != nil {
		wd.WindSpeedMph = w.s.Wind.GetSpeed() * env.MpsToMph
		wd.WindGustMph = w.s.Wind.GetGust() * env.MpsToMph
	}
	if w.s.Vane != nil {
		if deg, err := w.s.Vane.GetDirection(); err == nil {
			wd.WindDir = deg
		}
	}
	return &wd
}

// seaLevelInHg reduces the station pressure to mean sea level using the
// scale height H = Rd*T/g, then converts to inches of mercury.
func seaLevelInHg(hPa float64, tempC float64) float64 {
	tempK := tempC + kelvin
	H := (Rd * tempK) / g
	return hPa * env.HPaToInHg * math.Exp(z0/H)
}

func dewPointF(tempC float64, humidity float64) float64 {
	//Td = T - ((100 - RH)/5)
	return ctof(tempC - ((100 - humidity) / 5.0))
}

func ctof(c float64) float64 {
	//(0°C × 9/5) + 32 = 32°F
	return (c * 9 / 5) + 32
}

func mmToIn(mm float64) float64 {
	return mm / env.MmToInch
}
