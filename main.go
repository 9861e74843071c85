package main

import (
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/gr-butler/caelum/data"
	"github.com/gr-butler/caelum/db/postgres"
	"github.com/gr-butler/caelum/env"
	"github.com/gr-butler/caelum/sensors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	logger "github.com/sirupsen/logrus"
)

const version = "caelum-1.0.2"

type weatherstation struct {
	s    *sensors.Sensors
	data *data.WeatherData
	db   *postgres.Archive
	args env.Args
}

type webdata struct {
	TimeNow        string  `json:"time"`
	TempC          float64 `json:"temp_C"`
	Humidity       float64 `json:"humidity_RH"`
	Pressure       float64 `json:"pressure_hPa"`
	PressureSource string  `json:"pressure_source"`
	RainRate       float64 `json:"rain_mm_hr"`
	WindDir        float64 `json:"wind_dir"`
	WindCardinal   string  `json:"wind_cardinal"`
	WindSpeed      float64 `json:"wind_speed_ms"`
	WindGust       float64 `json:"wind_gust_ms"`
	BatteryMV      int     `json:"battery_mV"`
	BatteryPercent int     `json:"battery_percent"`
	Lux            float64 `json:"illuminance_lux"`
}

var Prom_atmPressure = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "atmospheric_pressure",
		Help: "Atmospheric pressure hPa",
	},
)

var Prom_humidity = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "relative_humidity",
		Help: "Relative Humidity",
	},
)

var Prom_temperature = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "temperature",
		Help: "Temperature C",
	},
)

var Prom_rainRatePerHour = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "rain_hour_rate",
		Help: "The rain rate based on the last hour of tips",
	},
)

var Prom_windspeed = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "windspeed",
		Help: "Average wind speed m/s",
	},
)

var Prom_windgust = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "windgust",
		Help: "Gust speed m/s",
	},
)

var Prom_windDirection = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "winddirection",
		Help: "Wind Direction Deg",
	},
)

var Prom_batteryMV = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "battery_millivolts",
		Help: "Battery pack voltage mV",
	},
)

var Prom_batteryPercent = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "battery_percent",
		Help: "Battery state of charge percent",
	},
)

var Prom_illuminance = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "illuminance_lux",
		Help: "Ambient light lux",
	},
)

func init() {
	logger.Infof("%v: Initialize prometheus...", time.Now().Format(time.RFC822))
	prometheus.MustRegister(
		Prom_atmPressure,
		Prom_humidity,
		Prom_temperature,
		Prom_rainRatePerHour,
		Prom_windspeed,
		Prom_windgust,
		Prom_windDirection,
		Prom_batteryMV,
		Prom_batteryPercent,
		Prom_illuminance)
}

func main() {
	logger.Infof("Starting weather head [%v]", version)

	args := env.Args{
		Test:      flag.Bool("test", false, "test mode, no external reporting"),
		Verbose:   flag.Bool("verbose", false, "debug logging"),
		NoWow:     flag.Bool("nowow", false, "disable met office WOW upload"),
		NoMqtt:    flag.Bool("nomqtt", false, "disable MQTT publishing"),
		NoDb:      flag.Bool("nodb", false, "disable the observation archive"),
		Speedon:   flag.Bool("speed", false, "log wind speed samples"),
		Diron:     flag.Bool("dir", false, "log wind direction samples"),
		Rainon:    flag.Bool("rain", false, "log bucket tips"),
		Batteryon: flag.Bool("battery", false, "log battery reads"),
		Bus:       flag.String("bus", "", "I²C bus (/dev/i2c-1)"),
	}
	flag.Parse()

	if *args.Verbose {
		logger.SetLevel(logger.DebugLevel)
	}
	if *args.Test {
		logger.Info("TEST MODE")
	}

	logger.Infof("%v: Initialize sensors...", time.Now().Format(time.RFC822))
	w := weatherstation{args: args}
	w.s = &sensors.Sensors{}
	if err := w.s.InitSensors(args); err != nil {
		logger.Errorf("Failed to initialise sensors!! [%v]", err)
		logger.Exit(1)
	}
	defer w.s.Bus.Close()

	w.data = data.CreateWeatherData()

	if !*args.NoDb && !*args.Test {
		dsn, ok := os.LookupEnv("DATABASE_URL")
		if !ok {
			logger.Warn("DATABASE_URL not set, archive disabled")
		} else if db, err := postgres.Open(dsn); err != nil {
			logger.Errorf("Failed to open archive db [%v]", err)
		} else {
			w.db = db
			defer db.Close()
		}
	}

	// start monitor routines
	go w.StartAtmosphericMonitor()
	go w.StartWindMonitor()
	go w.StartRainMonitor()
	go w.StartBatteryMonitor()

	go w.Reporting()
	if !*args.NoWow && !*args.Test {
		go w.MetofficeProcessor()
	}

	go w.heartbeat()

	// start web service
	http.HandleFunc("/", w.handler)
	http.Handle("/metrics", promhttp.Handler())
	logger.Fatal(http.ListenAndServe(":80", nil))
}

func (w *weatherstation) heartbeat() {
	logger.Info("Heartbeat started")
	for {
		w.s.Heartbeat()
		time.Sleep(time.Second * 30)
	}
}

func (w *weatherstation) handler(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "application/json")
	wd := webdata{
		TimeNow:        time.Now().Format(time.RFC822),
		PressureSource: "none",
	}
	if w.s.Atm != nil {
		wd.PressureSource = w.s.Atm.PressureSource()
		if t, err := w.s.Atm.GetTemperature(); err == nil {
			wd.TempC = t.Float64()
		}
		if h, err := w.s.Atm.GetHumidity(); err == nil {
			wd.Humidity = h.Float64()
		}
		if p, err := w.s.Atm.GetPressure(); err == nil {
			wd.Pressure = p.Float64()
		}
	}
	if w.s.Rain != nil {
		wd.RainRate = w.s.Rain.GetRate().Float64()
	}
	if w.s.Wind != nil {
		wd.WindSpeed = w.s.Wind.GetSpeed()
		wd.WindGust = w.s.Wind.GetGust()
	}
	if w.s.Vane != nil {
		if dir, err := w.s.Vane.GetDirection(); err == nil {
			wd.WindDir = dir
			wd.WindCardinal = sensors.DegreesToCardinal(dir)
		}
	}
	if w.s.Bat != nil {
		if mv, pct, err := w.s.Bat.LastReading(); err == nil {
			wd.BatteryMV = mv
			wd.BatteryPercent = pct
		}
	}
	if w.s.Light != nil {
		if lux, err := w.s.Light.GetLux(); err == nil {
			wd.Lux = lux
		}
	}

	js, err := json.Marshal(wd)
	if err != nil {
		logger.Errorf("JSON error [%v]", err)
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}

	logger.Debugf("Web read: [%v]", string(js))
	_, _ = rw.Write(js) // not much we can do if this fails
}
