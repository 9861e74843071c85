package env

import "time"

const (
	GPIO04 = "GPIO04"
	GPIO12 = "GPIO12" // rain pin
	GPIO16 = "GPIO16" // battery gate MOSFET
	GPIO19 = "GPIO19" // rain tip LED
	GPIO20 = "GPIO20" // heartbeat LED
	GPIO27 = "GPIO27" // wind pin

	RainSensorIn   = GPIO12
	WindSensorIn   = GPIO27
	BatteryGateOut = GPIO16

	HeartbeatLed = GPIO20
	RainTipLed   = GPIO19

	// SS445P hall sensor on the anemometer shaft, one pulse per rotation.
	// The calibration factor corrects for cup drag measured against a
	// handheld reference meter.
	WindPulsesPerRev      = 1
	WindRotorRadiusM      = 0.07
	WindSpeedCalibration  = 1.18
	WindBufferSeconds     = 60
	WindGustWindowSeconds = 3

	// https://www.robotics.org.za/WH-SP-RG
	// https://forum.mysensors.org/topic/9594/misol-rain-gauge-tipping-bucket-rain-amount
	MmPerTip = 0.3537

	// Pack voltage is measured behind a 100k/100k divider, switched by a
	// MOSFET so the divider doesn't drain the pack between reads.
	BatteryDividerR1Ohm = 100_000
	BatteryDividerR2Ohm = 100_000
	BatterySettleDelay  = time.Millisecond * 10
	BatterySampleDelay  = time.Millisecond * 1
	BatterySampleCount  = 3
	// fallback raw-to-mV conversion when the ADC offers no calibration
	AdcReferenceMV = 3300
	AdcFullScale   = 4095
	// Li-Ion discharge curve anchors
	BatteryEmptyMV = 2700
	BatteryFullMV  = 4200

	// vane mounting offset: angle read when the vane points true north
	VaneOffsetDegrees = 113.0

	MpsToMph      = 2.23694
	HPaToInHg     = 0.02953
	MmToInch      = 25.4
	ReportFreqMin = 15

	LEDFlashDuration = time.Millisecond * 50
)

var Disabled = false
var Enabled = true
