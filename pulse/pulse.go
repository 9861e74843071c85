package pulse

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// Counter accumulates pulse events from a gpio edge goroutine. Pulse is
// safe to call concurrently with Take; the count is a single atomic word,
// never a load/store pair.
type Counter struct {
	enabled atomic.Bool
	count   atomic.Uint32
}

func NewCounter() *Counter {
	c := &Counter{}
	c.enabled.Store(true)
	return c
}

// Pulse records one qualifying edge. No-op while disabled.
func (c *Counter) Pulse() {
	if !c.enabled.Load() {
		return
	}
	c.count.Add(1)
}

// Take returns the accumulated count and clears it in one atomic step, so
// an edge arriving during the call is neither lost nor counted twice.
func (c *Counter) Take() uint32 {
	return c.count.Swap(0)
}

func (c *Counter) Enable() {
	c.count.Store(0)
	c.enabled.Store(true)
}

func (c *Counter) Disable() {
	c.enabled.Store(false)
}

// Meter converts accumulated pulses over an elapsed window into a linear
// rate in m/s. One rotation of the rotor moves the cups through one
// circumference, scaled by the calibration factor for the cup geometry.
type Meter struct {
	clock clockwork.Clock

	pulsesPerRev  float64
	circumference float64
	calibration   float64

	enabled atomic.Bool
	count   atomic.Uint32

	lock        sync.Mutex
	windowStart time.Time
}

func NewMeter(clk clockwork.Clock, pulsesPerRev int, radiusM float64, calibration float64) (*Meter, error) {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	if pulsesPerRev < 1 {
		return nil, errors.New("pulse: pulses per revolution must be at least 1")
	}
	if radiusM <= 0 {
		return nil, errors.New("pulse: rotor radius must be positive")
	}
	m := &Meter{
		clock:         clk,
		pulsesPerRev:  float64(pulsesPerRev),
		circumference: 2 * math.Pi * radiusM,
		calibration:   calibration,
	}
	m.enabled.Store(true)
	m.windowStart = clk.Now()
	return m, nil
}

// Pulse records one qualifying edge. Called from the edge-monitor
// goroutine, so it must not block; no-op while disabled.
func (m *Meter) Pulse() {
	if !m.enabled.Load() {
		return
	}
	m.count.Add(1)
}

// MeasureRate returns the rate in m/s over the window since the last
// measurement and starts a new window. If the clock has not advanced the
// current window is left intact and 0 is returned, so no pulses are
// discarded by back-to-back calls.
func (m *Meter) MeasureRate() float64 {
	m.lock.Lock()
	defer m.lock.Unlock()
	now := m.clock.Now()
	elapsed := now.Sub(m.windowStart)
	if elapsed <= 0 {
		return 0
	}
	count := m.count.Swap(0)
	m.windowStart = now
	revs := float64(count) / m.pulsesPerRev
	return revs / elapsed.Seconds() * m.circumference * m.calibration
}

// Reset discards the accumulated count and starts a fresh window. Used at
// power-on and after idle gaps where the elapsed time is not a real
// sampling interval.
func (m *Meter) Reset() {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.count.Swap(0)
	m.windowStart = m.clock.Now()
}

// Enable re-arms counting from a clean window.
func (m *Meter) Enable() {
	m.Reset()
	m.enabled.Store(true)
}

// Disable stops counting; Pulse becomes a no-op.
func (m *Meter) Disable() {
	m.enabled.Store(false)
}
