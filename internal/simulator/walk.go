package simulator

import (
	"math"
	"time"

	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/domain"
)

// Source is the random source driving the simulation. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Bounds describes one bounded random walk: next = clamp(prev ± Delta, Min, Max).
type Bounds struct {
	Delta float64
	Min   float64
	Max   float64
}

// Step advances prev by one uniform draw in [-Delta, +Delta) and clamps it.
func (b Bounds) Step(src Source, prev float64) float64 {
	return clamp(prev+change(src, b.Delta), b.Min, b.Max)
}

func change(src Source, magnitude float64) float64 {
	return (src.Float64() - 0.5) * 2 * magnitude
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func inRange(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}

var (
	loadWalk        = Bounds{Delta: 5, Min: 40, Max: 90}
	speedWalk       = Bounds{Delta: 50, Min: 1400, Max: 1600}
	temperatureWalk = Bounds{Delta: 2, Min: 35, Max: 65}
	efficiencyWalk  = Bounds{Delta: 1, Min: 82, Max: 92}
	probabilityWalk = Bounds{Delta: 5, Min: 0, Max: 100}
)

// channel describes one sensor window: the band its first samples are drawn
// from and the bounds of its walk. The walk step is 5% of the upper bound.
type channel struct {
	InitMin float64
	InitMax float64
	Min     float64
	Max     float64
}

func (c channel) walk() Bounds {
	return Bounds{Delta: c.Max * 0.05, Min: c.Min, Max: c.Max}
}

var (
	currentChannel     = channel{InitMin: 5, InitMax: 15, Min: 5, Max: 15}
	voltageChannel     = channel{InitMin: 220, InitMax: 240, Min: 220, Max: 240}
	temperatureChannel = channel{InitMin: 35, InitMax: 50, Min: 35, Max: 65}
	vibrationChannel   = channel{InitMin: 0.5, InitMax: 2.5, Min: 0.5, Max: 3}
)

const timeLayout = "15:04:05"

// initialWindow back-fills size samples spaced one interval apart, ending
// one interval before now.
func initialWindow(src Source, c channel, size int, now time.Time, interval time.Duration) []domain.SensorPoint {
	out := make([]domain.SensorPoint, size)
	for i := range out {
		out[i] = domain.SensorPoint{
			Time:  now.Add(-time.Duration(size-i) * interval).Format(timeLayout),
			Value: inRange(src, c.InitMin, c.InitMax),
		}
	}
	return out
}

// slide drops the oldest sample and appends one walked from the newest.
// The returned slice is freshly allocated and has the same length.
func slide(src Source, c channel, window []domain.SensorPoint, now time.Time) []domain.SensorPoint {
	if len(window) == 0 {
		return window
	}
	out := make([]domain.SensorPoint, len(window))
	copy(out, window[1:])
	out[len(out)-1] = domain.SensorPoint{
		Time:  now.Format(timeLayout),
		Value: c.walk().Step(src, window[len(window)-1].Value),
	}
	return out
}
