package analytics

import (
	"time"

	"github.com/ANIKETSHETTY47/energy-grid-analytics-go/aggregator"
	"github.com/ANIKETSHETTY47/energy-grid-analytics-go/anomaly"

	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/domain"
)

// Channel order used in summaries.
var channelOrder = []string{"current", "voltage", "temperature", "vibration"}

// Detector settings: deviation threshold and the trailing window spikes
// are judged against.
const (
	anomalyThreshold = 2.0
	spikeWindow      = 3
)

// Anomalies lists the window labels flagged by the detector.
type Anomalies struct {
	Count int      `json:"count"`
	Times []string `json:"times"`
}

type ChannelSummary struct {
	Channel  string    `json:"channel"`
	Samples  int       `json:"samples"`
	Min      float64   `json:"min"`
	Max      float64   `json:"max"`
	Average  float64   `json:"average"`
	Last     float64   `json:"last"`
	From     string    `json:"from,omitempty"`
	To       string    `json:"to,omitempty"`
	Spikes   Anomalies `json:"spikes"`
	Outliers Anomalies `json:"outliers"`
}

// Summarize reduces every sensor window to its range, mean and latest
// value, and flags spikes and outliers within it.
func Summarize(data domain.SensorData) []ChannelSummary {
	channels := data.Channels()
	out := make([]ChannelSummary, 0, len(channelOrder))
	for _, name := range channelOrder {
		out = append(out, summarize(name, channels[name]))
	}
	return out
}

func summarize(name string, window []domain.SensorPoint) ChannelSummary {
	s := ChannelSummary{
		Channel:  name,
		Samples:  len(window),
		Spikes:   Anomalies{Times: []string{}},
		Outliers: Anomalies{Times: []string{}},
	}
	if len(window) == 0 {
		return s
	}

	points := make([]aggregator.Point, len(window))
	readings := make([]anomaly.Reading, len(window))
	s.Min, s.Max = window[0].Value, window[0].Value
	for i, p := range window {
		points[i] = aggregator.Point{Value: p.Value, Timestamp: pointTime(p.Time)}
		// The window index stands in for the timestamp.
		readings[i] = anomaly.Reading{Consumption: p.Value, Timestamp: int64(i)}
		if p.Value < s.Min {
			s.Min = p.Value
		}
		if p.Value > s.Max {
			s.Max = p.Value
		}
	}

	s.Average = aggregator.Average(points)
	s.Last = window[len(window)-1].Value
	s.From = window[0].Time
	s.To = window[len(window)-1].Time

	detector := &anomaly.AnomalyDetector{Threshold: anomalyThreshold, WindowSize: spikeWindow}
	s.Spikes = labels(window, detector.DetectSpikes(readings))
	s.Outliers = labels(window, detector.DetectOutliers(readings))
	return s
}

func labels(window []domain.SensorPoint, flagged []anomaly.Reading) Anomalies {
	a := Anomalies{Count: len(flagged), Times: make([]string, 0, len(flagged))}
	for _, r := range flagged {
		if i := int(r.Timestamp); i >= 0 && i < len(window) {
			a.Times = append(a.Times, window[i].Time)
		}
	}
	return a
}

// Window labels carry only the wall-clock time of day.
func pointTime(label string) time.Time {
	t, err := time.Parse("15:04:05", label)
	if err != nil {
		return time.Time{}
	}
	return t
}
