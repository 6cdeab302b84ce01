package chart

import "time"

// DefaultMAWindow is the number of trailing samples averaged by the overlay
const DefaultMAWindow = 5

// MAPoint is one defined point of the moving-average overlay
type MAPoint struct {
	Key   int       `json:"key"`
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// MovingAverage computes the trailing simple moving average of close prices.
// Points are only produced once a full window is available, so the result holds
// max(0, N-window+1) points.
func MovingAverage(samples []Sample, window int) []MAPoint {
	if window <= 0 {
		window = DefaultMAWindow
	}
	if len(samples) < window {
		return nil
	}

	out := make([]MAPoint, 0, len(samples)-window+1)
	sum := 0.0
	for i, s := range samples {
		sum += s.Close
		if i >= window {
			sum -= samples[i-window].Close
		}
		if i < window-1 {
			continue
		}
		out = append(out, MAPoint{
			Key:   s.Key,
			Time:  s.Time,
			Value: sum / float64(window),
		})
	}
	return out
}
