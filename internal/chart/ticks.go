package chart

import (
	"math"

	"github.com/dustin/go-humanize"
)

// DefaultTickCount is the approximate number of price axis ticks
const DefaultTickCount = 10

var (
	e10 = math.Sqrt(50)
	e5  = math.Sqrt(10)
	e2  = math.Sqrt(2)
)

// Tick is one labelled axis position in plot-local pixels
type Tick struct {
	Pos   float64 `json:"pos"`
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

// tickIncrement returns a "nice" step of 1, 2 or 5 times a power of ten. Negative
// results encode the reciprocal of a fractional step to keep the arithmetic exact.
func tickIncrement(start, stop float64, count int) float64 {
	step := (stop - start) / math.Max(0, float64(count))
	power := math.Floor(math.Log10(step))
	e := step / math.Pow(10, power)
	factor := 1.0
	switch {
	case e >= e10:
		factor = 10
	case e >= e5:
		factor = 5
	case e >= e2:
		factor = 2
	}
	if power >= 0 {
		return factor * math.Pow(10, power)
	}
	return -math.Pow(10, -power) / factor
}

// NiceTicks returns round values covering [lo, hi], about count of them
func NiceTicks(lo, hi float64, count int) []float64 {
	if count <= 0 || !finite(lo) || !finite(hi) {
		return nil
	}
	if lo == hi {
		return []float64{lo}
	}
	reverse := hi < lo
	if reverse {
		lo, hi = hi, lo
	}

	inc := tickIncrement(lo, hi, count)
	if inc == 0 || !finite(inc) {
		return nil
	}

	var ticks []float64
	if inc > 0 {
		i0, i1 := math.Ceil(lo/inc), math.Floor(hi/inc)
		for i := i0; i <= i1; i++ {
			ticks = append(ticks, i*inc)
		}
	} else {
		inc = -inc
		i0, i1 := math.Ceil(lo*inc), math.Floor(hi*inc)
		for i := i0; i <= i1; i++ {
			ticks = append(ticks, i/inc)
		}
	}

	if reverse {
		for i, j := 0, len(ticks)-1; i < j; i, j = i+1, j-1 {
			ticks[i], ticks[j] = ticks[j], ticks[i]
		}
	}
	return ticks
}

// PriceTicks lays out the left axis for the price scale
func PriceTicks(s LinearScale, count int) []Tick {
	values := NiceTicks(s.D0, s.D1, count)
	if len(values) == 0 {
		return nil
	}

	digits := 0
	if len(values) > 1 {
		step := math.Abs(values[1] - values[0])
		digits = int(math.Max(0, -math.Floor(math.Log10(step))))
	}

	ticks := make([]Tick, len(values))
	for i, v := range values {
		ticks[i] = Tick{
			Pos:   s.Map(v),
			Value: v,
			Label: humanize.CommafWithDigits(v, digits),
		}
	}
	return ticks
}

// DateTicks lays out the bottom axis, one M/D label per sample band
func DateTicks(seq Sequence, sc *Scales) []Tick {
	ticks := make([]Tick, 0, len(seq.Samples))
	seen := make(map[int]bool, len(seq.Samples))
	for i, s := range seq.Samples {
		if seen[s.Key] {
			continue
		}
		seen[s.Key] = true
		ticks = append(ticks, Tick{
			Pos:   sc.CenterAt(i),
			Value: float64(s.Key),
			Label: s.Time.Format("1/2"),
		})
	}
	return ticks
}
