package chart

import (
	"fmt"
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
)

// Tooltip box size and pointer offset, in pixels
const (
	TooltipWidth  = 190
	TooltipHeight = 96
	TooltipOffset = 12
)

// Nearest returns the index of the sample whose band center is closest to the
// content-space x. Ties go to the earliest sample.
func (s *Scales) Nearest(x float64) (int, bool) {
	if s == nil || len(s.centers) == 0 || !finite(x) {
		return -1, false
	}
	best := 0
	bestDist := math.Abs(s.centers[0] - x)
	for i := 1; i < len(s.centers); i++ {
		if d := math.Abs(s.centers[i] - x); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, true
}

// Crosshair is a vertical line through the resolved sample and a horizontal line
// through the pointer, in plot-local screen coordinates.
type Crosshair struct {
	Vertical   Line `json:"vertical"`
	Horizontal Line `json:"horizontal"`
}

// Tooltip describes the hovered sample
type Tooltip struct {
	Index   int      `json:"index"`
	Sample  Sample   `json:"sample"`
	Box     Rect     `json:"box"`
	Flipped bool     `json:"flipped"`
	Lines   []string `json:"lines"`
	Text    string   `json:"text"`
}

// Hit is the result of resolving a pointer position
type Hit struct {
	Index     int        `json:"index"`
	Crosshair *Crosshair `json:"crosshair,omitempty"`
	Tooltip   *Tooltip   `json:"tooltip,omitempty"`
}

// HitTest resolves a pointer at surface coordinates (px, py) against rendered
// geometry viewed through t. It reports false when nothing should be shown: no
// geometry, or a pointer outside the plot area.
func HitTest(g *Geometry, t Transform, px, py float64) (Hit, bool) {
	if g == nil || g.Scales == nil || len(g.Candles) == 0 {
		return Hit{Index: -1}, false
	}

	dims := g.Dims
	innerW, innerH := dims.InnerWidth(), dims.InnerHeight()
	lx := px - dims.Margin.Left
	ly := py - dims.Margin.Top
	if lx < 0 || lx > innerW || ly < 0 || ly > innerH {
		return Hit{Index: -1}, false
	}

	idx, ok := g.Scales.Nearest(t.InvertX(lx))
	if !ok {
		return Hit{Index: -1}, false
	}

	sx := t.ApplyX(g.Scales.CenterAt(idx))
	sample := g.Sequence.Samples[idx]
	return Hit{
		Index: idx,
		Crosshair: &Crosshair{
			Vertical:   Line{X1: sx, Y1: 0, X2: sx, Y2: innerH},
			Horizontal: Line{X1: 0, Y1: ly, X2: innerW, Y2: ly},
		},
		Tooltip: newTooltip(idx, sample, lx, ly, innerW, innerH),
	}, true
}

func newTooltip(idx int, s Sample, lx, ly, innerW, innerH float64) *Tooltip {
	box := Rect{X: lx + TooltipOffset, Y: ly + TooltipOffset, W: TooltipWidth, H: TooltipHeight}
	flipped := false
	if box.X+box.W > innerW {
		box.X = lx - TooltipOffset - TooltipWidth
		flipped = true
	}
	if box.Y+box.H > innerH {
		box.Y = math.Max(0, innerH-box.H)
	}

	lines := TooltipLines(s)
	return &Tooltip{
		Index:   idx,
		Sample:  s,
		Box:     box,
		Flipped: flipped,
		Lines:   lines,
		Text:    TooltipText(s),
	}
}

// TooltipLines formats a sample as date, OHLC and volume rows
func TooltipLines(s Sample) []string {
	return []string{
		s.Time.Format("2006-01-02"),
		"Open: " + FormatPrice(s.Open),
		"High: " + FormatPrice(s.High),
		"Low: " + FormatPrice(s.Low),
		"Close: " + FormatPrice(s.Close),
		"Volume: " + FormatMillions(s.Volume, 1),
	}
}

// TooltipText is the single-line form of TooltipLines
func TooltipText(s Sample) string {
	return fmt.Sprintf("%s | O: %s H: %s L: %s C: %s Vol: %s",
		s.Time.Format("2006-01-02"),
		FormatPrice(s.Open), FormatPrice(s.High), FormatPrice(s.Low), FormatPrice(s.Close),
		FormatMillions(s.Volume, 1))
}

// FormatPrice renders a price with thousands separators and at most three decimals
func FormatPrice(v float64) string {
	return humanize.CommafWithDigits(v, 3)
}

// FormatMillions renders a volume in millions, e.g. 12.3M
func FormatMillions(v int64, digits int) string {
	return strconv.FormatFloat(float64(v)/1e6, 'f', digits, 64) + "M"
}
