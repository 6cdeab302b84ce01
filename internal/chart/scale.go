package chart

import (
	"math"
)

// Margin is the space reserved around the plot area, in pixels
type Margin struct {
	Top    float64 `json:"top" yaml:"top"`
	Right  float64 `json:"right" yaml:"right"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
	Left   float64 `json:"left" yaml:"left"`
}

// Dimensions describes the render surface and the plot layout inside it
type Dimensions struct {
	Width        float64 `json:"width" yaml:"width"`
	Height       float64 `json:"height" yaml:"height"`
	Margin       Margin  `json:"margin" yaml:"margin"`
	VolumeHeight float64 `json:"volume_height" yaml:"volume_height"`
	BandPadding  float64 `json:"band_padding" yaml:"band_padding"`
}

// DefaultDimensions returns the 900x500 layout with a 100px volume band
func DefaultDimensions() Dimensions {
	return Dimensions{
		Width:        900,
		Height:       500,
		Margin:       Margin{Top: 20, Right: 50, Bottom: 80, Left: 60},
		VolumeHeight: 100,
		BandPadding:  0.3,
	}
}

// WithSize returns a copy resized to w x h. Non-positive values keep the current size.
func (d Dimensions) WithSize(w, h float64) Dimensions {
	if w > 0 {
		d.Width = w
	}
	if h > 0 {
		d.Height = h
	}
	return d
}

// InnerWidth is the plot width after margins
func (d Dimensions) InnerWidth() float64 {
	return math.Max(0, d.Width-d.Margin.Left-d.Margin.Right)
}

// InnerHeight is the plot height after margins
func (d Dimensions) InnerHeight() float64 {
	return math.Max(0, d.Height-d.Margin.Top-d.Margin.Bottom)
}

// PriceBottom is the y coordinate separating the price area from the volume band
func (d Dimensions) PriceBottom() float64 {
	return math.Max(0, d.InnerHeight()-d.VolumeHeight)
}

// LinearScale maps a continuous domain onto a pixel range
type LinearScale struct {
	D0 float64 `json:"d0"`
	D1 float64 `json:"d1"`
	R0 float64 `json:"r0"`
	R1 float64 `json:"r1"`
}

// NewLinearScale builds a scale, widening a zero-width or non-finite domain so that
// every mapping stays finite.
func NewLinearScale(d0, d1, r0, r1 float64) LinearScale {
	if !finite(d0) || !finite(d1) {
		d0, d1 = 0, 1
	}
	if d0 == d1 {
		pad := math.Abs(d0) * 0.01
		if pad == 0 {
			pad = 1
		}
		d0, d1 = d0-pad, d1+pad
	}
	return LinearScale{D0: d0, D1: d1, R0: r0, R1: r1}
}

// Map converts a domain value to a pixel coordinate
func (s LinearScale) Map(v float64) float64 {
	return s.R0 + (v-s.D0)/(s.D1-s.D0)*(s.R1-s.R0)
}

// Invert converts a pixel coordinate back to a domain value
func (s LinearScale) Invert(px float64) float64 {
	if s.R1 == s.R0 {
		return s.D0
	}
	return s.D0 + (px-s.R0)/(s.R1-s.R0)*(s.D1-s.D0)
}

// BandScale assigns each distinct key an equal-width slot. Inner and outer padding
// are the same fraction of the step and the bands are centered in the range.
type BandScale struct {
	Keys      []int   `json:"keys"`
	Start     float64 `json:"start"`
	Step      float64 `json:"step"`
	Bandwidth float64 `json:"bandwidth"`

	index map[int]int
}

// NewBandScale lays out keys over [r0, r1]. Duplicate keys share the slot of their
// first occurrence.
func NewBandScale(keys []int, r0, r1, padding float64) BandScale {
	index := make(map[int]int, len(keys))
	domain := make([]int, 0, len(keys))
	for _, k := range keys {
		if _, ok := index[k]; ok {
			continue
		}
		index[k] = len(domain)
		domain = append(domain, k)
	}

	padding = math.Min(math.Max(padding, 0), 1)
	n := float64(len(domain))
	step := (r1 - r0) / math.Max(1, n-padding+padding*2)
	start := r0 + (r1-r0-step*(n-padding))*0.5

	return BandScale{
		Keys:      domain,
		Start:     start,
		Step:      step,
		Bandwidth: step * (1 - padding),
		index:     index,
	}
}

// Pos returns the left edge of the key's band
func (b BandScale) Pos(key int) (float64, bool) {
	i, ok := b.index[key]
	if !ok {
		return 0, false
	}
	return b.Start + b.Step*float64(i), true
}

// Center returns the horizontal center of the key's band
func (b BandScale) Center(key int) (float64, bool) {
	x, ok := b.Pos(key)
	return x + b.Bandwidth/2, ok
}

// Scales is the full set of mappings for one render pass
type Scales struct {
	Dims     Dimensions  `json:"dims"`
	Price    LinearScale `json:"price"`
	Volume   LinearScale `json:"volume"`
	Category BandScale   `json:"category"`

	// centers holds the band center of every sample, in sequence order
	centers []float64
}

// BuildScales computes price, volume and category scales for a sequence.
// The price domain is [min(low)*0.98, max(high)*1.02] and the volume domain is
// [0, max(volume)*1.2].
func BuildScales(seq Sequence, dims Dimensions) (*Scales, error) {
	if seq.Empty() {
		return nil, ErrEmptyInput
	}

	minLow := math.Inf(1)
	maxHigh := math.Inf(-1)
	var maxVol int64
	keys := make([]int, len(seq.Samples))
	for i, s := range seq.Samples {
		keys[i] = s.Key
		minLow = math.Min(minLow, s.Low)
		maxHigh = math.Max(maxHigh, s.High)
		if s.Volume > maxVol {
			maxVol = s.Volume
		}
	}

	innerW := dims.InnerWidth()
	innerH := dims.InnerHeight()
	priceBottom := dims.PriceBottom()

	volTop := float64(maxVol) * 1.2
	if volTop <= 0 {
		volTop = 1
	}

	sc := &Scales{
		Dims:     dims,
		Price:    NewLinearScale(minLow*0.98, maxHigh*1.02, priceBottom, 0),
		Volume:   NewLinearScale(0, volTop, innerH, priceBottom),
		Category: NewBandScale(keys, 0, innerW, dims.BandPadding),
	}

	sc.centers = make([]float64, len(seq.Samples))
	for i, s := range seq.Samples {
		sc.centers[i], _ = sc.Category.Center(s.Key)
	}
	return sc, nil
}

// CenterAt returns the band center of the i-th sample
func (s *Scales) CenterAt(i int) float64 {
	return s.centers[i]
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
