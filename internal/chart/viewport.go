package chart

import (
	"fmt"
	"math"
	"strconv"
)

// Transform is a horizontal zoom/pan applied to the whole geometry group.
// A plot-local x maps to x*K + X on screen; y is never scaled.
type Transform struct {
	K float64 `json:"k"`
	X float64 `json:"x"`
}

// Identity returns the untransformed view
func Identity() Transform {
	return Transform{K: 1}
}

// ApplyX maps a content x coordinate to its on-screen position
func (t Transform) ApplyX(x float64) float64 {
	return x*t.K + t.X
}

// InvertX maps an on-screen x coordinate back into content space
func (t Transform) InvertX(px float64) float64 {
	return (px - t.X) / t.K
}

// SVG renders the transform for a group positioned at the plot margins
func (t Transform) SVG(m Margin) string {
	return fmt.Sprintf("translate(%s,%s) scale(%s,1)",
		strconv.FormatFloat(m.Left+t.X, 'f', -1, 64),
		strconv.FormatFloat(m.Top, 'f', -1, 64),
		strconv.FormatFloat(t.K, 'f', -1, 64))
}

// ViewportState is the interaction state of a viewport
type ViewportState int

const (
	Idle ViewportState = iota
	Interacting
)

func (s ViewportState) String() string {
	if s == Interacting {
		return "interacting"
	}
	return "idle"
}

// GestureKind identifies a zoom/pan input event
type GestureKind string

const (
	GestureStart GestureKind = "start"
	GestureWheel GestureKind = "wheel"
	GestureDrag  GestureKind = "drag"
	GestureEnd   GestureKind = "end"
)

// Gesture is one zoom/pan input. X is the plot-local anchor of a wheel zoom, DX the
// drag distance in pixels and DY the raw wheel delta.
type Gesture struct {
	Kind GestureKind `json:"kind"`
	X    float64     `json:"x"`
	DX   float64     `json:"dx"`
	DY   float64     `json:"dy"`
}

// ViewportConfig bounds the transform
type ViewportConfig struct {
	ScaleMin float64 `json:"scale_min" yaml:"scale_min"`
	ScaleMax float64 `json:"scale_max" yaml:"scale_max"`
	// Extent is the visible horizontal range; TranslateExtent the range content
	// must keep covering.
	Extent          [2]float64 `json:"extent" yaml:"extent"`
	TranslateExtent [2]float64 `json:"translate_extent" yaml:"translate_extent"`
	WheelFactor     float64    `json:"wheel_factor" yaml:"wheel_factor"`
}

// DefaultViewportConfig bounds zoom to [1,5] and panning to the surface width
func DefaultViewportConfig(width float64) ViewportConfig {
	return ViewportConfig{
		ScaleMin:        1,
		ScaleMax:        5,
		Extent:          [2]float64{0, width},
		TranslateExtent: [2]float64{0, width},
		WheelFactor:     0.002,
	}
}

// Viewport owns the current transform and applies gestures to it.
// It is not safe for concurrent use.
type Viewport struct {
	cfg   ViewportConfig
	t     Transform
	state ViewportState
}

// NewViewport creates an idle viewport at the identity transform
func NewViewport(cfg ViewportConfig) *Viewport {
	if cfg.ScaleMin <= 0 {
		cfg.ScaleMin = 1
	}
	if cfg.ScaleMax < cfg.ScaleMin {
		cfg.ScaleMax = cfg.ScaleMin
	}
	if cfg.WheelFactor == 0 {
		cfg.WheelFactor = 0.002
	}
	v := &Viewport{cfg: cfg}
	v.Reset()
	return v
}

// Transform returns the current transform
func (v *Viewport) Transform() Transform {
	return v.t
}

// State returns the current interaction state
func (v *Viewport) State() ViewportState {
	return v.state
}

// Config returns the bounds in use
func (v *Viewport) Config() ViewportConfig {
	return v.cfg
}

// Reset returns to the identity transform and the idle state
func (v *Viewport) Reset() {
	v.state = Idle
	v.t = v.constrain(Transform{K: v.clampK(1)})
}

// Apply processes one gesture and returns the resulting transform
func (v *Viewport) Apply(g Gesture) Transform {
	switch g.Kind {
	case GestureStart:
		v.state = Interacting
	case GestureWheel:
		v.state = Interacting
		k := v.clampK(v.t.K * math.Pow(2, -g.DY*v.cfg.WheelFactor))
		// keep the content point under the anchor fixed
		p := v.t.InvertX(g.X)
		v.t = v.constrain(Transform{K: k, X: g.X - p*k})
	case GestureDrag:
		v.state = Interacting
		v.t = v.constrain(Transform{K: v.t.K, X: v.t.X + g.DX})
	case GestureEnd:
		v.state = Idle
	}
	return v.t
}

func (v *Viewport) clampK(k float64) float64 {
	if !finite(k) {
		return v.t.K
	}
	return math.Min(v.cfg.ScaleMax, math.Max(v.cfg.ScaleMin, k))
}

// constrain shifts t so the translate extent keeps covering the visible extent
func (v *Viewport) constrain(t Transform) Transform {
	if !finite(t.X) {
		t.X = 0
	}
	dx0 := t.InvertX(v.cfg.Extent[0]) - v.cfg.TranslateExtent[0]
	dx1 := t.InvertX(v.cfg.Extent[1]) - v.cfg.TranslateExtent[1]

	var shift float64
	switch {
	case dx1 > dx0:
		shift = (dx0 + dx1) / 2
	case dx0 < 0:
		shift = dx0
	case dx1 > 0:
		shift = dx1
	}
	t.X += t.K * shift
	return t
}
