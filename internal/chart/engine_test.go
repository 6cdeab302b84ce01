package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineEmptySequence(t *testing.T) {
	e := NewEngine(Options{})

	f := e.Render(Sequence{Symbol: "EMPTY"}, 900, 500)
	assert.True(t, f.Empty)
	assert.Nil(t, f.Geometry)
	assert.Nil(t, e.Geometry())

	o := e.OnPointerMove(300, 200)
	assert.False(t, o.Visible)
	assert.Nil(t, o.Crosshair)
	assert.Nil(t, o.Tooltip)

	f = e.OnGesture(Gesture{Kind: GestureWheel, X: 400, DY: -500})
	assert.Equal(t, Identity(), f.Transform)
	assert.Equal(t, Idle, e.ViewportState())
}

func TestEngineRender(t *testing.T) {
	e := NewEngine(Options{})
	seq := closesSeq(10, 12, 11, 13, 14, 13, 12)

	f := e.Render(seq, 0, 0)
	require.False(t, f.Empty)
	require.NotNil(t, f.Geometry)
	assert.Len(t, f.Geometry.Candles, 7)
	assert.Equal(t, DefaultDimensions(), f.Geometry.Dims)
	assert.Equal(t, "translate(60,20) scale(1,1)", f.Group)

	again := e.Render(seq, 0, 0)
	assert.Equal(t, f.Geometry.Candles, again.Geometry.Candles, "render is idempotent")
}

func TestEngineTransformLifecycle(t *testing.T) {
	e := NewEngine(Options{})
	seq := closesSeq(10, 12, 11, 13, 14, 13, 12)
	e.Render(seq, 900, 500)

	e.OnGesture(Gesture{Kind: GestureStart})
	f := e.OnGesture(Gesture{Kind: GestureWheel, X: 510, DY: -500})
	assert.InDelta(t, 2, f.Transform.K, 1e-9)
	// anchor is converted from surface to plot-local coordinates
	assert.InDelta(t, -450, f.Transform.X, 1e-9)
	e.OnGesture(Gesture{Kind: GestureEnd})

	t.Run("same sequence keeps the transform", func(t *testing.T) {
		f := e.Render(closesSeq(10, 12, 11, 13, 14, 13, 12), 900, 500)
		assert.InDelta(t, 2, f.Transform.K, 1e-9)
	})

	t.Run("new sequence resets", func(t *testing.T) {
		other := closesSeq(10, 12, 11, 13, 14, 13, 12)
		other.Symbol = "OTHER"
		f := e.Render(other, 900, 500)
		assert.Equal(t, Identity(), f.Transform)
		assert.Equal(t, Idle, e.ViewportState())
	})

	t.Run("new size resets", func(t *testing.T) {
		e.OnGesture(Gesture{Kind: GestureWheel, X: 510, DY: -500})
		f := e.Render(e.Geometry().Sequence, 1200, 600)
		assert.Equal(t, Identity(), f.Transform)
		assert.Equal(t, 1200.0, f.Geometry.Dims.Width)
	})
}

func TestEnginePointer(t *testing.T) {
	e := NewEngine(Options{})
	seq := closesSeq(10, 12, 11, 13, 14)
	f := e.Render(seq, 900, 500)
	m := f.Geometry.Dims.Margin

	cx := f.Geometry.Scales.CenterAt(2)
	o := e.OnPointerMove(m.Left+cx+1, m.Top+50)
	require.True(t, o.Visible)
	assert.Equal(t, 2, o.Tooltip.Index)
	assert.InDelta(t, cx, o.Crosshair.Vertical.X1, 1e-9)
	assert.InDelta(t, 50, o.Crosshair.Horizontal.Y1, 1e-9)

	assert.Equal(t, o, e.OnPointerMove(m.Left+cx+1, m.Top+50), "same pointer, same overlay")
	assert.Equal(t, o, e.Overlay())

	left := e.OnPointerLeave()
	assert.False(t, left.Visible)
	assert.False(t, e.Overlay().Visible)

	outside := e.OnPointerMove(5, 5)
	assert.False(t, outside.Visible)
}

func TestEngineOverlayFollowsZoom(t *testing.T) {
	e := NewEngine(Options{})
	f := e.Render(closesSeq(10, 12, 11, 13, 14), 900, 500)
	m := f.Geometry.Dims.Margin

	e.OnPointerMove(m.Left+400, m.Top+100)
	before := e.Overlay()
	require.True(t, before.Visible)

	e.OnGesture(Gesture{Kind: GestureWheel, X: m.Left, DY: -500})
	after := e.Overlay()
	require.True(t, after.Visible)

	idx := after.Tooltip.Index
	want := e.Transform().ApplyX(f.Geometry.Scales.CenterAt(idx))
	assert.InDelta(t, want, after.Crosshair.Vertical.X1, 1e-9)
}

func TestEngineCustomViewport(t *testing.T) {
	cfg := ViewportConfig{ScaleMin: 1, ScaleMax: 2, Extent: [2]float64{0, 900}, TranslateExtent: [2]float64{0, 900}}
	e := NewEngine(Options{Viewport: &cfg})
	e.Render(closesSeq(1, 2, 3), 900, 500)

	f := e.OnGesture(Gesture{Kind: GestureWheel, X: 60, DY: -5000})
	assert.Equal(t, 2.0, f.Transform.K)
}

func TestEngineViewportExtentFollowsWidth(t *testing.T) {
	cfg := ViewportConfig{ScaleMin: 1, ScaleMax: 3}
	e := NewEngine(Options{Viewport: &cfg})
	e.Render(closesSeq(1, 2, 3), 600, 400)

	e.OnGesture(Gesture{Kind: GestureWheel, X: 60, DY: -5000})
	f := e.OnGesture(Gesture{Kind: GestureDrag, DX: 10000})
	assert.Equal(t, 3.0, f.Transform.K)
	// Panned fully left: content may not leave the 600px extent
	assert.InDelta(t, 0.0, f.Transform.X, 1e-9)
}
