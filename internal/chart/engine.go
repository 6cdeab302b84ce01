package chart

// Options configures an Engine. Zero values fall back to the defaults.
type Options struct {
	Dims     Dimensions
	Style    Style
	Viewport *ViewportConfig
}

// Frame is the engine output after a render or gesture
type Frame struct {
	Geometry  *Geometry `json:"geometry"`
	Transform Transform `json:"transform"`
	Group     string    `json:"group"`
	Empty     bool      `json:"empty"`
}

// Overlay is the pointer-driven crosshair and tooltip state
type Overlay struct {
	Visible   bool       `json:"visible"`
	Crosshair *Crosshair `json:"crosshair,omitempty"`
	Tooltip   *Tooltip   `json:"tooltip,omitempty"`
}

// Engine renders one chart and tracks its interaction state. It holds the current
// sequence, geometry and viewport and nothing else. An Engine must be driven from a
// single goroutine.
type Engine struct {
	opts Options
	seq  Sequence
	geom *Geometry
	vp   *Viewport

	pointer    Point
	hasPointer bool
}

// NewEngine creates an engine with nothing rendered
func NewEngine(opts Options) *Engine {
	if opts.Dims.Width <= 0 || opts.Dims.Height <= 0 {
		def := DefaultDimensions()
		opts.Dims = def.WithSize(opts.Dims.Width, opts.Dims.Height)
	}
	opts.Style = opts.Style.withDefaults()
	e := &Engine{opts: opts}
	e.vp = NewViewport(e.viewportConfig(opts.Dims))
	return e
}

func (e *Engine) viewportConfig(d Dimensions) ViewportConfig {
	def := DefaultViewportConfig(d.Width)
	if e.opts.Viewport == nil {
		return def
	}
	cfg := *e.opts.Viewport
	// Unset extents follow the surface width
	if cfg.Extent == [2]float64{} {
		cfg.Extent = def.Extent
	}
	if cfg.TranslateExtent == [2]float64{} {
		cfg.TranslateExtent = def.TranslateExtent
	}
	return cfg
}

// Render lays out seq at the given surface size. Calling it again with the same
// sequence and size keeps the current transform; a different sequence or size
// discards it. Empty input clears the chart.
func (e *Engine) Render(seq Sequence, width, height float64) Frame {
	dims := e.opts.Dims.WithSize(width, height)

	if !seq.Same(e.seq) || dims != e.dimsInUse() {
		e.vp = NewViewport(e.viewportConfig(dims))
		e.hasPointer = false
	}
	e.seq = seq

	geom, err := Layout(seq, dims, e.opts.Style)
	if err != nil {
		e.geom = nil
		e.hasPointer = false
		return e.frame()
	}
	e.geom = geom
	return e.frame()
}

func (e *Engine) dimsInUse() Dimensions {
	if e.geom != nil {
		return e.geom.Dims
	}
	return e.opts.Dims
}

// Frame returns the current output without recomputing it
func (e *Engine) Frame() Frame {
	return e.frame()
}

func (e *Engine) frame() Frame {
	t := e.vp.Transform()
	return Frame{
		Geometry:  e.geom,
		Transform: t,
		Group:     t.SVG(e.dimsInUse().Margin),
		Empty:     e.geom == nil,
	}
}

// Geometry returns the current geometry, nil when nothing is rendered
func (e *Engine) Geometry() *Geometry {
	return e.geom
}

// Transform returns the current viewport transform
func (e *Engine) Transform() Transform {
	return e.vp.Transform()
}

// ViewportState returns whether a gesture is in progress
func (e *Engine) ViewportState() ViewportState {
	return e.vp.State()
}

// OnPointerMove resolves the pointer at surface coordinates (x, y)
func (e *Engine) OnPointerMove(x, y float64) Overlay {
	if e.geom == nil {
		return Overlay{}
	}
	e.pointer = Point{X: x, Y: y}
	e.hasPointer = true
	return e.overlay()
}

// OnPointerLeave hides the crosshair and tooltip
func (e *Engine) OnPointerLeave() Overlay {
	e.hasPointer = false
	return Overlay{}
}

// OnGesture applies a zoom/pan gesture whose anchor X is in surface coordinates.
// It is a no-op while nothing is rendered.
func (e *Engine) OnGesture(g Gesture) Frame {
	if e.geom == nil {
		return e.frame()
	}
	g.X -= e.geom.Dims.Margin.Left
	e.vp.Apply(g)
	return e.frame()
}

// Overlay returns the crosshair and tooltip for the last pointer position
func (e *Engine) Overlay() Overlay {
	if e.geom == nil || !e.hasPointer {
		return Overlay{}
	}
	return e.overlay()
}

func (e *Engine) overlay() Overlay {
	hit, ok := HitTest(e.geom, e.vp.Transform(), e.pointer.X, e.pointer.Y)
	if !ok {
		return Overlay{}
	}
	return Overlay{Visible: true, Crosshair: hit.Crosshair, Tooltip: hit.Tooltip}
}
