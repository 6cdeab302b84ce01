package chart

import (
	"math"
	"strconv"
	"strings"
)

// Style holds the rendering choices that affect the produced geometry
type Style struct {
	UpColor       string  `json:"up_color" yaml:"up_color"`
	DownColor     string  `json:"down_color" yaml:"down_color"`
	VolumeOpacity float64 `json:"volume_opacity" yaml:"volume_opacity"`
	MAColor       string  `json:"ma_color" yaml:"ma_color"`
	MAWidth       float64 `json:"ma_width" yaml:"ma_width"`
	MAWindow      int     `json:"ma_window" yaml:"ma_window"`
	TickCount     int     `json:"tick_count" yaml:"tick_count"`
	MinBodyHeight float64 `json:"min_body_height" yaml:"min_body_height"`
}

// DefaultStyle returns red-up / green-down candles with an orange 5-bar average
func DefaultStyle() Style {
	return Style{
		UpColor:       "#d62728",
		DownColor:     "#2ca02c",
		VolumeOpacity: 0.4,
		MAColor:       "orange",
		MAWidth:       2,
		MAWindow:      DefaultMAWindow,
		TickCount:     DefaultTickCount,
		MinBodyHeight: 1,
	}
}

// withDefaults fills zero fields from DefaultStyle
func (s Style) withDefaults() Style {
	def := DefaultStyle()
	if s.UpColor == "" {
		s.UpColor = def.UpColor
	}
	if s.DownColor == "" {
		s.DownColor = def.DownColor
	}
	if s.MAColor == "" {
		s.MAColor = def.MAColor
	}
	if s.MAWidth <= 0 {
		s.MAWidth = def.MAWidth
	}
	if s.MAWindow <= 0 {
		s.MAWindow = def.MAWindow
	}
	if s.TickCount <= 0 {
		s.TickCount = def.TickCount
	}
	if s.MinBodyHeight < 1 {
		s.MinBodyHeight = def.MinBodyHeight
	}
	return s
}

// Point is a plot-local pixel position
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Line is a straight segment
type Line struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Rect is an axis-aligned rectangle; Y is the top edge
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Label is a piece of text anchored at its horizontal middle
type Label struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Text string  `json:"text"`
}

// Candle is the complete drawing for one sample
type Candle struct {
	Index       int    `json:"index"`
	Key         int    `json:"key"`
	Up          bool   `json:"up"`
	Color       string `json:"color"`
	Wick        Line   `json:"wick"`
	Body        Rect   `json:"body"`
	Volume      Rect   `json:"volume"`
	VolumeLabel Label  `json:"volume_label"`
}

// Path is a connected polyline with its SVG path data
type Path struct {
	Points []Point `json:"points"`
	D      string  `json:"d"`
}

// Geometry is the declarative description of one rendered chart. Coordinates are
// plot-local, before the viewport transform.
type Geometry struct {
	Dims    Dimensions `json:"dims"`
	Style   Style      `json:"style"`
	Candles []Candle   `json:"candles"`
	MA      []MAPoint  `json:"ma"`
	MAPath  Path       `json:"ma_path"`
	XAxis   []Tick     `json:"x_axis"`
	YAxis   []Tick     `json:"y_axis"`

	Scales   *Scales  `json:"-"`
	Sequence Sequence `json:"-"`
}

// Layout converts a sequence into geometry in a single pass. Empty input produces
// no geometry and ErrEmptyInput.
func Layout(seq Sequence, dims Dimensions, style Style) (*Geometry, error) {
	sc, err := BuildScales(seq, dims)
	if err != nil {
		return nil, err
	}
	style = style.withDefaults()

	innerH := dims.InnerHeight()
	bw := sc.Category.Bandwidth
	candles := make([]Candle, len(seq.Samples))
	for i, s := range seq.Samples {
		x, _ := sc.Category.Pos(s.Key)
		cx := x + bw/2

		color := style.DownColor
		if s.Up() {
			color = style.UpColor
		}

		yOpen := sc.Price.Map(s.Open)
		yClose := sc.Price.Map(s.Close)
		yVol := sc.Volume.Map(float64(s.Volume))

		candles[i] = Candle{
			Index: i,
			Key:   s.Key,
			Up:    s.Up(),
			Color: color,
			Wick: Line{
				X1: cx, Y1: sc.Price.Map(s.High),
				X2: cx, Y2: sc.Price.Map(s.Low),
			},
			Body: Rect{
				X: x,
				Y: sc.Price.Map(math.Max(s.Open, s.Close)),
				W: bw,
				H: math.Max(style.MinBodyHeight, math.Abs(yOpen-yClose)),
			},
			Volume: Rect{
				X: x,
				Y: yVol,
				W: bw,
				H: innerH - yVol,
			},
			VolumeLabel: Label{
				X:    cx,
				Y:    yVol - 4,
				Text: FormatMillions(s.Volume, 0),
			},
		}
	}

	ma := MovingAverage(seq.Samples, style.MAWindow)
	points := make([]Point, 0, len(ma))
	for _, p := range ma {
		cx, ok := sc.Category.Center(p.Key)
		if !ok {
			continue
		}
		points = append(points, Point{X: cx, Y: sc.Price.Map(p.Value)})
	}

	return &Geometry{
		Dims:     dims,
		Style:    style,
		Candles:  candles,
		MA:       ma,
		MAPath:   Path{Points: points, D: pathData(points)},
		XAxis:    DateTicks(seq, sc),
		YAxis:    PriceTicks(sc.Price, style.TickCount),
		Scales:   sc,
		Sequence: seq,
	}, nil
}

// pathData renders points as "M x,yL x,y..." with no smoothing
func pathData(points []Point) string {
	if len(points) == 0 {
		return ""
	}
	var b strings.Builder
	for i, p := range points {
		if i == 0 {
			b.WriteByte('M')
		} else {
			b.WriteByte('L')
		}
		b.WriteString(formatCoord(p.X))
		b.WriteByte(',')
		b.WriteString(formatCoord(p.Y))
	}
	return b.String()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}
