package session

import "github.com/trogers1052/stock-chart-service/internal/chart"

// Client message types
const (
	TypeLoad         = "load"
	TypeResize       = "resize"
	TypePointerMove  = "pointermove"
	TypePointerLeave = "pointerleave"
	TypeGesture      = "gesture"
)

// Server message types
const (
	TypeFrame   = "frame"
	TypeOverlay = "overlay"
	TypeError   = "error"
)

// ClientMessage is any message a chart client sends. Fields unused by a type are ignored.
type ClientMessage struct {
	Type      string  `json:"type"`
	Symbol    string  `json:"symbol,omitempty"`
	Timeframe string  `json:"timeframe,omitempty"`
	Width     float64 `json:"width,omitempty"`
	Height    float64 `json:"height,omitempty"`
	X         float64 `json:"x,omitempty"`
	Y         float64 `json:"y,omitempty"`
	Kind      string  `json:"kind,omitempty"`
	DX        float64 `json:"dx,omitempty"`
	DY        float64 `json:"dy,omitempty"`
}

// ServerMessage is a frame, overlay or error pushed to the client.
// Token identifies the load a frame belongs to.
type ServerMessage struct {
	Type      string           `json:"type"`
	Token     uint64           `json:"token,omitempty"`
	Symbol    string           `json:"symbol,omitempty"`
	Timeframe string           `json:"timeframe,omitempty"`
	Geometry  *chart.Geometry  `json:"geometry,omitempty"`
	Transform *chart.Transform `json:"transform,omitempty"`
	Group     string           `json:"group,omitempty"`
	Empty     bool             `json:"empty,omitempty"`
	Visible   bool             `json:"visible,omitempty"`
	Crosshair *chart.Crosshair `json:"crosshair,omitempty"`
	Tooltip   *chart.Tooltip   `json:"tooltip,omitempty"`
	Message   string           `json:"message,omitempty"`
}

func frameMessage(token uint64, seq chart.Sequence, f chart.Frame) ServerMessage {
	t := f.Transform
	return ServerMessage{
		Type:      TypeFrame,
		Token:     token,
		Symbol:    seq.Symbol,
		Timeframe: seq.Timeframe,
		Geometry:  f.Geometry,
		Transform: &t,
		Group:     f.Group,
		Empty:     f.Empty,
	}
}

func overlayMessage(o chart.Overlay) ServerMessage {
	return ServerMessage{
		Type:      TypeOverlay,
		Visible:   o.Visible,
		Crosshair: o.Crosshair,
		Tooltip:   o.Tooltip,
	}
}

func errorMessage(token uint64, msg string) ServerMessage {
	return ServerMessage{Type: TypeError, Token: token, Message: msg}
}

// gestureKinds maps wire names to gesture kinds
var gestureKinds = map[string]chart.GestureKind{
	"start": chart.GestureStart,
	"wheel": chart.GestureWheel,
	"drag":  chart.GestureDrag,
	"end":   chart.GestureEnd,
}
