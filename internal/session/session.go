package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/trogers1052/stock-chart-service/internal/chart"
	"golang.org/x/time/rate"
)

// Connection timeouts and intervals
const (
	WriteTimeout = 10 * time.Second
	ReadTimeout  = 60 * time.Second
	PingInterval = 30 * time.Second
)

// Loader fetches the sample sequence for a chart
type Loader interface {
	Load(ctx context.Context, symbol, timeframe string) (chart.Sequence, error)
}

// Config bounds a session's event rate and sets its chart layout
type Config struct {
	EventsPerSecond float64
	Burst           int
	Chart           chart.Options
}

// Handler upgrades HTTP requests into interactive chart sessions
type Handler struct {
	loader   Loader
	cfg      Config
	logger   logrus.FieldLogger
	upgrader websocket.Upgrader
}

// NewHandler creates a session handler
func NewHandler(loader Loader, cfg Config, logger logrus.FieldLogger) *Handler {
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &Handler{
		loader: loader,
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Serve upgrades the request and runs a session until the client disconnects.
// A non-empty symbol is loaded as soon as the connection opens.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request, symbol, timeframe string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	s := newSession(conn, h.loader, h.cfg, h.logger.WithField("remote", r.RemoteAddr))
	var initial *ClientMessage
	if symbol != "" {
		initial = &ClientMessage{Type: TypeLoad, Symbol: symbol, Timeframe: timeframe}
	}
	if err := s.run(r.Context(), initial); err != nil {
		s.logger.WithError(err).Debug("Session closed")
	}
}

type loadResult struct {
	token uint64
	seq   chart.Sequence
	err   error
}

// session owns one engine. Only the run goroutine touches the engine or writes to the connection.
type session struct {
	conn    *websocket.Conn
	loader  Loader
	engine  *chart.Engine
	limiter *rate.Limiter
	logger  logrus.FieldLogger

	width, height float64
	seq           chart.Sequence

	// token of the most recent load; results carrying any other token are stale.
	// shown is the token of the sequence currently rendered.
	token      uint64
	shown      uint64
	cancelLoad context.CancelFunc
	results    chan loadResult

	// latest throttled pointer position, sent when the limiter next allows
	pending    *chart.Point
	flushTimer *time.Timer
	flushC     <-chan time.Time
}

func newSession(conn *websocket.Conn, loader Loader, cfg Config, logger logrus.FieldLogger) *session {
	engine := chart.NewEngine(cfg.Chart)
	dims := cfg.Chart.Dims
	if dims.Width <= 0 || dims.Height <= 0 {
		dims = chart.DefaultDimensions()
	}
	return &session{
		conn:    conn,
		loader:  loader,
		engine:  engine,
		limiter: rate.NewLimiter(rate.Limit(cfg.EventsPerSecond), cfg.Burst),
		logger:  logger,
		width:   dims.Width,
		height:  dims.Height,
		results: make(chan loadResult, 4),
	}
}

func (s *session) run(parent context.Context, initial *ClientMessage) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	defer func() {
		if s.cancelLoad != nil {
			s.cancelLoad()
		}
		if s.flushTimer != nil {
			s.flushTimer.Stop()
		}
	}()

	s.conn.SetReadDeadline(time.Now().Add(ReadTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(ReadTimeout))
	})

	readErrors := make(chan error, 1)
	messages := make(chan []byte, 64)

	go func() {
		defer close(messages)
		for {
			_, data, err := s.conn.ReadMessage()
			if err != nil {
				readErrors <- err
				return
			}
			s.conn.SetReadDeadline(time.Now().Add(ReadTimeout))
			select {
			case messages <- data:
			case <-ctx.Done():
				return
			}
		}
	}()

	if initial != nil {
		s.startLoad(ctx, *initial)
	}

	pingTicker := time.NewTicker(PingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-readErrors:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return fmt.Errorf("websocket read error: %w", err)
			}
			return nil

		case data, ok := <-messages:
			if !ok {
				messages = nil
				continue
			}
			var msg ClientMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				if err := s.send(errorMessage(0, "invalid message: "+err.Error())); err != nil {
					return err
				}
				continue
			}
			if err := s.handle(ctx, msg); err != nil {
				return err
			}

		case res := <-s.results:
			if err := s.applyLoad(res); err != nil {
				return err
			}

		case <-s.flushC:
			s.flushC = nil
			if err := s.flushPointer(); err != nil {
				return err
			}

		case <-pingTicker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(WriteTimeout)); err != nil {
				return fmt.Errorf("failed to send ping: %w", err)
			}
		}
	}
}

// handle applies one client message to the engine and writes the resulting output
func (s *session) handle(ctx context.Context, msg ClientMessage) error {
	switch msg.Type {
	case TypeLoad:
		s.startLoad(ctx, msg)
		return nil

	case TypeResize:
		if msg.Width <= 0 || msg.Height <= 0 {
			return s.send(errorMessage(s.token, "resize requires a positive width and height"))
		}
		s.width, s.height = msg.Width, msg.Height
		return s.send(frameMessage(s.shown, s.seq, s.engine.Render(s.seq, s.width, s.height)))

	case TypePointerMove:
		if !s.limiter.Allow() {
			s.pending = &chart.Point{X: msg.X, Y: msg.Y}
			s.armFlush()
			return nil
		}
		s.pending = nil
		return s.send(overlayMessage(s.engine.OnPointerMove(msg.X, msg.Y)))

	case TypePointerLeave:
		s.pending = nil
		return s.send(overlayMessage(s.engine.OnPointerLeave()))

	case TypeGesture:
		kind, ok := gestureKinds[msg.Kind]
		if !ok {
			return s.send(errorMessage(s.token, fmt.Sprintf("unknown gesture kind %q", msg.Kind)))
		}
		// Start and end always pass so the viewport state cannot stick
		if (kind == chart.GestureWheel || kind == chart.GestureDrag) && !s.limiter.Allow() {
			return nil
		}
		f := s.engine.OnGesture(chart.Gesture{Kind: kind, X: msg.X, DX: msg.DX, DY: msg.DY})
		if err := s.send(frameMessage(s.shown, s.seq, f)); err != nil {
			return err
		}
		return s.send(overlayMessage(s.engine.Overlay()))

	default:
		return s.send(errorMessage(s.token, fmt.Sprintf("unknown message type %q", msg.Type)))
	}
}

// flushPointer sends the overlay for a throttled pointer position once the limiter allows it
func (s *session) flushPointer() error {
	if s.pending == nil {
		return nil
	}
	if !s.limiter.Allow() {
		s.armFlush()
		return nil
	}
	p := *s.pending
	s.pending = nil
	return s.send(overlayMessage(s.engine.OnPointerMove(p.X, p.Y)))
}

// armFlush schedules one flush after a single event interval unless one is pending
func (s *session) armFlush() {
	if s.flushC != nil {
		return
	}
	d := time.Second
	if limit := s.limiter.Limit(); limit != rate.Inf && limit > 0 {
		d = time.Duration(float64(time.Second) / float64(limit))
	}
	if s.flushTimer == nil {
		s.flushTimer = time.NewTimer(d)
	} else {
		s.flushTimer.Reset(d)
	}
	s.flushC = s.flushTimer.C
}

// startLoad issues a fetch under a new token. The previous fetch is cancelled and
// anything it still delivers is discarded.
func (s *session) startLoad(ctx context.Context, msg ClientMessage) {
	if msg.Width > 0 && msg.Height > 0 {
		s.width, s.height = msg.Width, msg.Height
	}
	if s.cancelLoad != nil {
		s.cancelLoad()
	}
	s.token++
	token := s.token

	loadCtx, cancel := context.WithCancel(ctx)
	s.cancelLoad = cancel

	go func() {
		seq, err := s.loader.Load(loadCtx, msg.Symbol, msg.Timeframe)
		select {
		case s.results <- loadResult{token: token, seq: seq, err: err}:
		case <-ctx.Done():
		}
	}()
}

// applyLoad renders a finished fetch if it is still the current one
func (s *session) applyLoad(res loadResult) error {
	if res.token != s.token {
		s.logger.WithFields(logrus.Fields{"token": res.token, "current": s.token}).Debug("Dropping stale load")
		return nil
	}
	if res.err != nil && !errors.Is(res.err, chart.ErrEmptyInput) {
		s.logger.WithError(res.err).WithField("symbol", res.seq.Symbol).Warn("Chart load failed")
		return s.send(errorMessage(res.token, res.err.Error()))
	}

	s.seq = res.seq
	s.shown = res.token
	return s.send(frameMessage(res.token, s.seq, s.engine.Render(s.seq, s.width, s.height)))
}

func (s *session) send(msg ServerMessage) error {
	s.conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
	if err := s.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write %s message: %w", msg.Type, err)
	}
	return nil
}
