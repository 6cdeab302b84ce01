package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/trogers1052/stock-chart-service/internal/chart"
	"github.com/trogers1052/stock-chart-service/internal/service"
	"github.com/trogers1052/stock-chart-service/internal/session"
)

// maxSurface bounds requested chart sizes, in pixels
const maxSurface = 4000

// ChartService defines the chart operations the handlers need
type ChartService interface {
	Load(ctx context.Context, symbol, timeframe string) (chart.Sequence, error)
	Ingest(ctx context.Context, symbol, source string, records []chart.RawRecord) (stored, skipped int, err error)
}

// HealthChecker reports whether a dependency is reachable
type HealthChecker interface {
	Ping() error
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	charts   ChartService
	opts     chart.Options
	sessions *session.Handler
	health   HealthChecker
	logger   logrus.FieldLogger
}

// NewHandler creates a new Handler. sessions and health may be nil.
func NewHandler(charts ChartService, opts chart.Options, sessions *session.Handler, health HealthChecker, logger logrus.FieldLogger) *Handler {
	if opts.Dims.Width <= 0 || opts.Dims.Height <= 0 {
		opts.Dims = chart.DefaultDimensions()
	}
	return &Handler{
		charts:   charts,
		opts:     opts,
		sessions: sessions,
		health:   health,
		logger:   logger,
	}
}

// ChartResponse is the JSON body of GET /charts/{symbol}
type ChartResponse struct {
	Symbol    string          `json:"symbol"`
	Timeframe string          `json:"timeframe"`
	Samples   int             `json:"samples"`
	Geometry  *chart.Geometry `json:"geometry"`
}

// chartRequest is the parsed form of a chart URL
type chartRequest struct {
	symbol     string
	timeframe  string
	width      float64
	height     float64
	allowEmpty bool
}

func (h *Handler) parseChartRequest(r *http.Request) (chartRequest, error) {
	q := r.URL.Query()
	req := chartRequest{
		symbol: mux.Vars(r)["symbol"],
		width:  h.opts.Dims.Width,
		height: h.opts.Dims.Height,
	}

	symbol, err := service.NormalizeSymbol(req.symbol)
	if err != nil {
		return req, err
	}
	req.symbol = symbol

	if req.timeframe, err = chart.ParseTimeframe(q.Get("timeframe")); err != nil {
		return req, err
	}
	if req.width, err = sizeParam(q.Get("width"), req.width); err != nil {
		return req, fmt.Errorf("width: %w", err)
	}
	if req.height, err = sizeParam(q.Get("height"), req.height); err != nil {
		return req, fmt.Errorf("height: %w", err)
	}
	req.allowEmpty, _ = strconv.ParseBool(q.Get("allow_empty"))
	return req, nil
}

func sizeParam(raw string, def float64) (float64, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", raw)
	}
	if v <= 0 || v > maxSurface {
		return 0, fmt.Errorf("size %g out of range (0,%d]", v, maxSurface)
	}
	return v, nil
}

// render loads the requested chart into a fresh engine. It writes the error
// response itself and returns nil when the request cannot be served.
func (h *Handler) render(w http.ResponseWriter, r *http.Request) (*chart.Engine, chartRequest, chart.Frame, bool) {
	req, err := h.parseChartRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, req, chart.Frame{}, false
	}

	seq, err := h.charts.Load(r.Context(), req.symbol, req.timeframe)
	switch {
	case errors.Is(err, chart.ErrEmptyInput):
		if !req.allowEmpty {
			http.Error(w, fmt.Sprintf("no price data for %s", req.symbol), http.StatusNotFound)
			return nil, req, chart.Frame{}, false
		}
	case err != nil:
		h.logger.WithError(err).WithField("symbol", req.symbol).Error("Failed to load chart")
		http.Error(w, "failed to load chart", http.StatusInternalServerError)
		return nil, req, chart.Frame{}, false
	}

	engine := chart.NewEngine(h.opts)
	frame := engine.Render(seq, req.width, req.height)
	return engine, req, frame, true
}

// GetChart handles GET /charts/{symbol}
func (h *Handler) GetChart(w http.ResponseWriter, r *http.Request) {
	_, req, frame, ok := h.render(w, r)
	if !ok {
		return
	}

	samples := 0
	if frame.Geometry != nil {
		samples = len(frame.Geometry.Candles)
	}
	respondJSON(w, http.StatusOK, ChartResponse{
		Symbol:    req.symbol,
		Timeframe: req.timeframe,
		Samples:   samples,
		Geometry:  frame.Geometry,
	})
}

// GetChartSVG handles GET /charts/{symbol}/svg. Optional x and y draw the
// crosshair and tooltip for that pointer position.
func (h *Handler) GetChartSVG(w http.ResponseWriter, r *http.Request) {
	engine, req, frame, ok := h.render(w, r)
	if !ok {
		return
	}

	var overlay chart.Overlay
	if x, y, present, err := pointerParams(r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	} else if present {
		overlay = engine.OnPointerMove(x, y)
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	dims := h.opts.Dims.WithSize(req.width, req.height)
	if err := chart.WriteSVG(w, frame, overlay, dims); err != nil {
		h.logger.WithError(err).Warn("Failed to write svg")
	}
}

// HitTest handles GET /charts/{symbol}/hit?x=&y= at the identity transform
func (h *Handler) HitTest(w http.ResponseWriter, r *http.Request) {
	x, y, present, err := pointerParams(r)
	if err != nil || !present {
		http.Error(w, "x and y are required", http.StatusBadRequest)
		return
	}

	engine, _, _, ok := h.render(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, engine.OnPointerMove(x, y))
}

func pointerParams(r *http.Request) (x, y float64, present bool, err error) {
	q := r.URL.Query()
	rawX, rawY := q.Get("x"), q.Get("y")
	if rawX == "" && rawY == "" {
		return 0, 0, false, nil
	}
	if x, err = strconv.ParseFloat(rawX, 64); err != nil {
		return 0, 0, false, fmt.Errorf("invalid x %q", rawX)
	}
	if y, err = strconv.ParseFloat(rawY, 64); err != nil {
		return 0, 0, false, fmt.Errorf("invalid y %q", rawY)
	}
	return x, y, true, nil
}

// ChartSession handles GET /charts/{symbol}/ws
func (h *Handler) ChartSession(w http.ResponseWriter, r *http.Request) {
	if h.sessions == nil {
		http.Error(w, "sessions are disabled", http.StatusNotImplemented)
		return
	}
	symbol, err := service.NormalizeSymbol(mux.Vars(r)["symbol"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	timeframe, err := chart.ParseTimeframe(r.URL.Query().Get("timeframe"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.sessions.Serve(w, r, symbol, timeframe)
}

// IngestRequest is the JSON body of POST /prices/{symbol}
type IngestRequest struct {
	Source  string            `json:"source"`
	Records []chart.RawRecord `json:"records"`
}

// IngestPrices handles POST /prices/{symbol}
func (h *Handler) IngestPrices(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Records) == 0 {
		http.Error(w, "records are required", http.StatusBadRequest)
		return
	}
	if req.Source == "" {
		req.Source = "api"
	}

	stored, skipped, err := h.charts.Ingest(r.Context(), mux.Vars(r)["symbol"], req.Source, req.Records)
	switch {
	case errors.Is(err, service.ErrInvalidSymbol):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, chart.ErrEmptyInput):
		http.Error(w, "no usable records", http.StatusBadRequest)
		return
	case err != nil:
		h.logger.WithError(err).Error("Failed to ingest prices")
		http.Error(w, "failed to store prices", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]int{"stored": stored, "skipped": skipped})
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.Ping(); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
