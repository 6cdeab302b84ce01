package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/trogers1052/stock-chart-service/internal/cache"
	"github.com/trogers1052/stock-chart-service/internal/chart"
	"github.com/trogers1052/stock-chart-service/internal/models"
)

// ErrInvalidSymbol is returned for a blank symbol
var ErrInvalidSymbol = errors.New("invalid symbol")

// PriceRepository defines the storage operations the chart service needs
type PriceRepository interface {
	GetPriceDataBySymbol(symbol string, limit int) ([]*models.PriceDataDaily, error)
	CreatePriceDataBatch(prices []*models.PriceDataDaily) error
	ListSymbols() ([]string, error)
	DeletePriceDataOlderThan(date time.Time) (int64, error)
}

// SequenceCache stores loaded sequences. Implementations return cache.ErrMiss when empty.
type SequenceCache interface {
	GetSequence(ctx context.Context, symbol, timeframe string) (chart.Sequence, error)
	SetSequence(ctx context.Context, seq chart.Sequence) error
	Invalidate(ctx context.Context, symbol string) (int, error)
}

// EventPublisher announces that a symbol's chart must be refetched
type EventPublisher interface {
	PublishChartInvalidated(ctx context.Context, symbol string, bars int) error
}

// BarLimits returns how many samples to keep for a timeframe
type BarLimits func(timeframe string) int

// DefaultBarLimits keeps about three months of daily bars, two years of weekly
// bars and ten years of monthly bars.
func DefaultBarLimits(timeframe string) int {
	switch timeframe {
	case chart.TimeframeWeekly:
		return 104
	case chart.TimeframeMonthly:
		return 120
	default:
		return 65
	}
}

// ChartService loads sample sequences for charts, through the cache when one is configured
type ChartService struct {
	repo      PriceRepository
	cache     SequenceCache
	publisher EventPublisher
	limits    BarLimits
	logger    logrus.FieldLogger
	now       func() time.Time
}

// NewChartService creates a chart service. cache and publisher may be nil.
func NewChartService(repo PriceRepository, c SequenceCache, publisher EventPublisher, limits BarLimits, logger logrus.FieldLogger) *ChartService {
	if limits == nil {
		limits = DefaultBarLimits
	}
	return &ChartService{
		repo:      repo,
		cache:     c,
		publisher: publisher,
		limits:    limits,
		logger:    logger,
		now:       time.Now,
	}
}

// NormalizeSymbol upper-cases and trims a ticker symbol
func NormalizeSymbol(symbol string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", ErrInvalidSymbol
	}
	return symbol, nil
}

// Load returns the chronological sample sequence for a symbol and timeframe.
// chart.ErrEmptyInput is returned, along with an empty sequence, when nothing is stored.
func (s *ChartService) Load(ctx context.Context, symbol, timeframe string) (chart.Sequence, error) {
	return s.load(ctx, symbol, timeframe, true)
}

func (s *ChartService) load(ctx context.Context, symbol, timeframe string, readCache bool) (chart.Sequence, error) {
	symbol, err := NormalizeSymbol(symbol)
	if err != nil {
		return chart.Sequence{}, err
	}
	timeframe, err = chart.ParseTimeframe(timeframe)
	if err != nil {
		return chart.Sequence{}, err
	}
	log := s.logger.WithFields(logrus.Fields{"symbol": symbol, "timeframe": timeframe})

	if s.cache != nil && readCache {
		seq, err := s.cache.GetSequence(ctx, symbol, timeframe)
		if err == nil {
			return seq, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			log.WithError(err).Warn("Cache read failed, loading from database")
		}
	}

	bars := s.limits(timeframe)
	rows, err := s.repo.GetPriceDataBySymbol(symbol, dailyRowsFor(timeframe, bars))
	if err != nil {
		return chart.Sequence{}, fmt.Errorf("failed to load %s: %w", symbol, err)
	}

	// Rows arrive newest first
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}

	seq := chart.Sequence{
		Symbol:    symbol,
		Timeframe: timeframe,
		Samples:   chart.Tail(chart.Resample(chart.FromPriceData(rows), timeframe), bars),
	}
	if seq.Empty() {
		return seq, chart.ErrEmptyInput
	}

	if s.cache != nil {
		if err := s.cache.SetSequence(ctx, seq); err != nil {
			log.WithError(err).Warn("Failed to cache sequence")
		}
	}
	log.WithField("samples", seq.Len()).Debug("Loaded sequence")
	return seq, nil
}

// dailyRowsFor returns how many daily rows cover the given number of bars
func dailyRowsFor(timeframe string, bars int) int {
	switch timeframe {
	case chart.TimeframeWeekly:
		return (bars + 1) * 5
	case chart.TimeframeMonthly:
		return (bars + 1) * 23
	default:
		return bars
	}
}

// Ingest stores raw records for a symbol, replacing bars with the same date, and
// invalidates its charts. It returns the number of stored and skipped records.
func (s *ChartService) Ingest(ctx context.Context, symbol, source string, records []chart.RawRecord) (stored, skipped int, err error) {
	symbol, err = NormalizeSymbol(symbol)
	if err != nil {
		return 0, 0, err
	}

	rule := chart.RuleFor(chart.TimeframeDaily)
	prices := make([]*models.PriceDataDaily, 0, len(records))
	for _, r := range records {
		date, err := rule(r.Time)
		if err != nil || r.Volume < 0 {
			skipped++
			continue
		}
		prices = append(prices, &models.PriceDataDaily{
			Symbol: symbol,
			Date:   date,
			Open:   decimal.NewFromFloat(r.Open),
			High:   decimal.NewFromFloat(r.High),
			Low:    decimal.NewFromFloat(r.Low),
			Close:  decimal.NewFromFloat(r.Close),
			Volume: r.Volume,
			Source: source,
		})
	}
	if len(prices) == 0 {
		return 0, skipped, chart.ErrEmptyInput
	}

	if err := s.repo.CreatePriceDataBatch(prices); err != nil {
		return 0, skipped, err
	}
	if err := s.invalidate(ctx, symbol, len(prices)); err != nil {
		// The rows are stored; stale cache entries expire with their TTL
		s.logger.WithError(err).WithField("symbol", symbol).Warn("Failed to invalidate cached charts")
	}

	s.logger.WithFields(logrus.Fields{
		"symbol":  symbol,
		"stored":  len(prices),
		"skipped": skipped,
	}).Info("Ingested price records")
	return len(prices), skipped, nil
}

// Invalidate drops cached sequences for a symbol and announces the change
func (s *ChartService) Invalidate(ctx context.Context, symbol string) error {
	symbol, err := NormalizeSymbol(symbol)
	if err != nil {
		return err
	}
	return s.invalidate(ctx, symbol, 0)
}

func (s *ChartService) invalidate(ctx context.Context, symbol string, bars int) error {
	var cacheErr error
	if s.cache != nil {
		if _, err := s.cache.Invalidate(ctx, symbol); err != nil {
			cacheErr = fmt.Errorf("invalidate cache for %s: %w", symbol, err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishChartInvalidated(ctx, symbol, bars); err != nil {
			// Clients fall back to their next fetch
			s.logger.WithError(err).WithField("symbol", symbol).Warn("Failed to publish chart invalidation")
		}
	}
	return cacheErr
}

// Warm reloads every stored symbol in every timeframe into the cache and returns
// the number of sequences cached.
func (s *ChartService) Warm(ctx context.Context) (int, error) {
	if s.cache == nil {
		return 0, nil
	}
	symbols, err := s.repo.ListSymbols()
	if err != nil {
		return 0, err
	}

	warmed := 0
	for _, symbol := range symbols {
		for _, tf := range []string{chart.TimeframeDaily, chart.TimeframeWeekly, chart.TimeframeMonthly} {
			if err := ctx.Err(); err != nil {
				return warmed, err
			}
			if _, err := s.load(ctx, symbol, tf, false); err != nil {
				s.logger.WithError(err).WithFields(logrus.Fields{"symbol": symbol, "timeframe": tf}).
					Warn("Failed to warm sequence")
				continue
			}
			warmed++
		}
	}
	return warmed, nil
}

// Prune deletes bars older than the retention window. When anything was removed
// every symbol's cached sequences are dropped.
func (s *ChartService) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := s.now().Add(-retention)
	deleted, err := s.repo.DeletePriceDataOlderThan(cutoff)
	if err != nil {
		return 0, err
	}
	if deleted == 0 || s.cache == nil {
		return deleted, nil
	}

	symbols, err := s.repo.ListSymbols()
	if err != nil {
		return deleted, err
	}
	for _, symbol := range symbols {
		if _, err := s.cache.Invalidate(ctx, symbol); err != nil {
			return deleted, err
		}
	}
	return deleted, nil
}
