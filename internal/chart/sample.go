package chart

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/trogers1052/stock-chart-service/internal/models"
)

// ErrEmptyInput is returned when a sequence has no usable samples.
var ErrEmptyInput = errors.New("chart: empty input")

// Timeframe constants
const (
	TimeframeDaily   = "daily"
	TimeframeWeekly  = "weekly"
	TimeframeMonthly = "monthly"
)

// ParseTimeframe normalizes a timeframe name, defaulting to daily when empty
func ParseTimeframe(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", TimeframeDaily:
		return TimeframeDaily, nil
	case TimeframeWeekly:
		return TimeframeWeekly, nil
	case TimeframeMonthly:
		return TimeframeMonthly, nil
	default:
		return "", fmt.Errorf("invalid timeframe: %s", s)
	}
}

// RawRecord is one OHLCV record as delivered by the price feed
type RawRecord struct {
	Time   string  `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// Sample is a parsed OHLCV record. Key is the YYYYMMDD form of Time.
type Sample struct {
	Key    int       `json:"key"`
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Up reports whether the sample closed above its open. Flat candles are down.
func (s Sample) Up() bool {
	return s.Close > s.Open
}

// Sequence is an ordered, chronological run of samples for one symbol and timeframe.
// It is treated as immutable once built.
type Sequence struct {
	Symbol    string   `json:"symbol"`
	Timeframe string   `json:"timeframe"`
	Samples   []Sample `json:"samples"`
}

// Len returns the number of samples
func (s Sequence) Len() int {
	return len(s.Samples)
}

// Empty reports whether the sequence has no samples
func (s Sequence) Empty() bool {
	return len(s.Samples) == 0
}

// Same reports whether two sequences would render identically.
func (s Sequence) Same(o Sequence) bool {
	if s.Symbol != o.Symbol || s.Timeframe != o.Timeframe || len(s.Samples) != len(o.Samples) {
		return false
	}
	for i := range s.Samples {
		a, b := s.Samples[i], o.Samples[i]
		if a.Key != b.Key || a.Open != b.Open || a.High != b.High ||
			a.Low != b.Low || a.Close != b.Close || a.Volume != b.Volume {
			return false
		}
	}
	return true
}

// ParseRule turns a raw timestamp into a time value
type ParseRule func(string) (time.Time, error)

// LayoutRule builds a ParseRule that tries each layout in order
func LayoutRule(layouts ...string) ParseRule {
	return func(s string) (time.Time, error) {
		s = strings.TrimSpace(s)
		for _, layout := range layouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
	}
}

// RuleFor returns the timestamp parsing rule for a timeframe
func RuleFor(timeframe string) ParseRule {
	switch timeframe {
	case TimeframeMonthly:
		return LayoutRule("20060102", "200601", "2006-01-02", "2006-01")
	default:
		return LayoutRule("20060102", "2006-01-02")
	}
}

// DateKey converts a time into its YYYYMMDD key
func DateKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

// NewSequence parses raw records into a Sequence. Records whose timestamp cannot be
// parsed are dropped; the number dropped is returned alongside the sequence.
// ErrEmptyInput is returned when nothing usable remains.
func NewSequence(symbol, timeframe string, records []RawRecord, rule ParseRule) (Sequence, int, error) {
	seq := Sequence{Symbol: symbol, Timeframe: timeframe}
	if len(records) == 0 {
		return seq, 0, ErrEmptyInput
	}
	if rule == nil {
		rule = RuleFor(timeframe)
	}

	samples := make([]Sample, 0, len(records))
	skipped := 0
	for _, r := range records {
		t, err := rule(r.Time)
		if err != nil {
			skipped++
			continue
		}
		samples = append(samples, Sample{
			Key:    DateKey(t),
			Time:   t,
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		})
	}
	if len(samples) == 0 {
		return seq, skipped, ErrEmptyInput
	}
	seq.Samples = samples
	return seq, skipped, nil
}

// FromPriceData converts stored daily bars (oldest first) into samples
func FromPriceData(prices []*models.PriceDataDaily) []Sample {
	samples := make([]Sample, 0, len(prices))
	for _, p := range prices {
		if p == nil {
			continue
		}
		samples = append(samples, Sample{
			Key:    DateKey(p.Date),
			Time:   p.Date,
			Open:   p.Open.InexactFloat64(),
			High:   p.High.InexactFloat64(),
			Low:    p.Low.InexactFloat64(),
			Close:  p.Close.InexactFloat64(),
			Volume: p.Volume,
		})
	}
	return samples
}

// Records converts samples back to feed records using the YYYYMMDD layout
func Records(samples []Sample) []RawRecord {
	out := make([]RawRecord, len(samples))
	for i, s := range samples {
		out[i] = RawRecord{
			Time:   s.Time.Format("20060102"),
			Open:   s.Open,
			High:   s.High,
			Low:    s.Low,
			Close:  s.Close,
			Volume: s.Volume,
		}
	}
	return out
}
