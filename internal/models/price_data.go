package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PriceDataDaily represents one daily OHLCV bar for a symbol
type PriceDataDaily struct {
	ID        int             `json:"id"`
	Symbol    string          `json:"symbol"`
	Date      time.Time       `json:"date"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    int64           `json:"volume"`
	Source    string          `json:"source,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// PriceDataFromBar parses a feed bar into a storable record
func PriceDataFromBar(symbol, source string, bar PriceBar) (*PriceDataDaily, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	date, err := time.Parse("20060102", strings.TrimSpace(bar.Time))
	if err != nil {
		date, err = time.Parse("2006-01-02", strings.TrimSpace(bar.Time))
		if err != nil {
			return nil, fmt.Errorf("invalid bar time %q: %w", bar.Time, err)
		}
	}

	p := &PriceDataDaily{
		Symbol: symbol,
		Date:   date,
		Volume: bar.Volume,
		Source: source,
	}
	if p.Open, err = parseDecimal("open", bar.Open); err != nil {
		return nil, err
	}
	if p.High, err = parseDecimal("high", bar.High); err != nil {
		return nil, err
	}
	if p.Low, err = parseDecimal("low", bar.Low); err != nil {
		return nil, err
	}
	if p.Close, err = parseDecimal("close", bar.Close); err != nil {
		return nil, err
	}
	if p.Volume < 0 {
		return nil, fmt.Errorf("invalid volume %d", p.Volume)
	}
	return p, nil
}

func parseDecimal(field, raw string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", field, raw, err)
	}
	return v, nil
}
