package models

import "time"

// Event type constants
const (
	EventTypePriceBar         = "PRICE_BAR"
	EventTypeChartInvalidated = "CHART_INVALIDATED"
)

// PriceBar is one OHLCV bar in feed form; Time uses the YYYYMMDD layout
type PriceBar struct {
	Time   string `json:"time"`
	Open   string `json:"open"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Close  string `json:"close"`
	Volume int64  `json:"volume"`
}

// PriceBarEvent represents a Kafka event carrying a new or corrected daily bar
type PriceBarEvent struct {
	EventType string    `json:"event_type"`
	Source    string    `json:"source"`
	Symbol    string    `json:"symbol"`
	Bar       PriceBar  `json:"bar"`
	Timestamp time.Time `json:"timestamp"`
}

// ChartEvent represents a Kafka event telling chart clients to refetch a symbol
type ChartEvent struct {
	EventType string    `json:"event_type"`
	Symbol    string    `json:"symbol"`
	Bars      int       `json:"bars,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
