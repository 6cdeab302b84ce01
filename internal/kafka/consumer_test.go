package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/stock-chart-service/internal/logging"
	"github.com/trogers1052/stock-chart-service/internal/models"
)

// MockRepository implements the PriceRepository interface for testing,
// upserting by symbol and date like the database does
type MockRepository struct {
	prices map[string]*models.PriceDataDaily // key: symbol+date
	nextID int
	err    error

	// Track method calls for verification
	CreatePriceDataCalls int
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		prices: make(map[string]*models.PriceDataDaily),
		nextID: 1,
	}
}

func (m *MockRepository) CreatePriceData(p *models.PriceDataDaily) error {
	m.CreatePriceDataCalls++
	if m.err != nil {
		return m.err
	}
	key := p.Symbol + ":" + p.Date.Format("20060102")
	if existing, ok := m.prices[key]; ok {
		p.ID = existing.ID
	} else {
		p.ID = m.nextID
		m.nextID++
	}
	m.prices[key] = p
	return nil
}

// MockInvalidator records invalidated symbols
type MockInvalidator struct {
	symbols []string
	err     error
}

func (m *MockInvalidator) Invalidate(_ context.Context, symbol string) error {
	m.symbols = append(m.symbols, symbol)
	return m.err
}

func newTestConsumer() (*Consumer, *MockRepository, *MockInvalidator) {
	repo := NewMockRepository()
	inv := &MockInvalidator{}
	return &Consumer{repo: repo, invalidator: inv, logger: logging.Discard()}, repo, inv
}

// Helper function to build a Kafka message from an event
func barMessage(t *testing.T, event models.PriceBarEvent) kafka.Message {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Key: []byte(event.Symbol), Value: data}
}

func priceBarEvent(symbol, date, closePrice string) models.PriceBarEvent {
	return models.PriceBarEvent{
		EventType: models.EventTypePriceBar,
		Source:    "polygon",
		Symbol:    symbol,
		Bar: models.PriceBar{
			Time: date, Open: "100.00", High: "105.50", Low: "99.25", Close: closePrice, Volume: 1234567,
		},
		Timestamp: time.Date(2024, 1, 15, 21, 0, 0, 0, time.UTC),
	}
}

func TestProcessPriceBar(t *testing.T) {
	consumer, repo, inv := newTestConsumer()

	err := consumer.processMessage(context.Background(), barMessage(t, priceBarEvent("aapl", "20240115", "104.75")))
	require.NoError(t, err)

	require.Len(t, repo.prices, 1)
	p := repo.prices["AAPL:20240115"]
	require.NotNil(t, p)
	assert.Equal(t, "AAPL", p.Symbol)
	assert.Equal(t, "polygon", p.Source)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), p.Date)
	assert.True(t, decimal.RequireFromString("105.50").Equal(p.High))
	assert.True(t, decimal.RequireFromString("104.75").Equal(p.Close))
	assert.Equal(t, int64(1234567), p.Volume)

	assert.Equal(t, []string{"AAPL"}, inv.symbols)
}

func TestRedeliveredBarIsUpserted(t *testing.T) {
	consumer, repo, inv := newTestConsumer()

	msg := barMessage(t, priceBarEvent("MSFT", "2024-01-15", "400.00"))
	require.NoError(t, consumer.processMessage(context.Background(), msg))
	require.NoError(t, consumer.processMessage(context.Background(), msg))

	corrected := barMessage(t, priceBarEvent("MSFT", "20240115", "401.10"))
	require.NoError(t, consumer.processMessage(context.Background(), corrected))

	assert.Len(t, repo.prices, 1)
	assert.Equal(t, 3, repo.CreatePriceDataCalls)
	assert.True(t, decimal.RequireFromString("401.10").Equal(repo.prices["MSFT:20240115"].Close))
	assert.Len(t, inv.symbols, 3)
}

func TestOtherEventTypesAreIgnored(t *testing.T) {
	consumer, repo, inv := newTestConsumer()

	event := priceBarEvent("AAPL", "20240115", "104.75")
	event.EventType = "TRADE_DETECTED"
	require.NoError(t, consumer.processMessage(context.Background(), barMessage(t, event)))

	assert.Zero(t, repo.CreatePriceDataCalls)
	assert.Empty(t, inv.symbols)
}

func TestInvalidMessages(t *testing.T) {
	tests := []struct {
		name  string
		msg   func(t *testing.T) kafka.Message
		error string
	}{
		{
			name:  "not json",
			msg:   func(*testing.T) kafka.Message { return kafka.Message{Value: []byte("{not json")} },
			error: "unmarshal",
		},
		{
			name: "bad date",
			msg: func(t *testing.T) kafka.Message {
				return barMessage(t, priceBarEvent("AAPL", "15/01/2024", "1"))
			},
			error: "invalid bar time",
		},
		{
			name: "bad price",
			msg: func(t *testing.T) kafka.Message {
				return barMessage(t, priceBarEvent("AAPL", "20240115", "n/a"))
			},
			error: "invalid close",
		},
		{
			name: "missing symbol",
			msg: func(t *testing.T) kafka.Message {
				return barMessage(t, priceBarEvent("", "20240115", "1"))
			},
			error: "symbol is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			consumer, repo, inv := newTestConsumer()

			err := consumer.processMessage(context.Background(), tt.msg(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.error)
			assert.Zero(t, repo.CreatePriceDataCalls)
			assert.Empty(t, inv.symbols)
		})
	}
}

func TestRepositoryErrorSkipsInvalidation(t *testing.T) {
	consumer, repo, inv := newTestConsumer()
	repo.err = errors.New("connection refused")

	err := consumer.processMessage(context.Background(), barMessage(t, priceBarEvent("AAPL", "20240115", "1")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save price data")
	assert.Empty(t, inv.symbols)
}

func TestInvalidationError(t *testing.T) {
	consumer, _, inv := newTestConsumer()
	inv.err = errors.New("redis down")

	err := consumer.processMessage(context.Background(), barMessage(t, priceBarEvent("AAPL", "20240115", "1")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to invalidate AAPL")
}

func TestNilInvalidator(t *testing.T) {
	repo := NewMockRepository()
	consumer := &Consumer{repo: repo, logger: logging.Discard()}

	require.NoError(t, consumer.processMessage(context.Background(), barMessage(t, priceBarEvent("AAPL", "20240115", "1"))))
	assert.Len(t, repo.prices, 1)
}
