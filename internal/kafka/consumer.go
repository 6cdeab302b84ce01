package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/trogers1052/stock-chart-service/internal/models"
)

// PriceRepository defines the storage operation for incoming bars
type PriceRepository interface {
	CreatePriceData(p *models.PriceDataDaily) error
}

// Invalidator drops cached charts for a symbol once its bars change
type Invalidator interface {
	Invalidate(ctx context.Context, symbol string) error
}

// Consumer handles consuming price bar events from Kafka.
// Bars are upserted by (symbol, date), so redelivered events are harmless.
type Consumer struct {
	reader      *kafka.Reader
	repo        PriceRepository
	invalidator Invalidator
	logger      logrus.FieldLogger
}

// NewConsumer creates a new Kafka consumer for price bar events
func NewConsumer(brokers []string, topic, groupID string, repo PriceRepository, invalidator Invalidator, logger logrus.FieldLogger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	return &Consumer{
		reader:      reader,
		repo:        repo,
		invalidator: invalidator,
		logger:      logger,
	}
}

// Start begins consuming messages from Kafka
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Infof("Starting Kafka consumer for topic: %s", c.reader.Config().Topic)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Kafka consumer shutting down...")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil // Context cancelled, normal shutdown
				}
				c.logger.WithError(err).Error("Error reading message")
				continue
			}

			if err := c.processMessage(ctx, msg); err != nil {
				c.logger.WithError(err).WithField("offset", msg.Offset).Error("Error processing message")
				// Continue processing other messages
			}
		}
	}
}

// processMessage handles a single Kafka message
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) error {
	c.logger.Debugf("Received message from partition %d offset %d: key=%s",
		msg.Partition, msg.Offset, string(msg.Key))

	var event models.PriceBarEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal price bar event: %w", err)
	}

	// Only process PRICE_BAR events
	if event.EventType != models.EventTypePriceBar {
		c.logger.Debugf("Ignoring event type: %s", event.EventType)
		return nil
	}

	price, err := models.PriceDataFromBar(event.Symbol, event.Source, event.Bar)
	if err != nil {
		return fmt.Errorf("failed to convert price bar event: %w", err)
	}

	if err := c.repo.CreatePriceData(price); err != nil {
		return fmt.Errorf("failed to save price data: %w", err)
	}

	if c.invalidator != nil {
		if err := c.invalidator.Invalidate(ctx, price.Symbol); err != nil {
			return fmt.Errorf("failed to invalidate %s: %w", price.Symbol, err)
		}
	}

	c.logger.WithFields(logrus.Fields{
		"symbol": price.Symbol,
		"date":   price.Date.Format("2006-01-02"),
		"close":  price.Close.String(),
		"source": price.Source,
	}).Info("Saved price bar")

	return nil
}

// Close closes the Kafka consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}
