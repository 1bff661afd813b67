package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ms-attendance/internal/logger"
	"ms-attendance/internal/models"

	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer follows the activity topics so every replica can stream
// activity committed by its peers.
type Consumer struct {
	reader messageReader
	log    *logger.Logger
	// RetryDelay is the pause after a failed read.
	RetryDelay time.Duration
}

const defaultRetryDelay = time.Second

// NewConsumer joins groupID on topics. Give each replica its own group so
// each one sees every message.
func NewConsumer(brokers []string, topics []string, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupTopics: topics,
		GroupID:     groupID,
		StartOffset: kafka.LastOffset,
		MinBytes:    1,
		MaxBytes:    10e6, // 10MB
	})
	return &Consumer{reader: reader, log: log, RetryDelay: defaultRetryDelay}
}

// Start delivers activity to handler until ctx is done.
func (c *Consumer) Start(ctx context.Context, handler func(models.Activity)) error {
	c.log.Info("KAFKA", "activity consumer started")

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			c.log.Error("KAFKA", fmt.Sprintf("error reading message: %v", err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.RetryDelay):
			}
			continue
		}

		var activity models.Activity
		if err := json.Unmarshal(msg.Value, &activity); err != nil {
			c.log.Warn("KAFKA", fmt.Sprintf("failed to unmarshal message on %s: %v", msg.Topic, err))
			continue
		}

		c.log.LogKafka("CONSUME", msg.Topic, fmt.Sprintf("tx %s", activity.TxID))
		handler(activity)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
