package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"ms-attendance/internal/config"
	"ms-attendance/internal/logger"
	"ms-attendance/internal/models"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes committed activity, one topic per instruction.
type Producer struct {
	Writer messageWriter
	Topics config.TopicConfig
	Logger *logger.Logger
}

func NewProducer(brokers []string, topics config.TopicConfig, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &Producer{Writer: writer, Topics: topics, Logger: log}
}

// TopicFor maps an instruction name to its activity topic.
func (p *Producer) TopicFor(instruction string) (string, error) {
	switch instruction {
	case "initialize_event":
		return p.Topics.EventInitialized, nil
	case "edit_event":
		return p.Topics.EventEdited, nil
	case "close_event":
		return p.Topics.EventClosed, nil
	case "register_event":
		return p.Topics.Registered, nil
	case "cancel_registration":
		return p.Topics.RegistrationCanceled, nil
	case "mint_nft":
		return p.Topics.CredentialMinted, nil
	}
	return "", fmt.Errorf("no topic for instruction %q", instruction)
}

// PublishActivity keys each message by event so one event's activity stays ordered.
func (p *Producer) PublishActivity(ctx context.Context, activity models.Activity) error {
	topic, err := p.TopicFor(activity.Instruction)
	if err != nil {
		return err
	}
	msgBytes, err := json.Marshal(activity)
	if err != nil {
		return err
	}

	if p.Logger != nil {
		p.Logger.LogKafka("PUBLISH", topic, fmt.Sprintf("tx %s for event %s", activity.TxID, activity.Event))
	}

	return p.Writer.WriteMessages(ctx,
		kafka.Message{
			Topic: topic,
			Key:   []byte(activity.Event),
			Value: msgBytes,
		},
	)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
