package publisher

import (
	"context"
	"fmt"
	"time"

	"edufund-backend/internal/domain/notification"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka keys messages by recipient so one user's notifications stay ordered.
type Kafka struct {
	writer kafkaWriter
	logger *zap.Logger
}

func NewKafka(brokers []string, topic string, logger *zap.Logger) *Kafka {
	return &Kafka{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			WriteTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

func (p *Kafka) Publish(ctx context.Context, n notification.Notification) error {
	data, err := encode(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(n.RecipientUserID),
		Value: data,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(n.Type)},
		},
	})
	if err != nil {
		p.logger.Error("failed to write notification", zap.Error(err), zap.String("notification_id", n.ID))
		return fmt.Errorf("failed to write notification: %w", err)
	}
	return nil
}

func (p *Kafka) Close() error { return p.writer.Close() }
