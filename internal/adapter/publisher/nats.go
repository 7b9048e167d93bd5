package publisher

import (
	"context"
	"fmt"

	"edufund-backend/internal/domain/notification"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

type natsConnection interface {
	Publish(subj string, data []byte) error
	Close()
}

// NATS publishes each notification on <subject>.<type>.
type NATS struct {
	conn    natsConnection
	subject string
	logger  *zap.Logger
}

func NewNATS(url, subject string, logger *zap.Logger) (*NATS, error) {
	conn, err := nats.Connect(url, nats.Name("edufund-notifications"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logger.Info("connected to NATS", zap.String("url", url))
	return &NATS{conn: conn, subject: subject, logger: logger}, nil
}

func (p *NATS) Publish(_ context.Context, n notification.Notification) error {
	data, err := encode(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	subj := p.subject + "." + string(n.Type)
	if err := p.conn.Publish(subj, data); err != nil {
		p.logger.Error("failed to publish notification", zap.Error(err), zap.String("notification_id", n.ID))
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	p.logger.Debug("notification published", zap.String("subject", subj), zap.String("notification_id", n.ID))
	return nil
}

func (p *NATS) Close() {
	if p.conn != nil {
		p.conn.Close()
		p.logger.Info("NATS connection closed")
	}
}
