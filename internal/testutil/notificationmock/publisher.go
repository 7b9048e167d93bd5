package notificationmock

import (
	"context"
	"sync"

	domain "edufund-backend/internal/domain/notification"
)

var _ domain.Publisher = (*Publisher)(nil)

// Publisher records every notification it is asked to publish.
type Publisher struct {
	PublishFn func(ctx context.Context, n domain.Notification) error

	mu   sync.Mutex
	sent []domain.Notification
}

func (p *Publisher) WithPublish(fn func(context.Context, domain.Notification) error) *Publisher {
	p.PublishFn = fn
	return p
}

func (p *Publisher) Publish(ctx context.Context, n domain.Notification) error {
	if p.PublishFn != nil {
		if err := p.PublishFn(ctx, n); err != nil {
			return err
		}
	}
	p.mu.Lock()
	p.sent = append(p.sent, n)
	p.mu.Unlock()
	return nil
}

// Sent returns a copy of the successfully published notifications.
func (p *Publisher) Sent() []domain.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Notification(nil), p.sent...)
}
