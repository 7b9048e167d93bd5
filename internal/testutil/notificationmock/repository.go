package notificationmock

import (
	"context"
	"time"

	domain "edufund-backend/internal/domain/notification"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Create defaults to "created"; the list methods default to context.Canceled.
type Repo struct {
	CreateFn          func(ctx context.Context, n *domain.Notification) (bool, error)
	ListByRecipientFn func(ctx context.Context, userID string) ([]domain.Notification, error)
	ListUnpublishedFn func(ctx context.Context, limit int) ([]domain.Notification, error)
	MarkPublishedFn   func(ctx context.Context, ids []string, at time.Time) error
}

func (m *Repo) Create(ctx context.Context, n *domain.Notification) (bool, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, n)
	}
	return true, nil
}

func (m *Repo) ListByRecipient(ctx context.Context, userID string) ([]domain.Notification, error) {
	if m.ListByRecipientFn != nil {
		return m.ListByRecipientFn(ctx, userID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListUnpublished(ctx context.Context, limit int) ([]domain.Notification, error) {
	if m.ListUnpublishedFn != nil {
		return m.ListUnpublishedFn(ctx, limit)
	}
	return nil, context.Canceled
}

func (m *Repo) MarkPublished(ctx context.Context, ids []string, at time.Time) error {
	if m.MarkPublishedFn != nil {
		return m.MarkPublishedFn(ctx, ids, at)
	}
	return nil
}
