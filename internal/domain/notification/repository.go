package notification

import (
	"context"
	"time"
)

type Repository interface {
	// Create inserts n unless a row with the same recipient and dedupe key
	// exists; created is false in that case.
	Create(ctx context.Context, n *Notification) (created bool, err error)
	ListByRecipient(ctx context.Context, userID string) ([]Notification, error)
	ListUnpublished(ctx context.Context, limit int) ([]Notification, error)
	MarkPublished(ctx context.Context, ids []string, at time.Time) error
}

// Publisher fans a committed notification out to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, n Notification) error
}
