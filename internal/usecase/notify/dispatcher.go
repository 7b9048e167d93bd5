// Package notify writes workflow notifications and fans them out.
//
// Notifications are written by Emit inside the cascade transaction, so they
// commit or roll back with the state change. Publish runs after commit; rows
// it could not deliver stay unpublished and RelayPending retries them.
package notify

import (
	"context"
	"time"

	"edufund-backend/internal/domain/notification"
	"edufund-backend/internal/infrastructure/retry"
	"edufund-backend/pkg/id"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Intent describes one notification before it is written.
type Intent struct {
	Recipient string
	Type      notification.Type
	EntityID  string
	Title     string
	Message   string
	Payload   map[string]string
}

type Dispatcher struct {
	outbox  notification.Repository
	pub     notification.Publisher
	retrier *retry.Retrier
	log     *zap.Logger
	now     func() time.Time
	newID   func() string
	fanout  int
}

// NewDispatcher. outbox must be bound to the root database handle; pub may be
// nil, in which case the table itself is the sink and rows are marked
// published as soon as they commit.
func NewDispatcher(outbox notification.Repository, pub notification.Publisher, retrier *retry.Retrier, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		outbox:  outbox,
		pub:     pub,
		retrier: retrier,
		log:     log,
		now:     time.Now,
		newID:   id.NewID32,
		fanout:  4,
	}
}

// Emit writes the notification through repo (normally transaction-bound).
// A duplicate of an already written transition returns nil.
func (d *Dispatcher) Emit(ctx context.Context, repo notification.Repository, in Intent) (*notification.Notification, error) {
	n := &notification.Notification{
		ID:              d.newID(),
		RecipientUserID: in.Recipient,
		DedupeKey:       notification.DedupeKey(in.Type, in.EntityID),
		Type:            in.Type,
		Title:           in.Title,
		Message:         in.Message,
		Payload:         in.Payload,
		CreatedAt:       d.now().UTC(),
	}
	created, err := repo.Create(ctx, n)
	if err != nil {
		return nil, err
	}
	if !created {
		d.log.Debug("notification already written",
			zap.String("recipient", in.Recipient), zap.String("dedupe_key", n.DedupeKey))
		return nil, nil
	}
	return n, nil
}

// Publish delivers committed notifications and marks the delivered ones.
// It returns the first delivery error after attempting all of them.
func (d *Dispatcher) Publish(ctx context.Context, ns []notification.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	delivered := make([]bool, len(ns))
	var g errgroup.Group
	g.SetLimit(d.fanout)
	for i := range ns {
		if d.pub == nil {
			delivered[i] = true
			continue
		}
		g.Go(func() error {
			err := retry.Run(ctx, d.retrier, "publish notification", func(ctx context.Context) error {
				return d.pub.Publish(ctx, ns[i])
			})
			if err != nil {
				d.log.Warn("notification not delivered",
					zap.String("notification_id", ns[i].ID), zap.Error(err))
				return err
			}
			delivered[i] = true
			return nil
		})
	}
	pubErr := g.Wait()

	ids := make([]string, 0, len(ns))
	for i, ok := range delivered {
		if ok {
			ids = append(ids, ns[i].ID)
		}
	}
	if err := d.outbox.MarkPublished(ctx, ids, d.now()); err != nil {
		// delivered rows left unmarked are re-sent by the relay; consumers dedupe by id
		d.log.Error("mark notifications published", zap.Int("count", len(ids)), zap.Error(err))
		if pubErr == nil {
			pubErr = err
		}
	}
	return pubErr
}

// RelayPending republishes up to batch unpublished notifications.
func (d *Dispatcher) RelayPending(ctx context.Context, batch int) (int, error) {
	pending, err := d.outbox.ListUnpublished(ctx, batch)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}
	err = d.Publish(ctx, pending)
	d.log.Info("notification relay pass", zap.Int("pending", len(pending)), zap.Error(err))
	return len(pending), err
}

// RunRelay calls RelayPending every interval until ctx is done.
func (d *Dispatcher) RunRelay(ctx context.Context, interval time.Duration, batch int) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := d.RelayPending(ctx, batch); err != nil {
				d.log.Warn("notification relay failed", zap.Error(err))
			}
		}
	}
}
