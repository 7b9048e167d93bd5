// Package workflow is the single entry point for administrator actions. Each
// operation locks the entities it touches, applies its whole cascade in one
// transaction, records the cascade and then publishes its notifications.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"edufund-backend/internal/domain/actor"
	"edufund-backend/internal/domain/apperr"
	"edufund-backend/internal/domain/audit"
	"edufund-backend/internal/domain/campaign"
	"edufund-backend/internal/domain/notification"
	"edufund-backend/internal/domain/student"
	"edufund-backend/internal/domain/uow"
	"edufund-backend/internal/infrastructure/lock"
	"edufund-backend/internal/infrastructure/retry"
	"edufund-backend/internal/usecase/notify"
	"edufund-backend/pkg/id"

	"go.uber.org/zap"
)

const (
	maxReasonLen = 1000
	// gifts without a campaign are settled in the platform's own currency
	platformCurrency = "USD"
)

type Notifier interface {
	Emit(ctx context.Context, repo notification.Repository, in notify.Intent) (*notification.Notification, error)
	Publish(ctx context.Context, ns []notification.Notification) error
}

type Deps struct {
	UoW UnitOfWork
	// Reader is bound to the root database; it resolves lock keys before the
	// transaction starts.
	Reader   uow.Repos
	Locker   lock.Locker
	Notifier Notifier
	Retrier  *retry.Retrier
	Log      *zap.Logger
}

// UnitOfWork is the transactional boundary the coordinator needs.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(r uow.Repos) error) error
}

type Coordinator struct {
	uow      UnitOfWork
	reader   uow.Repos
	locker   lock.Locker
	notifier Notifier
	retrier  *retry.Retrier
	log      *zap.Logger
	now      func() time.Time
	newID    func() string
}

type Option func(*Coordinator)

func WithClock(now func() time.Time) Option { return func(c *Coordinator) { c.now = now } }

func WithIDs(newID func() string) Option { return func(c *Coordinator) { c.newID = newID } }

func NewCoordinator(d Deps, opts ...Option) *Coordinator {
	c := &Coordinator{
		uow:      d.UoW,
		reader:   d.Reader,
		locker:   d.Locker,
		notifier: d.Notifier,
		retrier:  d.Retrier,
		log:      d.Log,
		now:      time.Now,
		newID:    id.NewID32,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

var _ Operations = (*Coordinator)(nil)

type target struct {
	entity string
	id     string
}

// tracker collects what one attempt of a cascade did.
type tracker struct {
	actor     string
	steps     []string
	notes     []notification.Notification
	cascadeID string
}

func (t *tracker) step(format string, args ...any) {
	t.steps = append(t.steps, fmt.Sprintf(format, args...))
}

type applyFunc func(ctx context.Context, r uow.Repos, t *tracker) (any, error)

type outcome struct {
	entity any
	t      *tracker
}

func (c *Coordinator) run(ctx context.Context, op Op, tgt target, reason *string, keys []string, apply applyFunc) (*Result, error) {
	who, _ := actor.FromContext(ctx)
	log := c.log.With(
		zap.String("op", string(op)),
		zap.String(tgt.entity+"_id", tgt.id),
		zap.String("actor", who.UserID),
	)

	// cancellation is honored only until the cascade starts applying
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	release, err := c.locker.Lock(ctx, keys...)
	if err != nil {
		log.Warn("cascade not started", zap.Error(err))
		return nil, err
	}
	defer release()
	actx := context.WithoutCancel(ctx)

	out, err := retry.Do(actx, c.retrier, string(op), func(actx context.Context) (*outcome, error) {
		t := &tracker{actor: who.UserID}
		var entity any
		err := c.uow.WithinTx(actx, func(r uow.Repos) error {
			var err error
			if entity, err = apply(actx, r, t); err != nil {
				return err
			}
			if len(t.steps) == 0 {
				return nil
			}
			t.cascadeID = c.newID()
			return r.Cascades.Create(actx, &audit.CascadeRecord{
				ID:       t.cascadeID,
				Op:       string(op),
				ActorID:  who.UserID,
				Entity:   tgt.entity,
				EntityID: tgt.id,
				Reason:   reason,
				Steps:    t.steps,
				Status:   audit.StatusApplied,
			})
		})
		if err != nil {
			return nil, err
		}
		return &outcome{entity: entity, t: t}, nil
	})
	if err != nil {
		log.Info("cascade failed", zap.String("outcome", "failed"),
			zap.String("kind", string(apperr.KindOf(err))), zap.Error(err))
		return nil, err
	}

	res := &Result{
		Op:        op,
		Applied:   len(out.t.steps) > 0,
		Entity:    out.entity,
		CascadeID: out.t.cascadeID,
		Steps:     out.t.steps,
	}
	if !res.Applied {
		log.Info("cascade finished", zap.String("outcome", "noop"))
		return res, nil
	}

	if err := c.notifier.Publish(actx, out.t.notes); err != nil {
		c.markPartial(actx, log, res.CascadeID, err)
		log.Warn("cascade finished", zap.String("outcome", "partial"),
			zap.String("cascade_id", res.CascadeID), zap.Error(err))
		return res, &apperr.PartialCascadeError{
			Op:      string(op),
			Applied: res.Steps,
			Failed:  "notification broadcast",
			Err:     err,
		}
	}
	log.Info("cascade finished", zap.String("outcome", "applied"),
		zap.String("cascade_id", res.CascadeID), zap.Int("steps", len(res.Steps)))
	return res, nil
}

func (c *Coordinator) markPartial(ctx context.Context, log *zap.Logger, cascadeID string, cause error) {
	err := retry.Run(ctx, c.retrier, "mark cascade partial", func(ctx context.Context) error {
		return c.uow.WithinTx(ctx, func(r uow.Repos) error {
			return r.Cascades.MarkPartial(ctx, cascadeID, "notification broadcast: "+cause.Error())
		})
	})
	if err != nil {
		log.Error("cascade record not marked partial", zap.String("cascade_id", cascadeID), zap.Error(err))
	}
}

func (c *Coordinator) Cascades(ctx context.Context, entity, entityID string) ([]audit.CascadeRecord, error) {
	if strings.TrimSpace(entity) == "" {
		return nil, apperr.Validation("entity is required")
	}
	if err := requireID(entity, entityID); err != nil {
		return nil, err
	}
	return load(ctx, c, "cascades", func(ctx context.Context) ([]audit.CascadeRecord, error) {
		return c.reader.Cascades.ListByEntity(ctx, entity, entityID)
	})
}

// load runs a pre-lock read under the retry policy.
func load[T any](ctx context.Context, c *Coordinator, what string, fn func(ctx context.Context) (T, error)) (T, error) {
	return retry.Do(ctx, c.retrier, "load "+what, fn)
}

// owner locks the student a cascade touches. An archived owner cannot take
// part in a cascade.
func (c *Coordinator) owner(ctx context.Context, r uow.Repos, studentID, entity, entityID string) (*student.Student, error) {
	s, err := r.Students.GetByIDForUpdate(ctx, studentID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.InvalidState(entity, entityID, fmt.Sprintf("owner %s is archived", studentID))
	}
	return s, err
}

// moveStudent applies the identity transition, counting live campaigns at the
// moment of the move so a campaign removed earlier in the cascade is excluded.
// A student whose live campaigns pin it to approved stays approved; held
// reports that case and the cascade records it as a step.
func (c *Coordinator) moveStudent(ctx context.Context, r uow.Repos, t *tracker, s *student.Student, to student.VerificationStatus) (held bool, err error) {
	active, err := r.Campaigns.CountByStudentAndStatus(ctx, s.ID, campaign.StatusActive)
	if err != nil {
		return false, err
	}
	if to != student.StatusApproved && s.HoldsApproval(active) {
		t.step("student %s: kept approved (%d active campaigns)", s.ID, active)
		return true, nil
	}
	from := s.VerificationStatus
	applied, err := s.SetStatus(to, active, c.now())
	if err != nil || !applied {
		return false, err
	}
	if err := r.Students.Save(ctx, s); err != nil {
		return false, err
	}
	t.step("student %s: %s -> %s", s.ID, from, to)
	return false, nil
}

func (c *Coordinator) emit(ctx context.Context, r uow.Repos, t *tracker, in notify.Intent) error {
	if in.Recipient == "" {
		return nil
	}
	n, err := c.notifier.Emit(ctx, r.Notifications, in)
	if err != nil {
		return err
	}
	if n != nil {
		t.notes = append(t.notes, *n)
		t.step("notification %s -> %s", in.Type, in.Recipient)
	}
	return nil
}

func requireID(kind, v string) error {
	if strings.TrimSpace(v) == "" {
		return apperr.Validation(kind + " id is required")
	}
	return nil
}

func requireReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", apperr.Validation("a rejection reason is required")
	}
	if len(reason) > maxReasonLen {
		return "", apperr.Validation(fmt.Sprintf("rejection reason exceeds %d characters", maxReasonLen))
	}
	return reason, nil
}

func formatMoney(minor int64, currency string) string {
	return fmt.Sprintf("%s %d.%02d", currency, minor/100, minor%100)
}
