// Package archival permanently deletes archived profiles whose grace period
// has ended.
package archival

import (
	"context"
	"errors"
	"time"

	"edufund-backend/internal/domain/archive"
	"edufund-backend/internal/domain/uow"
	"edufund-backend/internal/infrastructure/lock"
	"edufund-backend/internal/infrastructure/retry"

	"go.uber.org/zap"
)

type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(r uow.Repos) error) error
}

type Purger struct {
	uow     UnitOfWork
	reader  archive.Repository
	locker  lock.Locker
	retrier *retry.Retrier
	log     *zap.Logger
	now     func() time.Time
}

func NewPurger(tx UnitOfWork, reader archive.Repository, locker lock.Locker, retrier *retry.Retrier, log *zap.Logger) *Purger {
	return &Purger{uow: tx, reader: reader, locker: locker, retrier: retrier, log: log, now: time.Now}
}

// PurgeExpired deletes up to batch expired archives together with the
// archived student rows. An archive restored in the meantime is skipped.
func (p *Purger) PurgeExpired(ctx context.Context, batch int) (int, error) {
	now := p.now()
	expired, err := retry.Do(ctx, p.retrier, "list expired archives", func(ctx context.Context) ([]archive.Profile, error) {
		return p.reader.ListExpired(ctx, now, batch)
	})
	if err != nil {
		return 0, err
	}

	purged := 0
	var errs []error
	for _, a := range expired {
		ok, err := p.purgeOne(ctx, a.ID, now)
		if err != nil {
			p.log.Warn("archive not purged", zap.String("archive_id", a.ID), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		if ok {
			purged++
			p.log.Info("archive purged",
				zap.String("archive_id", a.ID),
				zap.String("user_id", a.OriginalUserID),
				zap.Time("scheduled_deletion_at", a.ScheduledDeletionAt))
		}
	}
	return purged, errors.Join(errs...)
}

func (p *Purger) purgeOne(ctx context.Context, archiveID string, now time.Time) (bool, error) {
	// same key as RestoreProfile
	release, err := p.locker.Lock(ctx, lock.Archive(archiveID))
	if err != nil {
		return false, err
	}
	defer release()

	return retry.Do(ctx, p.retrier, "purge archive", func(ctx context.Context) (bool, error) {
		purged := false
		err := p.uow.WithinTx(ctx, func(r uow.Repos) error {
			a, err := r.Archives.GetByIDForUpdate(ctx, archiveID)
			if err != nil {
				return err
			}
			if a.Restored() || !a.Expired(now) {
				return nil
			}
			if err := r.Students.Purge(ctx, a.OriginalUserID); err != nil {
				return err
			}
			if err := r.Archives.Purge(ctx, a.ID); err != nil {
				return err
			}
			purged = true
			return nil
		})
		return purged, err
	})
}

// Run calls PurgeExpired every interval until ctx is done.
func (p *Purger) Run(ctx context.Context, interval time.Duration, batch int) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := p.PurgeExpired(ctx, batch); err != nil {
				p.log.Warn("archive purge pass failed", zap.Error(err))
			}
		}
	}
}
