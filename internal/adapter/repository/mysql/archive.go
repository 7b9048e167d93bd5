package mysql

import (
	"context"
	"time"

	archiveDomain "edufund-backend/internal/domain/archive"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ArchiveRepository struct{ db *gorm.DB }

func NewArchiveRepository(db *gorm.DB) *ArchiveRepository { return &ArchiveRepository{db: db} }

func (r *ArchiveRepository) Create(ctx context.Context, p *archiveDomain.Profile) error {
	return fromGorm(r.db.WithContext(ctx).Create(p).Error, "archive", p.ID)
}

func (r *ArchiveRepository) Save(ctx context.Context, p *archiveDomain.Profile) error {
	return fromGorm(r.db.WithContext(ctx).Unscoped().Omit("created_at").Save(p).Error, "archive", p.ID)
}

func (r *ArchiveRepository) GetByIDForUpdate(ctx context.Context, id string) (*archiveDomain.Profile, error) {
	var out archiveDomain.Profile
	err := r.db.WithContext(ctx).Unscoped().
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&out).Error
	if err != nil {
		return nil, fromGorm(err, "archive", id)
	}
	return &out, nil
}

func (r *ArchiveRepository) GetOpenByUserID(ctx context.Context, userID string) (*archiveDomain.Profile, error) {
	var out archiveDomain.Profile
	err := r.db.WithContext(ctx).
		Where("original_user_id = ? AND restored_at IS NULL", userID).
		Order("disabled_at DESC").
		First(&out).Error
	if err != nil {
		return nil, fromGorm(err, "archive", userID)
	}
	return &out, nil
}

func (r *ArchiveRepository) Close(ctx context.Context, p *archiveDomain.Profile) error {
	return fromGorm(r.db.WithContext(ctx).Delete(p).Error, "archive", p.ID)
}

func (r *ArchiveRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]archiveDomain.Profile, error) {
	var out []archiveDomain.Profile
	err := r.db.WithContext(ctx).
		Where("scheduled_deletion_at < ? AND restored_at IS NULL", now.UTC()).
		Order("scheduled_deletion_at ASC").
		Limit(limit).
		Find(&out).Error
	return out, fromGorm(err, "archive", "")
}

// Purge removes the archive row for good, restored or not.
func (r *ArchiveRepository) Purge(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Unscoped().Where("id = ?", id).Delete(&archiveDomain.Profile{}).Error
	return fromGorm(err, "archive", id)
}
