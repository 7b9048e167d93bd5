package mysql

import (
	"context"

	adminDomain "edufund-backend/internal/domain/admin"

	"gorm.io/gorm"
)

type AdminRepository struct{ db *gorm.DB }

func NewAdminRepository(db *gorm.DB) *AdminRepository { return &AdminRepository{db: db} }

func (r *AdminRepository) Create(ctx context.Context, a *adminDomain.Admin) error {
	return fromGorm(r.db.WithContext(ctx).Create(a).Error, "admin", a.ID)
}

func (r *AdminRepository) ListActiveIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&adminDomain.Admin{}).
		Where("active = ?", true).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, fromGorm(err, "admin", "")
}
