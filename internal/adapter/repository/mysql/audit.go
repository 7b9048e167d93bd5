package mysql

import (
	"context"

	auditDomain "edufund-backend/internal/domain/audit"

	"gorm.io/gorm"
)

type CascadeRepository struct{ db *gorm.DB }

func NewCascadeRepository(db *gorm.DB) *CascadeRepository { return &CascadeRepository{db: db} }

func (r *CascadeRepository) Create(ctx context.Context, c *auditDomain.CascadeRecord) error {
	return fromGorm(r.db.WithContext(ctx).Create(c).Error, "cascade", c.ID)
}

func (r *CascadeRepository) GetByID(ctx context.Context, id string) (*auditDomain.CascadeRecord, error) {
	var out auditDomain.CascadeRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, fromGorm(err, "cascade", id)
	}
	return &out, nil
}

func (r *CascadeRepository) ListByEntity(ctx context.Context, entity, entityID string) ([]auditDomain.CascadeRecord, error) {
	var out []auditDomain.CascadeRecord
	err := r.db.WithContext(ctx).
		Where("entity = ? AND entity_id = ?", entity, entityID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, fromGorm(err, "cascade", entityID)
}

func (r *CascadeRepository) MarkPartial(ctx context.Context, id, detail string) error {
	res := r.db.WithContext(ctx).Model(&auditDomain.CascadeRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": auditDomain.StatusPartial, "detail": detail})
	if res.Error != nil {
		return fromGorm(res.Error, "cascade", id)
	}
	if res.RowsAffected == 0 {
		return fromGorm(gorm.ErrRecordNotFound, "cascade", id)
	}
	return nil
}
