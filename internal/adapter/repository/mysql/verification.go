package mysql

import (
	"context"

	verificationDomain "edufund-backend/internal/domain/verification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VerificationRepository struct{ db *gorm.DB }

func NewVerificationRepository(db *gorm.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

func (r *VerificationRepository) Create(ctx context.Context, v *verificationDomain.Request) error {
	return fromGorm(r.db.WithContext(ctx).Create(v).Error, "verification request", v.ID)
}

func (r *VerificationRepository) Save(ctx context.Context, v *verificationDomain.Request) error {
	return fromGorm(r.db.WithContext(ctx).Omit("created_at").Save(v).Error, "verification request", v.ID)
}

func (r *VerificationRepository) GetByID(ctx context.Context, id string) (*verificationDomain.Request, error) {
	var out verificationDomain.Request
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, fromGorm(err, "verification request", id)
	}
	return &out, nil
}

func (r *VerificationRepository) GetByIDForUpdate(ctx context.Context, id string) (*verificationDomain.Request, error) {
	var out verificationDomain.Request
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&out).Error
	if err != nil {
		return nil, fromGorm(err, "verification request", id)
	}
	return &out, nil
}

func (r *VerificationRepository) ListPendingByStudentForUpdate(ctx context.Context, studentID string) ([]verificationDomain.Request, error) {
	var out []verificationDomain.Request
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("student_id = ? AND status = ?", studentID, verificationDomain.StatusPending).
		Order("submitted_at ASC, id ASC").
		Find(&out).Error
	return out, fromGorm(err, "verification request", studentID)
}

func (r *VerificationRepository) CountByStudentAndStatus(ctx context.Context, studentID string, status verificationDomain.Status) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&verificationDomain.Request{}).
		Where("student_id = ? AND status = ?", studentID, status).
		Count(&n).Error
	return n, fromGorm(err, "verification request", studentID)
}
