package mysql

import (
	"context"

	studentDomain "edufund-backend/internal/domain/student"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StudentRepository struct{ db *gorm.DB }

func NewStudentRepository(db *gorm.DB) *StudentRepository { return &StudentRepository{db: db} }

func (r *StudentRepository) Create(ctx context.Context, s *studentDomain.Student) error {
	return fromGorm(r.db.WithContext(ctx).Create(s).Error, "student", s.ID)
}

func (r *StudentRepository) Save(ctx context.Context, s *studentDomain.Student) error {
	return fromGorm(r.db.WithContext(ctx).Omit("created_at").Save(s).Error, "student", s.ID)
}

func (r *StudentRepository) GetByID(ctx context.Context, id string) (*studentDomain.Student, error) {
	var out studentDomain.Student
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, fromGorm(err, "student", id)
	}
	return &out, nil
}

func (r *StudentRepository) GetByIDForUpdate(ctx context.Context, id string) (*studentDomain.Student, error) {
	var out studentDomain.Student
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&out).Error
	if err != nil {
		return nil, fromGorm(err, "student", id)
	}
	return &out, nil
}

func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&studentDomain.Student{})
	if res.Error != nil {
		return fromGorm(res.Error, "student", id)
	}
	if res.RowsAffected == 0 {
		return fromGorm(gorm.ErrRecordNotFound, "student", id)
	}
	return nil
}

func (r *StudentRepository) Purge(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Unscoped().
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Delete(&studentDomain.Student{}).Error
	return fromGorm(err, "student", id)
}
