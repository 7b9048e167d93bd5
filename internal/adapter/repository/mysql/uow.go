package mysql

import (
	"context"

	"edufund-backend/internal/domain/student"
	"edufund-backend/internal/domain/uow"

	"gorm.io/gorm"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

// Repos binds every repository to db (the root handle or a transaction).
func Repos(db *gorm.DB) uow.Repos {
	return uow.Repos{
		Students:      &StudentRepository{db: db},
		Verifications: &VerificationRepository{db: db},
		Campaigns:     &CampaignRepository{db: db},
		Donations:     &DonationRepository{db: db},
		Archives:      &ArchiveRepository{db: db},
		Notifications: &NotificationRepository{db: db},
		Cascades:      &CascadeRepository{db: db},
		Admins:        &AdminRepository{db: db},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(Repos(tx))
	})
}

func (u *GormUoW) WithinStudentTx(ctx context.Context, studentID string, fn func(r uow.Repos, s *student.Student) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := Repos(tx)
		// lock the student row up-front to prevent races
		s, err := r.Students.GetByIDForUpdate(ctx, studentID)
		if err != nil {
			return err
		}
		return fn(r, s)
	})
}
