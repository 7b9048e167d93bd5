package uow

import (
	"context"

	"edufund-backend/internal/domain/admin"
	"edufund-backend/internal/domain/archive"
	"edufund-backend/internal/domain/audit"
	"edufund-backend/internal/domain/campaign"
	"edufund-backend/internal/domain/donation"
	"edufund-backend/internal/domain/notification"
	"edufund-backend/internal/domain/student"
	"edufund-backend/internal/domain/verification"
)

// Repos is every repository bound to one transaction.
type Repos struct {
	Students      student.Repository
	Verifications verification.Repository
	Campaigns     campaign.Repository
	Donations     donation.Repository
	Archives      archive.Repository
	Notifications notification.Repository
	Cascades      audit.Repository
	Admins        admin.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock the student row first, then pass it in
	WithinStudentTx(ctx context.Context, studentID string, fn func(r Repos, s *student.Student) error) error
}
