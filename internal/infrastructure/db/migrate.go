package db

import (
	"edufund-backend/internal/domain/admin"
	"edufund-backend/internal/domain/archive"
	"edufund-backend/internal/domain/audit"
	"edufund-backend/internal/domain/campaign"
	"edufund-backend/internal/domain/donation"
	"edufund-backend/internal/domain/notification"
	"edufund-backend/internal/domain/student"
	"edufund-backend/internal/domain/verification"

	"gorm.io/gorm"
)

// Models lists every table the workflow owns.
func Models() []any {
	return []any{
		&admin.Admin{},
		&student.Student{},
		&verification.Request{},
		&campaign.Campaign{},
		&donation.Donation{},
		&archive.Profile{},
		&notification.Notification{},
		&audit.CascadeRecord{},
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
