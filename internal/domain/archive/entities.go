package archive

import (
	"time"

	"gorm.io/gorm"
)

// GracePeriod is how long a disabled profile can still be restored.
const GracePeriod = 60 * 24 * time.Hour

// Snapshot is the point-in-time copy needed to rebuild a profile.
type Snapshot struct {
	FullName           string  `json:"full_name"`
	Email              string  `json:"email"`
	Phone              *string `json:"phone,omitempty"`
	UniversityID       string  `json:"university_id"`
	StudentCode        string  `json:"student_code"`
	Major              string  `json:"major"`
	VerificationStatus string  `json:"verification_status"`
}

// Profile is an archived (disabled) account. Restoring stamps RestoredAt and
// soft-deletes the row; purging removes it for good.
type Profile struct {
	ID                  string         `gorm:"primaryKey;size:32" json:"id"`
	OriginalUserID      string         `gorm:"size:32;not null;index" json:"original_user_id"`
	Role                string         `gorm:"size:20;not null" json:"role"`
	Snapshot            Snapshot       `gorm:"serializer:json;type:text" json:"snapshot"`
	DisabledAt          time.Time      `gorm:"not null" json:"disabled_at"`
	DisabledBy          string         `gorm:"size:32" json:"disabled_by"`
	ScheduledDeletionAt time.Time      `gorm:"not null;index" json:"scheduled_deletion_at"`
	RestoredAt          *time.Time     `json:"restored_at,omitempty"`
	RestoredUserID      *string        `gorm:"size:32" json:"restored_user_id,omitempty"`
	CreatedAt           time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Profile) TableName() string { return "archived_profiles" }

// New disables a profile at now; ScheduledDeletionAt is always after DisabledAt.
func New(id, userID, role, disabledBy string, snap Snapshot, now time.Time) *Profile {
	at := now.UTC()
	return &Profile{
		ID:                  id,
		OriginalUserID:      userID,
		Role:                role,
		Snapshot:            snap,
		DisabledAt:          at,
		DisabledBy:          disabledBy,
		ScheduledDeletionAt: at.Add(GracePeriod),
	}
}

// Expired reports whether the grace period is over.
func (p *Profile) Expired(now time.Time) bool { return now.After(p.ScheduledDeletionAt) }

func (p *Profile) Restored() bool { return p.RestoredAt != nil }

func (p *Profile) MarkRestored(userID string, now time.Time) {
	at := now.UTC()
	p.RestoredAt = &at
	p.RestoredUserID = &userID
}
