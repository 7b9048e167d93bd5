package student

import (
	"time"

	"gorm.io/gorm"
)

type VerificationStatus string

const (
	StatusUnverified VerificationStatus = "unverified"
	StatusPending    VerificationStatus = "pending"
	StatusApproved   VerificationStatus = "approved"
	StatusRejected   VerificationStatus = "rejected"
)

func (s VerificationStatus) Valid() bool {
	switch s {
	case StatusUnverified, StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Student is a profile seeking funding. VerificationStatus caches the most
// recent identity decision; it may be forced by a cascade independently of
// any single verification request.
type Student struct {
	ID                 string             `gorm:"primaryKey;size:32" json:"id"`
	FullName           string             `gorm:"size:255;not null" json:"full_name"`
	Email              string             `gorm:"size:255;index" json:"email"`
	Phone              *string            `gorm:"size:32" json:"phone,omitempty"`
	UniversityID       string             `gorm:"size:64;index" json:"university_id"`
	StudentCode        string             `gorm:"size:64" json:"student_code"`
	Major              string             `gorm:"size:255" json:"major"`
	VerificationStatus VerificationStatus `gorm:"size:20;not null;default:'unverified';index" json:"verification_status"`
	StatusUpdatedAt    time.Time          `json:"status_updated_at"`
	CreatedAt          time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt     `gorm:"index" json:"-"`
}

func (Student) TableName() string { return "students" }
