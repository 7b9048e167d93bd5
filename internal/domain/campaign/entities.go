package campaign

import (
	"fmt"
	"time"

	"edufund-backend/internal/domain/apperr"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusRejected Status = "rejected"
	StatusDeleted  Status = "deleted"
)

// Campaign is a funding appeal owned by a student. RaisedAmount is in minor
// units of the student's currency and changes only through Repository.Credit.
type Campaign struct {
	ID              string     `gorm:"primaryKey;size:32" json:"id"`
	StudentID       string     `gorm:"size:32;not null;index:idx_campaign_student_status" json:"student_id"`
	Title           string     `gorm:"size:255;not null" json:"title"`
	Story           string     `gorm:"type:text" json:"story"`
	Currency        string     `gorm:"size:3;not null;default:'USD'" json:"currency"`
	GoalAmount      int64      `gorm:"not null" json:"goal_amount"`
	RaisedAmount    int64      `gorm:"not null;default:0" json:"raised_amount"`
	DocumentURLs    []string   `gorm:"serializer:json;type:text" json:"document_urls"`
	Status          Status     `gorm:"size:20;not null;default:'pending';index:idx_campaign_student_status" json:"status"`
	RejectionReason *string    `gorm:"type:text" json:"rejection_reason,omitempty"`
	StatusUpdatedAt time.Time  `json:"status_updated_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Campaign) TableName() string { return "campaigns" }

// Approve publishes a pending campaign. active is reachable only from pending.
func (c *Campaign) Approve(now time.Time) (bool, error) {
	switch c.Status {
	case StatusActive:
		return false, nil
	case StatusPending:
		c.setStatus(StatusActive, now)
		return true, nil
	default:
		return false, c.illegal(StatusActive)
	}
}

func (c *Campaign) Reject(reason string, now time.Time) (bool, error) {
	switch c.Status {
	case StatusRejected:
		return false, nil
	case StatusPending:
		c.setStatus(StatusRejected, now)
		c.RejectionReason = &reason
		return true, nil
	default:
		return false, c.illegal(StatusRejected)
	}
}

// Delete removes a pending or active campaign. The row stays as a tombstone.
func (c *Campaign) Delete(now time.Time) (bool, error) {
	switch c.Status {
	case StatusDeleted:
		return false, nil
	case StatusPending, StatusActive:
		c.setStatus(StatusDeleted, now)
		at := now.UTC()
		c.DeletedAt = &at
		return true, nil
	default:
		return false, c.illegal(StatusDeleted)
	}
}

func (c *Campaign) setStatus(s Status, now time.Time) {
	c.Status = s
	c.StatusUpdatedAt = now.UTC()
}

func (c *Campaign) illegal(to Status) error {
	return apperr.InvalidState("campaign", c.ID, fmt.Sprintf("cannot move from %s to %s", c.Status, to))
}
