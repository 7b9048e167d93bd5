package donation

import (
	"fmt"
	"time"

	"edufund-backend/internal/domain/apperr"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusReceived Status = "received"
	StatusRejected Status = "rejected"
)

// Donation is one entry in the donation ledger. A nil CampaignID is a
// platform-level gift. Amount is in minor units.
type Donation struct {
	ID               string     `gorm:"primaryKey;size:32" json:"id"`
	CampaignID       *string    `gorm:"size:32;index:idx_donation_campaign_status" json:"campaign_id"`
	DonorID          *string    `gorm:"size:32;index" json:"donor_id,omitempty"`
	Amount           int64      `gorm:"not null" json:"amount"`
	Status           Status     `gorm:"size:20;not null;default:'pending';index:idx_donation_campaign_status" json:"status"`
	PaymentReference string     `gorm:"size:64;uniqueIndex" json:"payment_reference"`
	Note             string     `gorm:"type:text" json:"note,omitempty"`
	DecidedAt        *time.Time `json:"decided_at,omitempty"`
	DecidedBy        *string    `gorm:"size:32" json:"decided_by,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Donation) TableName() string { return "donations" }

func (d *Donation) ForCampaign() bool { return d.CampaignID != nil && *d.CampaignID != "" }

// Decide settles a pending donation. Re-applying the current terminal status
// is a no-op; any other move out of a terminal status fails.
func (d *Donation) Decide(outcome Status, decider string, now time.Time) (bool, error) {
	if outcome != StatusReceived && outcome != StatusRejected {
		return false, apperr.Validation(fmt.Sprintf("%q is not a donation outcome", outcome))
	}
	if d.Status == outcome {
		return false, nil
	}
	if d.Status != StatusPending {
		return false, apperr.InvalidState("donation", d.ID,
			fmt.Sprintf("cannot move from %s to %s", d.Status, outcome))
	}
	at := now.UTC()
	d.Status = outcome
	d.DecidedAt = &at
	d.DecidedBy = &decider
	return true, nil
}
