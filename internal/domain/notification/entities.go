package notification

import "time"

type Type string

const (
	TypeVerificationSubmitted Type = "verification_submitted"
	TypeVerificationApproved  Type = "verification_approved"
	TypeVerificationRejected  Type = "verification_rejected"
	TypeCampaignSubmitted     Type = "campaign_submitted"
	TypeCampaignApproved      Type = "campaign_approved"
	TypeCampaignRejected      Type = "campaign_rejected"
	TypeCampaignDeleted       Type = "campaign_deleted"
	TypeDonationReceived      Type = "donation_received"
	TypeDonationRejected      Type = "donation_rejected"
	TypeProfileArchived       Type = "profile_archived"
	TypeProfileRestored       Type = "profile_restored"
)

// Notification is written once per transition and recipient. DedupeKey makes
// the write idempotent; PublishedAt stays nil until fan-out succeeds.
type Notification struct {
	ID              string            `gorm:"primaryKey;size:32" json:"id"`
	RecipientUserID string            `gorm:"size:32;not null;uniqueIndex:uniq_notification_dedupe" json:"recipient_user_id"`
	DedupeKey       string            `gorm:"size:128;not null;uniqueIndex:uniq_notification_dedupe" json:"-"`
	Type            Type              `gorm:"size:40;not null" json:"type"`
	Title           string            `gorm:"size:255;not null" json:"title"`
	Message         string            `gorm:"type:text" json:"message"`
	Payload         map[string]string `gorm:"serializer:json;type:text" json:"payload,omitempty"`
	IsRead          bool              `gorm:"not null;default:false" json:"is_read"`
	PublishedAt     *time.Time        `gorm:"index" json:"-"`
	CreatedAt       time.Time         `gorm:"autoCreateTime" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

// DedupeKey identifies one transition of one entity.
func DedupeKey(t Type, entityID string) string { return string(t) + ":" + entityID }
