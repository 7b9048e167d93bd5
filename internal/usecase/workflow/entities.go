package workflow

import (
	"context"

	"edufund-backend/internal/domain/audit"
	"edufund-backend/internal/domain/student"
)

type Op string

const (
	OpApproveVerification Op = "ApproveVerification"
	OpRejectVerification  Op = "RejectVerification"
	OpApproveCampaign     Op = "ApproveCampaign"
	OpRejectCampaign      Op = "RejectCampaign"
	OpDeleteCampaign      Op = "DeleteCampaign"
	OpApproveDonation     Op = "ApproveDonation"
	OpRejectDonation      Op = "RejectDonation"
	OpArchiveProfile      Op = "ArchiveProfile"
	OpRestoreProfile      Op = "RestoreProfile"
)

// Operations is the administrator surface. Coordinator implements it and
// Gate wraps it with the authorization check.
type Operations interface {
	ApproveVerification(ctx context.Context, requestID string) (*Result, error)
	RejectVerification(ctx context.Context, requestID, reason string) (*Result, error)
	ApproveCampaign(ctx context.Context, campaignID string) (*Result, error)
	RejectCampaign(ctx context.Context, campaignID, reason string) (*Result, error)
	DeleteCampaign(ctx context.Context, campaignID string) (*Result, error)
	ApproveDonation(ctx context.Context, donationID string) (*Result, error)
	RejectDonation(ctx context.Context, donationID, reason string) (*Result, error)
	ArchiveProfile(ctx context.Context, userID string) (*Result, error)
	RestoreProfile(ctx context.Context, archiveID string) (*Result, error)
	// Cascades lists the recorded cascades of one entity, oldest first.
	Cascades(ctx context.Context, entity, entityID string) ([]audit.CascadeRecord, error)
}

// Result is the outcome of one operation. Applied is false when the entity
// was already in the target state and nothing changed.
type Result struct {
	Op        Op       `json:"op"`
	Applied   bool     `json:"applied"`
	Entity    any      `json:"entity"`
	CascadeID string   `json:"cascade_id,omitempty"`
	Steps     []string `json:"steps,omitempty"`
}

// Restored is the entity of a RestoreProfile result.
type Restored struct {
	ArchiveID string           `json:"archive_id"`
	UserID    string           `json:"user_id"`
	Student   *student.Student `json:"student,omitempty"`
}
