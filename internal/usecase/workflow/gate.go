package workflow

import (
	"context"

	"edufund-backend/internal/domain/actor"
	"edufund-backend/internal/domain/apperr"
	"edufund-backend/internal/domain/audit"
)

// Gate is the one authorization point for administrator operations and the
// cascade audit trail. Every call is checked before it reaches the Coordinator.
type Gate struct {
	next Operations
}

func NewGate(next Operations) *Gate { return &Gate{next: next} }

var _ Operations = (*Gate)(nil)

func authorize(ctx context.Context) error {
	a, ok := actor.FromContext(ctx)
	if !ok {
		return apperr.Unauthorized("no authenticated caller")
	}
	if !a.IsAdmin() {
		return apperr.Unauthorized("administrator role required")
	}
	return nil
}

func (g *Gate) ApproveVerification(ctx context.Context, requestID string) (*Result, error) {
	if err := authorize(ctx); err != nil {
		return nil, err
	}
	return g.next.ApproveVerification(ctx, requestID)
}

func (g *Gate) RejectVerification(ctx context.Context, requestID, reason string) (*Result, error) {
	if err := authorize(ctx); err != nil {
		return nil, err
	}
	return g.next.RejectVerification(ctx, requestID, reason)
}

func (g *Gate) ApproveCampaign(ctx context.Context, campaignID string) (*Result, error) {
	if err := authorize(ctx); err != nil {
		return nil, err
	}
	return g.next.ApproveCampaign(ctx, campaignID)
}

func (g *Gate) RejectCampaign(ctx context.Context, campaignID, reason string) (*Result, error) {
	if err := authorize(ctx); err != nil {
		return nil, err
	}
	return g.next.RejectCampaign(ctx, campaignID, reason)
}

func (g *Gate) DeleteCampaign(ctx context.Context, campaignID string) (*Result, error) {
	if err := authorize(ctx); err != nil {
		return nil, err
	}
	return g.next.DeleteCampaign(ctx, campaignID)
}

func (g *Gate) ApproveDonation(ctx context.Context, donationID string) (*Result, error) {
	if err := authorize(ctx); err != nil {
		return nil, err
	}
	return g.next.ApproveDonation(ctx, donationID)
}

func (g *Gate) RejectDonation(ctx context.Context, donationID, reason string) (*Result, error) {
	if err := authorize(ctx); err != nil {
		return nil, err
	}
	return g.next.RejectDonation(ctx, donationID, reason)
}

func (g *Gate) ArchiveProfile(ctx context.Context, userID string) (*Result, error) {
	if err := authorize(ctx); err != nil {
		return nil, err
	}
	return g.next.ArchiveProfile(ctx, userID)
}

func (g *Gate) RestoreProfile(ctx context.Context, archiveID string) (*Result, error) {
	if err := authorize(ctx); err != nil {
		return nil, err
	}
	return g.next.RestoreProfile(ctx, archiveID)
}

func (g *Gate) Cascades(ctx context.Context, entity, entityID string) ([]audit.CascadeRecord, error) {
	if err := authorize(ctx); err != nil {
		return nil, err
	}
	return g.next.Cascades(ctx, entity, entityID)
}
