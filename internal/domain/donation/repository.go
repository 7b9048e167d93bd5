package donation

import "context"

type Repository interface {
	Create(ctx context.Context, d *Donation) error
	Save(ctx context.Context, d *Donation) error
	GetByID(ctx context.Context, id string) (*Donation, error)
	GetByIDForUpdate(ctx context.Context, id string) (*Donation, error)
	// SumReceivedByCampaign is the ledger side of the raised-amount invariant.
	SumReceivedByCampaign(ctx context.Context, campaignID string) (int64, error)
}
