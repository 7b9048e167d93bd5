package campaign

import "context"

type Repository interface {
	Create(ctx context.Context, c *Campaign) error
	// Save persists everything except RaisedAmount.
	Save(ctx context.Context, c *Campaign) error
	GetByID(ctx context.Context, id string) (*Campaign, error)
	GetByIDForUpdate(ctx context.Context, id string) (*Campaign, error)
	ListByStudentAndStatusForUpdate(ctx context.Context, studentID string, status Status) ([]Campaign, error)
	CountByStudentAndStatus(ctx context.Context, studentID string, status Status) (int64, error)
	// Credit atomically adds amount to an active campaign's raised amount.
	Credit(ctx context.Context, id string, amount int64) error
}
