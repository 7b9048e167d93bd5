package archive

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, p *Profile) error
	Save(ctx context.Context, p *Profile) error
	// GetByIDForUpdate also resolves restored (soft-deleted) archives.
	GetByIDForUpdate(ctx context.Context, id string) (*Profile, error)
	// GetOpenByUserID returns the unrestored archive of a user.
	GetOpenByUserID(ctx context.Context, userID string) (*Profile, error)
	// Close soft-deletes a restored archive so it leaves listings.
	Close(ctx context.Context, p *Profile) error
	// ListExpired returns unrestored archives whose grace period ended before now.
	ListExpired(ctx context.Context, now time.Time, limit int) ([]Profile, error)
	Purge(ctx context.Context, id string) error
}
