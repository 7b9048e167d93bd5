package student

import "context"

type Repository interface {
	Create(ctx context.Context, s *Student) error
	Save(ctx context.Context, s *Student) error
	GetByID(ctx context.Context, id string) (*Student, error)
	// GetByIDForUpdate locks the row for the rest of the transaction.
	GetByIDForUpdate(ctx context.Context, id string) (*Student, error)
	// Delete hides the profile from active listings (soft delete).
	Delete(ctx context.Context, id string) error
	// Purge removes an already soft-deleted profile permanently.
	Purge(ctx context.Context, id string) error
}
