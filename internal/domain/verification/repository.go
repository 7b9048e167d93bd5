package verification

import "context"

type Repository interface {
	// Create appends a new pending request to the ledger.
	Create(ctx context.Context, r *Request) error
	Save(ctx context.Context, r *Request) error
	GetByID(ctx context.Context, id string) (*Request, error)
	GetByIDForUpdate(ctx context.Context, id string) (*Request, error)
	// ListPendingByStudentForUpdate returns (and locks) the student's pending requests, oldest first.
	ListPendingByStudentForUpdate(ctx context.Context, studentID string) ([]Request, error)
	CountByStudentAndStatus(ctx context.Context, studentID string, status Status) (int64, error)
}
