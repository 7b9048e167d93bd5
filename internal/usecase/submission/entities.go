package submission

import (
	"context"
	"time"

	"edufund-backend/internal/domain/notification"
	"edufund-backend/internal/domain/verification"
	"edufund-backend/internal/usecase/notify"
)

type RegisterStudentInput struct {
	FullName     string  `json:"full_name" validate:"required,max=255"`
	Email        string  `json:"email" validate:"required,email,max=255"`
	Phone        *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	UniversityID string  `json:"university_id" validate:"required,max=64"`
	StudentCode  string  `json:"student_code" validate:"required,max=64"`
	Major        string  `json:"major" validate:"max=255"`
}

type SubmitVerificationInput struct {
	StudentID    string
	DocumentType verification.DocumentType
	Filename     string
	Content      []byte
}

type CreateCampaignInput struct {
	StudentID    string   `json:"-"`
	Title        string   `json:"title" validate:"required,max=255"`
	Story        string   `json:"story" validate:"max=20000"`
	Currency     string   `json:"currency" validate:"omitempty,len=3"`
	GoalAmount   int64    `json:"goal_amount" validate:"required,gt=0"`
	DocumentURLs []string `json:"document_urls" validate:"dive,url"`
}

type SubmitDonationInput struct {
	CampaignID *string `json:"campaign_id,omitempty"`
	DonorID    *string `json:"-"`
	Amount     int64   `json:"amount" validate:"required,gt=0"`
	Note       string  `json:"note" validate:"max=1000"`
}

// DocumentStore keeps uploaded verification documents.
type DocumentStore interface {
	Upload(ctx context.Context, path string, content []byte) (string, error)
	SignedURL(path string, ttl time.Duration) (string, error)
}

type PaymentGateway interface {
	NewReference(ctx context.Context, amount int64) (string, error)
}

type Notifier interface {
	Emit(ctx context.Context, repo notification.Repository, in notify.Intent) (*notification.Notification, error)
	Publish(ctx context.Context, ns []notification.Notification) error
}
