// Package submission handles what students and donors submit: profiles,
// verification documents, campaigns and donations. Decisions on them go
// through the workflow package.
package submission

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"edufund-backend/internal/domain/apperr"
	"edufund-backend/internal/domain/campaign"
	"edufund-backend/internal/domain/donation"
	"edufund-backend/internal/domain/notification"
	"edufund-backend/internal/domain/student"
	"edufund-backend/internal/domain/uow"
	"edufund-backend/internal/domain/verification"
	"edufund-backend/internal/infrastructure/lock"
	"edufund-backend/internal/infrastructure/retry"
	"edufund-backend/internal/usecase/notify"
	"edufund-backend/pkg/id"

	"go.uber.org/zap"
)

const (
	maxDocumentSize = 10 << 20
	signedURLTTL    = 7 * 24 * time.Hour
)

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

type Deps struct {
	UoW      uow.UnitOfWork
	Reader   uow.Repos
	Locker   lock.Locker
	Docs     DocumentStore
	Payments PaymentGateway
	Notifier Notifier
	Retrier  *retry.Retrier
	Log      *zap.Logger
}

type Usecase struct {
	Deps
	now   func() time.Time
	newID func() string
}

func NewUsecase(d Deps) *Usecase {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &Usecase{Deps: d, now: time.Now, newID: id.NewID32}
}

func (u *Usecase) RegisterStudent(ctx context.Context, in RegisterStudentInput) (*student.Student, error) {
	if strings.TrimSpace(in.FullName) == "" || strings.TrimSpace(in.Email) == "" {
		return nil, apperr.Validation("full name and email are required")
	}
	s := &student.Student{
		ID:                 u.newID(),
		FullName:           strings.TrimSpace(in.FullName),
		Email:              strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:              in.Phone,
		UniversityID:       in.UniversityID,
		StudentCode:        in.StudentCode,
		Major:              in.Major,
		VerificationStatus: student.StatusUnverified,
		StatusUpdatedAt:    u.now().UTC(),
	}
	err := retry.Run(ctx, u.Retrier, "create student", func(ctx context.Context) error {
		return u.Reader.Students.Create(ctx, s)
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// SubmitVerification uploads a document, appends a pending request to the
// ledger and moves the student back into review. Administrators are notified
// with a signed link to the document.
func (u *Usecase) SubmitVerification(ctx context.Context, in SubmitVerificationInput) (*verification.Request, error) {
	switch {
	case in.StudentID == "":
		return nil, apperr.Validation("student id is required")
	case !in.DocumentType.Valid():
		return nil, apperr.Validation(fmt.Sprintf("unsupported document type %q", in.DocumentType))
	case len(in.Content) == 0:
		return nil, apperr.Validation("document is empty")
	case len(in.Content) > maxDocumentSize:
		return nil, apperr.Validation(fmt.Sprintf("document exceeds %d bytes", maxDocumentSize))
	}

	// reject unknown or archived students before anything is uploaded
	if _, err := retry.Do(ctx, u.Retrier, "load student", func(ctx context.Context) (*student.Student, error) {
		return u.Reader.Students.GetByID(ctx, in.StudentID)
	}); err != nil {
		return nil, err
	}

	reqID := u.newID()
	p := documentPath(in.StudentID, reqID, in.DocumentType, in.Filename)
	url, err := retry.Do(ctx, u.Retrier, "upload document", func(ctx context.Context) (string, error) {
		return u.Docs.Upload(ctx, p, in.Content)
	})
	if err != nil {
		return nil, err
	}
	signed, err := u.Docs.SignedURL(p, signedURLTTL)
	if err != nil {
		u.Log.Warn("signed document url", zap.String("path", p), zap.Error(err))
		signed = url
	}

	release, err := u.Locker.Lock(ctx, lock.Student(in.StudentID))
	if err != nil {
		return nil, err
	}
	defer release()

	var (
		req   *verification.Request
		notes []notification.Notification
	)
	err = retry.Run(ctx, u.Retrier, "submit verification", func(ctx context.Context) error {
		notes = notes[:0]
		return u.UoW.WithinStudentTx(ctx, in.StudentID, func(r uow.Repos, s *student.Student) error {
			now := u.now()
			req = &verification.Request{
				ID:           reqID,
				StudentID:    s.ID,
				DocumentType: in.DocumentType,
				DocumentURL:  url,
				DocumentPath: p,
				Status:       verification.StatusPending,
				SubmittedAt:  now.UTC(),
			}
			if err := r.Verifications.Create(ctx, req); err != nil {
				return err
			}
			if err := u.reenterReview(ctx, r, s, now); err != nil {
				return err
			}

			admins, err := r.Admins.ListActiveIDs(ctx)
			if err != nil {
				return err
			}
			for _, adminID := range admins {
				n, err := u.Notifier.Emit(ctx, r.Notifications, notify.Intent{
					Recipient: adminID,
					Type:      notification.TypeVerificationSubmitted,
					EntityID:  req.ID,
					Title:     "New verification document",
					Message:   fmt.Sprintf("%s submitted a %s document for review.", s.FullName, in.DocumentType),
					Payload: map[string]string{
						"request_id": req.ID,
						"student_id": s.ID,
						"signed_url": signed,
					},
				})
				if err != nil {
					return err
				}
				if n != nil {
					notes = append(notes, *n)
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	u.publish(ctx, notes)
	return req, nil
}

// reenterReview moves the student to pending. A student with a live campaign
// keeps approved; the new request still waits for a decision.
func (u *Usecase) reenterReview(ctx context.Context, r uow.Repos, s *student.Student, now time.Time) error {
	active, err := r.Campaigns.CountByStudentAndStatus(ctx, s.ID, campaign.StatusActive)
	if err != nil {
		return err
	}
	if s.HoldsApproval(active) {
		return nil
	}
	applied, err := s.SetStatus(student.StatusPending, active, now)
	if err != nil || !applied {
		return err
	}
	return r.Students.Save(ctx, s)
}

func (u *Usecase) CreateCampaign(ctx context.Context, in CreateCampaignInput) (*campaign.Campaign, error) {
	title := strings.TrimSpace(in.Title)
	switch {
	case in.StudentID == "":
		return nil, apperr.Validation("student id is required")
	case title == "":
		return nil, apperr.Validation("title is required")
	case in.GoalAmount <= 0:
		return nil, apperr.Validation("goal amount must be positive")
	}
	currency := strings.ToUpper(in.Currency)
	if currency == "" {
		currency = "USD"
	}

	release, err := u.Locker.Lock(ctx, lock.Student(in.StudentID))
	if err != nil {
		return nil, err
	}
	defer release()

	var (
		c     *campaign.Campaign
		notes []notification.Notification
	)
	err = retry.Run(ctx, u.Retrier, "create campaign", func(ctx context.Context) error {
		notes = notes[:0]
		return u.UoW.WithinStudentTx(ctx, in.StudentID, func(r uow.Repos, s *student.Student) error {
			now := u.now().UTC()
			c = &campaign.Campaign{
				ID:              u.newID(),
				StudentID:       s.ID,
				Title:           title,
				Story:           in.Story,
				Currency:        currency,
				GoalAmount:      in.GoalAmount,
				DocumentURLs:    in.DocumentURLs,
				Status:          campaign.StatusPending,
				StatusUpdatedAt: now,
			}
			if err := r.Campaigns.Create(ctx, c); err != nil {
				return err
			}
			admins, err := r.Admins.ListActiveIDs(ctx)
			if err != nil {
				return err
			}
			for _, adminID := range admins {
				n, err := u.Notifier.Emit(ctx, r.Notifications, notify.Intent{
					Recipient: adminID,
					Type:      notification.TypeCampaignSubmitted,
					EntityID:  c.ID,
					Title:     "New campaign for review",
					Message:   fmt.Sprintf("%s submitted the campaign %q.", s.FullName, c.Title),
					Payload:   map[string]string{"campaign_id": c.ID, "student_id": s.ID},
				})
				if err != nil {
					return err
				}
				if n != nil {
					notes = append(notes, *n)
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	u.publish(ctx, notes)
	return c, nil
}

// SubmitDonation records a pending donation. A nil CampaignID is a platform gift.
func (u *Usecase) SubmitDonation(ctx context.Context, in SubmitDonationInput) (*donation.Donation, error) {
	if in.Amount <= 0 {
		return nil, apperr.Validation("amount must be positive")
	}
	if in.CampaignID != nil && *in.CampaignID == "" {
		in.CampaignID = nil
	}
	if in.CampaignID != nil {
		c, err := retry.Do(ctx, u.Retrier, "load campaign", func(ctx context.Context) (*campaign.Campaign, error) {
			return u.Reader.Campaigns.GetByID(ctx, *in.CampaignID)
		})
		if err != nil {
			return nil, err
		}
		if c.Status != campaign.StatusActive {
			return nil, apperr.InvalidState("campaign", c.ID, fmt.Sprintf("is %s; donations need an active campaign", c.Status))
		}
	}

	ref, err := retry.Do(ctx, u.Retrier, "payment reference", func(ctx context.Context) (string, error) {
		return u.Payments.NewReference(ctx, in.Amount)
	})
	if err != nil {
		return nil, err
	}
	d := &donation.Donation{
		ID:               u.newID(),
		CampaignID:       in.CampaignID,
		DonorID:          in.DonorID,
		Amount:           in.Amount,
		Status:           donation.StatusPending,
		PaymentReference: ref,
		Note:             in.Note,
	}
	err = retry.Run(ctx, u.Retrier, "create donation", func(ctx context.Context) error {
		return u.Reader.Donations.Create(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// publish runs after commit; undelivered rows stay in the outbox for the relay.
func (u *Usecase) publish(ctx context.Context, notes []notification.Notification) {
	if err := u.Notifier.Publish(ctx, notes); err != nil {
		u.Log.Warn("submission notifications left for relay", zap.Int("count", len(notes)), zap.Error(err))
	}
}

func documentPath(studentID, reqID string, doc verification.DocumentType, filename string) string {
	name := unsafeName.ReplaceAllString(path.Base(filename), "_")
	if name == "" || name == "." || name == "_" {
		name = "document"
	}
	return path.Join("verification", studentID, fmt.Sprintf("%s-%s-%s", reqID, doc, name))
}
