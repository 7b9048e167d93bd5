package http

import (
	"context"
	"io"
	"net/http"

	"edufund-backend/internal/domain/actor"
	"edufund-backend/internal/domain/apperr"
	"edufund-backend/internal/domain/campaign"
	"edufund-backend/internal/domain/donation"
	"edufund-backend/internal/domain/notification"
	"edufund-backend/internal/domain/student"
	"edufund-backend/internal/domain/verification"
	"edufund-backend/internal/usecase/submission"

	"github.com/labstack/echo/v4"
)

const maxUploadBytes = 10 << 20

type Submissions interface {
	RegisterStudent(ctx context.Context, in submission.RegisterStudentInput) (*student.Student, error)
	SubmitVerification(ctx context.Context, in submission.SubmitVerificationInput) (*verification.Request, error)
	CreateCampaign(ctx context.Context, in submission.CreateCampaignInput) (*campaign.Campaign, error)
	SubmitDonation(ctx context.Context, in submission.SubmitDonationInput) (*donation.Donation, error)
}

type NotificationReader interface {
	ListByRecipient(ctx context.Context, userID string) ([]notification.Notification, error)
}

type SubmissionHandler struct {
	uc    Submissions
	notes NotificationReader
}

func NewSubmissionHandler(uc Submissions, notes NotificationReader) *SubmissionHandler {
	return &SubmissionHandler{uc: uc, notes: notes}
}

func requireRole(c echo.Context, roles ...actor.Role) (actor.Actor, error) {
	a, found := actor.FromContext(c.Request().Context())
	if !found {
		return a, apperr.Unauthorized("no authenticated caller")
	}
	for _, r := range roles {
		if a.Role == r {
			return a, nil
		}
	}
	return a, apperr.Unauthorized("role " + string(a.Role) + " may not call this endpoint")
}

func requireAdmin(c echo.Context) error {
	_, err := requireRole(c, actor.RoleAdmin)
	return err
}

func (h *SubmissionHandler) RegisterStudent(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return fail(c, err, nil)
	}
	var in submission.RegisterStudentInput
	if err := c.Bind(&in); err != nil {
		return invalid(c, "invalid body", nil)
	}
	if err := c.Validate(&in); err != nil {
		return invalid(c, "validation failed", ToFieldErrors(err))
	}
	s, err := h.uc.RegisterStudent(c.Request().Context(), in)
	if err != nil {
		return fail(c, err, nil)
	}
	return ok(c, http.StatusCreated, s)
}

type verificationForm struct {
	DocumentType string `form:"document_type" validate:"required,doctype"`
}

// SubmitVerification takes a multipart form: document_type plus the file
// under "document".
func (h *SubmissionHandler) SubmitVerification(c echo.Context) error {
	who, err := requireRole(c, actor.RoleStudent)
	if err != nil {
		return fail(c, err, nil)
	}
	var form verificationForm
	form.DocumentType = c.FormValue("document_type")
	if err := c.Validate(&form); err != nil {
		return invalid(c, "validation failed", ToFieldErrors(err))
	}
	fh, err := c.FormFile("document")
	if err != nil {
		return invalid(c, "missing document file", nil)
	}
	if fh.Size > maxUploadBytes {
		return invalid(c, "document is too large", nil)
	}
	f, err := fh.Open()
	if err != nil {
		return invalid(c, "unreadable document", nil)
	}
	defer f.Close()
	content, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return invalid(c, "unreadable document", nil)
	}

	req, err := h.uc.SubmitVerification(c.Request().Context(), submission.SubmitVerificationInput{
		StudentID:    who.UserID,
		DocumentType: verification.DocumentType(form.DocumentType),
		Filename:     fh.Filename,
		Content:      content,
	})
	if err != nil {
		return fail(c, err, nil)
	}
	return ok(c, http.StatusCreated, req)
}

func (h *SubmissionHandler) CreateCampaign(c echo.Context) error {
	who, err := requireRole(c, actor.RoleStudent)
	if err != nil {
		return fail(c, err, nil)
	}
	var in submission.CreateCampaignInput
	if err := c.Bind(&in); err != nil {
		return invalid(c, "invalid body", nil)
	}
	if err := c.Validate(&in); err != nil {
		return invalid(c, "validation failed", ToFieldErrors(err))
	}
	in.StudentID = who.UserID
	camp, err := h.uc.CreateCampaign(c.Request().Context(), in)
	if err != nil {
		return fail(c, err, nil)
	}
	return ok(c, http.StatusCreated, camp)
}

func (h *SubmissionHandler) SubmitDonation(c echo.Context) error {
	who, err := requireRole(c, actor.RoleDonor, actor.RoleStudent, actor.RoleAdmin)
	if err != nil {
		return fail(c, err, nil)
	}
	var in submission.SubmitDonationInput
	if err := c.Bind(&in); err != nil {
		return invalid(c, "invalid body", nil)
	}
	if err := c.Validate(&in); err != nil {
		return invalid(c, "validation failed", ToFieldErrors(err))
	}
	in.DonorID = &who.UserID
	d, err := h.uc.SubmitDonation(c.Request().Context(), in)
	if err != nil {
		return fail(c, err, nil)
	}
	return ok(c, http.StatusCreated, d)
}

// Notifications lists the caller's notifications, oldest first.
func (h *SubmissionHandler) Notifications(c echo.Context) error {
	who, err := requireRole(c, actor.RoleStudent, actor.RoleDonor, actor.RoleAdmin)
	if err != nil {
		return fail(c, err, nil)
	}
	list, err := h.notes.ListByRecipient(c.Request().Context(), who.UserID)
	if err != nil {
		return fail(c, err, nil)
	}
	return ok(c, http.StatusOK, list)
}
