package verification

import (
	"fmt"
	"time"

	"edufund-backend/internal/domain/apperr"
)

type DocumentType string

const (
	DocIdentity       DocumentType = "identity"
	DocEnrollment     DocumentType = "enrollment"
	DocFeeStatement   DocumentType = "feeStatement"
	DocAcademicRecord DocumentType = "academicRecord"
)

func (d DocumentType) Valid() bool {
	switch d {
	case DocIdentity, DocEnrollment, DocFeeStatement, DocAcademicRecord:
		return true
	}
	return false
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Request is one entry of the append-only verification ledger. A resubmission
// appends a new Request; decided requests are never reopened or deleted.
type Request struct {
	ID              string       `gorm:"primaryKey;size:32" json:"id"`
	StudentID       string       `gorm:"size:32;not null;index:idx_verif_student_status" json:"student_id"`
	DocumentType    DocumentType `gorm:"size:32;not null" json:"document_type"`
	DocumentURL     string       `gorm:"type:text;not null" json:"document_url"`
	DocumentPath    string       `gorm:"size:255" json:"-"`
	Status          Status       `gorm:"size:20;not null;default:'pending';index:idx_verif_student_status" json:"status"`
	RejectionReason *string      `gorm:"type:text" json:"rejection_reason,omitempty"`
	SubmittedAt     time.Time    `gorm:"not null" json:"submitted_at"`
	ReviewedAt      *time.Time   `json:"reviewed_at,omitempty"`
	ReviewedBy      *string      `gorm:"size:32" json:"reviewed_by,omitempty"`
	CreatedAt       time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Request) TableName() string { return "verification_requests" }

// Decide records an administrator outcome. Re-applying the outcome a request
// already carries is a no-op (applied=false); any other change to a decided
// request is rejected.
func (r *Request) Decide(outcome Status, reason string, reviewer string, now time.Time) (bool, error) {
	if outcome != StatusApproved && outcome != StatusRejected {
		return false, apperr.Validation(fmt.Sprintf("unknown verification outcome %q", outcome))
	}
	if r.Status == outcome {
		return false, nil
	}
	if r.Status != StatusPending {
		return false, apperr.InvalidState("verification request", r.ID,
			fmt.Sprintf("already %s, cannot become %s", r.Status, outcome))
	}
	at := now.UTC()
	r.Status = outcome
	r.ReviewedAt = &at
	if reviewer != "" {
		r.ReviewedBy = &reviewer
	}
	if outcome == StatusRejected {
		r.RejectionReason = &reason
	}
	return true, nil
}
