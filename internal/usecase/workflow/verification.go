package workflow

import (
	"context"
	"fmt"

	"edufund-backend/internal/domain/campaign"
	"edufund-backend/internal/domain/notification"
	"edufund-backend/internal/domain/student"
	"edufund-backend/internal/domain/uow"
	"edufund-backend/internal/domain/verification"
	"edufund-backend/internal/infrastructure/lock"
	"edufund-backend/internal/usecase/notify"
)

// ApproveVerification: request -> approved, student -> approved.
func (c *Coordinator) ApproveVerification(ctx context.Context, requestID string) (*Result, error) {
	if err := requireID("verification request", requestID); err != nil {
		return nil, err
	}
	req, err := load(ctx, c, "verification request", func(ctx context.Context) (*verification.Request, error) {
		return c.reader.Verifications.GetByID(ctx, requestID)
	})
	if err != nil {
		return nil, err
	}

	tgt := target{entity: "verification_request", id: requestID}
	return c.run(ctx, OpApproveVerification, tgt, nil, []string{lock.Student(req.StudentID)},
		func(ctx context.Context, r uow.Repos, t *tracker) (any, error) {
			req, err := r.Verifications.GetByIDForUpdate(ctx, requestID)
			if err != nil {
				return nil, err
			}
			applied, err := req.Decide(verification.StatusApproved, "", t.actor, c.now())
			if err != nil || !applied {
				return req, err
			}
			s, err := c.owner(ctx, r, req.StudentID, tgt.entity, req.ID)
			if err != nil {
				return nil, err
			}
			if err := r.Verifications.Save(ctx, req); err != nil {
				return nil, err
			}
			t.step("verification_request %s: pending -> approved", req.ID)
			if _, err := c.moveStudent(ctx, r, t, s, student.StatusApproved); err != nil {
				return nil, err
			}
			err = c.emit(ctx, r, t, notify.Intent{
				Recipient: s.ID,
				Type:      notification.TypeVerificationApproved,
				EntityID:  req.ID,
				Title:     "Verification approved",
				Message:   fmt.Sprintf("Your %s document has been approved.", req.DocumentType),
				Payload:   map[string]string{"request_id": req.ID},
			})
			return req, err
		})
}

// RejectVerification: request -> rejected(reason), student -> rejected, and
// every pending campaign of the student -> rejected.
func (c *Coordinator) RejectVerification(ctx context.Context, requestID, reason string) (*Result, error) {
	if err := requireID("verification request", requestID); err != nil {
		return nil, err
	}
	reason, err := requireReason(reason)
	if err != nil {
		return nil, err
	}
	req, err := load(ctx, c, "verification request", func(ctx context.Context) (*verification.Request, error) {
		return c.reader.Verifications.GetByID(ctx, requestID)
	})
	if err != nil {
		return nil, err
	}

	tgt := target{entity: "verification_request", id: requestID}
	return c.run(ctx, OpRejectVerification, tgt, &reason, []string{lock.Student(req.StudentID)},
		func(ctx context.Context, r uow.Repos, t *tracker) (any, error) {
			req, err := r.Verifications.GetByIDForUpdate(ctx, requestID)
			if err != nil {
				return nil, err
			}
			now := c.now()
			applied, err := req.Decide(verification.StatusRejected, reason, t.actor, now)
			if err != nil || !applied {
				return req, err
			}
			s, err := c.owner(ctx, r, req.StudentID, tgt.entity, req.ID)
			if err != nil {
				return nil, err
			}
			if err := r.Verifications.Save(ctx, req); err != nil {
				return nil, err
			}
			t.step("verification_request %s: pending -> rejected", req.ID)
			if _, err := c.moveStudent(ctx, r, t, s, student.StatusRejected); err != nil {
				return nil, err
			}

			pending, err := r.Campaigns.ListByStudentAndStatusForUpdate(ctx, s.ID, campaign.StatusPending)
			if err != nil {
				return nil, err
			}
			for i := range pending {
				camp := &pending[i]
				if _, err := camp.Reject(reason, now); err != nil {
					return nil, err
				}
				if err := r.Campaigns.Save(ctx, camp); err != nil {
					return nil, err
				}
				t.step("campaign %s: pending -> rejected", camp.ID)
			}

			msg := fmt.Sprintf("Your %s document was rejected: %s", req.DocumentType, reason)
			if len(pending) > 0 {
				msg += fmt.Sprintf(" (%d pending campaign(s) were rejected as well.)", len(pending))
			}
			err = c.emit(ctx, r, t, notify.Intent{
				Recipient: s.ID,
				Type:      notification.TypeVerificationRejected,
				EntityID:  req.ID,
				Title:     "Verification rejected",
				Message:   msg,
				Payload:   map[string]string{"request_id": req.ID, "reason": reason},
			})
			return req, err
		})
}
