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

func (c *Coordinator) campaignKeys(ctx context.Context, campaignID string) ([]string, error) {
	camp, err := load(ctx, c, "campaign", func(ctx context.Context) (*campaign.Campaign, error) {
		return c.reader.Campaigns.GetByID(ctx, campaignID)
	})
	if err != nil {
		return nil, err
	}
	return []string{lock.Student(camp.StudentID), lock.Campaign(camp.ID)}, nil
}

// ApproveCampaign: campaign -> active, student -> approved, and every pending
// verification request of the student -> approved.
func (c *Coordinator) ApproveCampaign(ctx context.Context, campaignID string) (*Result, error) {
	if err := requireID("campaign", campaignID); err != nil {
		return nil, err
	}
	keys, err := c.campaignKeys(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	tgt := target{entity: "campaign", id: campaignID}
	return c.run(ctx, OpApproveCampaign, tgt, nil, keys,
		func(ctx context.Context, r uow.Repos, t *tracker) (any, error) {
			camp, err := r.Campaigns.GetByIDForUpdate(ctx, campaignID)
			if err != nil {
				return nil, err
			}
			now := c.now()
			applied, err := camp.Approve(now)
			if err != nil || !applied {
				return camp, err
			}
			s, err := c.owner(ctx, r, camp.StudentID, tgt.entity, camp.ID)
			if err != nil {
				return nil, err
			}
			if err := r.Campaigns.Save(ctx, camp); err != nil {
				return nil, err
			}
			t.step("campaign %s: pending -> active", camp.ID)
			if _, err := c.moveStudent(ctx, r, t, s, student.StatusApproved); err != nil {
				return nil, err
			}
			if err := c.decidePending(ctx, r, t, s.ID, verification.StatusApproved, ""); err != nil {
				return nil, err
			}
			err = c.emit(ctx, r, t, notify.Intent{
				Recipient: s.ID,
				Type:      notification.TypeCampaignApproved,
				EntityID:  camp.ID,
				Title:     "Campaign approved",
				Message:   fmt.Sprintf("Your campaign %q is now live.", camp.Title),
				Payload:   map[string]string{"campaign_id": camp.ID},
			})
			return camp, err
		})
}

// RejectCampaign: campaign -> rejected, student -> rejected, and every pending
// verification request -> rejected with a reason naming the campaign decision.
func (c *Coordinator) RejectCampaign(ctx context.Context, campaignID, reason string) (*Result, error) {
	if err := requireID("campaign", campaignID); err != nil {
		return nil, err
	}
	reason, err := requireReason(reason)
	if err != nil {
		return nil, err
	}
	keys, err := c.campaignKeys(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	tgt := target{entity: "campaign", id: campaignID}
	return c.run(ctx, OpRejectCampaign, tgt, &reason, keys,
		func(ctx context.Context, r uow.Repos, t *tracker) (any, error) {
			camp, err := r.Campaigns.GetByIDForUpdate(ctx, campaignID)
			if err != nil {
				return nil, err
			}
			applied, err := camp.Reject(reason, c.now())
			if err != nil || !applied {
				return camp, err
			}
			s, err := c.owner(ctx, r, camp.StudentID, tgt.entity, camp.ID)
			if err != nil {
				return nil, err
			}
			if err := r.Campaigns.Save(ctx, camp); err != nil {
				return nil, err
			}
			t.step("campaign %s: pending -> rejected", camp.ID)
			if _, err := c.moveStudent(ctx, r, t, s, student.StatusRejected); err != nil {
				return nil, err
			}
			if err := c.decidePending(ctx, r, t, s.ID, verification.StatusRejected, "Campaign rejected: "+reason); err != nil {
				return nil, err
			}
			err = c.emit(ctx, r, t, notify.Intent{
				Recipient: s.ID,
				Type:      notification.TypeCampaignRejected,
				EntityID:  camp.ID,
				Title:     "Campaign rejected",
				Message:   fmt.Sprintf("Your campaign %q was rejected: %s", camp.Title, reason),
				Payload:   map[string]string{"campaign_id": camp.ID, "reason": reason},
			})
			return camp, err
		})
}

// DeleteCampaign: campaign -> deleted, student -> pending so the owner is
// verified again before the next campaign. An owner with other live campaigns
// stays approved.
func (c *Coordinator) DeleteCampaign(ctx context.Context, campaignID string) (*Result, error) {
	if err := requireID("campaign", campaignID); err != nil {
		return nil, err
	}
	keys, err := c.campaignKeys(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	tgt := target{entity: "campaign", id: campaignID}
	return c.run(ctx, OpDeleteCampaign, tgt, nil, keys,
		func(ctx context.Context, r uow.Repos, t *tracker) (any, error) {
			camp, err := r.Campaigns.GetByIDForUpdate(ctx, campaignID)
			if err != nil {
				return nil, err
			}
			from := camp.Status
			applied, err := camp.Delete(c.now())
			if err != nil || !applied {
				return camp, err
			}
			if err := r.Campaigns.Save(ctx, camp); err != nil {
				return nil, err
			}
			t.step("campaign %s: %s -> deleted", camp.ID, from)

			s, err := r.Students.GetByIDForUpdate(ctx, camp.StudentID)
			if err != nil {
				// an archived owner has nothing left to re-verify
				if isNotFound(err) {
					return camp, nil
				}
				return nil, err
			}
			held, err := c.moveStudent(ctx, r, t, s, student.StatusPending)
			if err != nil {
				return nil, err
			}
			msg := fmt.Sprintf("Your campaign %q was removed by an administrator. "+
				"Your verification will be reviewed again before a new campaign can go live.", camp.Title)
			if held {
				msg = fmt.Sprintf("Your campaign %q was removed by an administrator. "+
					"Your other live campaigns are not affected.", camp.Title)
			}
			err = c.emit(ctx, r, t, notify.Intent{
				Recipient: s.ID,
				Type:      notification.TypeCampaignDeleted,
				EntityID:  camp.ID,
				Title:     "Campaign removed",
				Message:   msg,
				Payload:   map[string]string{"campaign_id": camp.ID},
			})
			return camp, err
		})
}

// decidePending applies outcome to every pending verification request of the student.
func (c *Coordinator) decidePending(ctx context.Context, r uow.Repos, t *tracker, studentID string, outcome verification.Status, reason string) error {
	pending, err := r.Verifications.ListPendingByStudentForUpdate(ctx, studentID)
	if err != nil {
		return err
	}
	now := c.now()
	for i := range pending {
		req := &pending[i]
		if _, err := req.Decide(outcome, reason, t.actor, now); err != nil {
			return err
		}
		if err := r.Verifications.Save(ctx, req); err != nil {
			return err
		}
		t.step("verification_request %s: pending -> %s", req.ID, outcome)
	}
	return nil
}
