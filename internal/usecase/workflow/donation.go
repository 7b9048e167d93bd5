package workflow

import (
	"context"
	"errors"
	"fmt"

	"edufund-backend/internal/domain/apperr"
	"edufund-backend/internal/domain/campaign"
	"edufund-backend/internal/domain/donation"
	"edufund-backend/internal/domain/notification"
	"edufund-backend/internal/domain/uow"
	"edufund-backend/internal/infrastructure/lock"
	"edufund-backend/internal/usecase/notify"
)

func isNotFound(err error) bool { return errors.Is(err, apperr.ErrNotFound) }

func (c *Coordinator) donationKeys(ctx context.Context, donationID string) ([]string, error) {
	d, err := load(ctx, c, "donation", func(ctx context.Context) (*donation.Donation, error) {
		return c.reader.Donations.GetByID(ctx, donationID)
	})
	if err != nil {
		return nil, err
	}
	keys := []string{lock.Donation(d.ID)}
	if d.ForCampaign() {
		keys = append(keys, lock.Campaign(*d.CampaignID))
	}
	return keys, nil
}

// lockedCampaign loads the campaign a donation belongs to, or nil for a
// platform gift.
func lockedCampaign(ctx context.Context, r uow.Repos, d *donation.Donation) (*campaign.Campaign, error) {
	if !d.ForCampaign() {
		return nil, nil
	}
	camp, err := r.Campaigns.GetByIDForUpdate(ctx, *d.CampaignID)
	if isNotFound(err) {
		return nil, apperr.InvalidState("donation", d.ID, fmt.Sprintf("campaign %s no longer exists", *d.CampaignID))
	}
	return camp, err
}

// donationRecipient is the campaign owner, or the donor of a platform gift.
func donationRecipient(d *donation.Donation, camp *campaign.Campaign) string {
	if camp != nil {
		return camp.StudentID
	}
	if d.DonorID != nil {
		return *d.DonorID
	}
	return ""
}

// ApproveDonation: donation -> received and, for a campaign donation, one
// atomic credit of its amount to the campaign.
func (c *Coordinator) ApproveDonation(ctx context.Context, donationID string) (*Result, error) {
	if err := requireID("donation", donationID); err != nil {
		return nil, err
	}
	keys, err := c.donationKeys(ctx, donationID)
	if err != nil {
		return nil, err
	}

	tgt := target{entity: "donation", id: donationID}
	return c.run(ctx, OpApproveDonation, tgt, nil, keys,
		func(ctx context.Context, r uow.Repos, t *tracker) (any, error) {
			d, err := r.Donations.GetByIDForUpdate(ctx, donationID)
			if err != nil {
				return nil, err
			}
			applied, err := d.Decide(donation.StatusReceived, t.actor, c.now())
			if err != nil || !applied {
				return d, err
			}
			camp, err := lockedCampaign(ctx, r, d)
			if err != nil {
				return nil, err
			}
			if camp != nil && camp.Status != campaign.StatusActive {
				return nil, apperr.InvalidState("donation", d.ID,
					fmt.Sprintf("campaign %s is %s; only active campaigns receive donations", camp.ID, camp.Status))
			}
			if err := r.Donations.Save(ctx, d); err != nil {
				return nil, err
			}
			t.step("donation %s: pending -> received", d.ID)

			title := "Donation received"
			msg := fmt.Sprintf("A platform donation of %s was received. Thank you!", formatMoney(d.Amount, platformCurrency))
			payload := map[string]string{"donation_id": d.ID}
			if camp != nil {
				if err := r.Campaigns.Credit(ctx, camp.ID, d.Amount); err != nil {
					return nil, err
				}
				t.step("campaign %s: raised += %d", camp.ID, d.Amount)
				msg = fmt.Sprintf("A donation of %s was received for %q.", formatMoney(d.Amount, camp.Currency), camp.Title)
				payload["campaign_id"] = camp.ID
			}
			err = c.emit(ctx, r, t, notify.Intent{
				Recipient: donationRecipient(d, camp),
				Type:      notification.TypeDonationReceived,
				EntityID:  d.ID,
				Title:     title,
				Message:   msg,
				Payload:   payload,
			})
			return d, err
		})
}

// RejectDonation: donation -> rejected; nothing is credited. The reason is optional.
func (c *Coordinator) RejectDonation(ctx context.Context, donationID, reason string) (*Result, error) {
	if err := requireID("donation", donationID); err != nil {
		return nil, err
	}
	keys, err := c.donationKeys(ctx, donationID)
	if err != nil {
		return nil, err
	}
	var why *string
	if reason != "" {
		why = &reason
	}

	tgt := target{entity: "donation", id: donationID}
	return c.run(ctx, OpRejectDonation, tgt, why, keys,
		func(ctx context.Context, r uow.Repos, t *tracker) (any, error) {
			d, err := r.Donations.GetByIDForUpdate(ctx, donationID)
			if err != nil {
				return nil, err
			}
			applied, err := d.Decide(donation.StatusRejected, t.actor, c.now())
			if err != nil || !applied {
				return d, err
			}
			d.Note = reason
			if err := r.Donations.Save(ctx, d); err != nil {
				return nil, err
			}
			t.step("donation %s: pending -> rejected", d.ID)

			// a vanished campaign does not block rejecting its donation
			camp, err := lockedCampaign(ctx, r, d)
			if err != nil && !errors.Is(err, apperr.ErrInvalidState) {
				return nil, err
			}
			msg := "A pending donation was not accepted."
			if reason != "" {
				msg = "A pending donation was not accepted: " + reason
			}
			err = c.emit(ctx, r, t, notify.Intent{
				Recipient: donationRecipient(d, camp),
				Type:      notification.TypeDonationRejected,
				EntityID:  d.ID,
				Title:     "Donation rejected",
				Message:   msg,
				Payload:   map[string]string{"donation_id": d.ID},
			})
			return d, err
		})
}
