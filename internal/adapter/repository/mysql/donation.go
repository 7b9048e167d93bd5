package mysql

import (
	"context"

	donationDomain "edufund-backend/internal/domain/donation"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DonationRepository struct{ db *gorm.DB }

func NewDonationRepository(db *gorm.DB) *DonationRepository { return &DonationRepository{db: db} }

func (r *DonationRepository) Create(ctx context.Context, d *donationDomain.Donation) error {
	return fromGorm(r.db.WithContext(ctx).Create(d).Error, "donation", d.ID)
}

func (r *DonationRepository) Save(ctx context.Context, d *donationDomain.Donation) error {
	return fromGorm(r.db.WithContext(ctx).Omit("created_at").Save(d).Error, "donation", d.ID)
}

func (r *DonationRepository) GetByID(ctx context.Context, id string) (*donationDomain.Donation, error) {
	var out donationDomain.Donation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, fromGorm(err, "donation", id)
	}
	return &out, nil
}

func (r *DonationRepository) GetByIDForUpdate(ctx context.Context, id string) (*donationDomain.Donation, error) {
	var out donationDomain.Donation
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&out).Error
	if err != nil {
		return nil, fromGorm(err, "donation", id)
	}
	return &out, nil
}

func (r *DonationRepository) SumReceivedByCampaign(ctx context.Context, campaignID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&donationDomain.Donation{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("campaign_id = ? AND status = ?", campaignID, donationDomain.StatusReceived).
		Scan(&total).Error
	return total, fromGorm(err, "donation", campaignID)
}
