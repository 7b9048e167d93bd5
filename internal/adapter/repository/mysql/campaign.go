package mysql

import (
	"context"
	"fmt"

	"edufund-backend/internal/domain/apperr"
	campaignDomain "edufund-backend/internal/domain/campaign"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CampaignRepository struct{ db *gorm.DB }

func NewCampaignRepository(db *gorm.DB) *CampaignRepository { return &CampaignRepository{db: db} }

func (r *CampaignRepository) Create(ctx context.Context, c *campaignDomain.Campaign) error {
	return fromGorm(r.db.WithContext(ctx).Create(c).Error, "campaign", c.ID)
}

// Save never writes raised_amount; Credit owns that column.
func (r *CampaignRepository) Save(ctx context.Context, c *campaignDomain.Campaign) error {
	err := r.db.WithContext(ctx).Omit("raised_amount", "created_at").Save(c).Error
	return fromGorm(err, "campaign", c.ID)
}

func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*campaignDomain.Campaign, error) {
	var out campaignDomain.Campaign
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, fromGorm(err, "campaign", id)
	}
	return &out, nil
}

func (r *CampaignRepository) GetByIDForUpdate(ctx context.Context, id string) (*campaignDomain.Campaign, error) {
	var out campaignDomain.Campaign
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&out).Error
	if err != nil {
		return nil, fromGorm(err, "campaign", id)
	}
	return &out, nil
}

func (r *CampaignRepository) ListByStudentAndStatusForUpdate(ctx context.Context, studentID string, status campaignDomain.Status) ([]campaignDomain.Campaign, error) {
	var out []campaignDomain.Campaign
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("student_id = ? AND status = ?", studentID, status).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, fromGorm(err, "campaign", studentID)
}

func (r *CampaignRepository) CountByStudentAndStatus(ctx context.Context, studentID string, status campaignDomain.Status) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&campaignDomain.Campaign{}).
		Where("student_id = ? AND status = ?", studentID, status).
		Count(&n).Error
	return n, fromGorm(err, "campaign", studentID)
}

// Credit is a single storage-side increment; it never reads the current total.
func (r *CampaignRepository) Credit(ctx context.Context, id string, amount int64) error {
	if amount <= 0 {
		return apperr.Validation(fmt.Sprintf("credit amount must be positive, got %d", amount))
	}
	res := r.db.WithContext(ctx).Model(&campaignDomain.Campaign{}).
		Where("id = ? AND status = ?", id, campaignDomain.StatusActive).
		UpdateColumn("raised_amount", gorm.Expr("raised_amount + ?", amount))
	if res.Error != nil {
		return fromGorm(res.Error, "campaign", id)
	}
	if res.RowsAffected == 0 {
		return apperr.InvalidState("campaign", id, "only active campaigns can be credited")
	}
	return nil
}
