package mysql

import (
	"context"
	"time"

	notificationDomain "edufund-backend/internal/domain/notification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NotificationRepository struct{ db *gorm.DB }

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *notificationDomain.Notification) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "recipient_user_id"}, {Name: "dedupe_key"}},
			DoNothing: true,
		}).
		Create(n)
	if res.Error != nil {
		return false, fromGorm(res.Error, "notification", n.ID)
	}
	return res.RowsAffected == 1, nil
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, userID string) ([]notificationDomain.Notification, error) {
	var out []notificationDomain.Notification
	err := r.db.WithContext(ctx).
		Where("recipient_user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, fromGorm(err, "notification", userID)
}

func (r *NotificationRepository) ListUnpublished(ctx context.Context, limit int) ([]notificationDomain.Notification, error) {
	var out []notificationDomain.Notification
	err := r.db.WithContext(ctx).
		Where("published_at IS NULL").
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&out).Error
	return out, fromGorm(err, "notification", "")
}

func (r *NotificationRepository) MarkPublished(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&notificationDomain.Notification{}).
		Where("id IN ? AND published_at IS NULL", ids).
		UpdateColumn("published_at", at.UTC()).Error
	return fromGorm(err, "notification", "")
}
