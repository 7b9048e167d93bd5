package admin

import (
	"context"
	"time"
)

// Admin is a platform administrator; admins receive submission notifications.
type Admin struct {
	ID        string    `gorm:"primaryKey;size:32" json:"id"`
	Email     string    `gorm:"size:255;uniqueIndex" json:"email"`
	FullName  string    `gorm:"size:255" json:"full_name"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Admin) TableName() string { return "admins" }

type Repository interface {
	Create(ctx context.Context, a *Admin) error
	ListActiveIDs(ctx context.Context) ([]string, error)
}
