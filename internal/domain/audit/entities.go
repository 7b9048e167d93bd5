package audit

import (
	"context"
	"time"
)

type Status string

const (
	StatusApplied Status = "applied"
	StatusPartial Status = "partial"
)

// CascadeRecord is the audit entry of one applied administrator operation.
// Steps lists the effects in the order they were applied.
type CascadeRecord struct {
	ID        string    `gorm:"primaryKey;size:32" json:"id"`
	Op        string    `gorm:"size:40;not null;index" json:"op"`
	ActorID   string    `gorm:"size:32;not null" json:"actor_id"`
	Entity    string    `gorm:"size:20;not null;index:idx_cascade_entity" json:"entity"`
	EntityID  string    `gorm:"size:32;not null;index:idx_cascade_entity" json:"entity_id"`
	Reason    *string   `gorm:"type:text" json:"reason,omitempty"`
	Steps     []string  `gorm:"serializer:json;type:text" json:"steps"`
	Status    Status    `gorm:"size:20;not null" json:"status"`
	Detail    string    `gorm:"type:text" json:"detail,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (CascadeRecord) TableName() string { return "cascade_records" }

type Repository interface {
	Create(ctx context.Context, r *CascadeRecord) error
	GetByID(ctx context.Context, id string) (*CascadeRecord, error)
	ListByEntity(ctx context.Context, entity, entityID string) ([]CascadeRecord, error)
	MarkPartial(ctx context.Context, id, detail string) error
}
