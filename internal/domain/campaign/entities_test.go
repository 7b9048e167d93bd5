package campaign

import (
	"errors"
	"testing"
	"time"

	"edufund-backend/internal/domain/apperr"
)

func TestCampaignTransitions(t *testing.T) {
	now := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)

	type step func(c *Campaign) (bool, error)
	approve := func(c *Campaign) (bool, error) { return c.Approve(now) }
	reject := func(c *Campaign) (bool, error) { return c.Reject("goal unclear", now) }
	del := func(c *Campaign) (bool, error) { return c.Delete(now) }

	tests := []struct {
		name        string
		from        Status
		do          step
		want        Status
		wantApplied bool
		wantErr     error
	}{
		{"approve pending", StatusPending, approve, StatusActive, true, nil},
		{"approve active is a no-op", StatusActive, approve, StatusActive, false, nil},
		{"approve rejected fails", StatusRejected, approve, StatusRejected, false, apperr.ErrInvalidState},
		{"approve deleted fails", StatusDeleted, approve, StatusDeleted, false, apperr.ErrInvalidState},
		{"reject pending", StatusPending, reject, StatusRejected, true, nil},
		{"reject rejected is a no-op", StatusRejected, reject, StatusRejected, false, nil},
		{"reject active fails", StatusActive, reject, StatusActive, false, apperr.ErrInvalidState},
		{"delete pending", StatusPending, del, StatusDeleted, true, nil},
		{"delete active", StatusActive, del, StatusDeleted, true, nil},
		{"delete deleted is a no-op", StatusDeleted, del, StatusDeleted, false, nil},
		{"delete rejected fails", StatusRejected, del, StatusRejected, false, apperr.ErrInvalidState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Campaign{ID: "c1", Status: tt.from}
			applied, err := tt.do(c)
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("want %v, got %v", tt.wantErr, err)
			}
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if applied != tt.wantApplied {
				t.Fatalf("applied = %v, want %v", applied, tt.wantApplied)
			}
			if c.Status != tt.want {
				t.Fatalf("status = %s, want %s", c.Status, tt.want)
			}
		})
	}
}

func TestDeleteStampsTombstone(t *testing.T) {
	now := time.Now().UTC()
	c := &Campaign{ID: "c1", Status: StatusActive, RaisedAmount: 500}
	if _, err := c.Delete(now); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if c.DeletedAt == nil || !c.DeletedAt.Equal(now) {
		t.Fatalf("DeletedAt = %v, want %v", c.DeletedAt, now)
	}
	if c.RaisedAmount != 500 {
		t.Fatalf("delete must not touch RaisedAmount, got %d", c.RaisedAmount)
	}
}
