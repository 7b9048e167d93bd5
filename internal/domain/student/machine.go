package student

import (
	"fmt"
	"time"

	"edufund-backend/internal/domain/apperr"
)

// SetStatus moves the cached identity status. The machine is re-entrant:
// any status may follow any other, so cascades can force approved/rejected
// without passing through pending.
//
// activeCampaigns is the number of live campaigns the student owns, not
// counting one the same cascade is removing. A student who owns an active
// campaign cannot leave approved.
func (s *Student) SetStatus(to VerificationStatus, activeCampaigns int64, now time.Time) (bool, error) {
	if !to.Valid() {
		return false, apperr.Validation(fmt.Sprintf("unknown verification status %q", to))
	}
	if s.VerificationStatus == to {
		return false, nil
	}
	if s.VerificationStatus == StatusApproved && activeCampaigns > 0 {
		return false, apperr.InvalidState("student", s.ID,
			fmt.Sprintf("owns %d active campaign(s); cannot move from approved to %s", activeCampaigns, to))
	}
	s.VerificationStatus = to
	s.StatusUpdatedAt = now.UTC()
	return true, nil
}

// HoldsApproval reports whether live campaigns pin the student to approved.
// Cascades that would otherwise move such a student leave it approved.
func (s *Student) HoldsApproval(activeCampaigns int64) bool {
	return s.VerificationStatus == StatusApproved && activeCampaigns > 0
}
