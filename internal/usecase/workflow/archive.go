package workflow

import (
	"context"
	"fmt"
	"time"

	"edufund-backend/internal/domain/actor"
	"edufund-backend/internal/domain/apperr"
	"edufund-backend/internal/domain/archive"
	"edufund-backend/internal/domain/campaign"
	"edufund-backend/internal/domain/notification"
	"edufund-backend/internal/domain/student"
	"edufund-backend/internal/domain/uow"
	"edufund-backend/internal/infrastructure/lock"
	"edufund-backend/internal/usecase/notify"
)

// ArchiveProfile disables a student: live campaigns are closed, identity ->
// pending, a snapshot is archived for the grace period and the profile leaves
// active listings.
// Archiving an already archived user returns the open archive.
func (c *Coordinator) ArchiveProfile(ctx context.Context, userID string) (*Result, error) {
	if err := requireID("user", userID); err != nil {
		return nil, err
	}

	tgt := target{entity: "student", id: userID}
	return c.run(ctx, OpArchiveProfile, tgt, nil, []string{lock.Student(userID)},
		func(ctx context.Context, r uow.Repos, t *tracker) (any, error) {
			s, err := r.Students.GetByIDForUpdate(ctx, userID)
			if isNotFound(err) {
				open, oerr := r.Archives.GetOpenByUserID(ctx, userID)
				if oerr != nil {
					return nil, err
				}
				return open, nil
			}
			if err != nil {
				return nil, err
			}

			snap := archive.Snapshot{
				FullName:           s.FullName,
				Email:              s.Email,
				Phone:              s.Phone,
				UniversityID:       s.UniversityID,
				StudentCode:        s.StudentCode,
				Major:              s.Major,
				VerificationStatus: string(s.VerificationStatus),
			}
			closed, err := c.closeCampaigns(ctx, r, t, s.ID)
			if err != nil {
				return nil, err
			}
			if _, err := c.moveStudent(ctx, r, t, s, student.StatusPending); err != nil {
				return nil, err
			}

			p := archive.New(c.newID(), s.ID, string(actor.RoleStudent), t.actor, snap, c.now())
			if err := r.Archives.Create(ctx, p); err != nil {
				return nil, err
			}
			t.step("archive %s: created, deletion scheduled %s", p.ID, p.ScheduledDeletionAt.Format("2006-01-02"))
			if err := r.Students.Delete(ctx, s.ID); err != nil {
				return nil, err
			}
			t.step("student %s: removed from listings", s.ID)

			err = c.emit(ctx, r, t, notify.Intent{
				Recipient: s.ID,
				Type:      notification.TypeProfileArchived,
				EntityID:  p.ID,
				Title:     "Profile disabled",
				Message:   archivedMessage(p.ScheduledDeletionAt, closed),
				Payload:   map[string]string{"archive_id": p.ID},
			})
			return p, err
		})
}

// closeCampaigns deletes the student's pending and active campaigns so no
// live campaign outlives its owner's profile.
func (c *Coordinator) closeCampaigns(ctx context.Context, r uow.Repos, t *tracker, studentID string) (int, error) {
	now := c.now()
	closed := 0
	for _, st := range []campaign.Status{campaign.StatusActive, campaign.StatusPending} {
		live, err := r.Campaigns.ListByStudentAndStatusForUpdate(ctx, studentID, st)
		if err != nil {
			return 0, err
		}
		for i := range live {
			camp := &live[i]
			if _, err := camp.Delete(now); err != nil {
				return 0, err
			}
			if err := r.Campaigns.Save(ctx, camp); err != nil {
				return 0, err
			}
			t.step("campaign %s: %s -> deleted (owner archived)", camp.ID, st)
			closed++
		}
	}
	return closed, nil
}

func archivedMessage(deadline time.Time, closedCampaigns int) string {
	msg := fmt.Sprintf("Your profile has been disabled. It can be restored until %s.", deadline.Format("2 January 2006"))
	if closedCampaigns > 0 {
		msg += fmt.Sprintf(" %d campaign(s) were closed.", closedCampaigns)
	}
	return msg
}

// RestoreProfile recreates an active profile from an archive's snapshot under
// a new user id. The restored identity is always pending. A restored archive
// returns the same user id again; an expired one fails with ExpiredArchive.
func (c *Coordinator) RestoreProfile(ctx context.Context, archiveID string) (*Result, error) {
	if err := requireID("archive", archiveID); err != nil {
		return nil, err
	}

	tgt := target{entity: "archive", id: archiveID}
	return c.run(ctx, OpRestoreProfile, tgt, nil, []string{lock.Archive(archiveID)},
		func(ctx context.Context, r uow.Repos, t *tracker) (any, error) {
			p, err := r.Archives.GetByIDForUpdate(ctx, archiveID)
			if err != nil {
				return nil, err
			}
			if p.Restored() {
				return &Restored{ArchiveID: p.ID, UserID: *p.RestoredUserID}, nil
			}
			now := c.now()
			if p.Expired(now) {
				return nil, apperr.ExpiredArchive(p.ID)
			}

			snap := p.Snapshot
			s := &student.Student{
				ID:                 c.newID(),
				FullName:           snap.FullName,
				Email:              snap.Email,
				Phone:              snap.Phone,
				UniversityID:       snap.UniversityID,
				StudentCode:        snap.StudentCode,
				Major:              snap.Major,
				VerificationStatus: student.StatusPending,
				StatusUpdatedAt:    now.UTC(),
			}
			if err := r.Students.Create(ctx, s); err != nil {
				return nil, err
			}
			t.step("student %s: recreated from archive %s as pending", s.ID, p.ID)

			p.MarkRestored(s.ID, now)
			if err := r.Archives.Save(ctx, p); err != nil {
				return nil, err
			}
			if err := r.Archives.Close(ctx, p); err != nil {
				return nil, err
			}
			t.step("archive %s: restored", p.ID)

			err = c.emit(ctx, r, t, notify.Intent{
				Recipient: s.ID,
				Type:      notification.TypeProfileRestored,
				EntityID:  p.ID,
				Title:     "Profile restored",
				Message:   "Your profile has been restored. Please submit your documents again for verification.",
				Payload:   map[string]string{"archive_id": p.ID, "user_id": s.ID},
			})
			return &Restored{ArchiveID: p.ID, UserID: s.ID, Student: s}, err
		})
}
