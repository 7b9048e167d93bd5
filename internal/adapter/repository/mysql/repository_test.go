package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	"edufund-backend/internal/domain/admin"
	"edufund-backend/internal/domain/apperr"
	"edufund-backend/internal/domain/archive"
	"edufund-backend/internal/domain/audit"
	"edufund-backend/internal/domain/campaign"
	"edufund-backend/internal/domain/donation"
	"edufund-backend/internal/domain/notification"
	"edufund-backend/internal/domain/student"
	"edufund-backend/internal/domain/verification"
	"edufund-backend/internal/testutil/testdb"
	"edufund-backend/pkg/id"
)

func makeStudent(status student.VerificationStatus) *student.Student {
	return &student.Student{
		ID:                 id.NewID32(),
		FullName:           "Ayu Lestari",
		Email:              "ayu@example.ac.id",
		UniversityID:       "UI",
		StudentCode:        "2301",
		Major:              "Physics",
		VerificationStatus: status,
		StatusUpdatedAt:    time.Now().UTC(),
	}
}

func makeCampaign(studentID string, status campaign.Status) *campaign.Campaign {
	return &campaign.Campaign{
		ID:              id.NewID32(),
		StudentID:       studentID,
		Title:           "Tuition 2026",
		GoalAmount:      1000,
		Currency:        "USD",
		DocumentURLs:    []string{"https://docs.example.com/a.pdf"},
		Status:          status,
		StatusUpdatedAt: time.Now().UTC(),
	}
}

func TestStudent_CreateGetDeletePurge(t *testing.T) {
	db := testdb.Open(t)
	repo := NewStudentRepository(db)
	ctx := context.Background()

	s := makeStudent(student.StatusPending)
	if err := repo.Create(ctx, s); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := repo.GetByIDForUpdate(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetByIDForUpdate: %v", err)
	}
	if got.FullName != s.FullName || got.VerificationStatus != student.StatusPending {
		t.Fatalf("unexpected student: %+v", got)
	}

	if err := repo.Delete(ctx, s.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, s.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("soft-deleted student should be hidden, got %v", err)
	}
	if err := repo.Delete(ctx, s.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("second delete should report not found, got %v", err)
	}

	if err := repo.Purge(ctx, s.ID); err != nil {
		t.Fatalf("Purge: %v", err)
	}
	var n int64
	db.Unscoped().Model(&student.Student{}).Where("id = ?", s.ID).Count(&n)
	if n != 0 {
		t.Fatalf("purged row still present")
	}
}

func TestStudent_PurgeKeepsLiveRows(t *testing.T) {
	db := testdb.Open(t)
	repo := NewStudentRepository(db)
	ctx := context.Background()

	s := makeStudent(student.StatusApproved)
	if err := repo.Create(ctx, s); err != nil {
		t.Fatal(err)
	}
	if err := repo.Purge(ctx, s.ID); err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if _, err := repo.GetByID(ctx, s.ID); err != nil {
		t.Fatalf("live student must survive purge: %v", err)
	}
}

func TestVerification_ListPendingAndCount(t *testing.T) {
	db := testdb.Open(t)
	repo := NewVerificationRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	sid := id.NewID32()
	seed := []verification.Request{
		{ID: id.NewID32(), StudentID: sid, DocumentType: verification.DocIdentity, DocumentURL: "u1", Status: verification.StatusPending, SubmittedAt: now.Add(-2 * time.Hour)},
		{ID: id.NewID32(), StudentID: sid, DocumentType: verification.DocEnrollment, DocumentURL: "u2", Status: verification.StatusPending, SubmittedAt: now.Add(-1 * time.Hour)},
		{ID: id.NewID32(), StudentID: sid, DocumentType: verification.DocFeeStatement, DocumentURL: "u3", Status: verification.StatusRejected, SubmittedAt: now},
		{ID: id.NewID32(), StudentID: id.NewID32(), DocumentType: verification.DocIdentity, DocumentURL: "u4", Status: verification.StatusPending, SubmittedAt: now},
	}
	for i := range seed {
		if err := repo.Create(ctx, &seed[i]); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	pending, err := repo.ListPendingByStudentForUpdate(ctx, sid)
	if err != nil {
		t.Fatalf("ListPendingByStudentForUpdate: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != seed[0].ID || pending[1].ID != seed[1].ID {
		t.Fatalf("want the two pending requests oldest first, got %+v", pending)
	}

	n, err := repo.CountByStudentAndStatus(ctx, sid, verification.StatusRejected)
	if err != nil || n != 1 {
		t.Fatalf("CountByStudentAndStatus = %d, %v", n, err)
	}

	if _, err := repo.GetByID(ctx, "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestCampaign_SaveNeverWritesRaisedAmount(t *testing.T) {
	db := testdb.Open(t)
	repo := NewCampaignRepository(db)
	ctx := context.Background()

	c := makeCampaign(id.NewID32(), campaign.StatusActive)
	if err := repo.Create(ctx, c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	stale, err := repo.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Credit(ctx, c.ID, 250); err != nil {
		t.Fatalf("Credit: %v", err)
	}

	// stale copy still says 0; saving it must not roll the credit back
	stale.Title = "Tuition and books"
	if err := repo.Save(ctx, stale); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := repo.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.RaisedAmount != 250 || got.Title != "Tuition and books" {
		t.Fatalf("unexpected campaign after save: raised=%d title=%q", got.RaisedAmount, got.Title)
	}
	if len(got.DocumentURLs) != 1 {
		t.Fatalf("document urls not round-tripped: %v", got.DocumentURLs)
	}
}

func TestCampaign_CreditOnlyActive(t *testing.T) {
	db := testdb.Open(t)
	repo := NewCampaignRepository(db)
	ctx := context.Background()

	for _, st := range []campaign.Status{campaign.StatusPending, campaign.StatusRejected, campaign.StatusDeleted} {
		c := makeCampaign(id.NewID32(), st)
		if err := repo.Create(ctx, c); err != nil {
			t.Fatal(err)
		}
		if err := repo.Credit(ctx, c.ID, 10); !errors.Is(err, apperr.ErrInvalidState) {
			t.Fatalf("%s: want invalid state, got %v", st, err)
		}
	}
	if err := repo.Credit(ctx, "missing", 10); !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("missing campaign: want invalid state, got %v", err)
	}
	if err := repo.Credit(ctx, "missing", 0); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("zero amount: want validation, got %v", err)
	}
}

func TestCampaign_CountAndListByStatus(t *testing.T) {
	db := testdb.Open(t)
	repo := NewCampaignRepository(db)
	ctx := context.Background()

	sid := id.NewID32()
	for _, st := range []campaign.Status{campaign.StatusPending, campaign.StatusPending, campaign.StatusActive} {
		if err := repo.Create(ctx, makeCampaign(sid, st)); err != nil {
			t.Fatal(err)
		}
	}
	pending, err := repo.ListByStudentAndStatusForUpdate(ctx, sid, campaign.StatusPending)
	if err != nil || len(pending) != 2 {
		t.Fatalf("pending = %d, %v", len(pending), err)
	}
	n, err := repo.CountByStudentAndStatus(ctx, sid, campaign.StatusActive)
	if err != nil || n != 1 {
		t.Fatalf("active count = %d, %v", n, err)
	}
}

func TestDonation_SumReceivedByCampaign(t *testing.T) {
	db := testdb.Open(t)
	repo := NewDonationRepository(db)
	ctx := context.Background()

	cid := id.NewID32()
	other := id.NewID32()
	seed := []struct {
		campaign *string
		amount   int64
		status   donation.Status
	}{
		{&cid, 100, donation.StatusReceived},
		{&cid, 50, donation.StatusReceived},
		{&cid, 70, donation.StatusPending},
		{&cid, 30, donation.StatusRejected},
		{&other, 999, donation.StatusReceived},
		{nil, 500, donation.StatusReceived},
	}
	for _, s := range seed {
		d := &donation.Donation{
			ID: id.NewID32(), CampaignID: s.campaign, Amount: s.amount,
			Status: s.status, PaymentReference: id.NewID32(),
		}
		if err := repo.Create(ctx, d); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := repo.SumReceivedByCampaign(ctx, cid)
	if err != nil {
		t.Fatalf("SumReceivedByCampaign: %v", err)
	}
	if got != 150 {
		t.Fatalf("sum = %d, want 150", got)
	}
	empty, err := repo.SumReceivedByCampaign(ctx, id.NewID32())
	if err != nil || empty != 0 {
		t.Fatalf("empty sum = %d, %v", empty, err)
	}
}

func TestNotification_CreateIsDeduplicated(t *testing.T) {
	db := testdb.Open(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	mk := func(recipient string) *notification.Notification {
		return &notification.Notification{
			ID:              id.NewID32(),
			RecipientUserID: recipient,
			DedupeKey:       notification.DedupeKey(notification.TypeVerificationApproved, "r1"),
			Type:            notification.TypeVerificationApproved,
			Title:           "Verification approved",
		}
	}

	created, err := repo.Create(ctx, mk("s1"))
	if err != nil || !created {
		t.Fatalf("first create = %v, %v", created, err)
	}
	created, err = repo.Create(ctx, mk("s1"))
	if err != nil || created {
		t.Fatalf("duplicate create = %v, %v", created, err)
	}
	created, err = repo.Create(ctx, mk("s2"))
	if err != nil || !created {
		t.Fatalf("other recipient = %v, %v", created, err)
	}

	list, err := repo.ListByRecipient(ctx, "s1")
	if err != nil || len(list) != 1 {
		t.Fatalf("ListByRecipient = %d, %v", len(list), err)
	}
}

func TestNotification_UnpublishedOutbox(t *testing.T) {
	db := testdb.Open(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		n := &notification.Notification{
			ID: id.NewID32(), RecipientUserID: "s1", DedupeKey: id.NewID32(),
			Type: notification.TypeCampaignApproved, Title: "t",
		}
		if _, err := repo.Create(ctx, n); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, n.ID)
	}
	if err := repo.MarkPublished(ctx, ids[:2], time.Now()); err != nil {
		t.Fatalf("MarkPublished: %v", err)
	}
	left, err := repo.ListUnpublished(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 1 || left[0].ID != ids[2] {
		t.Fatalf("unpublished = %+v", left)
	}
	if err := repo.MarkPublished(ctx, nil, time.Now()); err != nil {
		t.Fatalf("empty MarkPublished: %v", err)
	}
}

func TestArchive_ListExpiredSkipsRestored(t *testing.T) {
	db := testdb.Open(t)
	repo := NewArchiveRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	expired := archive.New(id.NewID32(), "u1", "student", "admin", archive.Snapshot{}, now.Add(-61*24*time.Hour))
	fresh := archive.New(id.NewID32(), "u2", "student", "admin", archive.Snapshot{}, now.Add(-10*24*time.Hour))
	restored := archive.New(id.NewID32(), "u3", "student", "admin", archive.Snapshot{}, now.Add(-70*24*time.Hour))
	for _, p := range []*archive.Profile{expired, fresh, restored} {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	restored.MarkRestored("u3-new", now.Add(-65*24*time.Hour))
	if err := repo.Save(ctx, restored); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := repo.Close(ctx, restored); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := repo.ListExpired(ctx, now, 10)
	if err != nil {
		t.Fatalf("ListExpired: %v", err)
	}
	if len(got) != 1 || got[0].ID != expired.ID {
		t.Fatalf("expired = %+v", got)
	}

	// closed archives still resolve by id for idempotent restore
	again, err := repo.GetByIDForUpdate(ctx, restored.ID)
	if err != nil {
		t.Fatalf("GetByIDForUpdate closed: %v", err)
	}
	if !again.Restored() || *again.RestoredUserID != "u3-new" {
		t.Fatalf("restore stamp lost: %+v", again)
	}
	if _, err := repo.GetOpenByUserID(ctx, "u3"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("restored archive is not open, got %v", err)
	}
	if open, err := repo.GetOpenByUserID(ctx, "u2"); err != nil || open.ID != fresh.ID {
		t.Fatalf("GetOpenByUserID = %+v, %v", open, err)
	}

	if err := repo.Purge(ctx, expired.ID); err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if _, err := repo.GetByIDForUpdate(ctx, expired.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("purged archive still resolves: %v", err)
	}
}

func TestArchive_SnapshotRoundTrip(t *testing.T) {
	db := testdb.Open(t)
	repo := NewArchiveRepository(db)
	ctx := context.Background()

	phone := "+62-811"
	p := archive.New(id.NewID32(), "u1", "student", "admin", archive.Snapshot{
		FullName: "Ayu", Email: "ayu@example.ac.id", Phone: &phone, Major: "Physics",
		VerificationStatus: "approved",
	}, time.Now())
	if err := repo.Create(ctx, p); err != nil {
		t.Fatal(err)
	}
	got, err := repo.GetByIDForUpdate(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Snapshot.FullName != "Ayu" || got.Snapshot.Phone == nil || *got.Snapshot.Phone != phone {
		t.Fatalf("snapshot = %+v", got.Snapshot)
	}
}

func TestCascade_MarkPartial(t *testing.T) {
	db := testdb.Open(t)
	repo := NewCascadeRepository(db)
	ctx := context.Background()

	rec := &audit.CascadeRecord{
		ID: id.NewID32(), Op: "ApproveCampaign", ActorID: "admin-1",
		Entity: "campaign", EntityID: "c1", Steps: []string{"campaign->active", "student->approved"},
		Status: audit.StatusApplied,
	}
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatal(err)
	}
	if err := repo.MarkPartial(ctx, rec.ID, "publish failed"); err != nil {
		t.Fatalf("MarkPartial: %v", err)
	}
	got, err := repo.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != audit.StatusPartial || got.Detail != "publish failed" || len(got.Steps) != 2 {
		t.Fatalf("unexpected record: %+v", got)
	}
	if err := repo.MarkPartial(ctx, "missing", "x"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
	list, err := repo.ListByEntity(ctx, "campaign", "c1")
	if err != nil || len(list) != 1 {
		t.Fatalf("ListByEntity = %d, %v", len(list), err)
	}
}

func TestAdmin_ListActiveIDs(t *testing.T) {
	db := testdb.Open(t)
	repo := NewAdminRepository(db)
	ctx := context.Background()

	for _, a := range []*admin.Admin{
		{ID: "a1", Email: "a1@edufund.org", Active: true},
		{ID: "a2", Email: "a2@edufund.org", Active: true},
	} {
		if err := repo.Create(ctx, a); err != nil {
			t.Fatal(err)
		}
	}
	// gorm skips zero-value bools on create, so deactivate explicitly
	if err := repo.Create(ctx, &admin.Admin{ID: "a3", Email: "a3@edufund.org"}); err != nil {
		t.Fatal(err)
	}
	db.Model(&admin.Admin{}).Where("id = ?", "a3").Update("active", false)

	ids, err := repo.ListActiveIDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "a1" || ids[1] != "a2" {
		t.Fatalf("ids = %v", ids)
	}
}
