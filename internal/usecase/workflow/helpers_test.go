package workflow

import (
	"context"
	"testing"
	"time"

	"edufund-backend/internal/adapter/repository/mysql"
	"edufund-backend/internal/domain/actor"
	"edufund-backend/internal/domain/campaign"
	"edufund-backend/internal/domain/donation"
	"edufund-backend/internal/domain/student"
	"edufund-backend/internal/domain/uow"
	"edufund-backend/internal/domain/verification"
	"edufund-backend/internal/infrastructure/lock"
	"edufund-backend/internal/infrastructure/retry"
	"edufund-backend/internal/testutil/notificationmock"
	"edufund-backend/internal/testutil/testdb"
	"edufund-backend/internal/usecase/notify"
	"edufund-backend/pkg/id"

	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type harness struct {
	db    *gorm.DB
	repos uow.Repos
	pub   *notificationmock.Publisher
	coord *Coordinator
	now   time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testdb.Open(t)
	log := zaptest.NewLogger(t)
	retrier := retry.New(retry.Policy{
		MaxAttempts:     2,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
		AttemptTimeout:  10 * time.Second,
	}, log)

	h := &harness{
		db:    db,
		repos: mysql.Repos(db),
		pub:   &notificationmock.Publisher{},
		now:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	dispatcher := notify.NewDispatcher(h.repos.Notifications, h.pub, retrier, log)
	h.coord = NewCoordinator(Deps{
		UoW:      mysql.NewGormUoW(db),
		Reader:   h.repos,
		Locker:   lock.NewLocalLocker(),
		Notifier: dispatcher,
		Retrier:  retrier,
		Log:      log,
	}, WithClock(func() time.Time { return h.now }))
	return h
}

func adminCtx() context.Context {
	return actor.WithActor(context.Background(), actor.Actor{UserID: "admin-1", Role: actor.RoleAdmin})
}

func (h *harness) seedStudent(t *testing.T, status student.VerificationStatus) *student.Student {
	t.Helper()
	s := &student.Student{
		ID:                 id.NewID32(),
		FullName:           "Ayu Lestari",
		Email:              "ayu@example.ac.id",
		UniversityID:       "UI",
		StudentCode:        "2301",
		Major:              "Physics",
		VerificationStatus: status,
		StatusUpdatedAt:    h.now,
	}
	if err := h.repos.Students.Create(context.Background(), s); err != nil {
		t.Fatalf("seed student: %v", err)
	}
	return s
}

func (h *harness) seedRequest(t *testing.T, studentID string) *verification.Request {
	t.Helper()
	r := &verification.Request{
		ID:           id.NewID32(),
		StudentID:    studentID,
		DocumentType: verification.DocIdentity,
		DocumentURL:  "https://docs.test/id.pdf",
		Status:       verification.StatusPending,
		SubmittedAt:  h.now,
	}
	if err := h.repos.Verifications.Create(context.Background(), r); err != nil {
		t.Fatalf("seed request: %v", err)
	}
	return r
}

func (h *harness) seedCampaign(t *testing.T, studentID string, status campaign.Status) *campaign.Campaign {
	t.Helper()
	c := &campaign.Campaign{
		ID:              id.NewID32(),
		StudentID:       studentID,
		Title:           "Tuition 2026",
		Currency:        "USD",
		GoalAmount:      1000,
		Status:          status,
		StatusUpdatedAt: h.now,
	}
	if err := h.repos.Campaigns.Create(context.Background(), c); err != nil {
		t.Fatalf("seed campaign: %v", err)
	}
	return c
}

func (h *harness) seedDonation(t *testing.T, campaignID string, amount int64) *donation.Donation {
	t.Helper()
	d := &donation.Donation{
		ID:               id.NewID32(),
		Amount:           amount,
		Status:           donation.StatusPending,
		PaymentReference: "PAY-" + id.NewID32(),
	}
	if campaignID != "" {
		d.CampaignID = &campaignID
	}
	if err := h.repos.Donations.Create(context.Background(), d); err != nil {
		t.Fatalf("seed donation: %v", err)
	}
	return d
}

func (h *harness) student(t *testing.T, id string) *student.Student {
	t.Helper()
	s, err := h.repos.Students.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get student %s: %v", id, err)
	}
	return s
}

func (h *harness) campaign(t *testing.T, id string) *campaign.Campaign {
	t.Helper()
	c, err := h.repos.Campaigns.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get campaign %s: %v", id, err)
	}
	return c
}
