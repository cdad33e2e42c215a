package digest_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/subwatch/reminder-dispatch/internal/channel"
	"github.com/subwatch/reminder-dispatch/internal/digest"
	"github.com/subwatch/reminder-dispatch/internal/domain"
	"github.com/subwatch/reminder-dispatch/internal/repository"
)

type fakeEmail struct {
	configured bool
	failTo     string // address whose sends fail

	mu   sync.Mutex
	sent []channel.Message
}

func (f *fakeEmail) Configured() bool { return f.configured }

func (f *fakeEmail) Send(_ context.Context, msg channel.Message) error {
	if msg.To == f.failTo && f.failTo != "" {
		return errors.New("mailbox unavailable")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

// 2024-12-22 is a Sunday.
var sundayNineUTC = time.Date(2024, 12, 22, 9, 0, 30, 0, time.UTC)

func digestRepo() *repository.MockReminderRepository {
	repo := repository.NewMockReminderRepository()
	for _, user := range []string{"user-1", "user-2"} {
		repo.Settings[user] = &domain.NotificationSettings{
			UserID:       user,
			Enabled:      true,
			WeeklyDigest: true,
			Channels:     []string{"email"},
		}
		repo.Emails[user] = user + "@example.com"
	}
	repo.Subscriptions["user-1"] = []*domain.Subscription{
		{ID: "s1", UserID: "user-1", Name: "Netflix", AmountCents: 1599, Currency: "USD", BillingCycle: domain.CycleMonthly, IsActive: true},
		{ID: "s2", UserID: "user-1", Name: "Backup", AmountCents: 12000, Currency: "USD", BillingCycle: domain.CycleYearly, IsActive: true},
		{ID: "s3", UserID: "user-1", Name: "Cancelled", AmountCents: 999, Currency: "USD", BillingCycle: domain.CycleMonthly, IsActive: false},
	}
	return repo
}

func newScheduler(repo *repository.MockReminderRepository, email channel.EmailSender, now time.Time) *digest.Scheduler {
	return digest.NewScheduler(repo, email, zap.NewNop(), time.Sunday, 9,
		func() time.Time { return now })
}

func TestRun_SendsDigestsInWindow(t *testing.T) {
	repo := digestRepo()
	email := &fakeEmail{configured: true}

	sent, errs := newScheduler(repo, email, sundayNineUTC).Run(context.Background())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if sent != 2 {
		t.Fatalf("expected 2 digests, got %d", sent)
	}
	if len(email.sent) != 2 {
		t.Fatalf("expected 2 emails, got %d", len(email.sent))
	}
}

func TestRun_GateIsExact(t *testing.T) {
	repo := digestRepo()

	tests := []struct {
		name string
		now  time.Time
	}{
		{"one minute late", time.Date(2024, 12, 22, 9, 1, 0, 0, time.UTC)},
		{"wrong hour", time.Date(2024, 12, 22, 10, 0, 0, 0, time.UTC)},
		{"wrong weekday", time.Date(2024, 12, 23, 9, 0, 0, 0, time.UTC)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			email := &fakeEmail{configured: true}
			sent, errs := newScheduler(repo, email, tc.now).Run(context.Background())
			if sent != 0 || len(errs) != 0 || len(email.sent) != 0 {
				t.Fatalf("expected a no-op, got sent=%d errs=%v", sent, errs)
			}
		})
	}
}

func TestRun_PerUserFailureIsolated(t *testing.T) {
	repo := digestRepo()
	email := &fakeEmail{configured: true, failTo: "user-1@example.com"}

	sent, errs := newScheduler(repo, email, sundayNineUTC).Run(context.Background())
	if sent != 1 {
		t.Fatalf("expected the other user's digest delivered, got %d", sent)
	}
	if len(errs) != 1 {
		t.Fatalf("expected one collected failure, got %v", errs)
	}
}

func TestRun_EmailUnconfiguredIsNoop(t *testing.T) {
	repo := digestRepo()
	email := &fakeEmail{configured: false}

	sent, errs := newScheduler(repo, email, sundayNineUTC).Run(context.Background())
	if sent != 0 || len(errs) != 0 {
		t.Fatalf("expected no-op without email config, got sent=%d errs=%v", sent, errs)
	}
}

func TestRun_MonthlyTotalNormalizesCycles(t *testing.T) {
	repo := digestRepo()
	delete(repo.Settings, "user-2")
	email := &fakeEmail{configured: true}

	sent, _ := newScheduler(repo, email, sundayNineUTC).Run(context.Background())
	if sent != 1 {
		t.Fatalf("expected one digest, got %d", sent)
	}
	// 15.99 monthly + 120.00 yearly (10.00/month); the cancelled
	// subscription is excluded.
	msg := email.sent[0]
	if want := "25.99 USD"; !strings.Contains(msg.Text, want) || !strings.Contains(msg.HTML, want) {
		t.Fatalf("expected total %q in bodies, got text=%q", want, msg.Text)
	}
}
