// Package digest implements the weekly summary job. It is structurally
// separate from per-item reminders: its own trigger gate, its own
// recipients query, no delivery ledger.
package digest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/subwatch/reminder-dispatch/internal/channel"
	"github.com/subwatch/reminder-dispatch/internal/repository"
)

// Scheduler sends one digest email per opted-in user when the trigger
// window matches. Outside the window every run is a no-op.
type Scheduler struct {
	repo   repository.ReminderRepository
	email  channel.EmailSender
	logger *zap.Logger

	weekday time.Weekday
	hour    int
	now     func() time.Time
}

func NewScheduler(
	repo repository.ReminderRepository,
	email channel.EmailSender,
	logger *zap.Logger,
	weekday time.Weekday,
	hour int,
	now func() time.Time,
) *Scheduler {
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		repo:    repo,
		email:   email,
		logger:  logger,
		weekday: weekday,
		hour:    hour,
		now:     now,
	}
}

// Triggered reports whether now (UTC) matches the exact trigger window:
// the configured weekday and hour, at minute zero. The gate is an exact
// match, not a range: a run at 09:01 does nothing.
func (s *Scheduler) Triggered(now time.Time) bool {
	now = now.UTC()
	return now.Weekday() == s.weekday && now.Hour() == s.hour && now.Minute() == 0
}

// Run sends the weekly digest if the trigger window matches. Per-user
// failures are collected independently; one user's failure never blocks
// others'. The returned count is the number of digests delivered.
func (s *Scheduler) Run(ctx context.Context) (int, []string) {
	if !s.Triggered(s.now()) {
		return 0, nil
	}
	if !s.email.Configured() {
		s.logger.Warn("digest window matched but email is not configured")
		return 0, nil
	}

	recipients, err := s.repo.DigestRecipients(ctx)
	if err != nil {
		return 0, []string{fmt.Sprintf("load digest recipients: %v", err)}
	}

	var (
		sent int
		errs []string
	)
	for _, ns := range recipients {
		delivered, err := s.sendDigest(ctx, ns.UserID)
		if err != nil {
			errs = append(errs, fmt.Sprintf("digest %s: %v", ns.UserID, err))
			continue
		}
		if delivered {
			sent++
		}
	}

	s.logger.Info("digest run complete",
		zap.Int("recipients", len(recipients)),
		zap.Int("sent", sent),
		zap.Int("failed", len(errs)),
	)
	return sent, errs
}

func (s *Scheduler) sendDigest(ctx context.Context, userID string) (bool, error) {
	addr, err := s.repo.UserEmail(ctx, userID)
	if err != nil {
		return false, err
	}
	if addr == "" {
		return false, nil // opted in but no address on file: skip silently
	}

	subs, err := s.repo.ActiveSubscriptions(ctx, userID)
	if err != nil {
		return false, err
	}

	var total int64
	currency := "USD"
	for _, sub := range subs {
		total += sub.MonthlyCents()
		if sub.Currency != "" {
			currency = sub.Currency
		}
	}

	msg := channel.RenderDigestEmail(addr, len(subs), total, currency)
	if err := s.email.Send(ctx, msg); err != nil {
		return false, err
	}
	return true, nil
}
