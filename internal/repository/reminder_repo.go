package repository

import (
	"context"

	"github.com/subwatch/reminder-dispatch/internal/domain"
)

// ReminderRepository is the read surface the dispatch engine needs from
// persistent storage. Snapshot and settings CRUD live elsewhere; every
// method here is a read; the engine's only write is the
// delivery ledger, which has its own package.
type ReminderRepository interface {
	// ListActiveSnapshots returns every snapshot with is_active=true.
	// Inactive snapshots are filtered at the query, not in the engine.
	ListActiveSnapshots(ctx context.Context) ([]*domain.ReminderSnapshot, error)

	// NotificationSettings returns the user's separate notification
	// preference record, or domain.ErrNotFound.
	NotificationSettings(ctx context.Context, userID string) (*domain.NotificationSettings, error)

	// UserEmail returns the user's address, or "" when none is stored.
	UserEmail(ctx context.Context, userID string) (string, error)

	// UserZone derives the user's effective zone: profile timezone
	// first, then the stored timezone cookie, "" when neither is set.
	UserZone(ctx context.Context, userID string) (string, error)

	// PushSubscription returns the user's device registration, or
	// domain.ErrNoPushSubscription.
	PushSubscription(ctx context.Context, userID string) (*domain.PushSubscription, error)

	// DigestRecipients returns the notification settings of every user
	// opted into the weekly digest (weekly_digest, enabled, and "email"
	// in their channel list).
	DigestRecipients(ctx context.Context) ([]*domain.NotificationSettings, error)

	// ActiveSubscriptions returns the user's active subscriptions for
	// the digest monthly total.
	ActiveSubscriptions(ctx context.Context, userID string) ([]*domain.Subscription, error)
}
