package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/subwatch/reminder-dispatch/internal/domain"
)

type pgReminderRepository struct {
	pool *pgxpool.Pool
}

// NewPgReminderRepository returns a ReminderRepository backed by PostgreSQL.
func NewPgReminderRepository(pool *pgxpool.Pool) ReminderRepository {
	return &pgReminderRepository{pool: pool}
}

func (r *pgReminderRepository) ListActiveSnapshots(ctx context.Context) ([]*domain.ReminderSnapshot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, is_active, settings, items, tz_offset_minutes, updated_at
		FROM reminder_snapshots
		WHERE is_active = TRUE`)
	if err != nil {
		return nil, fmt.Errorf("list active snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*domain.ReminderSnapshot
	for rows.Next() {
		var s domain.ReminderSnapshot
		if err := rows.Scan(&s.ID, &s.UserID, &s.IsActive, &s.Settings, &s.Items,
			&s.TZOffsetMinutes, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snapshots = append(snapshots, &s)
	}
	return snapshots, rows.Err()
}

func (r *pgReminderRepository) NotificationSettings(ctx context.Context, userID string) (*domain.NotificationSettings, error) {
	var ns domain.NotificationSettings
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, enabled, weekly_digest, channels
		FROM notification_settings WHERE user_id = $1`, userID).
		Scan(&ns.UserID, &ns.Enabled, &ns.WeeklyDigest, &ns.Channels)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get notification settings: %w", err)
	}
	return &ns, nil
}

func (r *pgReminderRepository) UserEmail(ctx context.Context, userID string) (string, error) {
	var email *string
	err := r.pool.QueryRow(ctx,
		`SELECT email FROM users WHERE id = $1`, userID).Scan(&email)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get user email: %w", err)
	}
	if email == nil {
		return "", nil
	}
	return *email, nil
}

func (r *pgReminderRepository) UserZone(ctx context.Context, userID string) (string, error) {
	var timezone, tzCookie *string
	err := r.pool.QueryRow(ctx,
		`SELECT timezone, tz_cookie FROM users WHERE id = $1`, userID).
		Scan(&timezone, &tzCookie)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get user zone: %w", err)
	}
	// Profile timezone wins over the cookie preference.
	if timezone != nil && *timezone != "" {
		return *timezone, nil
	}
	if tzCookie != nil {
		return *tzCookie, nil
	}
	return "", nil
}

func (r *pgReminderRepository) PushSubscription(ctx context.Context, userID string) (*domain.PushSubscription, error) {
	var sub domain.PushSubscription
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, endpoint, p256dh, auth
		FROM push_subscriptions WHERE user_id = $1`, userID).
		Scan(&sub.UserID, &sub.Endpoint, &sub.P256dh, &sub.Auth)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNoPushSubscription
	}
	if err != nil {
		return nil, fmt.Errorf("get push subscription: %w", err)
	}
	return &sub, nil
}

func (r *pgReminderRepository) DigestRecipients(ctx context.Context) ([]*domain.NotificationSettings, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, enabled, weekly_digest, channels
		FROM notification_settings
		WHERE weekly_digest = TRUE
		  AND enabled = TRUE
		  AND 'email' = ANY(channels)`)
	if err != nil {
		return nil, fmt.Errorf("list digest recipients: %w", err)
	}
	defer rows.Close()

	var recipients []*domain.NotificationSettings
	for rows.Next() {
		var ns domain.NotificationSettings
		if err := rows.Scan(&ns.UserID, &ns.Enabled, &ns.WeeklyDigest, &ns.Channels); err != nil {
			return nil, fmt.Errorf("scan digest recipient: %w", err)
		}
		recipients = append(recipients, &ns)
	}
	return recipients, rows.Err()
}

func (r *pgReminderRepository) ActiveSubscriptions(ctx context.Context, userID string) ([]*domain.Subscription, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, name, amount_cents, currency, billing_cycle, is_active
		FROM subscriptions
		WHERE user_id = $1 AND is_active = TRUE`, userID)
	if err != nil {
		return nil, fmt.Errorf("list active subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*domain.Subscription
	for rows.Next() {
		var s domain.Subscription
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.AmountCents,
			&s.Currency, &s.BillingCycle, &s.IsActive); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, &s)
	}
	return subs, rows.Err()
}
