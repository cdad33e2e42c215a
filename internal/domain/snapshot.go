package domain

import (
	"encoding/json"
	"time"
)

// Channel is a delivery channel for a reminder.
type Channel string

const (
	ChannelPush  Channel = "push"
	ChannelEmail Channel = "email"
)

// ReminderSnapshot is a denormalized, point-in-time copy of one user's
// reminder-relevant subscription data. It is read-only input for a batch
// run; persistence and refresh belong to an external collaborator.
//
// Settings and Items are kept in their raw persisted form because old
// snapshots predate the current schema; the normalize package turns them
// into strict types per run.
type ReminderSnapshot struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	IsActive        bool            `json:"is_active"`
	Settings        json.RawMessage `json:"settings"`
	Items           json.RawMessage `json:"items"`
	TZOffsetMinutes int             `json:"tz_offset_minutes"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Settings is the strict, normalized shape of a snapshot's reminder
// preferences. Zone is empty when unset. LeadDays holds the values as
// configured; NormalizeLeadDays derives the set actually scheduled.
type Settings struct {
	Enabled   bool      `json:"enabled"`
	LeadDays  []float64 `json:"lead_days"`
	TimeOfDay string    `json:"time_of_day"`
	Channels  []string  `json:"channels"`
	Zone      string    `json:"zone,omitempty"`
}

// DefaultSettings returns the all-defaults value used whenever the
// persisted settings cannot be parsed. Enabled defaults to false so a
// malformed record fails safe: no reminders are sent for it.
func DefaultSettings() Settings {
	return Settings{TimeOfDay: "09:00"}
}

// ReminderItem is one subscription-like entry inside a snapshot.
// Exactly one of NextBillingDate (calendar date, "YYYY-MM-DD") or
// NextBillingAt should be resolvable; items with neither are skipped.
type ReminderItem struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	NextBillingDate string     `json:"next_billing_date,omitempty"`
	NextBillingAt   *time.Time `json:"next_billing_at,omitempty"`
}

// NotificationSettings is the per-user record gating email delivery and
// digest opt-in. It is persisted separately from snapshots.
type NotificationSettings struct {
	UserID       string   `json:"user_id"`
	Enabled      bool     `json:"enabled"`
	WeeklyDigest bool     `json:"weekly_digest"`
	Channels     []string `json:"channels"`
}

// HasChannel reports whether ch appears in the user's channel list.
func (ns NotificationSettings) HasChannel(ch Channel) bool {
	for _, c := range ns.Channels {
		if c == string(ch) {
			return true
		}
	}
	return false
}

// PushSubscription is a stored browser/device push registration.
type PushSubscription struct {
	UserID   string `json:"user_id"`
	Endpoint string `json:"endpoint"`
	P256dh   string `json:"p256dh"`
	Auth     string `json:"auth"`
}

// BillingCycle is how often a subscription renews.
type BillingCycle string

const (
	CycleWeekly    BillingCycle = "weekly"
	CycleMonthly   BillingCycle = "monthly"
	CycleQuarterly BillingCycle = "quarterly"
	CycleYearly    BillingCycle = "yearly"
)

// Subscription is the minimal view of a user's subscription needed to
// compute the weekly-digest monthly total.
type Subscription struct {
	ID           string       `json:"id"`
	UserID       string       `json:"user_id"`
	Name         string       `json:"name"`
	AmountCents  int64        `json:"amount_cents"`
	Currency     string       `json:"currency"`
	BillingCycle BillingCycle `json:"billing_cycle"`
	IsActive     bool         `json:"is_active"`
}

// MonthlyCents normalizes the subscription amount to a per-month figure.
// Unknown cycles are treated as monthly.
func (s Subscription) MonthlyCents() int64 {
	switch s.BillingCycle {
	case CycleWeekly:
		return s.AmountCents * 52 / 12
	case CycleQuarterly:
		return s.AmountCents / 3
	case CycleYearly:
		return s.AmountCents / 12
	default:
		return s.AmountCents
	}
}

// DispatchResult summarizes one batch execution. It is ephemeral: built
// per run, returned in the trigger response, never persisted.
type DispatchResult struct {
	ReminderDispatches   int      `json:"reminderDispatches"`
	GeneralNotifications int      `json:"generalNotifications"`
	Errors               []string `json:"errors"`
	Warnings             []string `json:"warnings"`
}

// Merge folds another result into r. Used when per-snapshot work fans out
// to a worker pool and partial results are combined.
func (r *DispatchResult) Merge(other DispatchResult) {
	r.ReminderDispatches += other.ReminderDispatches
	r.GeneralNotifications += other.GeneralNotifications
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}
