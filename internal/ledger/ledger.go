// Package ledger is the idempotency store that prevents a reminder from
// being delivered twice for the same (snapshot, billing date, lead days)
// key across repeated or overlapping batch runs.
package ledger

import "context"

// Ledger records which reminder keys have already been sent.
//
// The orchestrator consults WasSent immediately before attempting
// delivery and calls MarkSent only after at least one channel succeeds.
// A key that fails on every channel is deliberately left unwritten so it
// stays eligible for retry on the next run inside the same window:
// "not yet sent" false negatives are preferred over "marked sent but
// never delivered" false positives.
type Ledger interface {
	WasSent(ctx context.Context, snapshotID, billingDate string, leadDays int) (bool, error)
	MarkSent(ctx context.Context, snapshotID, billingDate string, leadDays int) error
}
