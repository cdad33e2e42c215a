package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type pgLedger struct {
	pool *pgxpool.Pool
}

// NewPgLedger returns a Ledger backed by the delivery_ledger table.
func NewPgLedger(pool *pgxpool.Pool) Ledger {
	return &pgLedger{pool: pool}
}

func (l *pgLedger) WasSent(ctx context.Context, snapshotID, billingDate string, leadDays int) (bool, error) {
	var sent bool
	err := l.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM delivery_ledger
			WHERE snapshot_id = $1 AND billing_date = $2 AND lead_days = $3
		)`, snapshotID, billingDate, leadDays).Scan(&sent)
	if err != nil {
		return false, fmt.Errorf("ledger lookup: %w", err)
	}
	return sent, nil
}

// MarkSent is a conditional insert against the composite primary key.
// Two overlapping runs that both pass WasSent can still both send before
// either inserts (the at-least-once semantics of the batch), but the
// second insert is a no-op and every later run sees the key as sent.
func (l *pgLedger) MarkSent(ctx context.Context, snapshotID, billingDate string, leadDays int) error {
	_, err := l.pool.Exec(ctx, `
		INSERT INTO delivery_ledger (snapshot_id, billing_date, lead_days, sent_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (snapshot_id, billing_date, lead_days) DO NOTHING`,
		snapshotID, billingDate, leadDays)
	if err != nil {
		return fmt.Errorf("ledger insert: %w", err)
	}
	return nil
}
