package ledger

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process Ledger used in unit tests and in the
// no-database development mode. Safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	sent map[string]bool

	// Optional error overrides, set in tests to simulate failure paths.
	WasSentErr  error
	MarkSentErr error
}

func NewMemory() *Memory {
	return &Memory{sent: make(map[string]bool)}
}

func key(snapshotID, billingDate string, leadDays int) string {
	return fmt.Sprintf("%s|%s|%d", snapshotID, billingDate, leadDays)
}

func (m *Memory) WasSent(_ context.Context, snapshotID, billingDate string, leadDays int) (bool, error) {
	if m.WasSentErr != nil {
		return false, m.WasSentErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sent[key(snapshotID, billingDate, leadDays)], nil
}

func (m *Memory) MarkSent(_ context.Context, snapshotID, billingDate string, leadDays int) error {
	if m.MarkSentErr != nil {
		return m.MarkSentErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent[key(snapshotID, billingDate, leadDays)] = true
	return nil
}

// Len returns how many keys have been marked sent.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sent)
}

var _ Ledger = (*Memory)(nil)
