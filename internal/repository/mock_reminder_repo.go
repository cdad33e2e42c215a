package repository

import (
	"context"
	"sync"

	"github.com/subwatch/reminder-dispatch/internal/domain"
)

// MockReminderRepository is a hand-written, in-memory implementation of
// ReminderRepository used in unit tests. No mock-generation library needed.
type MockReminderRepository struct {
	mu sync.RWMutex

	Snapshots     []*domain.ReminderSnapshot
	Settings      map[string]*domain.NotificationSettings
	Emails        map[string]string
	Zones         map[string]string
	PushSubs      map[string]*domain.PushSubscription
	Subscriptions map[string][]*domain.Subscription

	// Optional error overrides, set in tests to simulate failure paths.
	ListActiveSnapshotsErr error
	UserZoneErr            error
}

func NewMockReminderRepository() *MockReminderRepository {
	return &MockReminderRepository{
		Settings:      make(map[string]*domain.NotificationSettings),
		Emails:        make(map[string]string),
		Zones:         make(map[string]string),
		PushSubs:      make(map[string]*domain.PushSubscription),
		Subscriptions: make(map[string][]*domain.Subscription),
	}
}

func (m *MockReminderRepository) ListActiveSnapshots(_ context.Context) ([]*domain.ReminderSnapshot, error) {
	if m.ListActiveSnapshotsErr != nil {
		return nil, m.ListActiveSnapshotsErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var active []*domain.ReminderSnapshot
	for _, s := range m.Snapshots {
		if s.IsActive {
			active = append(active, s)
		}
	}
	return active, nil
}

func (m *MockReminderRepository) NotificationSettings(_ context.Context, userID string) (*domain.NotificationSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ns, ok := m.Settings[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *ns
	return &clone, nil
}

func (m *MockReminderRepository) UserEmail(_ context.Context, userID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Emails[userID], nil
}

func (m *MockReminderRepository) UserZone(_ context.Context, userID string) (string, error) {
	if m.UserZoneErr != nil {
		return "", m.UserZoneErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Zones[userID], nil
}

func (m *MockReminderRepository) PushSubscription(_ context.Context, userID string) (*domain.PushSubscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sub, ok := m.PushSubs[userID]
	if !ok {
		return nil, domain.ErrNoPushSubscription
	}
	clone := *sub
	return &clone, nil
}

func (m *MockReminderRepository) DigestRecipients(_ context.Context) ([]*domain.NotificationSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var recipients []*domain.NotificationSettings
	for _, ns := range m.Settings {
		if ns.WeeklyDigest && ns.Enabled && ns.HasChannel(domain.ChannelEmail) {
			clone := *ns
			recipients = append(recipients, &clone)
		}
	}
	return recipients, nil
}

func (m *MockReminderRepository) ActiveSubscriptions(_ context.Context, userID string) ([]*domain.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var active []*domain.Subscription
	for _, s := range m.Subscriptions[userID] {
		if s.IsActive {
			clone := *s
			active = append(active, &clone)
		}
	}
	return active, nil
}

var _ ReminderRepository = (*MockReminderRepository)(nil)
