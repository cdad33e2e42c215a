// Package channel contains the independent delivery channels. Each
// dispatcher fails in isolation: a push error never aborts the email
// attempt and vice versa.
package channel

import (
	"context"

	"github.com/subwatch/reminder-dispatch/internal/domain"
)

// PushPayload is the JSON wire shape posted to a push endpoint.
type PushPayload struct {
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Icon  string   `json:"icon"`
	Badge string   `json:"badge"`
	Tag   string   `json:"tag"`
	Data  PushData `json:"data"`
}

// PushData carries the deep-link context the client uses on tap.
type PushData struct {
	SubscriptionID string `json:"subscriptionId"`
	LeadDays       int    `json:"leadDays"`
	URL            string `json:"url"`
}

// ReminderTag identifies renewal reminders to the client so repeated
// pushes for the same item replace each other instead of stacking.
const ReminderTag = "subscription-reminder"

// Message is a fully rendered email: both HTML and plain-text bodies are
// always populated.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// PushSender delivers a payload to a stored device registration.
// Configured reports whether process-wide push credentials exist; an
// unconfigured sender is skipped, never an error.
type PushSender interface {
	Configured() bool
	Send(ctx context.Context, sub *domain.PushSubscription, payload PushPayload) error
}

// EmailSender delivers a rendered message through the email provider.
type EmailSender interface {
	Configured() bool
	Send(ctx context.Context, msg Message) error
}
