package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"time"

	"github.com/subwatch/reminder-dispatch/internal/domain"
)

// EmailDispatcher delivers mail through an HTTP email API. The base URL
// is injected from config so tests can point to a local mock.
type EmailDispatcher struct {
	baseURL    string
	apiKey     string
	from       string
	httpClient *http.Client
}

func NewEmailDispatcher(baseURL, apiKey, from string, timeout time.Duration) *EmailDispatcher {
	return &EmailDispatcher{
		baseURL:    baseURL,
		apiKey:     apiKey,
		from:       from,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Configured reports whether the sending credential and verified from
// address are present.
func (e *EmailDispatcher) Configured() bool {
	return e.apiKey != "" && e.from != ""
}

// sendRequest is the JSON body posted to the email API.
type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

func (e *EmailDispatcher) Send(ctx context.Context, msg Message) error {
	if !e.Configured() {
		return fmt.Errorf("email credentials not configured")
	}

	body, err := json.Marshal(sendRequest{
		From:    e.from,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("marshal email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("email send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("email provider returned status %d", resp.StatusCode)
	}
	return nil
}

var _ EmailSender = (*EmailDispatcher)(nil)

// RenderReminderEmail builds the subject and both bodies for a renewal
// reminder from the lead-day bucket.
func RenderReminderEmail(to, itemName string, lead int, billingDate, url string) Message {
	phrase := domain.RenewalPhrase(lead)
	subject := fmt.Sprintf("%s %s", itemName, phrase)

	text := fmt.Sprintf("Your subscription %s %s (%s).\n\nManage it here: %s\n",
		itemName, phrase, billingDate, url)

	htmlBody := fmt.Sprintf(
		`<p>Your subscription <strong>%s</strong> %s (%s).</p><p><a href="%s">Manage subscription</a></p>`,
		html.EscapeString(itemName), phrase, billingDate, url)

	return Message{To: to, Subject: subject, HTML: htmlBody, Text: text}
}

// RenderDigestEmail builds the weekly digest summary. totalCents is the
// user's current monthly recurring total across active subscriptions.
func RenderDigestEmail(to string, count int, totalCents int64, currency string) Message {
	total := fmt.Sprintf("%d.%02d %s", totalCents/100, totalCents%100, currency)
	subject := "Your weekly subscription digest"

	text := fmt.Sprintf("You have %d active subscriptions totalling %s per month.\n", count, total)
	htmlBody := fmt.Sprintf(
		`<p>You have <strong>%d</strong> active subscriptions totalling <strong>%s</strong> per month.</p>`,
		count, total)

	return Message{To: to, Subject: subject, HTML: htmlBody, Text: text}
}
