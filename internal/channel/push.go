package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/subwatch/reminder-dispatch/internal/domain"
)

// PushDispatcher posts reminder payloads to the push endpoint stored in
// each user's subscription record, authenticating with the process-wide
// VAPID keypair. Endpoints answer 201 (or 200/202 depending on the push
// service) on acceptance.
type PushDispatcher struct {
	publicKey  string
	privateKey string
	subject    string // mailto: contact required by the push protocol
	httpClient *http.Client
}

func NewPushDispatcher(publicKey, privateKey, subject string, timeout time.Duration) *PushDispatcher {
	return &PushDispatcher{
		publicKey:  publicKey,
		privateKey: privateKey,
		subject:    subject,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Configured reports whether the VAPID keypair is present. Without it
// the push channel is silently unavailable.
func (p *PushDispatcher) Configured() bool {
	return p.publicKey != "" && p.privateKey != ""
}

func (p *PushDispatcher) Send(ctx context.Context, sub *domain.PushSubscription, payload PushPayload) error {
	if !p.Configured() {
		return fmt.Errorf("push credentials not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("TTL", "86400")
	req.Header.Set("Authorization", "vapid t="+p.privateKey+", k="+p.publicKey)
	req.Header.Set("X-WebPush-Subject", p.subject)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("push send: %w", err)
	}
	defer resp.Body.Close()

	// 404/410 mean the registration is gone; surfaced like any other
	// failure so the batch records it and moves on.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("push endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

var _ PushSender = (*PushDispatcher)(nil)
