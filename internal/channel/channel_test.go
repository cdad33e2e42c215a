package channel_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/subwatch/reminder-dispatch/internal/channel"
	"github.com/subwatch/reminder-dispatch/internal/domain"
)

func TestPushDispatcher_Send(t *testing.T) {
	var got channel.PushPayload
	var gotTTL, gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTTL = r.Header.Get("TTL")
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	p := channel.NewPushDispatcher("pub-key", "priv-key", "mailto:ops@example.com", time.Second)
	sub := &domain.PushSubscription{UserID: "u1", Endpoint: srv.URL, P256dh: "k", Auth: "a"}

	payload := channel.PushPayload{
		Title: "Subscription reminder",
		Body:  "Netflix renews TODAY",
		Tag:   channel.ReminderTag,
		Data:  channel.PushData{SubscriptionID: "sub-1", LeadDays: 0, URL: "https://app/x"},
	}
	if err := p.Send(context.Background(), sub, payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Tag != channel.ReminderTag || got.Data.SubscriptionID != "sub-1" {
		t.Fatalf("payload = %+v", got)
	}
	if gotTTL != "86400" {
		t.Fatalf("TTL = %q", gotTTL)
	}
	if !strings.Contains(gotAuth, "pub-key") {
		t.Fatalf("Authorization = %q", gotAuth)
	}
}

func TestPushDispatcher_EndpointError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusGone) // registration expired
	}))
	defer srv.Close()

	p := channel.NewPushDispatcher("pub", "priv", "mailto:x@y", time.Second)
	sub := &domain.PushSubscription{Endpoint: srv.URL}

	err := p.Send(context.Background(), sub, channel.PushPayload{})
	if err == nil || !strings.Contains(err.Error(), "410") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestPushDispatcher_Configured(t *testing.T) {
	if channel.NewPushDispatcher("", "", "s", time.Second).Configured() {
		t.Fatal("expected unconfigured without keys")
	}
	if !channel.NewPushDispatcher("pub", "priv", "s", time.Second).Configured() {
		t.Fatal("expected configured with keypair")
	}
}

func TestEmailDispatcher_Send(t *testing.T) {
	var body map[string]string
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	e := channel.NewEmailDispatcher(srv.URL, "api-key", "reminders@example.com", time.Second)
	msg := channel.Message{To: "u@example.com", Subject: "s", HTML: "<p>h</p>", Text: "t"}

	if err := e.Send(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer api-key" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if body["from"] != "reminders@example.com" || body["to"] != "u@example.com" {
		t.Fatalf("body = %v", body)
	}
	if body["html"] == "" || body["text"] == "" {
		t.Fatal("expected both body variants posted")
	}
}

func TestEmailDispatcher_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	e := channel.NewEmailDispatcher(srv.URL, "k", "f@x", time.Second)
	err := e.Send(context.Background(), channel.Message{To: "u@example.com"})
	if err == nil || !strings.Contains(err.Error(), "422") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestEmailDispatcher_Configured(t *testing.T) {
	if channel.NewEmailDispatcher("url", "", "f", time.Second).Configured() {
		t.Fatal("expected unconfigured without api key")
	}
	if channel.NewEmailDispatcher("url", "k", "", time.Second).Configured() {
		t.Fatal("expected unconfigured without from address")
	}
	if !channel.NewEmailDispatcher("url", "k", "f", time.Second).Configured() {
		t.Fatal("expected configured with both")
	}
}

func TestRenderReminderEmail(t *testing.T) {
	tests := []struct {
		lead int
		want string
	}{
		{0, "renews TODAY"},
		{1, "renews TOMORROW"},
		{7, "renews in 7 days"},
	}
	for _, tc := range tests {
		msg := channel.RenderReminderEmail("u@example.com", "Netflix", tc.lead, "2024-12-25", "https://app/s/1")
		if !strings.Contains(msg.Subject, tc.want) {
			t.Fatalf("lead %d: subject %q missing %q", tc.lead, msg.Subject, tc.want)
		}
		if !strings.Contains(msg.HTML, tc.want) || !strings.Contains(msg.Text, tc.want) {
			t.Fatalf("lead %d: bodies missing bucket phrase", tc.lead)
		}
	}
}

func TestRenderReminderEmail_EscapesHTML(t *testing.T) {
	msg := channel.RenderReminderEmail("u@x", `<script>alert(1)</script>`, 0, "2024-12-25", "https://app")
	if strings.Contains(msg.HTML, "<script>") {
		t.Fatal("item name must be escaped in the HTML body")
	}
}
