package observability

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestWebhookNotifier_NoAlerts(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	if err := n.Notify(context.Background(), nil); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := n.Notify(context.Background(), []Alert{}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if called {
		t.Fatal("expected no HTTP request for empty alerts")
	}
}

func TestWebhookNotifier_SendsAlerts(t *testing.T) {
	var receivedBody []byte
	var receivedContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedContentType = r.Header.Get("Content-Type")
		receivedBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	at := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	alerts := []Alert{
		{ID: "overloaded-alice", Condition: ConditionResourceOverloaded, Severity: SeverityHigh, Message: "alice is at 125% utilization", TriggeredAt: at},
		{ID: "estimate-accuracy", Condition: ConditionLowAccuracy, Severity: SeverityLow, Message: "estimate accuracy is 33%", TriggeredAt: at},
	}

	if err := NewWebhookNotifier(srv.URL).Notify(context.Background(), alerts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if receivedContentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", receivedContentType)
	}

	var msg webhookMessage
	if err := json.Unmarshal(receivedBody, &msg); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if msg.Text != "pulse: 2 alerts (1 high, 0 medium, 1 low)" {
		t.Errorf("Text = %q", msg.Text)
	}
	// header + section + divider + section
	if len(msg.Blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d", len(msg.Blocks))
	}
	if msg.Blocks[0].Type != "header" || msg.Blocks[2].Type != "divider" {
		t.Errorf("unexpected block layout: %+v", msg.Blocks)
	}
	if !strings.Contains(msg.Blocks[1].Text.Text, "*[HIGH]* alice is at 125% utilization") {
		t.Errorf("first section = %q", msg.Blocks[1].Text.Text)
	}
	if !strings.Contains(msg.Blocks[3].Text.Text, "2025-01-15 10:30 UTC") {
		t.Errorf("second section = %q", msg.Blocks[3].Text.Text)
	}
}

func TestWebhookNotifier_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(srv.URL).Notify(context.Background(), []Alert{{ID: "x", Severity: SeverityLow}})
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected status 403 error, got %v", err)
	}
}

func TestWebhookNotifier_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewWebhookNotifier(srv.URL).Notify(ctx, []Alert{{ID: "x"}}); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestSeverityEmoji(t *testing.T) {
	seen := map[string]bool{}
	for _, s := range []AlertSeverity{SeverityHigh, SeverityMedium, SeverityLow, "unknown"} {
		e := severityEmoji(s)
		if e == "" || seen[e] {
			t.Errorf("severityEmoji(%q) = %q, want distinct non-empty", s, e)
		}
		seen[e] = true
	}
}
