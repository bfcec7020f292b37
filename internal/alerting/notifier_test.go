package alerting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ratio-alerts/internal/detector"
	"ratio-alerts/internal/history"
)

func testAlert() detector.Alert {
	return detector.Alert{
		Pair:      "BTC/ETH",
		Ratio:     decimal.RequireFromString("20.11627907"),
		ChangePct: decimal.RequireFromString("12.34"),
		Threshold: decimal.NewFromInt(10),
		Direction: detector.DirectionUp,
		Window:    5 * time.Minute,
		Timestamp: time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC),
	}
}

func TestSendAlert(t *testing.T) {
	var captured struct {
		ChatID string `json:"chat_id"`
		Text   string `json:"text"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottest-token/sendMessage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	notifier := NewTelegramNotifier("test-token", "chat-42", server.URL, 2*time.Second, zerolog.Nop())
	if err := notifier.SendAlert(context.Background(), testAlert()); err != nil {
		t.Fatalf("SendAlert 失败: %v", err)
	}

	if captured.ChatID != "chat-42" {
		t.Fatalf("unexpected chat id %q", captured.ChatID)
	}
	for _, want := range []string{
		"📈 Ratio Alert: BTC/ETH",
		"Current Ratio: 20.11627907",
		"+12.34% in 5m (threshold 10.00%)",
		"2026-08-24 12:00:00 UTC",
	} {
		if !strings.Contains(captured.Text, want) {
			t.Fatalf("alert text missing %q:\n%s", want, captured.Text)
		}
	}
}

func TestSendAlertDownDirection(t *testing.T) {
	var text string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Text string `json:"text"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		text = payload.Text
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	alert := testAlert()
	alert.Direction = detector.DirectionDown
	alert.ChangePct = decimal.RequireFromString("-12.34")

	notifier := NewTelegramNotifier("test-token", "chat-42", server.URL, 2*time.Second, zerolog.Nop())
	if err := notifier.SendAlert(context.Background(), alert); err != nil {
		t.Fatalf("SendAlert 失败: %v", err)
	}
	if !strings.Contains(text, "📉") {
		t.Fatalf("down alert should use 📉:\n%s", text)
	}
	if !strings.Contains(text, "-12.34%") {
		t.Fatalf("down alert should carry the signed change:\n%s", text)
	}
}

func TestSendSummary(t *testing.T) {
	var text string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Text string `json:"text"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		text = payload.Text
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	entries := []SummaryEntry{
		{
			Pair: "BTC/ETH",
			Sample: history.Sample{
				Pair:    "BTC/ETH",
				Ratio:   decimal.RequireFromString("20.11627907"),
				SymbolA: "BTCUSDT",
				SymbolB: "ETHUSDT",
				PriceA:  decimal.RequireFromString("43250"),
				PriceB:  decimal.RequireFromString("2150"),
			},
		},
	}

	notifier := NewTelegramNotifier("test-token", "chat-42", server.URL, 2*time.Second, zerolog.Nop())
	if err := notifier.SendSummary(context.Background(), entries); err != nil {
		t.Fatalf("SendSummary 失败: %v", err)
	}
	for _, want := range []string{
		"📊 Periodic Ratio Update",
		"BTC/ETH",
		"20.11627907",
		"BTCUSDT $43250.00 / ETHUSDT $2150.00",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("summary text missing %q:\n%s", want, text)
		}
	}
}

func TestSendSummaryEmptySkipsRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("empty summary must not hit the API")
	}))
	defer server.Close()

	notifier := NewTelegramNotifier("test-token", "chat-42", server.URL, 2*time.Second, zerolog.Nop())
	if err := notifier.SendSummary(context.Background(), nil); err != nil {
		t.Fatalf("SendSummary 失败: %v", err)
	}
}

func TestSendAlertHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	notifier := NewTelegramNotifier("bad-token", "chat-42", server.URL, 2*time.Second, zerolog.Nop())
	if err := notifier.SendAlert(context.Background(), testAlert()); err == nil {
		t.Fatal("expected an error for a 403 response")
	}
}

func TestSendAlertOKFalse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer server.Close()

	notifier := NewTelegramNotifier("test-token", "missing", server.URL, 2*time.Second, zerolog.Nop())
	if err := notifier.SendAlert(context.Background(), testAlert()); err == nil {
		t.Fatal("expected an error when telegram reports ok=false")
	}
}

func TestFormatWindow(t *testing.T) {
	cases := []struct {
		window time.Duration
		want   string
	}{
		{30 * time.Second, "30s"},
		{5 * time.Minute, "5m"},
		{90 * time.Minute, "1h"},
		{2 * time.Hour, "2h"},
	}
	for _, tc := range cases {
		if got := FormatWindow(tc.window); got != tc.want {
			t.Fatalf("FormatWindow(%s) = %q, want %q", tc.window, got, tc.want)
		}
	}
}
