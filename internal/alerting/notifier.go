package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ratio-alerts/internal/detector"
	"ratio-alerts/internal/history"
)

// SummaryEntry 是周期播报中单个交易对的最新状态。
type SummaryEntry struct {
	Pair   string
	Sample history.Sample
}

// Notifier 定义告警输送接口。
type Notifier interface {
	SendAlert(ctx context.Context, alert detector.Alert) error
	SendSummary(ctx context.Context, entries []SummaryEntry) error
}

// TelegramNotifier 通过 Telegram Bot API 推送消息。
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier 构造 Telegram 告警器。
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// SendAlert 推送单条阈值告警。
func (n *TelegramNotifier) SendAlert(ctx context.Context, alert detector.Alert) error {
	if err := n.sendMessage(ctx, renderAlert(alert)); err != nil {
		return err
	}
	n.logger.Info().Str("pair", alert.Pair).
		Str("direction", alert.Direction.String()).
		Str("threshold_pct", alert.Threshold.String()).
		Msg("告警已发送 (Telegram)")
	return nil
}

// SendSummary 推送周期性汇总。
func (n *TelegramNotifier) SendSummary(ctx context.Context, entries []SummaryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := n.sendMessage(ctx, renderSummary(entries, time.Now().UTC())); err != nil {
		return err
	}
	n.logger.Info().Int("pairs", len(entries)).Msg("周期播报已发送 (Telegram)")
	return nil
}

func (n *TelegramNotifier) sendMessage(ctx context.Context, text string) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    text,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram 响应码异常: %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram 返回 ok=false")
		}
	}
	return nil
}

func renderAlert(alert detector.Alert) string {
	arrow := "📈"
	if alert.Direction == detector.DirectionDown {
		arrow = "📉"
	}

	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("%s Ratio Alert: %s\n\n", arrow, alert.Pair))
	builder.WriteString(fmt.Sprintf("Current Ratio: %s\n", alert.Ratio.StringFixed(8)))
	builder.WriteString(fmt.Sprintf("Change: %s%% in %s (threshold %s%%)\n", signedFixed(alert.ChangePct, 2), FormatWindow(alert.Window), alert.Threshold.StringFixed(2)))
	builder.WriteString(fmt.Sprintf("Time: %s", alert.Timestamp.UTC().Format("2006-01-02 15:04:05 UTC")))
	return builder.String()
}

func renderSummary(entries []SummaryEntry, at time.Time) string {
	builder := strings.Builder{}
	builder.WriteString("📊 Periodic Ratio Update\n")
	for _, entry := range entries {
		builder.WriteString(fmt.Sprintf("\n%s\n%s\n%s $%s / %s $%s\n",
			entry.Pair,
			entry.Sample.Ratio.StringFixed(8),
			entry.Sample.SymbolA,
			entry.Sample.PriceA.StringFixed(2),
			entry.Sample.SymbolB,
			entry.Sample.PriceB.StringFixed(2),
		))
	}
	builder.WriteString(fmt.Sprintf("\nTime: %s", at.Format("2006-01-02 15:04:05 UTC")))
	return builder.String()
}

func signedFixed(d decimal.Decimal, places int32) string {
	s := d.StringFixed(places)
	if !strings.HasPrefix(s, "-") {
		return "+" + s
	}
	return s
}

// FormatWindow 以人类可读格式输出时间窗口。
func FormatWindow(window time.Duration) string {
	seconds := int64(window.Seconds())
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm", seconds/60)
	default:
		return fmt.Sprintf("%dh", seconds/3600)
	}
}

var _ Notifier = (*TelegramNotifier)(nil)
