package watch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"time"

	"github.com/polyinsider/sonar/internal/store"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramNotifier delivers alerts through the Bot API sendMessage call.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

// NewTelegramNotifier creates a notifier for the given bot and chat.
func NewTelegramNotifier(botToken, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  telegramAPIBase,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *TelegramNotifier) Name() string { return "telegram" }

// SendAlert formats the trade with HTML markup and sends it.
func (n *TelegramNotifier) SendAlert(ctx context.Context, t store.Trade) error {
	text := fmt.Sprintf(
		"🚨 <b>%s</b>\n📊 %s\n🎯 %s %s @ %.4f\n💰 $%.2f (%.0f shares)\n⭐ Score: %.2f",
		html.EscapeString(t.Alert), html.EscapeString(t.MarketName),
		t.Side, t.Outcome, t.Price, t.USDValue, t.Size, t.Score)
	return n.SendText(ctx, text)
}

// SendText posts one HTML-formatted message to the configured chat.
func (n *TelegramNotifier) SendText(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]any{
		"chat_id":                  n.chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram status %d: %s", resp.StatusCode, body)
	}
	return nil
}
