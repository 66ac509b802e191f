package watch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/polyinsider/sonar/internal/store"
)

// Discord embed accent colors.
const (
	discordColorWhale = 0xE74C3C // red for whale-sized trades
	discordColorAlert = 0xF39C12 // orange for everything else
)

// DiscordNotifier delivers alerts through a webhook as rich embeds.
type DiscordNotifier struct {
	webhookURL string
	whaleUSD   float64
	client     *http.Client
}

// NewDiscordNotifier creates a notifier posting to the given webhook.
// Trades at or above whaleUSD get the whale accent color.
func NewDiscordNotifier(webhookURL string, whaleUSD float64) *DiscordNotifier {
	return &DiscordNotifier{
		webhookURL: webhookURL,
		whaleUSD:   whaleUSD,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *DiscordNotifier) Name() string { return "discord" }

type discordEmbed struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Color       int                 `json:"color"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// SendAlert posts the trade as an embed with per-field breakdown.
func (n *DiscordNotifier) SendAlert(ctx context.Context, t store.Trade) error {
	color := discordColorAlert
	if t.USDValue >= n.whaleUSD {
		color = discordColorWhale
	}

	embed := discordEmbed{
		Title:       t.Alert,
		Description: t.MarketName,
		Color:       color,
		Fields: []discordEmbedField{
			{Name: "Position", Value: fmt.Sprintf("%s %s @ %.4f", t.Side, t.Outcome, t.Price), Inline: true},
			{Name: "Value", Value: fmt.Sprintf("$%.2f", t.USDValue), Inline: true},
			{Name: "Score", Value: fmt.Sprintf("%.2f", t.Score), Inline: true},
		},
		Timestamp: t.Timestamp.UTC().Format(time.RFC3339),
	}

	return n.post(ctx, map[string]any{"embeds": []discordEmbed{embed}})
}

// SendText posts a plain content message.
func (n *DiscordNotifier) SendText(ctx context.Context, text string) error {
	return n.post(ctx, map[string]any{"content": text})
}

func (n *DiscordNotifier) post(ctx context.Context, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("discord request: %w", err)
	}
	defer resp.Body.Close()

	// Webhooks return 204 on success; some proxies rewrite to 200.
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("discord status %d: %s", resp.StatusCode, msg)
	}
	return nil
}
