package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Webhook posts requests to a Slack-compatible incoming webhook.
type Webhook struct {
	URL    string
	Client *http.Client
}

// NewWebhook creates a webhook transport.
func NewWebhook(rawURL string) *Webhook {
	return &Webhook{URL: rawURL, Client: &http.Client{Timeout: 10 * time.Second}}
}

func (w *Webhook) Name() string { return ChannelWebhook }

func (w *Webhook) Configured() bool {
	u, err := url.Parse(w.URL)
	return err == nil && (u.Scheme == "https" || u.Scheme == "http") && u.Host != ""
}

// WebhookText formats a request as chat markdown.
func WebhookText(req Request) string {
	lines := []string{"🔔 *Inventory Notification*"}
	if req.ItemName != "" {
		lines = append(lines, "• Item: "+req.ItemName)
	} else {
		lines = append(lines, "• Item ID: "+req.ItemID)
	}
	if req.Note != "" {
		lines = append(lines, "• Note: "+req.Note)
	}
	if req.PurchaseLink != "" {
		lines = append(lines, "• Buy: "+req.PurchaseLink)
	}
	if req.Link != "" {
		lines = append(lines, "• Link: "+req.Link)
	}
	return strings.Join(lines, "\n")
}

func (w *Webhook) Send(ctx context.Context, req Request) (*Result, error) {
	body, err := json.Marshal(map[string]string{"text": WebhookText(req)})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Channel: ChannelWebhook, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := w.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Channel: ChannelWebhook, Err: err}
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		slog.Warn("failed to read webhook response", "error", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{Channel: ChannelWebhook, Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))}
	}

	host := httpReq.URL.Host
	return &Result{
		Channel:     ChannelWebhook,
		Accepted:    []string{host},
		Rejected:    []string{},
		TransportID: resp.Header.Get("X-Slack-Req-Id"),
	}, nil
}
