// Package telegram is a minimal Telegram Bot API client covering the two
// calls this system needs: sendMessage for code delivery and getUpdates for
// the long-polling conversation loop. No bot framework is involved; the
// surface is small enough that plain HTTP keeps the dependency weight down.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"kiosk/internal/authcode/models"
)

const defaultBaseURL = "https://api.telegram.org"

// Client talks to the Telegram Bot API on behalf of one bot token.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
}

// Option adjusts a Client.
type Option func(*Client)

// WithBaseURL redirects API calls, used by tests against httptest servers.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// New builds a Client. The timeout must exceed the long-poll window passed to
// GetUpdates or polls will be cut short client-side.
func New(token string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		token:   token,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Update is one inbound event from getUpdates. Only message updates matter
// here; everything else is skipped by the poller.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message is an inbound chat message.
type Message struct {
	Text string `json:"text"`
	From *struct {
		ID int64 `json:"id"`
	} `json:"from"`
	Chat struct {
		ID int64 `json:"id"`
	} `json:"chat"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// Send delivers a text message to the chat. Implements notify.Notifier.
func (c *Client) Send(ctx context.Context, chatID models.ChatID, text string) error {
	payload := map[string]any{
		"chat_id": int64(chatID),
		"text":    text,
	}
	_, err := c.call(ctx, "sendMessage", payload)
	return err
}

// GetUpdates long-polls for inbound updates past the given offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	payload := map[string]any{
		"offset":          offset,
		"timeout":         int(timeout.Seconds()),
		"allowed_updates": []string{"message"},
	}
	raw, err := c.call(ctx, "getUpdates", payload)
	if err != nil {
		return nil, err
	}

	var updates []Update
	if err := json.Unmarshal(raw, &updates); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}
	return updates, nil
}

func (c *Client) call(ctx context.Context, method string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", method, err)
	}
	if !api.OK {
		return nil, fmt.Errorf("%s: telegram API error: %s", method, api.Description)
	}
	return api.Result, nil
}
