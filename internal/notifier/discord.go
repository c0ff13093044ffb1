package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Color represents Discord embed colors
type Color int

const (
	ColorGreen  Color = 5763719  // 0x57f287
	ColorYellow Color = 16776960 // 0xffff00
	ColorRed    Color = 15548997 // 0xed4245
)

// MaxFields is the Discord limit of fields per embed.
const MaxFields = 25

// ErrTooManyFields is returned by Send when an embed would exceed MaxFields.
var ErrTooManyFields = errors.New("too many embed fields")

// Field represents a Discord embed field
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Notifier sends notifications
type Notifier interface {
	Send(ctx context.Context, title, message string, color Color, fields []Field) error
}

// httpClient abstracts HTTP operations (ISP)
type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// DiscordNotifier posts embeds to a Discord webhook
type DiscordNotifier struct {
	webhookURL string
	username   string
	client     httpClient
	now        func() time.Time
}

// Option configures DiscordNotifier
type Option func(*DiscordNotifier)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(c httpClient) Option {
	return func(n *DiscordNotifier) {
		n.client = c
	}
}

// WithUsername sets the name the webhook posts as.
func WithUsername(name string) Option {
	return func(n *DiscordNotifier) {
		n.username = name
	}
}

// WithClock sets the time source for embed timestamps.
func WithClock(now func() time.Time) Option {
	return func(n *DiscordNotifier) {
		n.now = now
	}
}

// NewDiscordNotifier creates a notifier for webhookURL
func NewDiscordNotifier(webhookURL string, opts ...Option) *DiscordNotifier {
	n := &DiscordNotifier{
		webhookURL: webhookURL,
		username:   "memtree",
		client:     http.DefaultClient,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// webhookPayload is the Discord webhook JSON structure
type webhookPayload struct {
	Username string  `json:"username"`
	Embeds   []embed `json:"embeds"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Color       int          `json:"color"`
	Fields      []embedField `json:"fields,omitempty"`
	Timestamp   string       `json:"timestamp"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

func (d *DiscordNotifier) payload(title, message string, color Color, fields []Field) webhookPayload {
	ef := make([]embedField, len(fields))
	for i, f := range fields {
		ef[i] = embedField(f)
	}
	return webhookPayload{
		Username: d.username,
		Embeds: []embed{{
			Title:       title,
			Description: message,
			Color:       int(color),
			Fields:      ef,
			Timestamp:   d.now().UTC().Format(time.RFC3339),
		}},
	}
}

// Send posts one embed. It refuses embeds Discord would reject rather than
// dropping fields.
func (d *DiscordNotifier) Send(ctx context.Context, title, message string, color Color, fields []Field) error {
	if len(fields) > MaxFields {
		return fmt.Errorf("%w: %d > %d", ErrTooManyFields, len(fields), MaxFields)
	}

	body, err := json.Marshal(d.payload(title, message, color, fields))
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if msg := strings.TrimSpace(string(detail)); msg != "" {
			return fmt.Errorf("discord API error: status %d: %s", resp.StatusCode, msg)
		}
		return fmt.Errorf("discord API error: status %d", resp.StatusCode)
	}

	return nil
}
