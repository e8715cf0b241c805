package publisher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/feedrelay/feedrelay/pkg/domain"
)

// TelegramConfig holds everything the Telegram publisher needs.
type TelegramConfig struct {
	Token      string
	ChatID     string
	SummaryMax int           // message length cap, 0 for telegram's default
	Timeout    time.Duration // per-request timeout
	Retries    int
	RetryDelay time.Duration
}

// Telegram posts items to a chat via the Bot API sendMessage call.
type Telegram struct {
	TelegramConfig
	client  *http.Client
	baseURL string // overridable in tests
}

// NewTelegram creates a Telegram publisher from typed configuration.
func NewTelegram(cfg TelegramConfig) *Telegram {
	if cfg.SummaryMax <= 0 {
		cfg.SummaryMax = 4000 // hard API limit is 4096
	}
	return &Telegram{
		TelegramConfig: cfg,
		client:         newClient(cfg.Timeout),
		baseURL:        "https://api.telegram.org",
	}
}

// Name implements the publisher contract.
func (t *Telegram) Name() string { return "telegram" }

// Publish delivers one item as an HTML-formatted message.
func (t *Telegram) Publish(ctx context.Context, item domain.Item) error {
	lgr.Printf("[DEBUG] telegram publish %q", item.Title)
	return t.sendMessage(ctx, t.render(item))
}

// PostText sends a raw HTML text message, used for operator alerts and
// service notices.
func (t *Telegram) PostText(ctx context.Context, text string) error {
	return t.sendMessage(ctx, text)
}

// Close releases idle connections.
func (t *Telegram) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

func (t *Telegram) sendMessage(ctx context.Context, text string) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.Token)
	form := url.Values{
		"chat_id":                  {t.ChatID},
		"text":                     {text},
		"parse_mode":               {"HTML"},
		"disable_web_page_preview": {"true"},
	}

	err := send(ctx, t.client, t.Retries, t.RetryDelay, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func (t *Telegram) render(item domain.Item) string {
	htmlItem := item
	htmlItem.Title = "<b>" + escapeHTML(item.Title) + "</b>"
	htmlItem.Body = escapeHTML(item.Body)
	return Message(htmlItem, t.SummaryMax)
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escapeHTML(s string) string { return htmlEscaper.Replace(s) }
