// Package notify fans operator alerts out to destinations that can
// carry plain text, currently the telegram and discord publishers.
// Delivery is best-effort: a destination that is itself broken is the
// likely subject of the alert, so failures are logged and swallowed.
package notify

import (
	"context"

	"github.com/go-pkgz/lgr"
)

//go:generate moq -out mocks/poster.go -pkg mocks -skip-ensure -fmt goimports . TextPoster

// TextPoster is a destination capable of posting a raw text message
// outside the regular item pipeline.
type TextPoster interface {
	Name() string
	PostText(ctx context.Context, text string) error
}

// Alerter broadcasts operator alerts to all configured posters.
type Alerter struct {
	posters []TextPoster
}

// NewAlerter makes an alerter over the given posters. Empty list is
// fine, alerts then go to the log only.
func NewAlerter(posters ...TextPoster) *Alerter {
	return &Alerter{posters: posters}
}

// Alert sends the message to every poster. Always logged locally first
// so the alert survives even if no poster can deliver it.
func (a *Alerter) Alert(ctx context.Context, message string) {
	lgr.Printf("[WARN] alert: %s", message)

	for _, p := range a.posters {
		if err := p.PostText(ctx, "⚠️ "+message); err != nil {
			lgr.Printf("[WARN] alert to %s failed: %v", p.Name(), err)
		}
	}
}
