// Package resend implements a Provider that sends emails via the Resend API.
package resend

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"

	"github.com/shineum/mailgun-ses-bridge/internal/email"
)

// ResendProviderConfig holds the configuration for creating a ResendProvider.
type ResendProviderConfig struct {
	APIKey string
	// Sender is used when a message has no From address.
	Sender string
}

// EmailsAPI is the subset of the Resend emails service the provider uses.
type EmailsAPI interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendProvider sends emails through Resend.
type ResendProvider struct {
	sender string
	emails EmailsAPI
}

// New creates a ResendProvider authenticated with cfg.APIKey.
func New(cfg ResendProviderConfig) *ResendProvider {
	client := resend.NewClient(cfg.APIKey)
	return NewWithClient(cfg.Sender, client.Emails)
}

// NewWithClient creates a ResendProvider with a custom emails service, used for testing.
func NewWithClient(sender string, emails EmailsAPI) *ResendProvider {
	return &ResendProvider{sender: sender, emails: emails}
}

// Send delivers msg and returns the Resend email id.
func (p *ResendProvider) Send(ctx context.Context, msg *email.Message) (string, error) {
	from := msg.From
	if from == "" {
		from = p.sender
	}

	req := &resend.SendEmailRequest{
		From:    from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTMLBody,
		Text:    msg.TextBody,
		ReplyTo: msg.ReplyTo,
	}

	resp, err := p.emails.SendWithContext(ctx, req)
	if err != nil {
		return "", fmt.Errorf("resend: failed to send email: %w", err)
	}
	return resp.Id, nil
}

// Name returns the provider name.
func (p *ResendProvider) Name() string {
	return "resend"
}
