// Package provider defines the interface for email delivery backends.
package provider

import (
	"context"

	"github.com/shineum/mailgun-ses-bridge/internal/email"
)

// Provider is the interface that email delivery backends must implement.
// Each provider delivers a single-recipient message to the target service
// (e.g., AWS SES, Microsoft Graph, Resend, stdout).
type Provider interface {
	// Send delivers msg and returns the identifier the backend assigned to it.
	// Any retry or throttling is the backend's own business.
	Send(ctx context.Context, msg *email.Message) (string, error)

	// Name returns the human-readable name of this provider.
	Name() string
}
