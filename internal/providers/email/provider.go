// Package email delivers transactional mail for the membership backend.
package email

import "context"

// Provider sends a single plain-text message.
type Provider interface {
	Send(ctx context.Context, to []string, subject, body string) error
}
