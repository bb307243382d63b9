package email

import (
	"context"

	"go.uber.org/zap"
)

type consoleProvider struct {
	log *zap.Logger
}

// NewConsoleProvider logs messages instead of delivering them. Used in
// development and tests.
func NewConsoleProvider(log *zap.Logger) Provider {
	return &consoleProvider{log: log.Named("email.console")}
}

func (p *consoleProvider) Send(ctx context.Context, to []string, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.log.Info("mail (console mode)",
		zap.Strings("to", to),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}
