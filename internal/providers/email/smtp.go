package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/c3s/memberadmin/internal/config"
	"go.uber.org/zap"
)

type smtpProvider struct {
	cfg config.EmailConfig
	log *zap.Logger
}

// NewSMTPProvider sends mail through a plain SMTP relay.
func NewSMTPProvider(cfg config.EmailConfig, log *zap.Logger) Provider {
	return &smtpProvider{cfg: cfg, log: log.Named("email.smtp")}
}

func (p *smtpProvider) Send(ctx context.Context, to []string, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(to) == 0 {
		return fmt.Errorf("email: no recipients")
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", p.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", p.cfg.Host, p.cfg.Port)
	var auth smtp.Auth
	if p.cfg.Username != "" {
		auth = smtp.PlainAuth("", p.cfg.Username, p.cfg.Password, p.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, p.cfg.From, to, []byte(msg.String())); err != nil {
		p.log.Error("send failed", zap.Strings("to", to), zap.Error(err))
		return err
	}

	p.log.Info("mail sent", zap.Strings("to", to), zap.String("subject", subject))
	return nil
}
