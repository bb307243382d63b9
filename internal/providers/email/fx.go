package email

import (
	"github.com/c3s/memberadmin/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.email",
	fx.Provide(New),
)

// New selects the provider from configuration.
func New(cfg config.Config, log *zap.Logger) Provider {
	if cfg.Email.Mode == config.EmailModeSMTP {
		return NewSMTPProvider(cfg.Email, log)
	}
	return NewConsoleProvider(log)
}
