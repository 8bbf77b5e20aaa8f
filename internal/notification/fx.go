package notification

import (
	"github.com/smallbiznis/leadflow/internal/config"
	"go.uber.org/fx"
)

func NewFromConfig(cfg config.Config) EmailProvider {
	if cfg.Email.SMTPHost == "" {
		return &NoOpProvider{}
	}
	return NewSMTP(SMTPConfig{
		Host:     cfg.Email.SMTPHost,
		Port:     cfg.Email.SMTPPort,
		Username: cfg.Email.SMTPUsername,
		Password: cfg.Email.SMTPPassword,
		From:     cfg.Email.SMTPFrom,
	})
}

var Module = fx.Module("notification",
	fx.Provide(
		NewFromConfig,
		NewNotifier,
	),
)
