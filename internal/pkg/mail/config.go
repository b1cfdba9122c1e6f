package mail

import "github.com/mx-space/landing/internal/config"

// BuildConfig maps the application's mail settings onto a sender Config.
func BuildConfig(cfg *config.AppConfig) Config {
	if cfg == nil {
		return Config{}
	}
	return Config{
		Enable:    cfg.MailEnabled(),
		Host:      cfg.Mail.Host,
		Port:      cfg.Mail.Port,
		User:      cfg.Mail.User,
		Pass:      cfg.Mail.Pass,
		From:      cfg.Mail.From,
		ReplyTo:   cfg.Mail.ReplyTo,
		ResendKey: cfg.Mail.ResendKey,
	}
}
