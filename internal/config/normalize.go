package config

import "strings"

func normalizeStoreConfig(cfg StoreConfig) StoreConfig {
	cfg.Driver = strings.ToLower(strings.TrimSpace(cfg.Driver))
	cfg.URI = strings.TrimSpace(cfg.URI)
	cfg.Database = strings.TrimSpace(cfg.Database)
	cfg.Collection = strings.TrimSpace(cfg.Collection)

	if cfg.Driver == "" {
		cfg.Driver = defaultStoreDriver
	}
	if cfg.URI == "" {
		cfg.URI = defaultMongoURI
	}
	if cfg.Database == "" {
		cfg.Database = defaultMongoDB
	}
	if cfg.Collection == "" {
		cfg.Collection = defaultMongoColl
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultMongoTimeout
	}
	return cfg
}

func normalizeMailConfig(cfg MailConfig) MailConfig {
	cfg.Host = strings.TrimSpace(cfg.Host)
	cfg.User = strings.TrimSpace(cfg.User)
	cfg.From = strings.TrimSpace(cfg.From)
	cfg.ReplyTo = strings.TrimSpace(cfg.ReplyTo)
	cfg.ResendKey = strings.TrimSpace(cfg.ResendKey)

	if cfg.Port == 0 {
		cfg.Port = defaultMailPort
	}
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	if cfg.Enable == nil {
		enabled := cfg.Host != "" || cfg.ResendKey != ""
		cfg.Enable = &enabled
	}
	return cfg
}

func normalizeSiteConfig(cfg SiteConfig) SiteConfig {
	cfg.Name = strings.TrimSpace(cfg.Name)
	cfg.URL = strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if cfg.Name == "" {
		cfg.Name = defaultSiteName
	}
	return cfg
}

func normalizeLaunchConfig(cfg LaunchConfig) LaunchConfig {
	cfg.Mode = strings.ToLower(strings.TrimSpace(cfg.Mode))
	cfg.Mode = strings.ReplaceAll(cfg.Mode, "-", "_")
	if cfg.Mode == "" {
		cfg.Mode = defaultLaunchMode
	}
	if cfg.Delay == 0 {
		if cfg.Mode == LaunchFixed {
			cfg.Delay = defaultFixedDelay
		} else {
			cfg.Delay = defaultLaunchDelay
		}
	}
	if cfg.Window == 0 {
		cfg.Window = defaultLaunchWindow
	}
	if cfg.NotifyLateSignups == nil {
		notify := true
		cfg.NotifyLateSignups = &notify
	}
	return cfg
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(env string) string {
	trimmed := strings.ToLower(strings.TrimSpace(env))
	if trimmed == "" {
		return defaultEnv
	}
	return trimmed
}
