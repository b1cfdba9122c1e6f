package config

import "time"

// AppConfig holds runtime startup configuration.
// Values come from defaults, then the YAML file, then the environment.
type AppConfig struct {
	Port           int           `yaml:"port"            env:"PORT"`
	Env            string        `yaml:"env"             env:"APP_ENV"` // "development" | "production"
	AllowedOrigins []string      `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	RateLimit      int           `yaml:"rate_limit_per_minute" env:"RATE_LIMIT_PER_MINUTE"`
	LogDir         string        `yaml:"log_dir"         env:"LOG_DIR"`
	RedisURL       string        `yaml:"redis_url"       env:"REDIS_URL"`
	Store          StoreConfig   `yaml:"store"`
	Mail           MailConfig    `yaml:"mail"`
	Site           SiteConfig    `yaml:"site"`
	Launch         LaunchConfig  `yaml:"launch"`
	ShutdownWait   time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// StoreConfig selects and configures the subscriber store.
type StoreConfig struct {
	Driver     string        `yaml:"driver"     env:"STORE_DRIVER"` // "mongo" | "memory"
	URI        string        `yaml:"uri"        env:"MONGODB_URI"`
	Database   string        `yaml:"database"   env:"MONGODB_DB"`
	Collection string        `yaml:"collection" env:"MONGODB_COLLECTION"`
	Timeout    time.Duration `yaml:"timeout"    env:"MONGODB_TIMEOUT"`
}

// MailConfig holds outbound mail transport settings.
// Enable left unset turns mail on as soon as a transport is configured.
type MailConfig struct {
	Enable    *bool  `yaml:"enable"     env:"MAIL_ENABLE"`
	Host      string `yaml:"host"       env:"MAIL_HOST"`
	Port      int    `yaml:"port"       env:"MAIL_PORT"`
	User      string `yaml:"user"       env:"MAIL_USER"`
	Pass      string `yaml:"pass"       env:"MAIL_PASS"`
	From      string `yaml:"from"       env:"MAIL_FROM"`
	ReplyTo   string `yaml:"reply_to"   env:"MAIL_REPLY_TO"`
	ResendKey string `yaml:"resend_key" env:"RESEND_API_KEY"`
}

// SiteConfig is the branding used in outgoing mail.
type SiteConfig struct {
	Name string `yaml:"name" env:"SITE_NAME"`
	URL  string `yaml:"url"  env:"SITE_URL"`
}

// LaunchConfig drives the lifecycle controller.
type LaunchConfig struct {
	Mode              string        `yaml:"mode"                env:"LAUNCH_MODE"`
	Delay             time.Duration `yaml:"delay"               env:"LAUNCH_DELAY"`
	Window            time.Duration `yaml:"window"              env:"LAUNCH_WINDOW"`
	NotifyLateSignups *bool         `yaml:"notify_late_signups" env:"LAUNCH_NOTIFY_LATE_SIGNUPS"`
}
