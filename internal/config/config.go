package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load builds the runtime config.
//
// Layers are applied in order: built-in defaults, the YAML file at configPath,
// dotenv files (".env" when none are given) and finally the process environment.
// A missing file at DefaultConfigPath is not an error; any other missing path is.
func Load(configPath string, envFiles ...string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := defaultAppConfig()

	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && path == DefaultConfigPath:
	default:
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	if err := loadDotEnv(envFiles); err != nil {
		return nil, err
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func loadDotEnv(files []string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load env file %q: %w", file, err)
		}
	}
	return nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
	}
}

func (c *AppConfig) normalize() {
	c.Env = normalizeEnv(c.Env)
	c.AllowedOrigins = normalizeOrigins(c.AllowedOrigins)
	c.LogDir = strings.TrimSpace(c.LogDir)
	c.RedisURL = strings.TrimSpace(c.RedisURL)
	c.Store = normalizeStoreConfig(c.Store)
	c.Mail = normalizeMailConfig(c.Mail)
	c.Site = normalizeSiteConfig(c.Site)
	c.Launch = normalizeLaunchConfig(c.Launch)
	if c.ShutdownWait <= 0 {
		c.ShutdownWait = defaultShutdownWait
	}
}

func (c *AppConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range, expected 1-65535", c.Port)
	}
	switch c.Store.Driver {
	case StoreMongo, StoreMemory:
	default:
		return fmt.Errorf("unknown store driver %q, expected %q or %q", c.Store.Driver, StoreMongo, StoreMemory)
	}
	switch c.Launch.Mode {
	case LaunchFixed, LaunchPerSignup:
	default:
		return fmt.Errorf("unknown launch mode %q, expected %q or %q", c.Launch.Mode, LaunchFixed, LaunchPerSignup)
	}
	if c.Launch.Delay < 0 {
		return fmt.Errorf("launch.delay must not be negative, got %s", c.Launch.Delay)
	}
	if c.Launch.Window < 0 {
		return fmt.Errorf("launch.window must not be negative, got %s", c.Launch.Window)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit_per_minute must not be negative, got %d", c.RateLimit)
	}
	if c.Mail.Port < 1 || c.Mail.Port > 65535 {
		return fmt.Errorf("mail.port %d out of range, expected 1-65535", c.Mail.Port)
	}
	return nil
}

func (c *AppConfig) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// MailEnabled reports whether outbound mail should actually be delivered.
func (c *AppConfig) MailEnabled() bool {
	return c.Mail.Enable != nil && *c.Mail.Enable
}

// NotifyLateSignups reports whether fixed mode re-triggers broadcasts after launch.
func (c *AppConfig) NotifyLateSignups() bool {
	return c.Launch.NotifyLateSignups != nil && *c.Launch.NotifyLateSignups
}

// LogDirPath resolves the log directory. Relative paths, and the "logs"
// default, are taken against the directory of the running binary.
func (c *AppConfig) LogDirPath() string {
	dir := strings.TrimSpace(c.LogDir)
	if dir == "" {
		dir = "logs"
	}
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	base := "."
	if exe, err := os.Executable(); err == nil {
		base = filepath.Dir(exe)
	}
	return filepath.Join(base, dir)
}
