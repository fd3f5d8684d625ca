// Package config loads server settings from defaults, an optional TOML or
// YAML file, a .env file and the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/erazemk/labstock/internal/notify"
	"github.com/erazemk/labstock/internal/validate"
)

// Config holds all runtime settings.
type Config struct {
	DB      string `toml:"db" yaml:"db" validate:"required"`
	Addr    string `toml:"addr" yaml:"addr" validate:"required"`
	Log     string `toml:"log" yaml:"log"`
	BaseURL string `toml:"base_url" yaml:"base_url" validate:"omitempty,url"`

	Notify Notify `toml:"notify" yaml:"notify"`
	Scan   Scan   `toml:"scan" yaml:"scan"`
}

// Notify holds notification channel settings.
type Notify struct {
	Channel    string   `toml:"channel" yaml:"channel" validate:"omitempty,oneof=email webhook"`
	SMTPHost   string   `toml:"smtp_host" yaml:"smtp_host"`
	SMTPPort   int      `toml:"smtp_port" yaml:"smtp_port" validate:"min=1,max=65535"`
	SMTPUser   string   `toml:"smtp_user" yaml:"smtp_user"`
	SMTPPass   string   `toml:"smtp_pass" yaml:"smtp_pass"`
	From       string   `toml:"from" yaml:"from"`
	To         []string `toml:"to" yaml:"to" validate:"dive,email"`
	WebhookURL string   `toml:"webhook_url" yaml:"webhook_url" validate:"omitempty,url"`
}

// Email returns the SMTP transport settings.
func (n Notify) Email() notify.EmailConfig {
	return notify.EmailConfig{
		Host: n.SMTPHost,
		Port: n.SMTPPort,
		User: n.SMTPUser,
		Pass: n.SMTPPass,
		From: n.From,
		To:   n.To,
	}
}

// Scan holds scan-trigger timing.
type Scan struct {
	// DispatchWait is how long an item view waits for a dispatch outcome
	// before rendering the pending state.
	DispatchWait Duration `toml:"dispatch_wait" yaml:"dispatch_wait"`
	// DispatchTimeout bounds a single detached dispatch.
	DispatchTimeout Duration `toml:"dispatch_timeout" yaml:"dispatch_timeout"`
	// ActivationTTL is how long an activation token stays addressable.
	ActivationTTL Duration `toml:"activation_ttl" yaml:"activation_ttl"`
	// Debounce collapses repeat scans from one client into one activation.
	Debounce Duration `toml:"debounce" yaml:"debounce"`
}

// Duration is a time.Duration read from strings like "3s" or "15m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		DB:   "labstock.sqlite3",
		Addr: ":8080",
		Notify: Notify{
			SMTPHost: "smtp.gmail.com",
			SMTPPort: 587,
		},
		Scan: Scan{
			DispatchWait:    Duration{3 * time.Second},
			DispatchTimeout: Duration{30 * time.Second},
			ActivationTTL:   Duration{15 * time.Minute},
			Debounce:        Duration{10 * time.Second},
		},
	}
}

// Load builds the configuration. path is an optional .toml, .yaml or .yml
// file; envFile is an optional dotenv file, defaulting to ".env" when it
// exists. Process environment variables take precedence over both.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	vars, err := readEnvFile(envFile)
	if err != nil {
		return nil, err
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := vars[key]
		return v, ok
	}
	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	return nil
}

func readEnvFile(path string) (map[string]string, error) {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}

	vars, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading env file %s: %w", path, err)
	}
	return vars, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("LABSTOCK_DB", &cfg.DB)
	str("LABSTOCK_ADDR", &cfg.Addr)
	str("LABSTOCK_LOG", &cfg.Log)
	str("BASE_URL", &cfg.BaseURL)
	str("NOTIFY_CHANNEL", &cfg.Notify.Channel)
	str("SMTP_HOST", &cfg.Notify.SMTPHost)
	str("SMTP_USER", &cfg.Notify.SMTPUser)
	str("SMTP_PASS", &cfg.Notify.SMTPPass)
	str("NOTIFY_FROM", &cfg.Notify.From)
	str("SLACK_WEBHOOK_URL", &cfg.Notify.WebhookURL)

	if v, ok := lookup("SMTP_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SMTP_PORT %q: %w", v, err)
		}
		cfg.Notify.SMTPPort = port
	}
	if v, ok := lookup("NOTIFY_TO"); ok && v != "" {
		cfg.Notify.To = SplitList(v)
	}
	return nil
}

// SplitList splits a comma separated list, dropping empty entries.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks the settings.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
