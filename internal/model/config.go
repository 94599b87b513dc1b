package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DataJudConfig holds settings for the public judicial registry API.
type DataJudConfig struct {
	// BaseURL is the registry root, without the per-court path.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// APIKey is sent verbatim in the Authorization header.
	// Falls back to the OS keyring when empty.
	APIKey string `mapstructure:"api_key" yaml:"api_key"`

	// Timeout bounds a single registry request.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// RatePerSec and Burst pace outbound requests across all courts.
	RatePerSec float64 `mapstructure:"rate_per_sec" yaml:"rate_per_sec"`
	Burst      int     `mapstructure:"burst" yaml:"burst"`
}

// SMTPConfig holds outbound SMTP server settings.
type SMTPConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	TLS      bool   `mapstructure:"tls" yaml:"tls"`
}

// ResendConfig holds settings for the Resend transactional email API.
type ResendConfig struct {
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// SentCopyConfig configures an IMAP mailbox that receives a copy of every
// notification sent. Disabled when Host is empty.
type SentCopyConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	TLS      bool   `mapstructure:"tls" yaml:"tls"`
	Mailbox  string `mapstructure:"mailbox" yaml:"mailbox"`
}

// MailConfig selects and configures the notification transport.
type MailConfig struct {
	// Provider is one of "smtp", "resend" or "log".
	Provider string         `mapstructure:"provider" yaml:"provider"`
	From     string         `mapstructure:"from" yaml:"from"`
	SMTP     SMTPConfig     `mapstructure:"smtp" yaml:"smtp"`
	Resend   ResendConfig   `mapstructure:"resend" yaml:"resend"`
	SentCopy SentCopyConfig `mapstructure:"sent_copy" yaml:"sent_copy"`
}

// StoreConfig selects the tracking store backend.
type StoreConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `mapstructure:"driver" yaml:"driver"`
	DSN    string `mapstructure:"dsn" yaml:"dsn"`
}

// SchedulerConfig controls the periodic sweep.
type SchedulerConfig struct {
	Interval    time.Duration `mapstructure:"interval" yaml:"interval"`
	RunOnStart  bool          `mapstructure:"run_on_start" yaml:"run_on_start"`
	Concurrency int           `mapstructure:"concurrency" yaml:"concurrency"`
}

// LockConfig selects the per-process lock backend.
type LockConfig struct {
	// Backend is "memory" or "redis".
	Backend  string        `mapstructure:"backend" yaml:"backend"`
	RedisURL string        `mapstructure:"redis_url" yaml:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
	Wait     time.Duration `mapstructure:"wait" yaml:"wait"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DisplayConfig holds presentation preferences for messages and CLI output.
type DisplayConfig struct {
	Timezone string `mapstructure:"timezone" yaml:"timezone"`
}

// AppConfig is the top-level application configuration. It is loaded once
// at startup and handed to constructors explicitly.
type AppConfig struct {
	DataJud   DataJudConfig   `mapstructure:"datajud" yaml:"datajud"`
	Mail      MailConfig      `mapstructure:"mail" yaml:"mail"`
	Store     StoreConfig     `mapstructure:"store" yaml:"store"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" yaml:"scheduler"`
	Lock      LockConfig      `mapstructure:"lock" yaml:"lock"`
	HTTP      HTTPConfig      `mapstructure:"http" yaml:"http"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Display   DisplayConfig   `mapstructure:"display" yaml:"display"`
}

// Location resolves the display timezone, falling back to UTC.
func (c DisplayConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/juscheck/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "juscheck", "config.yaml")
}

// defaultDBPath places the SQLite database next to the default config.
func defaultDBPath() string {
	return filepath.Join(filepath.Dir(DefaultConfigPath()), "juscheck.db")
}

var defaults = map[string]any{
	"datajud.base_url":       "https://api-publica.datajud.cnj.jus.br",
	"datajud.timeout":        "30s",
	"datajud.rate_per_sec":   5.0,
	"datajud.burst":          10,
	"mail.provider":          "log",
	"mail.from":              "Notificações JusCheck <noreply@juscheck.local>",
	"mail.smtp.port":         587,
	"mail.resend.base_url":   "https://api.resend.com",
	"mail.sent_copy.port":    993,
	"mail.sent_copy.tls":     true,
	"mail.sent_copy.mailbox": "Sent",
	"store.driver":           "sqlite",
	"store.dsn":              defaultDBPath(),
	"scheduler.interval":     "1h",
	"scheduler.concurrency":  8,
	"lock.backend":           "memory",
	"lock.ttl":               "2m",
	"lock.wait":              "30s",
	"http.addr":              ":8080",
	"log.level":              "info",
	"log.format":             "text",
	"display.timezone":       "America/Sao_Paulo",
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Every key can be overridden with a JUSCHECK_ environment variable
// (e.g. JUSCHECK_DATAJUD_API_KEY). A missing file yields the defaults.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("juscheck")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	// AutomaticEnv only applies to keys viper already knows about.
	for _, key := range []string{
		"datajud.api_key",
		"mail.smtp.host", "mail.smtp.username", "mail.smtp.password",
		"mail.resend.api_key",
		"mail.sent_copy.host", "mail.sent_copy.username", "mail.sent_copy.password",
		"lock.redis_url",
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault("mail.smtp.tls", false)
	v.SetDefault("scheduler.run_on_start", false)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *AppConfig) Validate() error {
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("store.driver %q: must be sqlite or postgres", c.Store.Driver)
	}
	switch c.Mail.Provider {
	case "smtp", "resend", "log":
	default:
		return fmt.Errorf("mail.provider %q: must be smtp, resend or log", c.Mail.Provider)
	}
	switch c.Lock.Backend {
	case "memory":
	case "redis":
		if c.Lock.RedisURL == "" {
			return errors.New("lock.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("lock.backend %q: must be memory or redis", c.Lock.Backend)
	}
	if c.Scheduler.Concurrency < 1 {
		c.Scheduler.Concurrency = 1
	}
	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("datajud", cfg.DataJud)
	v.Set("mail", cfg.Mail)
	v.Set("store", cfg.Store)
	v.Set("scheduler", cfg.Scheduler)
	v.Set("lock", cfg.Lock)
	v.Set("http", cfg.HTTP)
	v.Set("log", cfg.Log)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
