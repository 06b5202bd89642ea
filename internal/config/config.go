// Package config loads the client settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/grez-lucas/bank-client/internal/bank/tangerine"
)

// Config holds every setting of the tangerine CLI.
type Config struct {
	Locale      string        `mapstructure:"TANGERINE_LOCALE"`
	SecureURL   string        `mapstructure:"TANGERINE_SECURE_URL"`
	DownloadURL string        `mapstructure:"TANGERINE_DOWNLOAD_URL"`
	Origin      string        `mapstructure:"TANGERINE_ORIGIN"`
	Referer     string        `mapstructure:"TANGERINE_REFERER"`
	Timeout     time.Duration `mapstructure:"TANGERINE_TIMEOUT"`
	UserAgent   string        `mapstructure:"TANGERINE_USER_AGENT"`

	Username        string `mapstructure:"TANGERINE_USERNAME"`
	PIN             string `mapstructure:"TANGERINE_PIN"`
	ChallengeAnswer string `mapstructure:"TANGERINE_CHALLENGE_ANSWER"`
	SecretsFile     string `mapstructure:"TANGERINE_SECRETS_FILE"`

	DownloadDir    string `mapstructure:"TANGERINE_DOWNLOAD_DIR"`
	ExportDays     int    `mapstructure:"TANGERINE_EXPORT_DAYS"`
	ExportSchedule string `mapstructure:"TANGERINE_EXPORT_SCHEDULE"`

	BrowserLogin   bool          `mapstructure:"TANGERINE_BROWSER_LOGIN"`
	BrowserTimeout time.Duration `mapstructure:"TANGERINE_BROWSER_TIMEOUT"`
	BrowserBin     string        `mapstructure:"TANGERINE_BROWSER_BIN"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

var keys = []string{
	"TANGERINE_LOCALE",
	"TANGERINE_SECURE_URL",
	"TANGERINE_DOWNLOAD_URL",
	"TANGERINE_ORIGIN",
	"TANGERINE_REFERER",
	"TANGERINE_TIMEOUT",
	"TANGERINE_USER_AGENT",
	"TANGERINE_USERNAME",
	"TANGERINE_PIN",
	"TANGERINE_CHALLENGE_ANSWER",
	"TANGERINE_SECRETS_FILE",
	"TANGERINE_DOWNLOAD_DIR",
	"TANGERINE_EXPORT_DAYS",
	"TANGERINE_EXPORT_SCHEDULE",
	"TANGERINE_BROWSER_LOGIN",
	"TANGERINE_BROWSER_TIMEOUT",
	"TANGERINE_BROWSER_BIN",
	"LOG_LEVEL",
	"LOG_FORMAT",
}

// Load reads the configuration. Environment variables win over a .env file
// in dir; dir may be empty to skip the file.
func Load(dir string) (*Config, error) {
	v := viper.New()

	endpoints := tangerine.DefaultEndpoints()
	v.SetDefault("TANGERINE_LOCALE", tangerine.DefaultLocale)
	v.SetDefault("TANGERINE_SECURE_URL", endpoints.SecureBaseURL)
	v.SetDefault("TANGERINE_DOWNLOAD_URL", endpoints.DownloadBaseURL)
	v.SetDefault("TANGERINE_ORIGIN", endpoints.Origin)
	v.SetDefault("TANGERINE_REFERER", endpoints.Referer)
	v.SetDefault("TANGERINE_TIMEOUT", tangerine.DefaultTimeout)
	v.SetDefault("TANGERINE_USER_AGENT", tangerine.DefaultUserAgent)
	v.SetDefault("TANGERINE_EXPORT_DAYS", 30)
	v.SetDefault("TANGERINE_BROWSER_LOGIN", false)
	v.SetDefault("TANGERINE_BROWSER_TIMEOUT", 5*time.Minute)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	if dir != "" {
		v.SetConfigName(".env")
		v.SetConfigType("env")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.SecureURL == "" {
		errs = append(errs, errors.New("TANGERINE_SECURE_URL must not be empty"))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("TANGERINE_TIMEOUT must be positive, got %s", c.Timeout))
	}
	if c.ExportDays <= 0 {
		errs = append(errs, fmt.Errorf("TANGERINE_EXPORT_DAYS must be positive, got %d", c.ExportDays))
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// Endpoints returns the configured hosts.
func (c *Config) Endpoints() tangerine.Endpoints {
	return tangerine.Endpoints{
		SecureBaseURL:   c.SecureURL,
		DownloadBaseURL: c.DownloadURL,
		Origin:          c.Origin,
		Referer:         c.Referer,
	}
}
