// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	Port            int           `mapstructure:"PORT"`
	GithubToken     string        `mapstructure:"GITHUB_TOKEN"`
	GithubAPIURL    string        `mapstructure:"GITHUB_API_URL"`
	UserAgent       string        `mapstructure:"USER_AGENT"`
	PublicHostname  string        `mapstructure:"PUBLIC_HOSTNAME"`
	IconPath        string        `mapstructure:"ICON_PATH"`
	CORSOrigins     string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	PaymentRequired bool          `mapstructure:"PAYMENT_REQUIRED"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

// LoadConfig reads configuration from file and/or environment variables.
func LoadConfig() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	// Set default values
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PORT", 3000)
	v.SetDefault("GITHUB_TOKEN", "")
	v.SetDefault("GITHUB_API_URL", "https://api.github.com/")
	v.SetDefault("USER_AGENT", "repo-intel/1.0")
	v.SetDefault("PUBLIC_HOSTNAME", "")
	v.SetDefault("ICON_PATH", "assets/icon.png")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("PAYMENT_REQUIRED", true)
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	// Load from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // Ignore error if file not found

	// Bind environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate fields
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("PORT must be between 1 and 65535, got %d", cfg.Port)
	}
	u, err := url.Parse(cfg.GithubAPIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New("GITHUB_API_URL must be an absolute URL (e.g. https://api.github.com/)")
	}
	if cfg.ShutdownTimeout <= 0 {
		return nil, errors.New("SHUTDOWN_TIMEOUT must be a positive duration")
	}

	return &cfg, nil
}

// AllowedOrigins splits the comma-separated CORS origin list.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
