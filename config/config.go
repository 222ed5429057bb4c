// Package config loads the authflow YAML configuration from a local path or any
// URL supported by afs. ${VAR} references are expanded from the environment.
package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/viant/afs"
	"github.com/viant/authflow/codeflow"
	"github.com/viant/authflow/form"
	"github.com/viant/authflow/identity"
	"gopkg.in/yaml.v3"
)

// Config represents authflow configuration
type Config struct {
	Issuer          string        `yaml:"issuer"`
	OAuth2ConfigURL string        `yaml:"oauth2_config_url"`
	ClientID        string        `yaml:"client_id"`
	ClientSecret    string        `yaml:"client_secret"`
	Scope           string        `yaml:"scope"`
	UXMode          string        `yaml:"ux_mode"`
	Locale          string        `yaml:"locale"`
	CallbackPort    int           `yaml:"callback_port"`
	Redirect        string        `yaml:"redirect"`
	NoRedirect      bool          `yaml:"no_redirect"`
	TokenFile       string        `yaml:"token_file"`
	API             APIConfig     `yaml:"api"`
	Logging         LoggingConfig `yaml:"logging"`

	FallbackDelay time.Duration `yaml:"-"`
	MinElapsed    time.Duration `yaml:"-"`
	LoadTimeout   time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	FallbackDelayRaw string `yaml:"fallback_delay"`
	MinElapsedRaw    string `yaml:"min_elapsed"`
	LoadTimeoutRaw   string `yaml:"load_timeout"`
}

// APIConfig holds the data API endpoints
type APIConfig struct {
	BaseURL      string `yaml:"base_url"`
	SubmitPath   string `yaml:"submit_path"`
	ExchangePath string `yaml:"exchange_path"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

var envExpr = regexp.MustCompile(`\$\{([^}]+)\}`)

// Override adjusts a decoded config before validation
type Override func(c *Config)

// Load reads and validates the configuration at URL
func Load(ctx context.Context, URL string, overrides ...Override) (*Config, error) {
	data, err := afs.New().DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("reading config %v: %w", URL, err)
	}
	return Parse(data, overrides...)
}

// Parse decodes, expands and validates configuration data
func Parse(data []byte, overrides ...Override) (*Config, error) {
	expanded := expandEnvVars(string(data))
	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.parseDurations(); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}
	for _, override := range overrides {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// expandEnvVars replaces ${VAR} with the environment value, or empty when unset
func expandEnvVars(s string) string {
	return envExpr.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envExpr.FindStringSubmatch(match)[1])
	})
}

func (c *Config) parseDurations() error {
	for _, item := range []struct {
		name  string
		raw   string
		value *time.Duration
	}{
		{"fallback_delay", c.FallbackDelayRaw, &c.FallbackDelay},
		{"min_elapsed", c.MinElapsedRaw, &c.MinElapsed},
		{"load_timeout", c.LoadTimeoutRaw, &c.LoadTimeout},
	} {
		if item.raw == "" {
			continue
		}
		value, err := time.ParseDuration(item.raw)
		if err != nil {
			return fmt.Errorf("parsing %v %q: %w", item.name, item.raw, err)
		}
		*item.value = value
	}
	return nil
}

// Validate checks required fields. A missing client id is allowed when an
// OAuth2 config URL supplies it.
func (c *Config) Validate() error {
	if c.Issuer == "" && c.OAuth2ConfigURL == "" {
		return fmt.Errorf("issuer or oauth2_config_url is required")
	}
	switch identity.UXMode(c.UXMode) {
	case "", identity.UXModePopup, identity.UXModeRedirect:
	default:
		return fmt.Errorf("ux_mode %q is not supported", c.UXMode)
	}
	if c.CallbackPort < 0 || c.CallbackPort > 65535 {
		return fmt.Errorf("callback_port %v is out of range", c.CallbackPort)
	}
	if c.FallbackDelay < 0 || c.MinElapsed < 0 || c.LoadTimeout < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	if c.NoRedirect && c.Redirect != "" {
		return fmt.Errorf("redirect and no_redirect are mutually exclusive")
	}
	return nil
}

// CodeFlow returns the controller configuration
func (c *Config) CodeFlow() codeflow.Config {
	return codeflow.Config{
		ClientID: c.ClientID,
		Scope:    c.Scope,
		UXMode:   identity.UXMode(c.UXMode),
		Locale:   c.Locale,
	}
}

// CodeFlowOptions returns controller timing options
func (c *Config) CodeFlowOptions() []codeflow.Option {
	return []codeflow.Option{
		codeflow.WithFallbackDelay(c.FallbackDelay),
		codeflow.WithMinElapsed(c.MinElapsed),
	}
}

// RedirectPolicy returns the form redirect policy
func (c *Config) RedirectPolicy() form.Redirect {
	if c.NoRedirect {
		return form.NoRedirect()
	}
	return form.RedirectTo(c.Redirect)
}

// Logger builds a structured logger writing to w
func (l *LoggingConfig) Logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(l.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	handlerOptions := &slog.HandlerOptions{Level: level}
	if strings.ToLower(l.Format) == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOptions))
	}
	return slog.New(slog.NewTextHandler(w, handlerOptions))
}
