package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/remmiculous/transaction-insights-dashboard/internal/common"
	"github.com/remmiculous/transaction-insights-dashboard/internal/model"
	"github.com/spf13/viper"
)

// DefaultBaseURL is the public demo endpoint the dashboard was built against.
const DefaultBaseURL = "https://696e0139d7bacd2dd7155c6a.mockapi.io/barter-tech"

// Config is the full application configuration.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Filters FiltersConfig `mapstructure:"filters"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Scroll  ScrollConfig  `mapstructure:"scroll"`
}

// APIConfig configures the transport client.
type APIConfig struct {
	Headers  map[string]string `mapstructure:"headers"`
	OAuth    OAuthConfig       `mapstructure:"oauth"`
	BaseURL  string            `mapstructure:"base_url"`
	Token    string            `mapstructure:"token"`
	Timeout  time.Duration     `mapstructure:"timeout"`
	PageSize int               `mapstructure:"page_size"`
}

// OAuthConfig enables the client-credentials flow when ClientID is set.
type OAuthConfig struct {
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	TokenURL     string   `mapstructure:"token_url"`
	Scopes       []string `mapstructure:"scopes"`
}

// Enabled reports whether OAuth credentials were configured.
func (o OAuthConfig) Enabled() bool {
	return o.ClientID != ""
}

// CacheConfig configures the query cache lifetimes.
type CacheConfig struct {
	StaleTime time.Duration `mapstructure:"stale_time"`
	GCTime    time.Duration `mapstructure:"gc_time"`
	Retry     int           `mapstructure:"retry"`
}

// FiltersConfig configures the filter controller.
type FiltersConfig struct {
	DateMode   string        `mapstructure:"date_mode"`
	Categories []string      `mapstructure:"categories"`
	Debounce   time.Duration `mapstructure:"debounce"`
}

// ScrollConfig configures the infinite-scroll trigger.
type ScrollConfig struct {
	Threshold float64       `mapstructure:"threshold"`
	Cooldown  time.Duration `mapstructure:"cooldown"`
}

// MetricsConfig configures the optional Prometheus endpoint.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// DefaultCategories are the category options offered by the filter bar.
var DefaultCategories = []string{"payment", "deposit", "withdraw", "invoice"}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", DefaultBaseURL)
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("api.page_size", 20)

	v.SetDefault("cache.stale_time", 2*time.Minute)
	v.SetDefault("cache.gc_time", 10*time.Minute)
	v.SetDefault("cache.retry", 1)

	v.SetDefault("filters.debounce", 500*time.Millisecond)
	v.SetDefault("filters.date_mode", string(model.DateModeDay))
	v.SetDefault("filters.categories", DefaultCategories)

	v.SetDefault("scroll.threshold", 90.0)
	v.SetDefault("scroll.cooldown", 100*time.Millisecond)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", filepath.Join(DefaultDir(), "insights.log"))
}

// Default returns the configuration with every default applied.
func Default() Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := Load(v)
	if err != nil {
		// Defaults are static and always valid.
		panic(err)
	}
	return cfg
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.API.BaseURL), "/")
	cfg.Logging.File = ExpandPath(cfg.Logging.File)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the invariants between settings.
func (c Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("%w: api.base_url is required", common.ErrMissingConfig)
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("%w: api.base_url must be an http(s) URL, got %q", common.ErrInvalidConfig, c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("%w: api.timeout must be positive", common.ErrInvalidConfig)
	}
	if c.API.PageSize <= 0 {
		return fmt.Errorf("%w: api.page_size must be positive", common.ErrInvalidConfig)
	}
	if c.API.OAuth.Enabled() && c.API.OAuth.TokenURL == "" {
		return fmt.Errorf("%w: api.oauth.token_url is required with client_id", common.ErrMissingConfig)
	}
	if c.Cache.StaleTime < 0 {
		return fmt.Errorf("%w: cache.stale_time must not be negative", common.ErrInvalidConfig)
	}
	if c.Cache.GCTime <= c.Cache.StaleTime {
		return fmt.Errorf("%w: cache.gc_time (%s) must exceed cache.stale_time (%s)",
			common.ErrInvalidConfig, c.Cache.GCTime, c.Cache.StaleTime)
	}
	if c.Cache.Retry < 0 {
		return fmt.Errorf("%w: cache.retry must not be negative", common.ErrInvalidConfig)
	}
	if c.Filters.Debounce < 0 {
		return fmt.Errorf("%w: filters.debounce must not be negative", common.ErrInvalidConfig)
	}
	if _, err := model.ParseDateMode(c.Filters.DateMode); err != nil {
		return fmt.Errorf("%w: filters.date_mode: %w", common.ErrInvalidConfig, err)
	}
	if c.Scroll.Threshold <= 0 || c.Scroll.Threshold > 100 {
		return fmt.Errorf("%w: scroll.threshold must be in (0, 100]", common.ErrInvalidConfig)
	}
	if c.Scroll.Cooldown < 0 {
		return fmt.Errorf("%w: scroll.cooldown must not be negative", common.ErrInvalidConfig)
	}
	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	return nil
}

// DateMode returns the parsed filter date mode.
func (c Config) DateMode() model.DateMode {
	mode, err := model.ParseDateMode(c.Filters.DateMode)
	if err != nil {
		return model.DateModeDay
	}
	return mode
}

// DefaultDir is the directory holding the config file and log.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "insights")
}
