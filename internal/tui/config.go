package tui

import (
	"log/slog"
	"time"

	"github.com/remmiculous/transaction-insights-dashboard/internal/common"
	"github.com/remmiculous/transaction-insights-dashboard/internal/filters"
	"github.com/remmiculous/transaction-insights-dashboard/internal/model"
	"github.com/remmiculous/transaction-insights-dashboard/internal/querycache"
	"github.com/remmiculous/transaction-insights-dashboard/internal/scroll"
	"github.com/remmiculous/transaction-insights-dashboard/internal/tui/themes"
)

// DefaultFetchTimeout bounds one page fetch including its retry.
const DefaultFetchTimeout = 30 * time.Second

// Config holds TUI configuration.
type Config struct {
	Theme        themes.Theme
	Cache        *querycache.Cache
	Filters      *filters.Controller
	Trigger      *scroll.Trigger
	Logger       *slog.Logger
	Location     *time.Location
	Width        int
	Height       int
	FetchTimeout time.Duration
	MouseSupport bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:        themes.Default,
		Width:        100,
		Height:       30,
		FetchTimeout: DefaultFetchTimeout,
		MouseSupport: true,
		Location:     time.Local,
		Logger:       common.DiscardLogger(),
	}
}

// WithCache sets the query cache that owns all fetched pages.
func WithCache(cache *querycache.Cache) Option {
	return func(c *Config) {
		c.Cache = cache
	}
}

// WithFilters sets the filter controller.
func WithFilters(controller *filters.Controller) Option {
	return func(c *Config) {
		c.Filters = controller
	}
}

// WithTrigger sets the infinite-scroll trigger.
func WithTrigger(trigger *scroll.Trigger) Option {
	return func(c *Config) {
		c.Trigger = trigger
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithFetchTimeout bounds each page fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.FetchTimeout = d
		}
	}
}

// WithMouse enables wheel scrolling.
func WithMouse(enabled bool) Option {
	return func(c *Config) {
		c.MouseSupport = enabled
	}
}

// WithLocation sets the zone used to interpret typed dates.
func WithLocation(loc *time.Location) Option {
	return func(c *Config) {
		if loc != nil {
			c.Location = loc
		}
	}
}

// WithLogger sets the logger. The terminal belongs to the UI, so the logger
// should write to a file.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// fillDefaults creates the collaborators that were not injected.
func (c *Config) fillDefaults() {
	if c.Filters == nil {
		c.Filters = filters.NewController(model.FilterState{})
	}
	if c.Trigger == nil {
		c.Trigger = scroll.NewTrigger()
	}
}
