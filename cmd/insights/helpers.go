package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/remmiculous/transaction-insights-dashboard/internal/api"
	"github.com/remmiculous/transaction-insights-dashboard/internal/common"
	"github.com/remmiculous/transaction-insights-dashboard/internal/config"
	"github.com/remmiculous/transaction-insights-dashboard/internal/filters"
	"github.com/remmiculous/transaction-insights-dashboard/internal/metrics"
	"github.com/remmiculous/transaction-insights-dashboard/internal/model"
	"github.com/remmiculous/transaction-insights-dashboard/internal/querycache"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/oauth2/clientcredentials"
)

// cliDateLayout is the date format accepted by the filter flags.
const cliDateLayout = "2006-01-02"

// loadConfig reads the merged viper configuration.
func loadConfig() (config.Config, error) {
	return config.Load(viper.GetViper())
}

// newClient builds the transport client from configuration.
func newClient(cfg config.Config, m *metrics.Metrics) (*api.Client, error) {
	clientCfg := api.ClientConfig{
		BaseURL:  cfg.API.BaseURL,
		Token:    cfg.API.Token,
		Headers:  cfg.API.Headers,
		Timeout:  cfg.API.Timeout,
		PageSize: cfg.API.PageSize,
	}
	if cfg.API.OAuth.Enabled() {
		clientCfg.OAuth = &clientcredentials.Config{
			ClientID:     cfg.API.OAuth.ClientID,
			ClientSecret: cfg.API.OAuth.ClientSecret,
			TokenURL:     cfg.API.OAuth.TokenURL,
			Scopes:       cfg.API.OAuth.Scopes,
		}
	}

	return api.NewClient(clientCfg,
		api.WithLogger(slog.Default()),
		api.WithMetrics(m),
	)
}

// newCache builds the query cache on top of a configured client.
func newCache(cfg config.Config, m *metrics.Metrics, opts ...querycache.Option) (*querycache.Cache, error) {
	client, err := newClient(cfg, m)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	base := []querycache.Option{
		querycache.WithStaleTime(cfg.Cache.StaleTime),
		querycache.WithGCTime(cfg.Cache.GCTime),
		querycache.WithRetry(cfg.Cache.Retry),
		querycache.WithLogger(slog.Default()),
		querycache.WithMetrics(m),
	}
	return querycache.New(client.FetchTransactions, append(base, opts...)...), nil
}

// newController builds the filter controller from configuration.
func newController(cfg config.Config, initial model.FilterState) *filters.Controller {
	return filters.NewController(initial,
		filters.WithDebounce(cfg.Filters.Debounce),
		filters.WithDateMode(cfg.DateMode()),
		filters.WithCategories(cfg.Filters.Categories),
	)
}

// addFilterFlags registers the flags that select an initial filter state.
func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("search", "", "search text")
	cmd.Flags().String("category", "", "category (payment, deposit, withdraw, invoice)")
	cmd.Flags().StringSlice("status", nil, "status filter, repeatable (success, failed, pending)")
	cmd.Flags().String("date", "", "single day YYYY-MM-DD (date_mode=day)")
	cmd.Flags().String("from", "", "range start YYYY-MM-DD (date_mode=range)")
	cmd.Flags().String("to", "", "range end YYYY-MM-DD (date_mode=range)")
}

// filterStateFromFlags turns the filter flags into a canonical state using
// the same reducer the dashboard uses.
func filterStateFromFlags(cmd *cobra.Command, mode model.DateMode) (model.FilterState, error) {
	search, _ := cmd.Flags().GetString("search")
	category, _ := cmd.Flags().GetString("category")
	statuses, _ := cmd.Flags().GetStringSlice("status")
	day, _ := cmd.Flags().GetString("date")
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")

	ctrl := filters.NewController(model.FilterState{}, filters.WithDateMode(mode))

	intents := []filters.Intent{
		filters.CommitSearch{Text: search},
		filters.SetCategory{Value: category},
	}

	for _, raw := range statuses {
		status, ok, err := model.ParseStatus(raw)
		if err != nil {
			return model.FilterState{}, common.NewUserError(fmt.Sprintf("invalid --status %q", raw), err)
		}
		if !ok {
			intents = append(intents, filters.SetStatus{Values: []string{model.AllSentinel}})
			continue
		}
		intents = append(intents, filters.ToggleStatus{Status: status})
	}

	switch {
	case day != "" && (from != "" || to != ""):
		return model.FilterState{}, common.NewUserError("use either --date or --from/--to", common.ErrInvalidConfig)
	case day != "":
		if mode != model.DateModeDay {
			return model.FilterState{}, common.NewUserError("--date requires filters.date_mode=day", common.ErrInvalidConfig)
		}
		d, err := parseFlagDate("date", day)
		if err != nil {
			return model.FilterState{}, err
		}
		intents = append(intents, filters.SetDay{Day: d})
	case from != "" || to != "":
		if mode != model.DateModeRange {
			return model.FilterState{}, common.NewUserError("--from/--to require filters.date_mode=range", common.ErrInvalidConfig)
		}
		f, err := parseFlagDate("from", from)
		if err != nil {
			return model.FilterState{}, err
		}
		t, err := parseFlagDate("to", to)
		if err != nil {
			return model.FilterState{}, err
		}
		intents = append(intents, filters.SetRange{From: f, To: t})
	}

	for _, intent := range intents {
		ctrl.Apply(intent)
	}
	return ctrl.State(), nil
}

func parseFlagDate(flag, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(cliDateLayout, raw, time.Local)
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("invalid --%s %q, expected YYYY-MM-DD", flag, raw), err)
	}
	return &t, nil
}

// loadPages fetches up to n pages for state, stopping early at the end of
// the collection. The last snapshot is returned even on error.
func loadPages(ctx context.Context, cache *querycache.Cache, state model.FilterState, n int) (querycache.Snapshot, error) {
	snap := cache.Observe(state)
	for i := 0; i < n; i++ {
		next, err := cache.FetchNextPage(ctx, state)
		if err != nil {
			return next, fmt.Errorf("failed to load page %d: %w", len(next.Pages)+1, err)
		}
		snap = next
		if !snap.HasMore {
			break
		}
	}
	return snap, nil
}
