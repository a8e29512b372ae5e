package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/remmiculous/transaction-insights-dashboard/internal/common"
	"github.com/remmiculous/transaction-insights-dashboard/internal/metrics"
	"github.com/remmiculous/transaction-insights-dashboard/internal/scroll"
	"github.com/remmiculous/transaction-insights-dashboard/internal/tui"
	"github.com/spf13/cobra"
)

func addDashboardFlags(cmd *cobra.Command) {
	addFilterFlags(cmd)
	cmd.Flags().Bool("no-mouse", false, "disable mouse wheel scrolling")
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	initial, err := filterStateFromFlags(cmd, cfg.DateMode())
	if err != nil {
		return err
	}

	m := metrics.New()
	if cfg.Metrics.Addr != "" {
		stop := serveMetrics(ctx, cfg.Metrics.Addr, m)
		defer stop()
	}

	cache, err := newCache(cfg, m)
	if err != nil {
		return err
	}
	defer cache.Close()

	trigger := scroll.NewTrigger(
		scroll.WithThreshold(cfg.Scroll.Threshold),
		scroll.WithCooldown(cfg.Scroll.Cooldown),
	)

	noMouse, _ := cmd.Flags().GetBool("no-mouse")

	slog.Info("Opening dashboard",
		"base_url", cfg.API.BaseURL,
		"page_size", cfg.API.PageSize,
		"filters", initial.String())

	return tui.Run(ctx,
		tui.WithCache(cache),
		tui.WithFilters(newController(cfg, initial)),
		tui.WithTrigger(trigger),
		tui.WithMouse(!noMouse),
		tui.WithFetchTimeout(cfg.API.Timeout*time.Duration(cfg.Cache.Retry+1)+time.Second),
		tui.WithLogger(slog.Default()),
	)
}

// serveMetrics exposes m on addr until the returned stop func is called.
func serveMetrics(ctx context.Context, addr string, m *metrics.Metrics) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("Serving metrics", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			common.LogError(err, "metrics server failed", common.Fields{"addr": addr})
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			common.LogError(err, "failed to stop metrics server", nil)
		}
	}
}

func dashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "dashboard",
		Short:       "Open the interactive dashboard (default)",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{logToFileAnnotation: "true"},
		RunE:        runDashboard,
	}
	addDashboardFlags(cmd)
	return cmd
}
