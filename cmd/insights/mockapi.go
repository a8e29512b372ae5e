package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/remmiculous/transaction-insights-dashboard/internal/cli"
	"github.com/remmiculous/transaction-insights-dashboard/internal/common"
	"github.com/remmiculous/transaction-insights-dashboard/internal/mockapi"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func mockAPICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mock-api",
		Short: "Serve a local fixture transactions API",
		Long: `Serve a local transactions API that speaks the same query parameters as the
real endpoint, backed by SQLite.

Records come from a deterministic generator (--seed) and from OFX bank
statements (--ofx). Use --fail-every and --latency to exercise the dashboard's
retry and loading states, then point it at the server:

  insights mock-api --seed 500 --fail-every 4 &
  INSIGHTS_API_BASE_URL=http://localhost:8080 insights`,
		Args: cobra.NoArgs,
		RunE: runMockAPI,
	}

	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().String("db", mockapi.MemoryDSN, "SQLite database path")
	cmd.Flags().Int("seed", 200, "number of generated transactions (0 to skip)")
	cmd.Flags().Uint64("seed-value", 1, "generator seed")
	cmd.Flags().StringSlice("ofx", nil, "OFX/QFX files to import")
	cmd.Flags().Int("fail-every", 0, "fail every Nth request with a 500")
	cmd.Flags().Duration("latency", 0, "delay added to every request")

	return cmd
}

func runMockAPI(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	addr, _ := cmd.Flags().GetString("addr")
	dbPath, _ := cmd.Flags().GetString("db")
	count, _ := cmd.Flags().GetInt("seed")
	seedValue, _ := cmd.Flags().GetUint64("seed-value")
	ofxFiles, _ := cmd.Flags().GetStringSlice("ofx")
	failEvery, _ := cmd.Flags().GetInt("fail-every")
	latency, _ := cmd.Flags().GetDuration("latency")

	store, err := mockapi.OpenStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open fixture store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			common.LogError(closeErr, "failed to close fixture store", nil)
		}
	}()

	if count > 0 {
		txns := mockapi.Generate(mockapi.GeneratorOptions{
			Count:      count,
			Seed:       seedValue,
			Now:        time.Now(),
			Categories: viper.GetStringSlice("filters.categories"),
		})
		if err := store.Seed(ctx, txns, os.Stderr); err != nil {
			return fmt.Errorf("failed to seed transactions: %w", err)
		}
	}

	for _, path := range ofxFiles {
		if err := importOFX(cmd, store, path); err != nil {
			return err
		}
	}

	total, err := store.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count transactions: %w", err)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess(fmt.Sprintf("Serving %d transactions on %s", total, addr)))

	server := mockapi.NewServer(addr, store, mockapi.Faults{
		FailEvery: failEvery,
		Latency:   latency,
	}, slog.Default())

	return server.Start(ctx)
}

func importOFX(cmd *cobra.Command, store *mockapi.Store, path string) error {
	f, err := os.Open(path) //nolint:gosec // user-provided statement file
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			common.LogError(closeErr, "failed to close OFX file", common.Fields{"path": path})
		}
	}()

	txns, err := mockapi.ParseOFX(f)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := store.Insert(cmd.Context(), txns); err != nil {
		return fmt.Errorf("failed to import %s: %w", path, err)
	}

	common.LogInfo("Imported OFX statement", common.Fields{"path": path, "transactions": len(txns)})
	return nil
}
