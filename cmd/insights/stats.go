package main

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/remmiculous/transaction-insights-dashboard/internal/cli"
	"github.com/remmiculous/transaction-insights-dashboard/internal/insights"
	"github.com/spf13/cobra"
)

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print summary statistics for the filtered transactions",
		Long: `Load pages of transactions matching the filter flags and print the same
statistics the dashboard shows.

Statistics cover only the loaded pages, never the full remote dataset. Use
--pages to widen the sample.`,
		Args: cobra.NoArgs,
		RunE: runStats,
	}

	addFilterFlags(cmd)
	cmd.Flags().Int("pages", 5, "number of pages to load")

	return cmd
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	state, err := filterStateFromFlags(cmd, cfg.DateMode())
	if err != nil {
		return err
	}
	pages, _ := cmd.Flags().GetInt("pages")

	cache, err := newCache(cfg, nil)
	if err != nil {
		return err
	}
	defer cache.Close()

	snap, err := loadPages(ctx, cache, state, max(pages, 1))
	if err != nil {
		if len(snap.Transactions) == 0 {
			return err
		}
		slog.Warn("Summarizing partial results", "error", err, "loaded", len(snap.Transactions))
	}

	return writeSummary(cmd.OutOrStdout(), insights.Compute(snap.Transactions), state.String())
}

func writeSummary(w io.Writer, s insights.Summary, filters string) error {
	lines := []string{
		cli.FormatTitle("Transaction Insights"),
		cli.SubtleStyle.Render(filters),
		"",
		fmt.Sprintf("Total Transactions  %d", s.TotalTransactions),
		fmt.Sprintf("Total Successful    %s", insights.FormatMoney(s.SuccessfulAmount)),
		fmt.Sprintf("Success Rate        %s", insights.FormatRate(s.SuccessRate)),
		fmt.Sprintf("Top Category        %s", insights.DisplayCategory(s.TopCategory)),
		fmt.Sprintf("Statuses            %s / %s / %s",
			cli.SuccessStyle.Render(fmt.Sprintf("%d success", s.SuccessfulCount)),
			cli.ErrorStyle.Render(fmt.Sprintf("%d failed", s.FailedCount)),
			cli.WarningStyle.Render(fmt.Sprintf("%d pending", s.PendingCount))),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}

	if len(s.CategoryTotals) > 0 {
		table, err := cli.NewTable(w, []string{"Category", "Count", "Total"}, []int{10, 5, 14})
		if err != nil {
			return err
		}
		for _, ct := range s.CategoryTotals {
			category := insights.DisplayCategory(ct.Category)
			if category == "" {
				category = insights.NoCategory
			}
			if err := table.Row(category, strconv.Itoa(ct.Count), insights.FormatAmount(ct.Total)); err != nil {
				return fmt.Errorf("failed to write category row: %w", err)
			}
		}
		if err := table.Flush(); err != nil {
			return fmt.Errorf("failed to flush table: %w", err)
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(w, cli.FormatWarning(s.Scope()))
	return err
}
