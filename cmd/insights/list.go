package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/itchyny/gojq"
	"github.com/remmiculous/transaction-insights-dashboard/internal/cli"
	"github.com/remmiculous/transaction-insights-dashboard/internal/model"
	"github.com/remmiculous/transaction-insights-dashboard/internal/tui/components"
	"github.com/spf13/cobra"
)

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print transactions matching the filters",
		Long: `Fetch one or more pages of transactions matching the filter flags and print them.

Output is a table by default. Use --json for the raw records, or --jq to run a
jq expression over the loaded records, for example:

  insights list --status failed --pages 3 --jq '[.[] | .amount | tonumber] | add'`,
		Args: cobra.NoArgs,
		RunE: runList,
	}

	addFilterFlags(cmd)
	cmd.Flags().Int("pages", 1, "number of pages to load")
	cmd.Flags().Bool("json", false, "print records as JSON")
	cmd.Flags().String("jq", "", "jq expression applied to the loaded records")

	return cmd
}

func runList(cmd *cobra.Command, _ []string) error {
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
	asJSON, _ := cmd.Flags().GetBool("json")
	expr, _ := cmd.Flags().GetString("jq")

	// Compile before fetching so a bad expression fails fast
	var code *gojq.Code
	if expr != "" {
		code, err = compileJQ(expr)
		if err != nil {
			return err
		}
	}

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
		slog.Warn("Showing partial results", "error", err, "loaded", len(snap.Transactions))
	}

	out := cmd.OutOrStdout()
	switch {
	case code != nil:
		return runJQ(out, code, snap.Transactions)
	case asJSON:
		return writeJSON(out, snap.Transactions)
	default:
		return writeTable(out, snap.Transactions, snap.HasMore)
	}
}

func compileJQ(expr string) (*gojq.Code, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse jq filter %q: %w", expr, err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq filter %q: %w", expr, err)
	}
	return code, nil
}

// runJQ evaluates code against the records in their wire form and prints
// every emitted value as JSON.
func runJQ(w io.Writer, code *gojq.Code, txns []model.Transaction) error {
	raw, err := json.Marshal(txns)
	if err != nil {
		return fmt.Errorf("failed to encode transactions: %w", err)
	}
	var input any
	if err := json.Unmarshal(raw, &input); err != nil {
		return fmt.Errorf("failed to decode transactions: %w", err)
	}

	enc := json.NewEncoder(w)
	iter := code.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, isErr := v.(error); isErr {
			return fmt.Errorf("jq: %w", err)
		}
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to write jq result: %w", err)
		}
	}
}

func writeJSON(w io.Writer, txns []model.Transaction) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(txns); err != nil {
		return fmt.Errorf("failed to write transactions: %w", err)
	}
	return nil
}

func writeTable(w io.Writer, txns []model.Transaction, hasMore bool) error {
	if len(txns) == 0 {
		_, err := fmt.Fprintln(w, cli.SubtleStyle.Render("No transactions found"))
		return err
	}

	table, err := cli.NewTable(w,
		[]string{"ID", "Name", "Amount", "Category", "Status", "Date"},
		[]int{4, 20, 14, 10, 7, 11})
	if err != nil {
		return err
	}
	for _, t := range txns {
		if err := table.Row(components.Row(t)...); err != nil {
			return fmt.Errorf("failed to write transaction row: %w", err)
		}
	}
	if err := table.Flush(); err != nil {
		return fmt.Errorf("failed to flush table: %w", err)
	}

	footer := fmt.Sprintf("%d transactions", len(txns))
	if hasMore {
		footer += " (more available, use --pages)"
	}
	_, err = fmt.Fprintln(w, cli.SubtleStyle.Render(footer))
	return err
}
