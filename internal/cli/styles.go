// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
)

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#7c3aed")
	// SuccessColor indicates successful transactions.
	SuccessColor = lipgloss.Color("#16a34a")
	// WarningColor indicates pending transactions and caveats.
	WarningColor = lipgloss.Color("#d97706")
	// ErrorColor indicates failures.
	ErrorColor = lipgloss.Color("#dc2626")
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#666666")

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	// SuccessStyle formats success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// WarningStyle formats warning messages.
	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// ErrorStyle formats error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// TableHeaderStyle is used for table headers.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("86"))
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	ChartIcon   = "📊"
)

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatTitle formats a title with the chart icon.
func FormatTitle(title string) string {
	return TitleStyle.Render(ChartIcon + " " + title)
}

// Table writes aligned columns with a styled header and a rule under it.
type Table struct {
	w      *tabwriter.Writer
	widths []int
}

// NewTable writes the header row to out. widths sizes the separator rule.
func NewTable(out io.Writer, headers []string, widths []int) (*Table, error) {
	t := &Table{
		w:      tabwriter.NewWriter(out, 0, 0, 2, ' ', 0),
		widths: widths,
	}

	styled := make([]string, len(headers))
	for i, h := range headers {
		styled[i] = TableHeaderStyle.Render(h)
	}
	if err := t.Row(styled...); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	rule := make([]string, len(headers))
	for i := range headers {
		width := len(headers[i])
		if i < len(widths) {
			width = widths[i]
		}
		rule[i] = strings.Repeat("─", width)
	}
	if err := t.Row(rule...); err != nil {
		return nil, fmt.Errorf("failed to write separator: %w", err)
	}
	return t, nil
}

// Row writes one tab-separated row.
func (t *Table) Row(cells ...string) error {
	_, err := fmt.Fprintln(t.w, strings.Join(cells, "\t"))
	return err
}

// Flush writes buffered rows.
func (t *Table) Flush() error {
	return t.w.Flush()
}
