package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/remmiculous/transaction-insights-dashboard/internal/insights"
	"github.com/remmiculous/transaction-insights-dashboard/internal/model"
	"github.com/remmiculous/transaction-insights-dashboard/internal/scroll"
	"github.com/remmiculous/transaction-insights-dashboard/internal/tui/themes"
)

// DisplayDateLayout renders createdAt as "5 Mar 2024".
const DisplayDateLayout = "2 Jan 2006"

// TransactionListModel renders loaded transactions as a table.
type TransactionListModel struct {
	transactions []model.Transaction
	table        table.Model
	width        int
	height       int
}

// NewTransactionList creates an empty transaction table.
func NewTransactionList(theme themes.Theme) TransactionListModel {
	t := table.New(
		table.WithColumns(columnsFor(80)),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.Border).
		BorderBottom(true).
		Bold(true)
	s.Selected = theme.Selected
	t.SetStyles(s)

	return TransactionListModel{
		table:  t,
		width:  80,
		height: 12,
	}
}

// SetTransactions replaces the rows, keeping the cursor where possible.
func (m *TransactionListModel) SetTransactions(txns []model.Transaction) {
	m.transactions = txns

	rows := make([]table.Row, len(txns))
	for i, t := range txns {
		rows[i] = Row(t)
	}

	m.table.SetRows(rows)
	if len(rows) > 0 && m.table.Cursor() >= len(rows) {
		m.table.SetCursor(len(rows) - 1)
	}
}

// Transactions returns the rows currently shown.
func (m TransactionListModel) Transactions() []model.Transaction {
	return m.transactions
}

// Cursor returns the selected row index.
func (m TransactionListModel) Cursor() int {
	return max(m.table.Cursor(), 0)
}

// GotoTop moves the cursor to the first row.
func (m *TransactionListModel) GotoTop() {
	if len(m.transactions) > 0 {
		m.table.GotoTop()
	}
}

// ScrollBy moves the cursor by delta rows.
func (m *TransactionListModel) ScrollBy(delta int) {
	if len(m.transactions) == 0 {
		return
	}
	if delta > 0 {
		m.table.MoveDown(delta)
	} else if delta < 0 {
		m.table.MoveUp(-delta)
	}
}

// Position approximates the visible window. The table keeps the cursor on
// screen, so the window ends at the cursor once it passes the first screen.
func (m TransactionListModel) Position() scroll.Position {
	viewport := m.table.Height()
	return scroll.Position{
		Offset:   max(0, m.Cursor()-viewport+1),
		Viewport: viewport,
		Total:    len(m.transactions),
	}
}

// Resize sets the table dimensions. The table reserves the header lines
// itself.
func (m *TransactionListModel) Resize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetWidth(width)
	m.table.SetHeight(max(height, 3))
	m.table.SetColumns(columnsFor(width))
}

// View renders the table.
func (m TransactionListModel) View() string {
	return m.table.View()
}

// Row formats a transaction as a table row.
func Row(t model.Transaction) table.Row {
	date := t.CreatedAt
	if ts, err := t.CreatedTime(); err == nil {
		date = ts.Format(DisplayDateLayout)
	}
	return table.Row{
		t.ID,
		t.Name,
		strings.TrimSpace(fmt.Sprintf("%s %s", t.Currency, t.Amount)),
		insights.DisplayCategory(t.Category),
		t.Status.Label(),
		date,
	}
}

// columnsFor splits width proportionally across the columns.
func columnsFor(width int) []table.Column {
	// Each column pads one cell on both sides.
	available := max(width-12, 40)

	idWidth := max(available*8/100, 4)
	amountWidth := max(available*18/100, 10)
	categoryWidth := max(available*15/100, 10)
	statusWidth := max(available*10/100, 8)
	dateWidth := max(available*14/100, 11)
	userWidth := max(available-idWidth-amountWidth-categoryWidth-statusWidth-dateWidth, 10)

	return []table.Column{
		{Title: "ID", Width: idWidth},
		{Title: "User", Width: userWidth},
		{Title: "Amount", Width: amountWidth},
		{Title: "Category", Width: categoryWidth},
		{Title: "Status", Width: statusWidth},
		{Title: "Date", Width: dateWidth},
	}
}
