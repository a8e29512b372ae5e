package components

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/remmiculous/transaction-insights-dashboard/internal/insights"
	"github.com/remmiculous/transaction-insights-dashboard/internal/tui/themes"
)

const cardPlaceholder = "..."

// StatCardsModel renders the four insight cards above the table.
type StatCardsModel struct {
	theme   themes.Theme
	summary insights.Summary
	width   int
	loading bool
}

// NewStatCards creates the insight cards.
func NewStatCards(theme themes.Theme) StatCardsModel {
	return StatCardsModel{
		theme:   theme,
		width:   80,
		loading: true,
		summary: insights.Compute(nil),
	}
}

// SetSummary replaces the displayed figures.
func (m *StatCardsModel) SetSummary(s insights.Summary) {
	m.summary = s
	m.loading = false
}

// SetLoading shows placeholders until the first page arrives.
func (m *StatCardsModel) SetLoading(loading bool) {
	m.loading = loading
}

// Summary returns the displayed figures.
func (m StatCardsModel) Summary() insights.Summary {
	return m.summary
}

// Resize sets the total width shared by the cards.
func (m *StatCardsModel) Resize(width int) {
	m.width = width
}

// View renders the cards in one row with the scope caveat beneath.
func (m StatCardsModel) View() string {
	s := m.summary

	cards := []struct {
		label string
		value string
		hint  string
	}{
		{"Total Transactions", strconv.Itoa(s.TotalTransactions), "Loaded transactions"},
		{"Total Successful", insights.FormatMoney(s.SuccessfulAmount), "Processed successfully"},
		{"Success Rate", insights.FormatRate(s.SuccessRate), "Based on current view"},
		{"Top Category", insights.DisplayCategory(s.TopCategory), "By total volume"},
	}

	// Each card spends four cells on border and padding.
	cardWidth := max(m.width/len(cards)-4, 14)

	rendered := make([]string, len(cards))
	for i, c := range cards {
		value, hint := c.value, c.hint
		if m.loading {
			value, hint = cardPlaceholder, ""
		}
		rendered[i] = m.theme.Card.
			Width(cardWidth).
			Render(lipgloss.JoinVertical(
				lipgloss.Left,
				m.theme.CardLabel.Render(c.label),
				m.theme.CardValue.Render(value),
				m.theme.CardLabel.Render(hint),
			))
	}

	row := lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
	if m.loading {
		return row
	}
	return lipgloss.JoinVertical(
		lipgloss.Left,
		row,
		lipgloss.NewStyle().Foreground(m.theme.Muted).Italic(true).Render(s.Scope()),
	)
}
