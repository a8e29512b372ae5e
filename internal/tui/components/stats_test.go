package components

import (
	"testing"

	"github.com/remmiculous/transaction-insights-dashboard/internal/insights"
	"github.com/remmiculous/transaction-insights-dashboard/internal/model"
	"github.com/remmiculous/transaction-insights-dashboard/internal/tui/themes"
	"github.com/stretchr/testify/assert"
)

func TestStatCards_LoadingShowsPlaceholders(t *testing.T) {
	m := NewStatCards(themes.Default)
	m.Resize(120)

	view := m.View()
	assert.Contains(t, view, "Total Transactions")
	assert.Contains(t, view, cardPlaceholder)
	assert.NotContains(t, view, "Based on")
}

func TestStatCards_Summary(t *testing.T) {
	txns := []model.Transaction{
		{ID: "1", Amount: "1200.50", Category: "payment", Status: model.StatusSuccess},
		{ID: "2", Amount: "99.50", Category: "deposit", Status: model.StatusSuccess},
		{ID: "3", Amount: "10", Category: "deposit", Status: model.StatusFailure},
		{ID: "4", Amount: "5", Category: "invoice", Status: model.StatusPending},
	}

	m := NewStatCards(themes.Default)
	m.Resize(120)
	m.SetSummary(insights.Compute(txns))

	view := m.View()
	assert.Contains(t, view, "$1,300.00")
	assert.Contains(t, view, "50.0%")
	assert.Contains(t, view, "Payment")
	assert.Contains(t, view, "Based on 4 loaded transactions")
	assert.Equal(t, 4, m.Summary().TotalTransactions)
}

func TestStatCards_NoCategory(t *testing.T) {
	m := NewStatCards(themes.Default)
	m.Resize(120)
	m.SetSummary(insights.Compute(nil))

	view := m.View()
	assert.Contains(t, view, insights.NoCategory)
	assert.Contains(t, view, "0.0%")
	assert.Contains(t, view, "$0.00")
}
