package components

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/remmiculous/transaction-insights-dashboard/internal/model"
	"github.com/remmiculous/transaction-insights-dashboard/internal/tui/themes"
	"github.com/stretchr/testify/assert"
)

func TestDateLabel(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		want string
		date model.DateFilter
	}{
		{name: "unset", date: model.DateFilter{}, want: "Any date"},
		{name: "day", date: model.Day(from), want: "1 Mar 2024"},
		{name: "range", date: model.Range(&from, &to), want: "1 Mar 2024 to 7 Mar 2024"},
		{name: "open start", date: model.Range(nil, &to), want: "... to 7 Mar 2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DateLabel(tt.date))
		})
	}
}

func TestFilterBar_Chips(t *testing.T) {
	m := NewFilterBar(themes.Default)

	m.SetState(model.FilterState{}, false)
	view := m.View()
	assert.Contains(t, view, "All categories")
	assert.Contains(t, view, "Any date")
	assert.NotContains(t, view, "clear filters")

	m.SetState(model.FilterState{Category: "deposit", Status: []model.Status{model.StatusPending}}, true)
	view = m.View()
	assert.Contains(t, view, "Deposit")
	assert.Contains(t, view, "Pending")
	assert.Contains(t, view, "x clear filters")
}

func TestFilterBar_SearchFocus(t *testing.T) {
	m := NewFilterBar(themes.Default)
	m.FocusSearch()
	assert.Equal(t, FocusSearch, m.Focus())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("bob")})
	assert.Equal(t, "bob", m.SearchValue())

	m.Blur()
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Equal(t, "bob", m.SearchValue(), "blurred input ignores keys")
	assert.Equal(t, FocusNone, m.Focus())
}

func TestFilterBar_DatePrefill(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)

	m := NewFilterBar(themes.Default)
	m.SetState(model.FilterState{Date: model.Range(&from, &to)}, true)
	m.FocusDate(model.DateModeRange)

	assert.Equal(t, FocusDate, m.Focus())
	assert.Equal(t, "2024-03-01..2024-03-07", m.DateValue())

	m.SetState(model.FilterState{Date: model.Day(from)}, true)
	m.FocusDate(model.DateModeDay)
	assert.Equal(t, "2024-03-01", m.DateValue())
}
