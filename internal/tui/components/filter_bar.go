package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/remmiculous/transaction-insights-dashboard/internal/insights"
	"github.com/remmiculous/transaction-insights-dashboard/internal/model"
	"github.com/remmiculous/transaction-insights-dashboard/internal/tui/themes"
)

// FilterFocus is the input currently receiving keys.
type FilterFocus int

// Filter bar focus targets.
const (
	FocusNone FilterFocus = iota
	FocusSearch
	FocusDate
)

// FilterBarModel renders the search box and the filter chips.
type FilterBarModel struct {
	theme  themes.Theme
	state  model.FilterState
	search textinput.Model
	date   textinput.Model
	focus  FilterFocus
	width  int
	active bool
}

// NewFilterBar creates the filter bar.
func NewFilterBar(theme themes.Theme) FilterBarModel {
	search := textinput.New()
	search.Placeholder = "Search by name, ID or category..."
	search.CharLimit = 100
	search.Prompt = "/ "

	date := textinput.New()
	date.CharLimit = 22
	date.Prompt = "date: "

	return FilterBarModel{
		theme:  theme,
		search: search,
		date:   date,
		width:  80,
	}
}

// SetState updates the chips from the applied filters. active also covers
// typed search text that has not settled yet.
func (m *FilterBarModel) SetState(state model.FilterState, active bool) {
	m.state = state
	m.active = active
}

// SetSearch replaces the search box text.
func (m *FilterBarModel) SetSearch(text string) {
	m.search.SetValue(text)
}

// SearchValue returns the search box text.
func (m FilterBarModel) SearchValue() string {
	return m.search.Value()
}

// DateValue returns the date input text.
func (m FilterBarModel) DateValue() string {
	return m.date.Value()
}

// Focus returns the focused input.
func (m FilterBarModel) Focus() FilterFocus {
	return m.focus
}

// FocusSearch moves keyboard focus to the search box.
func (m *FilterBarModel) FocusSearch() tea.Cmd {
	m.focus = FocusSearch
	m.date.Blur()
	return m.search.Focus()
}

// FocusDate opens the date input, prefilled with the applied date.
func (m *FilterBarModel) FocusDate(mode model.DateMode) tea.Cmd {
	m.focus = FocusDate
	m.search.Blur()
	if mode == model.DateModeRange {
		m.date.Placeholder = "YYYY-MM-DD..YYYY-MM-DD"
	} else {
		m.date.Placeholder = "YYYY-MM-DD"
	}
	m.date.SetValue(dateInputValue(m.state.Date))
	m.date.CursorEnd()
	return m.date.Focus()
}

// Blur releases keyboard focus.
func (m *FilterBarModel) Blur() {
	m.focus = FocusNone
	m.search.Blur()
	m.date.Blur()
}

// Resize sets the available width.
func (m *FilterBarModel) Resize(width int) {
	m.width = width
	m.search.Width = max(width/3, 20)
}

// Update forwards keys to the focused input.
func (m FilterBarModel) Update(msg tea.Msg) (FilterBarModel, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case FocusSearch:
		m.search, cmd = m.search.Update(msg)
	case FocusDate:
		m.date, cmd = m.date.Update(msg)
	}
	return m, cmd
}

// View renders the search box followed by the chips.
func (m FilterBarModel) View() string {
	var chips []string

	chips = append(chips, m.chip("All", len(m.state.Status) == 0))
	for _, s := range model.AllStatuses {
		chips = append(chips, m.chip(s.Label(), m.state.HasStatus(s)))
	}

	category := "All categories"
	if m.state.Category != "" {
		category = insights.DisplayCategory(m.state.Category)
	}
	chips = append(chips, m.chip(category, m.state.Category != ""))

	if m.focus == FocusDate {
		chips = append(chips, m.date.View())
	} else {
		chips = append(chips, m.chip(DateLabel(m.state.Date), m.state.Date.IsSet()))
	}

	if m.active {
		chips = append(chips, lipgloss.NewStyle().Foreground(m.theme.Error).Render("x clear filters"))
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.search.View(),
		strings.Join(chips, " "),
	)
}

func (m FilterBarModel) chip(label string, active bool) string {
	if active {
		return m.theme.ActiveChip.Render(label)
	}
	return m.theme.Chip.Render(label)
}

// DateLabel describes the applied date filter.
func DateLabel(d model.DateFilter) string {
	if !d.IsSet() {
		return "Any date"
	}
	if d.Mode == model.DateModeDay && d.From != nil {
		return d.From.Format(DisplayDateLayout)
	}

	from, to := "...", "..."
	if d.From != nil {
		from = d.From.Format(DisplayDateLayout)
	}
	if d.To != nil {
		to = d.To.Format(DisplayDateLayout)
	}
	return from + " to " + to
}

func dateInputValue(d model.DateFilter) string {
	if !d.IsSet() {
		return ""
	}
	if d.Mode == model.DateModeDay && d.From != nil {
		return d.From.Format("2006-01-02")
	}

	var from, to string
	if d.From != nil {
		from = d.From.Format("2006-01-02")
	}
	if d.To != nil {
		to = d.To.Format("2006-01-02")
	}
	return from + ".." + to
}
