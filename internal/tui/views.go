package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/remmiculous/transaction-insights-dashboard/internal/common"
	"github.com/remmiculous/transaction-insights-dashboard/internal/querycache"
)

// Status bar texts.
const (
	loadingMoreText = "Loading more..."
	endOfListText   = "No more transactions"
	retryHintText   = "Press r to retry"
	emptyListText   = "No transactions found"
)

// renderDashboard renders the header, cards, filters and table.
func (m Model) renderDashboard() string {
	header := lipgloss.JoinVertical(
		lipgloss.Left,
		m.theme.Title.Render("Transaction Insights"),
		m.theme.Subtitle.Render(m.filters.State().String()),
	)

	var body string
	switch {
	case m.isInitialLoad():
		body = m.renderLoading()
	case m.snapshot.Status == querycache.StatusError:
		body = m.renderError()
	case len(m.snapshot.Transactions) == 0:
		body = m.renderEmpty()
	default:
		body = m.table.View()
	}

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		m.cards.View(),
		m.bar.View(),
		body,
	)

	return m.wrapWithBorder(content)
}

// renderLoading renders the placeholder shown while the first page loads.
func (m Model) renderLoading() string {
	content := lipgloss.JoinVertical(
		lipgloss.Center,
		m.spinner.View()+" "+m.theme.Bold.Render("Loading transactions..."),
		"",
		lipgloss.NewStyle().Foreground(m.theme.Muted).Render(m.filters.State().String()),
	)
	return m.placeInBody(content)
}

// renderError renders a failed first page.
func (m Model) renderError() string {
	content := lipgloss.JoinVertical(
		lipgloss.Center,
		m.theme.StatusError.Render("Failed to load transactions"),
		"",
		m.theme.Normal.Render(common.ErrorMessage(m.snapshot.Err)),
		"",
		lipgloss.NewStyle().Foreground(m.theme.Muted).Render("Press r to retry"),
	)
	return m.placeInBody(content)
}

// renderEmpty renders a key whose first page was empty.
func (m Model) renderEmpty() string {
	hint := "Press r to reload"
	if m.filters.HasActive() {
		hint = "Press x to clear filters"
	}
	content := lipgloss.JoinVertical(
		lipgloss.Center,
		m.theme.Bold.Render(emptyListText),
		"",
		lipgloss.NewStyle().Foreground(m.theme.Muted).Render(hint),
	)
	return m.placeInBody(content)
}

func (m Model) placeInBody(content string) string {
	pos := m.table.Position()
	return lipgloss.Place(
		max(m.width-4, 20),
		pos.Viewport+2,
		lipgloss.Center,
		lipgloss.Center,
		content,
	)
}

// renderHelp renders the help screen.
func (m Model) renderHelp() string {
	title := m.theme.Title.Render("Transaction Insights - Help")

	sections := []struct {
		title string
		items []string
	}{
		{
			"Navigation",
			[]string{
				"↑/k, ↓/j    Move up/down",
				"PgUp/PgDn   Page up/down",
				"g/G         Go to start/end",
				"Wheel       Scroll",
			},
		},
		{
			"Filters",
			[]string{
				"/           Search (applies after a pause)",
				"s           Cycle status",
				"1/2/3       Toggle success/failed/pending",
				"c           Cycle category",
				"d           Date filter",
				"x           Clear all filters",
			},
		},
		{
			"Application",
			[]string{
				"r           Retry or refresh",
				"?           Toggle help",
				"q           Quit",
				"Ctrl+C      Force quit",
			},
		},
	}

	var content []string
	for _, section := range sections {
		content = append(content, m.theme.Subtitle.Render(section.title))

		for _, item := range section.items {
			parts := strings.SplitN(item, "  ", 2)
			if len(parts) == 2 {
				line := fmt.Sprintf("  %-12s %s",
					lipgloss.NewStyle().Foreground(m.theme.Primary).Render(parts[0]),
					m.theme.Normal.Render(strings.TrimSpace(parts[1])),
				)
				content = append(content, line)
			}
		}
		content = append(content, "")
	}

	footer := lipgloss.NewStyle().Foreground(m.theme.Muted).Render("Press ? or Esc to close help")

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		m.theme.BorderedBox.
			Width(60).
			MaxHeight(max(m.height-2, 10)).
			Render(
				lipgloss.JoinVertical(
					lipgloss.Left,
					title,
					"",
					lipgloss.JoinVertical(lipgloss.Left, content...),
					footer,
				),
			),
	)
}

// wrapWithBorder adds the status bar and a border around content.
func (m Model) wrapWithBorder(content string) string {
	fullContent := lipgloss.JoinVertical(
		lipgloss.Left,
		content,
		m.renderStatusBar(),
		m.help.View(m.keymap),
	)

	return m.theme.BorderedBox.
		Width(max(m.width-2, 20)).
		Render(fullContent)
}

// renderStatusBar renders the bottom status bar.
func (m Model) renderStatusBar() string {
	var left string
	switch m.state {
	case StateSearch:
		left = "Search"
	case StateDate:
		left = "Date"
	default:
		left = "Browse"
	}
	left = m.theme.ActiveChip.Render(left)

	center := m.statusText()

	right := lipgloss.NewStyle().Foreground(m.theme.Muted).Render("? Help")

	gap := max(m.width-4-lipgloss.Width(left)-lipgloss.Width(center)-lipgloss.Width(right), 2)
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		left,
		" ",
		center,
		strings.Repeat(" ", gap-1),
		right,
	)
}

// statusText is the fetch state of the active key.
func (m Model) statusText() string {
	if m.inputErr != nil {
		return m.theme.StatusError.Render(common.ErrorMessage(m.inputErr))
	}

	loaded := len(m.snapshot.Transactions)
	switch {
	case m.snapshot.IsFetchingNextPage:
		return m.spinner.View() + " " + loadingMoreText
	case m.snapshot.IsFetching && loaded > 0:
		return m.spinner.View() + " Refreshing..."
	case m.failed != nil && loaded > 0:
		return lipgloss.NewStyle().Foreground(m.theme.Muted).Render(retryHintText)
	case loaded > 0 && !m.snapshot.HasMore:
		return lipgloss.NewStyle().Foreground(m.theme.Muted).Render(endOfListText)
	case loaded > 0:
		return fmt.Sprintf("%d loaded", loaded)
	default:
		return ""
	}
}
