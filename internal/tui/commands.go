package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/remmiculous/transaction-insights-dashboard/internal/querycache"
)

// fetchPage executes a claimed page request off the UI goroutine. The
// result is merged in Update when pageLoadedMsg arrives.
func fetchPage(cache *querycache.Cache, req querycache.Request, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		return pageLoadedMsg{result: cache.Execute(ctx, req)}
	}
}

// waitForSearch reports the search ticket once the debounce delay passed.
func waitForSearch(delay time.Duration, ticket uint64) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return searchSettledMsg{ticket: ticket}
	})
}
