package tui

import "github.com/remmiculous/transaction-insights-dashboard/internal/querycache"

// pageLoadedMsg carries a finished page fetch back to Update, which is the
// only place results are merged into the cache.
type pageLoadedMsg struct {
	result querycache.Result
}

// searchSettledMsg fires once the debounce delay for a search keystroke
// elapsed. Stale tickets are ignored by the filter controller.
type searchSettledMsg struct {
	ticket uint64
}
