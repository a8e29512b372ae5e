package tui

import (
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/remmiculous/transaction-insights-dashboard/internal/common"
	"github.com/remmiculous/transaction-insights-dashboard/internal/filters"
	"github.com/remmiculous/transaction-insights-dashboard/internal/insights"
	"github.com/remmiculous/transaction-insights-dashboard/internal/model"
	"github.com/remmiculous/transaction-insights-dashboard/internal/querycache"
	"github.com/remmiculous/transaction-insights-dashboard/internal/scroll"
	"github.com/remmiculous/transaction-insights-dashboard/internal/tui/components"
	"github.com/remmiculous/transaction-insights-dashboard/internal/tui/themes"
)

// wheelStep is the number of rows one mouse wheel notch scrolls.
const wheelStep = 3

// State represents the current state of the TUI.
type State int

const (
	StateBrowse State = iota
	StateSearch
	StateDate
	StateHelp
)

// Model holds the dashboard state. Update is the only writer; commands
// running on other goroutines report back through messages.
type Model struct {
	theme    themes.Theme
	inputErr error
	failed   *querycache.Request
	cache    *querycache.Cache
	filters  *filters.Controller
	trigger  *scroll.Trigger
	logger   *slog.Logger
	snapshot querycache.Snapshot
	config   Config
	keymap   KeyMap
	help     help.Model
	spinner  spinner.Model
	table    components.TransactionListModel
	cards    components.StatCardsModel
	bar      components.FilterBarModel
	height   int
	width    int
	state    State
	quitting bool
}

// New creates the dashboard model. A query cache is required.
func New(opts ...Option) (Model, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Cache == nil {
		return Model{}, fmt.Errorf("%w: query cache is required", common.ErrMissingConfig)
	}
	cfg.fillDefaults()
	return newModel(cfg), nil
}

// newModel creates a new model with the given configuration.
func newModel(cfg Config) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(cfg.Theme.Primary)

	m := Model{
		config:  cfg,
		keymap:  DefaultKeyMap(),
		help:    help.New(),
		theme:   cfg.Theme,
		cache:   cfg.Cache,
		filters: cfg.Filters,
		trigger: cfg.Trigger,
		logger:  cfg.Logger,
		spinner: sp,
		table:   components.NewTransactionList(cfg.Theme),
		cards:   components.NewStatCards(cfg.Theme),
		bar:     components.NewFilterBar(cfg.Theme),
		width:   cfg.Width,
		height:  cfg.Height,
	}

	m.bar.SetSearch(m.filters.RawSearch())
	m.syncFilterBar()
	m.snapshot = m.cache.Snapshot(m.filters.State())
	m.applySnapshot()
	m.handleResize()
	return m
}

// Init starts the spinner and the first page of the active filters.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.activate())
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if !m.config.MouseSupport || m.state != StateBrowse || msg.Action != tea.MouseActionPress {
			return m, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.table.ScrollBy(-wheelStep)
		case tea.MouseButtonWheelDown:
			m.table.ScrollBy(wheelStep)
		default:
			return m, nil
		}
		return m, m.maybeLoadMore()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.handleResize()
		return m, m.maybeLoadMore()

	case pageLoadedMsg:
		return m, m.handlePageLoaded(msg.result)

	case searchSettledMsg:
		state, applied := m.filters.SearchSettled(msg.ticket)
		if !applied {
			m.syncFilterBar()
			return m, nil
		}
		return m, m.filtersChanged(state)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the current state.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.state == StateHelp {
		return m.renderHelp()
	}
	return m.renderDashboard()
}

// Filters returns the applied filter state.
func (m Model) Filters() model.FilterState {
	return m.filters.State()
}

// Snapshot returns the cache view of the active filters as last rendered.
func (m Model) Snapshot() querycache.Snapshot {
	return m.snapshot
}

// State returns the current input state.
func (m Model) State() State {
	return m.state
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keymap.ForceQuit) {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.state {
	case StateHelp:
		if key.Matches(msg, m.keymap.Help, m.keymap.Cancel, m.keymap.Quit) {
			m.state = StateBrowse
		}
		return m, nil
	case StateSearch:
		return m.handleSearchKey(msg)
	case StateDate:
		return m.handleDateKey(msg)
	}

	return m.handleBrowseKey(msg)
}

func (m Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Help):
		m.state = StateHelp
		return m, nil

	case key.Matches(msg, m.keymap.Search):
		m.state = StateSearch
		return m, m.bar.FocusSearch()

	case key.Matches(msg, m.keymap.Date):
		m.state = StateDate
		m.inputErr = nil
		return m, m.bar.FocusDate(m.filters.DateMode())

	case key.Matches(msg, m.keymap.CycleStatus):
		return m.applyIntent(m.filters.NextStatus())
	case key.Matches(msg, m.keymap.ToggleSuccess):
		return m.applyIntent(filters.ToggleStatus{Status: model.StatusSuccess})
	case key.Matches(msg, m.keymap.ToggleFailed):
		return m.applyIntent(filters.ToggleStatus{Status: model.StatusFailure})
	case key.Matches(msg, m.keymap.TogglePending):
		return m.applyIntent(filters.ToggleStatus{Status: model.StatusPending})
	case key.Matches(msg, m.keymap.CycleCategory):
		return m.applyIntent(m.filters.NextCategory())

	case key.Matches(msg, m.keymap.ClearFilters):
		state, changed := m.filters.Clear()
		m.bar.SetSearch("")
		if !changed {
			m.syncFilterBar()
			return m, nil
		}
		return m, m.filtersChanged(state)

	case key.Matches(msg, m.keymap.Refresh):
		return m, m.refresh()

	case key.Matches(msg, m.keymap.Up):
		m.table.ScrollBy(-1)
	case key.Matches(msg, m.keymap.Down):
		m.table.ScrollBy(1)
	case key.Matches(msg, m.keymap.PageUp):
		m.table.ScrollBy(-m.table.Position().Viewport)
	case key.Matches(msg, m.keymap.PageDown):
		m.table.ScrollBy(m.table.Position().Viewport)
	case key.Matches(msg, m.keymap.Home):
		m.table.GotoTop()
	case key.Matches(msg, m.keymap.End):
		m.table.ScrollBy(len(m.snapshot.Transactions))

	default:
		return m, nil
	}

	return m, m.maybeLoadMore()
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Cancel):
		// Typed text keeps settling in the background.
		m.bar.Blur()
		m.state = StateBrowse
		return m, nil

	case key.Matches(msg, m.keymap.Submit):
		m.bar.Blur()
		m.state = StateBrowse
		return m.applyIntent(filters.CommitSearch{Text: m.bar.SearchValue()})
	}

	before := m.bar.SearchValue()
	var cmd tea.Cmd
	m.bar, cmd = m.bar.Update(msg)
	if m.bar.SearchValue() == before {
		return m, cmd
	}

	ticket := m.filters.TypeSearch(m.bar.SearchValue())
	m.syncFilterBar()
	return m, tea.Batch(cmd, waitForSearch(m.filters.Debounce(), ticket))
}

func (m Model) handleDateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Cancel):
		m.bar.Blur()
		m.state = StateBrowse
		return m, nil

	case key.Matches(msg, m.keymap.Submit):
		m.bar.Blur()
		m.state = StateBrowse

		intent, err := m.filters.DateIntent(m.bar.DateValue(), m.config.Location)
		if err != nil {
			m.inputErr = err
			return m, nil
		}
		return m.applyIntent(intent)
	}

	var cmd tea.Cmd
	m.bar, cmd = m.bar.Update(msg)
	return m, cmd
}

// applyIntent reduces intent into the filters and loads the new key.
func (m Model) applyIntent(intent filters.Intent) (tea.Model, tea.Cmd) {
	state, changed := m.filters.Apply(intent)
	if !changed {
		m.syncFilterBar()
		return m, nil
	}
	return m, m.filtersChanged(state)
}

// filtersChanged switches the view to the key of state.
func (m *Model) filtersChanged(state model.FilterState) tea.Cmd {
	m.logger.Debug("Filters changed", "key", state.Key())

	m.inputErr = nil
	m.failed = nil
	m.trigger.Reset()
	m.syncFilterBar()
	cmd := m.activate()
	m.table.GotoTop()
	return cmd
}

// activate shows the active key and starts its first page, or a
// background refetch when its data is stale.
func (m *Model) activate() tea.Cmd {
	state := m.filters.State()
	m.snapshot = m.cache.Observe(state)

	var (
		req querycache.Request
		ok  bool
	)
	switch {
	case len(m.snapshot.Pages) == 0:
		req, ok = m.cache.BeginNextPage(state)
	case m.snapshot.Stale:
		req, ok = m.cache.BeginRefetch(state)
	}

	if ok {
		m.snapshot = m.cache.Snapshot(state)
	}
	m.applySnapshot()

	if !ok {
		return nil
	}
	return fetchPage(m.cache, req, m.config.FetchTimeout)
}

// refresh retries the fetch that failed on a key with data, or reloads the
// active key from its first page.
func (m *Model) refresh() tea.Cmd {
	state := m.filters.State()
	m.trigger.Reset()
	m.inputErr = nil

	if m.failed != nil && len(m.snapshot.Transactions) > 0 {
		failed := *m.failed
		m.failed = nil
		if failed.Refetch {
			return m.refetch()
		}
		return m.loadNextPage()
	}

	m.failed = nil
	if len(m.snapshot.Transactions) > 0 {
		m.cache.Invalidate(state)
	}
	cmd := m.activate()
	m.table.GotoTop()
	return cmd
}

// handlePageLoaded merges a fetch result. Results for keys other than the
// active one still land in the cache but do not touch the screen. Further
// pages are only requested by scrolling.
func (m *Model) handlePageLoaded(res querycache.Result) tea.Cmd {
	snap, merged := m.cache.Complete(res)
	if res.Key != m.filters.State().Key() {
		return nil
	}

	m.trigger.Done()
	if !merged {
		return nil
	}

	m.snapshot = snap
	m.applySnapshot()

	// Failures on a key with data stay out of the error state; the status
	// bar only offers a retry.
	if res.Err != nil {
		if len(snap.Transactions) > 0 {
			req := res.Request
			m.failed = &req
		}
		return nil
	}

	m.failed = nil
	return nil
}

// maybeLoadMore fetches the next page when the table is scrolled close to
// the end of the loaded rows.
func (m *Model) maybeLoadMore() tea.Cmd {
	if m.state == StateHelp || len(m.snapshot.Transactions) == 0 {
		return nil
	}
	if !m.trigger.Observe(m.table.Position(), m.snapshot.HasMore, m.snapshot.IsFetching) {
		return nil
	}
	cmd := m.loadNextPage()
	if cmd == nil {
		m.trigger.Done()
	}
	return cmd
}

func (m *Model) loadNextPage() tea.Cmd {
	state := m.filters.State()
	req, ok := m.cache.BeginNextPage(state)
	if !ok {
		return nil
	}
	m.snapshot = m.cache.Snapshot(state)
	return fetchPage(m.cache, req, m.config.FetchTimeout)
}

func (m *Model) refetch() tea.Cmd {
	state := m.filters.State()
	req, ok := m.cache.BeginRefetch(state)
	if !ok {
		return nil
	}
	m.snapshot = m.cache.Snapshot(state)
	return fetchPage(m.cache, req, m.config.FetchTimeout)
}

// applySnapshot pushes the snapshot into the table and cards.
func (m *Model) applySnapshot() {
	m.table.SetTransactions(m.snapshot.Transactions)
	if m.isInitialLoad() {
		m.cards.SetLoading(true)
		return
	}
	m.cards.SetSummary(insights.Compute(m.snapshot.Transactions))
}

// isInitialLoad reports whether the active key has nothing to show yet.
func (m Model) isInitialLoad() bool {
	return len(m.snapshot.Pages) == 0 &&
		(m.snapshot.Status == querycache.StatusLoading || m.snapshot.Status == querycache.StatusIdle)
}

func (m *Model) syncFilterBar() {
	m.bar.SetState(m.filters.State(), m.filters.HasActive())
}

// handleResize lays the components out for the terminal size.
func (m *Model) handleResize() {
	// Border (2) plus padding (2).
	usableWidth := max(m.width-4, 20)

	m.cards.Resize(usableWidth)
	m.bar.Resize(usableWidth)
	m.help.Width = usableWidth

	// Header (2), cards (6), filter bar (2), status bar and help (2),
	// border (2).
	tableHeight := max(m.height-14, 3)
	m.table.Resize(usableWidth, tableHeight)
}
