package filters

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/remmiculous/transaction-insights-dashboard/internal/model"
)

// DefaultDebounce is the quiet period before typed search text is applied.
const DefaultDebounce = 500 * time.Millisecond

// DefaultCategories are the selectable categories.
var DefaultCategories = []string{"payment", "deposit", "withdraw", "invoice"}

// ChangeFunc is notified with the new state after every applied change.
type ChangeFunc func(model.FilterState)

// Option configures a Controller.
type Option func(*Controller)

// WithDebounce sets the search debounce delay.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.debounce = d
		}
	}
}

// WithDateMode sets how date selections are expressed.
func WithDateMode(mode model.DateMode) Option {
	return func(c *Controller) { c.dateMode = mode }
}

// WithCategories overrides the selectable categories.
func WithCategories(categories []string) Option {
	return func(c *Controller) {
		if len(categories) > 0 {
			c.categories = categories
		}
	}
}

// Controller holds the applied filter state and the raw search buffer.
// Every change goes through Reduce. Search text is applied only after the
// caller reports that the debounce period settled for the latest ticket.
type Controller struct {
	applied    model.FilterState
	listeners  []ChangeFunc
	dateMode   model.DateMode
	rawSearch  string
	categories []string
	debounce   time.Duration
	ticket     uint64
	mu         sync.Mutex
}

// NewController creates a controller starting from initial.
func NewController(initial model.FilterState, opts ...Option) *Controller {
	c := &Controller{
		applied:    initial.Normalize(),
		debounce:   DefaultDebounce,
		dateMode:   model.DateModeDay,
		categories: DefaultCategories,
	}
	c.rawSearch = c.applied.Search

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the applied filter state.
func (c *Controller) State() model.FilterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applied
}

// RawSearch returns the search text as typed, before debouncing.
func (c *Controller) RawSearch() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rawSearch
}

// Debounce returns the search debounce delay.
func (c *Controller) Debounce() time.Duration {
	return c.debounce
}

// DateMode returns the configured date mode.
func (c *Controller) DateMode() model.DateMode {
	return c.dateMode
}

// Categories returns the selectable categories.
func (c *Controller) Categories() []string {
	return c.categories
}

// OnChange registers fn to be called after every applied change.
func (c *Controller) OnChange(fn ChangeFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Apply reduces intent into the applied state immediately. It reports
// whether the state changed.
func (c *Controller) Apply(intent Intent) (model.FilterState, bool) {
	c.mu.Lock()
	next := Reduce(c.applied, intent)

	switch in := intent.(type) {
	case Clear:
		c.rawSearch = ""
		c.ticket++
	case CommitSearch:
		c.rawSearch = in.Text
		c.ticket++
	}

	changed := !next.Equal(c.applied)
	c.applied = next
	listeners := c.listeners
	c.mu.Unlock()

	if changed {
		for _, fn := range listeners {
			fn(next)
		}
	}
	return next, changed
}

// Clear atomically resets every filter and the search buffer.
func (c *Controller) Clear() (model.FilterState, bool) {
	return c.Apply(Clear{})
}

// TypeSearch records typed text and returns a ticket. The caller waits for
// the debounce delay and then calls SearchSettled with the ticket.
func (c *Controller) TypeSearch(text string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rawSearch = text
	c.ticket++
	return c.ticket
}

// SearchSettled applies the typed text if ticket is still the latest and
// the trimmed text differs from the applied search.
func (c *Controller) SearchSettled(ticket uint64) (model.FilterState, bool) {
	c.mu.Lock()
	if ticket != c.ticket {
		state := c.applied
		c.mu.Unlock()
		return state, false
	}
	text := strings.TrimSpace(c.rawSearch)
	if text == c.applied.Search {
		state := c.applied
		c.mu.Unlock()
		return state, false
	}
	next := Reduce(c.applied, CommitSearch{Text: text})
	c.applied = next
	listeners := c.listeners
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
	return next, true
}

// Sync adopts an externally reset state and shows its search text in the
// buffer. Pending search tickets are invalidated.
func (c *Controller) Sync(external model.FilterState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applied = external.Normalize()
	c.rawSearch = c.applied.Search
	c.ticket++
}

// HasActive reports whether anything is selected or typed.
func (c *Controller) HasActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.applied.IsEmpty() || strings.TrimSpace(c.rawSearch) != ""
}

// NextStatus cycles the single-status selection: all, success, failed,
// pending, all.
func (c *Controller) NextStatus() Intent {
	state := c.State()
	if len(state.Status) != 1 {
		if len(state.Status) == 0 {
			return SetStatus{Values: []string{model.StatusSuccess.String()}}
		}
		return SetStatus{Values: []string{model.AllSentinel}}
	}
	for i, s := range model.AllStatuses {
		if s == state.Status[0] {
			if i == len(model.AllStatuses)-1 {
				return SetStatus{Values: []string{model.AllSentinel}}
			}
			return SetStatus{Values: []string{model.AllStatuses[i+1].String()}}
		}
	}
	return SetStatus{Values: []string{model.AllSentinel}}
}

// NextCategory cycles through all and the configured categories.
func (c *Controller) NextCategory() Intent {
	current := c.State().Category
	if current == "" {
		return SetCategory{Value: c.categories[0]}
	}
	for i, cat := range c.categories {
		if strings.EqualFold(cat, current) {
			if i == len(c.categories)-1 {
				return SetCategory{Value: model.AllSentinel}
			}
			return SetCategory{Value: c.categories[i+1]}
		}
	}
	return SetCategory{Value: model.AllSentinel}
}

// DateIntent builds the date intent for the configured mode from user
// input. Day mode takes one date; range mode takes "from..to" where either
// side may be empty. Empty input clears the date.
func (c *Controller) DateIntent(input string, loc *time.Location) (Intent, error) {
	input = strings.TrimSpace(input)
	if loc == nil {
		loc = time.Local
	}

	if c.dateMode == model.DateModeRange {
		if input == "" {
			return SetRange{}, nil
		}
		fromRaw, toRaw, _ := strings.Cut(input, "..")
		from, err := parseDate(fromRaw, time.UTC)
		if err != nil {
			return nil, err
		}
		to, err := parseDate(toRaw, time.UTC)
		if err != nil {
			return nil, err
		}
		return SetRange{From: from, To: to}, nil
	}

	day, err := parseDate(input, loc)
	if err != nil {
		return nil, err
	}
	return SetDay{Day: day}, nil
}

func parseDate(raw string, loc *time.Location) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, raw, loc)
	if err != nil {
		return nil, &DateError{Input: raw, Err: err}
	}
	return &t, nil
}

// DateError reports unparseable date input.
type DateError struct {
	Err   error
	Input string
}

func (e *DateError) Error() string {
	return fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", e.Input)
}

func (e *DateError) Unwrap() error {
	return e.Err
}
