// Package scroll decides when the visible window is close enough to the end
// of the loaded rows to request the next page.
package scroll

import (
	"sync"
	"time"
)

// Defaults for the trigger.
const (
	DefaultThreshold = 90.0
	DefaultCooldown  = 100 * time.Millisecond
)

// Position describes the visible window over the loaded rows.
type Position struct {
	Offset   int
	Viewport int
	Total    int
}

// Percent returns how far the bottom of the viewport is through the rows,
// as a percentage. An empty list counts as fully scrolled.
func Percent(pos Position) float64 {
	if pos.Total <= 0 {
		return 100
	}
	return float64(pos.Offset+pos.Viewport) / float64(pos.Total) * 100
}

// State is the trigger's lifecycle.
type State int

const (
	Idle State = iota
	Fetching
	Cooling
)

func (s State) String() string {
	switch s {
	case Fetching:
		return "fetching"
	case Cooling:
		return "cooling"
	default:
		return "idle"
	}
}

// Option configures a Trigger.
type Option func(*Trigger)

// WithThreshold sets the scroll percentage that fires a fetch.
func WithThreshold(pct float64) Option {
	return func(t *Trigger) {
		if pct > 0 && pct <= 100 {
			t.threshold = pct
		}
	}
}

// WithCooldown sets the minimum time between fires.
func WithCooldown(d time.Duration) Option {
	return func(t *Trigger) {
		if d >= 0 {
			t.cooldown = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Trigger) { t.now = now }
}

// Trigger fires at most once per cooldown window, and only while more
// data exists and nothing is being fetched. The caller's in-flight check
// stays authoritative; the cooldown only absorbs bursts of scroll events.
type Trigger struct {
	lastFire  time.Time
	now       func() time.Time
	threshold float64
	cooldown  time.Duration
	fetching  bool
	mu        sync.Mutex
}

// NewTrigger creates a trigger with the default threshold and cooldown.
func NewTrigger(opts ...Option) *Trigger {
	t := &Trigger{
		threshold: DefaultThreshold,
		cooldown:  DefaultCooldown,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Threshold returns the firing percentage.
func (t *Trigger) Threshold() float64 {
	return t.threshold
}

// Observe reports whether a next-page fetch should start for pos. A true
// result moves the trigger to Fetching and arms the cooldown.
func (t *Trigger) Observe(pos Position, hasMore, isFetching bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !hasMore || isFetching || t.fetching {
		return false
	}
	now := t.now()
	if !t.lastFire.IsZero() && now.Sub(t.lastFire) < t.cooldown {
		return false
	}
	if Percent(pos) < t.threshold {
		return false
	}

	t.fetching = true
	t.lastFire = now
	return true
}

// Done records that the fetch started by the last fire has finished.
func (t *Trigger) Done() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fetching = false
}

// Reset clears the fetching flag and the cooldown, for example after the
// filters change.
func (t *Trigger) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fetching = false
	t.lastFire = time.Time{}
}

// State reports the current lifecycle state.
func (t *Trigger) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case t.fetching:
		return Fetching
	case !t.lastFire.IsZero() && t.now().Sub(t.lastFire) < t.cooldown:
		return Cooling
	default:
		return Idle
	}
}
