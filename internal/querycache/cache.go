// Package querycache holds paginated transaction results per filter
// combination and coordinates page fetches.
package querycache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/remmiculous/transaction-insights-dashboard/internal/common"
	"github.com/remmiculous/transaction-insights-dashboard/internal/metrics"
	"github.com/remmiculous/transaction-insights-dashboard/internal/model"
)

// Defaults for cache timing.
const (
	DefaultStaleTime  = 2 * time.Minute
	DefaultGCTime     = 10 * time.Minute
	DefaultRetry      = 1
	DefaultRetryDelay = time.Second
)

// Fetcher loads one page of transactions.
type Fetcher func(ctx context.Context, cursor int, filters model.FilterState) ([]model.Transaction, error)

// Status summarizes a key's lifecycle.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Request identifies one page fetch. Key and Generation tag the result so
// that it can be discarded if the entry changed while it was in flight.
type Request struct {
	Filters    model.FilterState
	Key        string
	Cursor     int
	Generation uint64
	// Refetch replaces all pages with the fetched first page.
	Refetch bool
}

// Result is the outcome of executing a Request.
type Result struct {
	Err          error
	Transactions []model.Transaction
	Request
	Attempts int
}

// Snapshot is a read-only view of one key.
type Snapshot struct {
	UpdatedAt time.Time
	// Err is set only when the key has no data to show.
	Err                error
	Key                string
	Status             Status
	Transactions       []model.Transaction
	Pages              [][]model.Transaction
	HasMore            bool
	IsFetching         bool
	IsFetchingNextPage bool
	Stale              bool
}

type entry struct {
	updatedAt  time.Time
	lastAccess time.Time
	err        error
	pages      [][]model.Transaction
	generation uint64
	cursor     int
	fetching   bool
	refetching bool
}

func (e *entry) hasMore() bool {
	if len(e.pages) == 0 {
		return true
	}
	return len(e.pages[len(e.pages)-1]) > 0
}

// Option configures a Cache.
type Option func(*Cache)

// WithStaleTime sets how long loaded data counts as fresh.
func WithStaleTime(d time.Duration) Option {
	return func(c *Cache) { c.staleTime = d }
}

// WithGCTime sets how long an unused key is kept.
func WithGCTime(d time.Duration) Option {
	return func(c *Cache) { c.gcTime = d }
}

// WithRetry sets the number of automatic retries after a failed fetch.
func WithRetry(n int) Option {
	return func(c *Cache) { c.retry = max(n, 0) }
}

// WithRetryDelay sets the pause before a retry.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Cache) { c.retryDelay = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithCleanupInterval sets the janitor period. Zero disables the janitor.
func WithCleanupInterval(d time.Duration) Option {
	return func(c *Cache) { c.cleanupInterval = d }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records cache metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// Cache is the query cache. It is safe for concurrent use. The per-key
// fetching flag guarantees at most one fetch in flight per key.
type Cache struct {
	entries         map[string]*entry
	fetch           Fetcher
	now             func() time.Time
	logger          *slog.Logger
	metrics         *metrics.Metrics
	stopCh          chan struct{}
	observed        string
	staleTime       time.Duration
	gcTime          time.Duration
	retryDelay      time.Duration
	cleanupInterval time.Duration
	retry           int
	nextGeneration  uint64
	mu              sync.Mutex
	closeOnce       sync.Once
}

// New creates a cache backed by fetch.
func New(fetch Fetcher, opts ...Option) *Cache {
	c := &Cache{
		entries:    make(map[string]*entry),
		fetch:      fetch,
		now:        time.Now,
		logger:     common.DiscardLogger(),
		staleTime:  DefaultStaleTime,
		gcTime:     DefaultGCTime,
		retry:      DefaultRetry,
		retryDelay: DefaultRetryDelay,
		stopCh:     make(chan struct{}),
	}
	c.cleanupInterval = c.gcTime / 2

	for _, opt := range opts {
		opt(c)
	}

	if c.cleanupInterval > 0 {
		go c.cleanup()
	}

	return c
}

// Observe marks the key for filters as the one on screen and returns its
// snapshot. The observed key is never evicted. Each call counts as one
// cache lookup.
func (c *Cache) Observe(filters model.FilterState) Snapshot {
	key := filters.Key()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.observed = key
	e, ok := c.entries[key]
	c.metrics.RecordLookup(ok && len(e.pages) > 0)
	return c.currentLocked(key)
}

// Snapshot returns the current view of the key for filters.
func (c *Cache) Snapshot(filters model.FilterState) Snapshot {
	key := filters.Key()

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.currentLocked(key)
}

func (c *Cache) currentLocked(key string) Snapshot {
	e, ok := c.entries[key]
	if !ok {
		return Snapshot{Key: key, Status: StatusIdle, HasMore: true}
	}
	e.lastAccess = c.now()
	return c.snapshotLocked(key, e)
}

func (c *Cache) snapshotLocked(key string, e *entry) Snapshot {
	s := Snapshot{
		Key:                key,
		UpdatedAt:          e.updatedAt,
		HasMore:            e.hasMore(),
		IsFetching:         e.fetching,
		IsFetchingNextPage: e.fetching && !e.refetching && len(e.pages) > 0,
		Pages:              make([][]model.Transaction, len(e.pages)),
	}

	total := 0
	for i, p := range e.pages {
		s.Pages[i] = p
		total += len(p)
	}
	s.Transactions = make([]model.Transaction, 0, total)
	for _, p := range e.pages {
		s.Transactions = append(s.Transactions, p...)
	}

	hasData := len(e.pages) > 0
	s.Stale = hasData && c.now().Sub(e.updatedAt) >= c.staleTime

	switch {
	case hasData:
		s.Status = StatusSuccess
	case e.fetching:
		s.Status = StatusLoading
	case e.err != nil:
		s.Status = StatusError
		s.Err = e.err
	default:
		s.Status = StatusIdle
	}

	return s
}

// entryLocked returns the entry for key, creating it with a fresh
// generation when absent.
func (c *Cache) entryLocked(key string) *entry {
	e, ok := c.entries[key]
	if !ok {
		c.nextGeneration++
		e = &entry{generation: c.nextGeneration}
		c.entries[key] = e
		c.metrics.SetCacheEntries(len(c.entries))
	}
	e.lastAccess = c.now()
	return e
}

// BeginNextPage reserves the fetch of the next page for filters. It refuses
// when a fetch for the key is already in flight or the last page was empty.
func (c *Cache) BeginNextPage(filters model.FilterState) (Request, bool) {
	key := filters.Key()

	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entryLocked(key)
	if e.fetching || !e.hasMore() {
		return Request{}, false
	}

	e.fetching = true
	e.refetching = false
	e.cursor = len(e.pages) + 1

	return Request{
		Filters:    filters,
		Key:        key,
		Cursor:     e.cursor,
		Generation: e.generation,
	}, true
}

// BeginRefetch reserves a background reload of the first page when the
// key has stale data. Existing pages stay visible until Complete.
func (c *Cache) BeginRefetch(filters model.FilterState) (Request, bool) {
	key := filters.Key()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.fetching || len(e.pages) == 0 {
		return Request{}, false
	}
	if c.now().Sub(e.updatedAt) < c.staleTime {
		return Request{}, false
	}

	e.lastAccess = c.now()
	e.fetching = true
	e.refetching = true
	e.cursor = 1

	return Request{
		Filters:    filters,
		Key:        key,
		Cursor:     1,
		Generation: e.generation,
		Refetch:    true,
	}, true
}

// Execute runs the fetcher for req with the configured automatic retries.
// It does not touch cache state and may run on any goroutine.
func (c *Cache) Execute(ctx context.Context, req Request) Result {
	res := Result{Request: req}

	err := common.WithRetry(ctx, func() error {
		res.Attempts++
		txns, err := c.fetch(ctx, req.Cursor, req.Filters)
		if err != nil {
			return err
		}
		res.Transactions = txns
		return nil
	}, common.RetryOptions{
		MaxAttempts:  c.retry + 1,
		InitialDelay: c.retryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2,
		OnRetry: func(attempt int, err error) {
			c.metrics.RecordRetry()
			c.logger.Debug("Retrying page fetch",
				"key", req.Key,
				"cursor", req.Cursor,
				"attempt", attempt,
				"error", err)
		},
	})
	if err != nil {
		res.Err = err
		res.Transactions = nil
	} else if res.Transactions == nil {
		res.Transactions = []model.Transaction{}
	}

	return res
}

// Complete merges a result into the cache. It returns false, leaving the
// cache untouched, when the result belongs to an entry that was invalidated
// or no longer expects that cursor.
func (c *Cache) Complete(res Result) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[res.Key]
	if !ok || e.generation != res.Generation || !e.fetching || e.cursor != res.Cursor || e.refetching != res.Refetch {
		c.metrics.RecordDiscarded()
		c.logger.Debug("Discarding stale page result",
			"key", res.Key,
			"cursor", res.Cursor,
			"generation", res.Generation)
		return Snapshot{}, false
	}

	e.fetching = false
	e.refetching = false
	e.lastAccess = c.now()
	c.metrics.RecordPage(res.Err, len(res.Transactions))

	if res.Err != nil {
		e.err = res.Err
		c.logger.Warn("Page fetch failed",
			"key", res.Key,
			"cursor", res.Cursor,
			"attempts", res.Attempts,
			"error", res.Err)
		return c.snapshotLocked(res.Key, e), true
	}

	if res.Refetch {
		e.pages = [][]model.Transaction{res.Transactions}
	} else {
		e.pages = append(e.pages, res.Transactions)
	}
	e.err = nil
	e.updatedAt = c.now()

	return c.snapshotLocked(res.Key, e), true
}

// FetchNextPage loads the next page for filters synchronously. When no
// page can be started it returns the current snapshot.
func (c *Cache) FetchNextPage(ctx context.Context, filters model.FilterState) (Snapshot, error) {
	req, ok := c.BeginNextPage(filters)
	if !ok {
		return c.Snapshot(filters), nil
	}

	res := c.Execute(ctx, req)
	snap, merged := c.Complete(res)
	if !merged {
		return c.Snapshot(filters), res.Err
	}
	return snap, res.Err
}

// Invalidate drops the key for filters. In-flight results for it are
// discarded and the next access starts again at the first page.
func (c *Cache) Invalidate(filters model.FilterState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, filters.Key())
	c.metrics.SetCacheEntries(len(c.entries))
}

// Reset drops every key.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.metrics.SetCacheEntries(0)
}

// Len returns the number of cached keys.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Evict removes keys unused for longer than the GC time. The observed key
// and keys with a fetch in flight are kept.
func (c *Cache) Evict() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	evicted := 0
	for key, e := range c.entries {
		if key == c.observed || e.fetching {
			continue
		}
		if now.Sub(e.lastAccess) > c.gcTime {
			delete(c.entries, key)
			evicted++
		}
	}
	if evicted > 0 {
		c.logger.Debug("Evicted inactive cache keys", "count", evicted)
		c.metrics.SetCacheEntries(len(c.entries))
	}
	return evicted
}

// cleanup periodically evicts inactive keys.
func (c *Cache) cleanup() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.Evict()
		}
	}
}

// Close stops the cleanup goroutine.
func (c *Cache) Close() {
	c.closeOnce.Do(func() { close(c.stopCh) })
}
