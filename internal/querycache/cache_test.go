package querycache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/remmiculous/transaction-insights-dashboard/internal/common"
	"github.com/remmiculous/transaction-insights-dashboard/internal/metrics"
	"github.com/remmiculous/transaction-insights-dashboard/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	now time.Time
	mu  sync.Mutex
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// pagedFetcher serves total records in pages of size and counts calls.
type pagedFetcher struct {
	failures map[int]int
	calls    atomic.Int32
	total    int
	size     int
	mu       sync.Mutex
}

func (p *pagedFetcher) fetch(_ context.Context, cursor int, filters model.FilterState) ([]model.Transaction, error) {
	p.calls.Add(1)

	p.mu.Lock()
	if p.failures[cursor] > 0 {
		p.failures[cursor]--
		p.mu.Unlock()
		return nil, errors.New("boom")
	}
	p.mu.Unlock()

	start := (cursor - 1) * p.size
	page := []model.Transaction{}
	for i := start; i < start+p.size && i < p.total; i++ {
		page = append(page, model.Transaction{
			ID:       fmt.Sprintf("%d", i+1),
			Category: filters.Category,
		})
	}
	return page, nil
}

func newTestCache(t *testing.T, fetch Fetcher, opts ...Option) *Cache {
	t.Helper()
	base := []Option{WithRetryDelay(0), WithCleanupInterval(0)}
	c := New(fetch, append(base, opts...)...)
	t.Cleanup(c.Close)
	return c
}

func txnIDs(txns []model.Transaction) []string {
	out := make([]string, 0, len(txns))
	for _, t := range txns {
		out = append(out, t.ID)
	}
	return out
}

func TestCache_EmptyKeySnapshot(t *testing.T) {
	c := newTestCache(t, (&pagedFetcher{}).fetch)

	s := c.Snapshot(model.FilterState{})
	assert.Equal(t, StatusIdle, s.Status)
	assert.True(t, s.HasMore)
	assert.Empty(t, s.Transactions)
	assert.NoError(t, s.Err)
	assert.Equal(t, 0, c.Len())
}

func TestCache_ConcatenatesPagesInOrder(t *testing.T) {
	f := &pagedFetcher{total: 5, size: 2}
	c := newTestCache(t, f.fetch)
	ctx := context.Background()
	filters := model.FilterState{}

	s, err := c.FetchNextPage(ctx, filters)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, txnIDs(s.Transactions))
	assert.True(t, s.HasMore)
	assert.Equal(t, StatusSuccess, s.Status)

	s, err = c.FetchNextPage(ctx, filters)
	require.NoError(t, err)
	s, err = c.FetchNextPage(ctx, filters)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, txnIDs(s.Transactions))
	assert.Len(t, s.Pages, 3)
	assert.True(t, s.HasMore, "a short page does not end pagination")

	s, err = c.FetchNextPage(ctx, filters)
	require.NoError(t, err)
	assert.False(t, s.HasMore, "an empty page ends pagination")
	assert.Len(t, s.Transactions, 5)

	before := f.calls.Load()
	_, ok := c.BeginNextPage(filters)
	assert.False(t, ok)
	s, err = c.FetchNextPage(ctx, filters)
	require.NoError(t, err)
	assert.Equal(t, before, f.calls.Load(), "no fetch after the end")
	assert.Len(t, s.Transactions, 5)
}

func TestCache_InFlightGuard(t *testing.T) {
	c := newTestCache(t, (&pagedFetcher{total: 10, size: 2}).fetch)
	filters := model.FilterState{}

	req, ok := c.BeginNextPage(filters)
	require.True(t, ok)
	assert.Equal(t, 1, req.Cursor)

	_, ok = c.BeginNextPage(filters)
	assert.False(t, ok, "second begin while in flight must be refused")

	s := c.Snapshot(filters)
	assert.Equal(t, StatusLoading, s.Status)
	assert.True(t, s.IsFetching)
	assert.False(t, s.IsFetchingNextPage)

	snap, merged := c.Complete(c.Execute(context.Background(), req))
	require.True(t, merged)
	assert.False(t, snap.IsFetching)

	req, ok = c.BeginNextPage(filters)
	require.True(t, ok)
	assert.Equal(t, 2, req.Cursor)
	assert.True(t, c.Snapshot(filters).IsFetchingNextPage)
}

func TestCache_ConcurrentBeginsAllowOnlyOne(t *testing.T) {
	c := newTestCache(t, (&pagedFetcher{total: 10, size: 2}).fetch)

	var started atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := c.BeginNextPage(model.FilterState{}); ok {
				started.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), started.Load())
}

func TestCache_FilterChangeStartsAtFirstPage(t *testing.T) {
	f := &pagedFetcher{total: 10, size: 2}
	c := newTestCache(t, f.fetch)
	ctx := context.Background()

	all := model.FilterState{}
	_, err := c.FetchNextPage(ctx, all)
	require.NoError(t, err)
	_, err = c.FetchNextPage(ctx, all)
	require.NoError(t, err)

	payments := model.FilterState{Category: "payment"}
	assert.Equal(t, StatusIdle, c.Snapshot(payments).Status)

	req, ok := c.BeginNextPage(payments)
	require.True(t, ok)
	assert.Equal(t, 1, req.Cursor)
	assert.NotEqual(t, all.Key(), req.Key)

	s, _ := c.Complete(c.Execute(ctx, req))
	assert.Len(t, s.Transactions, 2)
	assert.Equal(t, "payment", s.Transactions[0].Category)

	// The previous key is kept and served from cache.
	assert.Len(t, c.Snapshot(all).Transactions, 4)
}

func TestCache_DiscardsResultForInvalidatedKey(t *testing.T) {
	m := metrics.New()
	c := newTestCache(t, (&pagedFetcher{total: 10, size: 2}).fetch, WithMetrics(m))
	filters := model.FilterState{Search: "alice"}

	req, ok := c.BeginNextPage(filters)
	require.True(t, ok)
	res := c.Execute(context.Background(), req)

	c.Invalidate(filters)

	// A new fetch for the same key starts over with a new generation.
	req2, ok := c.BeginNextPage(filters)
	require.True(t, ok)
	assert.Equal(t, 1, req2.Cursor)
	assert.NotEqual(t, req.Generation, req2.Generation)

	_, merged := c.Complete(res)
	assert.False(t, merged)
	s := c.Snapshot(filters)
	assert.Empty(t, s.Transactions)
	assert.True(t, s.IsFetching, "the newer request is still in flight")

	s, merged = c.Complete(c.Execute(context.Background(), req2))
	require.True(t, merged)
	assert.Len(t, s.Transactions, 2)
}

func TestCache_DiscardsResultAfterReset(t *testing.T) {
	c := newTestCache(t, (&pagedFetcher{total: 4, size: 2}).fetch)

	req, ok := c.BeginNextPage(model.FilterState{})
	require.True(t, ok)
	res := c.Execute(context.Background(), req)

	c.Reset()
	_, merged := c.Complete(res)
	assert.False(t, merged)
	assert.Equal(t, 0, c.Len())
}

func TestCache_RetriesOnce(t *testing.T) {
	tests := []struct {
		name         string
		failures     int
		wantAttempts int
		wantErr      bool
	}{
		{name: "succeeds first time", failures: 0, wantAttempts: 1},
		{name: "recovers on retry", failures: 1, wantAttempts: 2},
		{name: "fails after one retry", failures: 2, wantAttempts: 2, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &pagedFetcher{total: 4, size: 2, failures: map[int]int{1: tt.failures}}
			c := newTestCache(t, f.fetch)

			req, ok := c.BeginNextPage(model.FilterState{})
			require.True(t, ok)
			res := c.Execute(context.Background(), req)

			assert.Equal(t, tt.wantAttempts, res.Attempts)
			assert.Equal(t, int32(tt.wantAttempts), f.calls.Load())
			if tt.wantErr {
				require.Error(t, res.Err)
				assert.ErrorIs(t, res.Err, common.ErrMaxRetries)
				assert.Contains(t, common.ErrorMessage(res.Err), "boom", "last error is preserved")
			} else {
				require.NoError(t, res.Err)
			}
		})
	}
}

func TestCache_ErrorSurfacedOnlyWithoutData(t *testing.T) {
	f := &pagedFetcher{total: 10, size: 2, failures: map[int]int{1: 2}}
	c := newTestCache(t, f.fetch)
	ctx := context.Background()
	filters := model.FilterState{}

	s, err := c.FetchNextPage(ctx, filters)
	require.Error(t, err)
	assert.Equal(t, StatusError, s.Status)
	assert.Error(t, s.Err)
	assert.True(t, s.HasMore)

	// Retrying the same key recovers.
	s, err = c.FetchNextPage(ctx, filters)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, s.Status)
	assert.NoError(t, s.Err)

	// A failure on a later page keeps the loaded data and hides the error.
	f.mu.Lock()
	f.failures[2] = 2
	f.mu.Unlock()
	s, err = c.FetchNextPage(ctx, filters)
	require.Error(t, err)
	assert.Equal(t, StatusSuccess, s.Status)
	assert.NoError(t, s.Err)
	assert.Len(t, s.Transactions, 2)
}

func TestCache_StaleRefetchReplacesPages(t *testing.T) {
	clock := newFakeClock()
	f := &pagedFetcher{total: 10, size: 2}
	c := newTestCache(t, f.fetch, WithClock(clock.Now), WithStaleTime(2*time.Minute))
	ctx := context.Background()
	filters := model.FilterState{}

	_, err := c.FetchNextPage(ctx, filters)
	require.NoError(t, err)
	_, err = c.FetchNextPage(ctx, filters)
	require.NoError(t, err)

	_, ok := c.BeginRefetch(filters)
	assert.False(t, ok, "fresh data is not refetched")

	clock.Advance(3 * time.Minute)
	s := c.Snapshot(filters)
	assert.True(t, s.Stale)

	req, ok := c.BeginRefetch(filters)
	require.True(t, ok)
	assert.True(t, req.Refetch)
	assert.Equal(t, 1, req.Cursor)

	// Old data stays visible while the refetch runs.
	s = c.Snapshot(filters)
	assert.Len(t, s.Transactions, 4)
	assert.True(t, s.IsFetching)
	assert.False(t, s.IsFetchingNextPage)

	_, ok = c.BeginNextPage(filters)
	assert.False(t, ok)

	s, merged := c.Complete(c.Execute(ctx, req))
	require.True(t, merged)
	assert.Equal(t, []string{"1", "2"}, txnIDs(s.Transactions))
	assert.False(t, s.Stale)
}

func TestCache_EvictsInactiveKeys(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, (&pagedFetcher{total: 4, size: 2}).fetch,
		WithClock(clock.Now), WithGCTime(10*time.Minute))
	ctx := context.Background()

	old := model.FilterState{Category: "payment"}
	recent := model.FilterState{Category: "deposit"}
	inFlight := model.FilterState{Category: "invoice"}

	_, err := c.FetchNextPage(ctx, old)
	require.NoError(t, err)
	_, ok := c.BeginNextPage(inFlight)
	require.True(t, ok)

	clock.Advance(8 * time.Minute)
	_, err = c.FetchNextPage(ctx, recent)
	require.NoError(t, err)

	clock.Advance(3 * time.Minute)
	assert.Equal(t, 1, c.Evict())
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, StatusIdle, c.Snapshot(old).Status)
	assert.Equal(t, StatusSuccess, c.Snapshot(recent).Status)
	assert.True(t, c.Snapshot(inFlight).IsFetching)
}

func TestCache_ObservedKeyIsNotEvicted(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, (&pagedFetcher{total: 10, size: 2}).fetch,
		WithClock(clock.Now), WithGCTime(10*time.Minute))
	ctx := context.Background()

	shown := model.FilterState{Category: "payment"}
	other := model.FilterState{Category: "deposit"}

	c.Observe(shown)
	for range 3 {
		_, err := c.FetchNextPage(ctx, shown)
		require.NoError(t, err)
	}
	_, err := c.FetchNextPage(ctx, other)
	require.NoError(t, err)

	clock.Advance(11 * time.Minute)
	assert.Equal(t, 1, c.Evict())
	assert.Equal(t, StatusIdle, c.Snapshot(other).Status)

	s, err := c.FetchNextPage(ctx, shown)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6", "7", "8"}, txnIDs(s.Transactions))

	// Once another key is observed the old one ages out normally.
	c.Observe(other)
	clock.Advance(11 * time.Minute)
	assert.Equal(t, 1, c.Evict())
	assert.Equal(t, StatusIdle, c.Snapshot(shown).Status)
}

func TestCache_LookupsCountedPerObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := newTestCache(t, (&pagedFetcher{total: 4, size: 2}).fetch,
		WithMetrics(metrics.NewWithRegistry(reg, reg)))
	filters := model.FilterState{}

	c.Observe(filters)
	_, err := c.FetchNextPage(context.Background(), filters)
	require.NoError(t, err)
	c.Snapshot(filters)
	c.Snapshot(filters)
	c.Observe(filters)

	expected := `
# HELP query_cache_lookups_total Query cache lookups by result (hit or miss)
# TYPE query_cache_lookups_total counter
query_cache_lookups_total{result="hit"} 1
query_cache_lookups_total{result="miss"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "query_cache_lookups_total"))
}

func TestCache_JanitorRuns(t *testing.T) {
	clock := newFakeClock()
	c := New((&pagedFetcher{total: 2, size: 2}).fetch,
		WithClock(clock.Now),
		WithGCTime(time.Minute),
		WithRetryDelay(0),
		WithCleanupInterval(5*time.Millisecond))
	defer c.Close()

	_, err := c.FetchNextPage(context.Background(), model.FilterState{})
	require.NoError(t, err)
	clock.Advance(2 * time.Minute)

	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)
	c.Close()
}

func TestCache_CanceledContextIsNotRetried(t *testing.T) {
	calls := 0
	c := newTestCache(t, func(ctx context.Context, _ int, _ model.FilterState) ([]model.Transaction, error) {
		calls++
		return nil, ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchNextPage(ctx, model.FilterState{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
