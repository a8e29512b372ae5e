package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/remmiculous/transaction-insights-dashboard/internal/mockapi"
	"github.com/remmiculous/transaction-insights-dashboard/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureServer records the query of every request and replies with body.
func captureServer(t *testing.T, body string) (*httptest.Server, *[]url.Values) {
	t.Helper()
	var queries []url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, TransactionsPath, r.URL.Path)
		queries = append(queries, r.URL.Query())
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &queries
}

func TestTransactionsQuery(t *testing.T) {
	day := time.Date(2024, 3, 5, 15, 0, 0, 0, time.UTC)
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		want    url.Values
		name    string
		filters model.FilterState
		cursor  int
	}{
		{
			name:   "no filters",
			cursor: 1,
			want:   url.Values{"page": {"1"}, "limit": {"20"}},
		},
		{
			name:   "cursor clamps to one",
			cursor: -3,
			want:   url.Values{"page": {"1"}, "limit": {"20"}},
		},
		{
			name:    "repeated status",
			cursor:  2,
			filters: model.FilterState{Status: []model.Status{model.StatusPending, model.StatusSuccess}},
			want:    url.Values{"page": {"2"}, "limit": {"20"}, "status": {"true", "pending"}},
		},
		{
			name:    "search and category",
			cursor:  1,
			filters: model.FilterState{Search: " alice ", Category: "payment"},
			want:    url.Values{"page": {"1"}, "limit": {"20"}, "search": {"alice"}, "category": {"payment"}},
		},
		{
			name:    "all sentinel omitted",
			cursor:  1,
			filters: model.FilterState{Category: "all"},
			want:    url.Values{"page": {"1"}, "limit": {"20"}},
		},
		{
			name:    "day bounds",
			cursor:  1,
			filters: model.FilterState{Date: model.Day(day)},
			want: url.Values{
				"page": {"1"}, "limit": {"20"},
				"createdAt_gte": {"2024-03-05T00:00:00.000Z"},
				"createdAt_lte": {"2024-03-05T23:59:59.999Z"},
			},
		},
		{
			name:    "range",
			cursor:  1,
			filters: model.FilterState{Date: model.Range(&from, &to)},
			want: url.Values{
				"page": {"1"}, "limit": {"20"},
				"dateFrom": {"2024-03-01"},
				"dateTo":   {"2024-03-07"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TransactionsQuery(tt.cursor, 20, tt.filters))
		})
	}
}

func TestFetchTransactions_SendsQuery(t *testing.T) {
	srv, queries := captureServer(t, `[]`)
	c := newTestClient(t, srv.URL, ClientConfig{PageSize: 5})

	filters := model.FilterState{Status: []model.Status{model.StatusSuccess, model.StatusFailure}}
	_, err := c.FetchTransactions(context.Background(), 3, filters)
	require.NoError(t, err)

	require.Len(t, *queries, 1)
	q := (*queries)[0]
	assert.Equal(t, "3", q.Get("page"))
	assert.Equal(t, "5", q.Get("limit"))
	assert.Equal(t, []string{"true", "false"}, q["status"])
}

func TestFetchTransactions_EmptyBodies(t *testing.T) {
	for _, body := range []string{`[]`, `null`, ``} {
		srv, _ := captureServer(t, body)
		c := newTestClient(t, srv.URL, ClientConfig{})

		txns, err := c.FetchTransactions(context.Background(), 1, model.FilterState{})
		require.NoError(t, err, "body %q", body)
		assert.NotNil(t, txns, "body %q", body)
		assert.Empty(t, txns, "body %q", body)
	}
}

func TestFetchTransactions_DecodesRecords(t *testing.T) {
	srv, _ := captureServer(t, `[
		{"id":"1","name":"Alice","avatar":"a.png","amount":"10.50","currency":"USD","category":"payment","status":true,"createdAt":"2024-03-01T10:00:00.000Z"},
		{"id":"2","name":"Bob","amount":"3","currency":"EUR","category":"deposit","status":false,"createdAt":"2024-03-02T10:00:00.000Z"},
		{"id":"3","name":"Cleo","amount":"7","currency":"EUR","category":"invoice","createdAt":"2024-03-03T10:00:00.000Z"}
	]`)
	c := newTestClient(t, srv.URL, ClientConfig{})

	txns, err := c.FetchTransactions(context.Background(), 1, model.FilterState{})
	require.NoError(t, err)
	require.Len(t, txns, 3)

	assert.Equal(t, "Alice", txns[0].Name)
	assert.Equal(t, model.StatusSuccess, txns[0].Status)
	assert.Equal(t, model.StatusFailure, txns[1].Status)
	assert.Equal(t, model.StatusPending, txns[2].Status)
}

func TestFetchTransactions_FixtureServer(t *testing.T) {
	store, err := mockapi.OpenStore(mockapi.MemoryDSN)
	require.NoError(t, err)
	defer store.Close()

	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Seed(context.Background(), mockapi.Generate(mockapi.GeneratorOptions{Count: 45, Seed: 3, Now: now}), nil))

	srv := httptest.NewServer(mockapi.NewServer("", store, mockapi.Faults{}, nil).Handler())
	defer srv.Close()

	c := newTestClient(t, srv.URL, ClientConfig{PageSize: 20})
	ctx := context.Background()

	var all []model.Transaction
	for cursor := 1; ; cursor++ {
		page, err := c.FetchTransactions(ctx, cursor, model.FilterState{})
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		all = append(all, page...)
		require.Less(t, cursor, 10, "pagination did not terminate")
	}
	assert.Len(t, all, 45)

	seen := map[string]bool{}
	for _, tx := range all {
		assert.False(t, seen[tx.ID], "duplicate id %s", tx.ID)
		seen[tx.ID] = true
	}

	pending, err := c.FetchTransactions(ctx, 1, model.FilterState{Status: []model.Status{model.StatusPending}})
	require.NoError(t, err)
	for _, tx := range pending {
		assert.Equal(t, model.StatusPending, tx.Status)
	}
}

func TestFetchTransactions_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Invalid date range"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, ClientConfig{})
	txns, err := c.FetchTransactions(context.Background(), 1, model.FilterState{})
	require.Error(t, err)
	assert.Nil(t, txns)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "Invalid date range", te.UserFacingMessage())
}
