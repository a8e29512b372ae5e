package mockapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/remmiculous/transaction-insights-dashboard/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandleListTransactions(t *testing.T) {
	srv := NewServer("", newTestStore(t, fixture()...), Faults{}, nil)
	h := srv.Handler()

	tests := []struct {
		name   string
		target string
		want   []string
	}{
		{name: "first page", target: "/transactions?page=1&limit=2", want: []string{"4", "3"}},
		{name: "second page", target: "/transactions?page=2&limit=2", want: []string{"2", "1"}},
		{name: "past the end", target: "/transactions?page=3&limit=2", want: []string{}},
		{name: "repeated status", target: "/transactions?status=true&status=pending", want: []string{"4", "3", "1"}},
		{name: "all sentinel ignored", target: "/transactions?category=all", want: []string{"4", "3", "2", "1"}},
		{name: "day bounds", target: "/transactions?createdAt_gte=2024-03-03T00:00:00.000Z&createdAt_lte=2024-03-03T23:59:59.999Z", want: []string{"4", "3"}},
		{name: "range", target: "/transactions?dateFrom=2024-03-01&dateTo=2024-03-01", want: []string{"1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, tt.target)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var txns []model.Transaction
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &txns))
			if len(tt.want) == 0 {
				assert.JSONEq(t, "[]", rec.Body.String())
				return
			}
			assert.Equal(t, tt.want, ids(txns))
		})
	}
}

func TestHandleListTransactions_BadRequest(t *testing.T) {
	h := NewServer("", newTestStore(t), Faults{}, nil).Handler()

	for _, target := range []string{
		"/transactions?page=abc",
		"/transactions?limit=x",
		"/transactions?status=maybe",
		"/transactions?createdAt_gte=2024-03-01&dateTo=2024-03-02",
	} {
		rec := get(t, h, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.NotEmpty(t, body["message"], target)
	}
}

func TestServer_FailEvery(t *testing.T) {
	h := NewServer("", newTestStore(t, fixture()...), Faults{FailEvery: 2}, nil).Handler()

	assert.Equal(t, http.StatusOK, get(t, h, "/transactions").Code)

	rec := get(t, h, "/transactions")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Injected failure"}`, rec.Body.String())

	assert.Equal(t, http.StatusOK, get(t, h, "/transactions").Code)
}

func TestServer_Latency(t *testing.T) {
	h := NewServer("", newTestStore(t), Faults{Latency: 30 * time.Millisecond}, nil).Handler()

	start := time.Now()
	assert.Equal(t, http.StatusOK, get(t, h, "/transactions").Code)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestServer_UnknownRoute(t *testing.T) {
	h := NewServer("", newTestStore(t), Faults{}, nil).Handler()
	rec := get(t, h, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Not found"}`, rec.Body.String())
}
