package mockapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/remmiculous/transaction-insights-dashboard/internal/common"
	"github.com/remmiculous/transaction-insights-dashboard/internal/model"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Faults injects failures and latency into the fixture API.
type Faults struct {
	// FailEvery makes every Nth request fail with 500. Zero disables it.
	FailEvery int
	Latency   time.Duration
}

// Server serves the fixture transactions API.
type Server struct {
	store    *Store
	logger   *slog.Logger
	server   *http.Server
	addr     string
	faults   Faults
	requests atomic.Int64
}

// NewServer creates a fixture server on addr backed by store.
func NewServer(addr string, store *Store, faults Faults, logger *slog.Logger) *Server {
	if logger == nil {
		logger = common.DiscardLogger()
	}
	return &Server{
		addr:   addr,
		store:  store,
		faults: faults,
		logger: logger,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /transactions", s.withFaults(handleListTransactions(s.store, s.logger)))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, "Not found", http.StatusNotFound)
	})
	return mux
}

// Start serves until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting fixture API server", "addr", s.addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server failed: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("Shutting down fixture API server")
		return s.server.Shutdown(shutdownCtx)
	}
}

func (s *Server) withFaults(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := s.requests.Add(1)

		if s.faults.Latency > 0 {
			select {
			case <-time.After(s.faults.Latency):
			case <-r.Context().Done():
				return
			}
		}

		if s.faults.FailEvery > 0 && n%int64(s.faults.FailEvery) == 0 {
			s.logger.Debug("Injecting fault", "request", n)
			writeError(w, "Injected failure", http.StatusInternalServerError)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// handleListTransactions returns a handler that lists one page of
// transactions.
// GET /transactions?page=&limit=&search=&category=&status=&createdAt_gte=...
func handleListTransactions(store *Store, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		page, err := intParam(q.Get(model.ParamPage), 1)
		if err != nil {
			writeError(w, "invalid page: "+err.Error(), http.StatusBadRequest)
			return
		}
		limit, err := intParam(q.Get(model.ParamLimit), defaultLimit)
		if err != nil {
			writeError(w, "invalid limit: "+err.Error(), http.StatusBadRequest)
			return
		}
		limit = min(max(limit, 1), maxLimit)

		filters, err := model.ParseFilterQuery(q)
		if err != nil {
			logger.Debug("Invalid filter query", "query", r.URL.RawQuery, "error", err)
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		txns, err := store.Query(r.Context(), filters, page, limit)
		if err != nil {
			logger.Error("Failed to query transactions", "error", err)
			writeError(w, "Failed to load transactions", http.StatusInternalServerError)
			return
		}

		logger.Debug("Served transactions page",
			"page", page,
			"limit", limit,
			"count", len(txns),
			"filters", filters.String())

		writeJSON(w, txns, http.StatusOK)
	})
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, map[string]string{"message": message}, status)
}
