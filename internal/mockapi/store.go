// Package mockapi is a local stand-in for the remote transactions service,
// backed by SQLite.
package mockapi

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/remmiculous/transaction-insights-dashboard/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

const createdAtLayout = "2006-01-02T15:04:05.000Z"

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	avatar     TEXT NOT NULL DEFAULT '',
	amount     TEXT NOT NULL,
	currency   TEXT NOT NULL,
	category   TEXT NOT NULL,
	status     INTEGER,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_transactions_category ON transactions(category);
`

// Store persists fixture transactions.
type Store struct {
	db *sqlx.DB
}

// row is the database shape of a transaction. A NULL status is pending.
type row struct {
	Status    sql.NullBool `db:"status"`
	ID        string       `db:"id"`
	Name      string       `db:"name"`
	Avatar    string       `db:"avatar"`
	Amount    string       `db:"amount"`
	Currency  string       `db:"currency"`
	Category  string       `db:"category"`
	CreatedAt string       `db:"created_at"`
}

// OpenStore opens (creating if needed) the fixture database at path. An
// empty path or MemoryDSN opens an in-memory database.
func OpenStore(path string) (*Store, error) {
	dsn := MemoryDSN
	if path != "" && path != MemoryDSN {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection keeps an in-memory database alive and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert upserts transactions in a single database transaction.
func (s *Store) Insert(ctx context.Context, txns []model.Transaction) error {
	if len(txns) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareNamedContext(ctx, `
		INSERT INTO transactions (id, name, avatar, amount, currency, category, status, created_at)
		VALUES (:id, :name, :avatar, :amount, :currency, :category, :status, :created_at)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			avatar = excluded.avatar,
			amount = excluded.amount,
			currency = excluded.currency,
			category = excluded.category,
			status = excluded.status,
			created_at = excluded.created_at`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, t := range txns {
		r, err := toRow(t)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, r); err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transactions: %w", err)
	}
	return nil
}

// Count returns the number of stored transactions.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM transactions`); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return n, nil
}

// Query returns one page of transactions matching filters, newest first.
// page is 1-based.
func (s *Store) Query(ctx context.Context, filters model.FilterState, page, limit int) ([]model.Transaction, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	where, args, err := whereClause(filters.Normalize())
	if err != nil {
		return nil, err
	}

	query := `SELECT id, name, avatar, amount, currency, category, status, created_at FROM transactions`
	if where != "" {
		query += " WHERE " + where
	}
	query += ` ORDER BY created_at DESC, id ASC LIMIT ? OFFSET ?`
	args = append(args, limit, (page-1)*limit)

	var rows []row
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}

	txns := make([]model.Transaction, 0, len(rows))
	for _, r := range rows {
		txns = append(txns, r.toModel())
	}
	return txns, nil
}

func whereClause(f model.FilterState) (string, []any, error) {
	var clauses []string
	var args []any

	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		clauses = append(clauses, `(LOWER(name) LIKE ? OR LOWER(id) LIKE ? OR LOWER(category) LIKE ?)`)
		args = append(args, like, like, like)
	}

	if f.Category != "" {
		clauses = append(clauses, `LOWER(category) = ?`)
		args = append(args, strings.ToLower(f.Category))
	}

	if len(f.Status) > 0 {
		var settled []bool
		pending := false
		for _, st := range f.Status {
			switch st {
			case model.StatusSuccess:
				settled = append(settled, true)
			case model.StatusFailure:
				settled = append(settled, false)
			case model.StatusPending:
				pending = true
			}
		}

		var parts []string
		if len(settled) > 0 {
			q, inArgs, err := sqlx.In(`status IN (?)`, settled)
			if err != nil {
				return "", nil, fmt.Errorf("failed to build status filter: %w", err)
			}
			parts = append(parts, q)
			args = append(args, inArgs...)
		}
		if pending {
			parts = append(parts, `status IS NULL`)
		}
		clauses = append(clauses, "("+strings.Join(parts, " OR ")+")")
	}

	switch f.Date.Mode {
	case model.DateModeRange:
		if f.Date.From != nil {
			clauses = append(clauses, `substr(created_at, 1, 10) >= ?`)
			args = append(args, f.Date.From.Format(time.DateOnly))
		}
		if f.Date.To != nil {
			clauses = append(clauses, `substr(created_at, 1, 10) <= ?`)
			args = append(args, f.Date.To.Format(time.DateOnly))
		}
	default:
		if f.Date.From != nil {
			clauses = append(clauses, `created_at >= ?`)
			args = append(args, f.Date.From.UTC().Format(createdAtLayout))
		}
		if f.Date.To != nil {
			clauses = append(clauses, `created_at <= ?`)
			args = append(args, f.Date.To.UTC().Format(createdAtLayout))
		}
	}

	return strings.Join(clauses, " AND "), args, nil
}

func toRow(t model.Transaction) (row, error) {
	created, err := t.CreatedTime()
	if err != nil {
		return row{}, fmt.Errorf("transaction %s: %w", t.ID, err)
	}

	r := row{
		ID:        t.ID,
		Name:      t.Name,
		Avatar:    t.Avatar,
		Amount:    t.Amount,
		Currency:  t.Currency,
		Category:  t.Category,
		CreatedAt: created.UTC().Format(createdAtLayout),
	}
	switch t.Status {
	case model.StatusSuccess:
		r.Status = sql.NullBool{Bool: true, Valid: true}
	case model.StatusFailure:
		r.Status = sql.NullBool{Bool: false, Valid: true}
	}
	return r, nil
}

func (r row) toModel() model.Transaction {
	t := model.Transaction{
		ID:        r.ID,
		Name:      r.Name,
		Avatar:    r.Avatar,
		Amount:    r.Amount,
		Currency:  r.Currency,
		Category:  r.Category,
		CreatedAt: r.CreatedAt,
		Status:    model.StatusPending,
	}
	if r.Status.Valid {
		t.Status = model.StatusFailure
		if r.Status.Bool {
			t.Status = model.StatusSuccess
		}
	}
	return t
}
