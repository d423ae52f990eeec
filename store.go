package main

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
)

// Store is the persistence seam. Handlers only ever talk to this interface,
// which keeps them testable against the in-memory implementation.
type Store interface {
	ListExpenses(ctx context.Context) ([]Expense, error)
	CreateExpense(ctx context.Context, expense *Expense) error
	DeleteExpense(ctx context.Context, id int64) (bool, error)

	GetSettings(ctx context.Context) (*Settings, error)
	UpsertSettings(ctx context.Context, settings *Settings) error

	ListConversionEntries(ctx context.Context) ([]ConversionEntry, error)
	CreateConversionEntry(ctx context.Context, entry *ConversionEntry) error
	UpdateConversionEntry(ctx context.Context, entry *ConversionEntry) (bool, error)
	DeleteConversionEntry(ctx context.Context, id int64) (bool, error)

	Ping(ctx context.Context) error
}

// store is the process-wide handle, constructed once at startup and swapped
// by the test harness
var store Store

// postgresStore implements Store on database/sql + lib/pq
type postgresStore struct {
	db *sql.DB
}

func newPostgresStore(db *sql.DB) *postgresStore {
	return &postgresStore{db: db}
}

// isTransientError reports whether an error looks like a lost or refused
// connection rather than a query-level failure
func isTransientError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "i/o timeout")
}

// withRetry runs fn and, on a transient connection error, pings to force a
// fresh connection from the pool and retries exactly once
func (s *postgresStore) withRetry(ctx context.Context, fn func() error) error {
	err := fn()
	if !isTransientError(err) {
		return err
	}
	if pingErr := s.db.PingContext(ctx); pingErr != nil {
		return err
	}
	return fn()
}

func (s *postgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *postgresStore) ListExpenses(ctx context.Context) ([]Expense, error) {
	var expenses []Expense

	err := s.withRetry(ctx, func() error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, COALESCE(description, ''), amount, category, person,
			       store_name, date, created_at
			FROM expenses
			ORDER BY id DESC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		expenses = nil
		for rows.Next() {
			var e Expense
			if err := rows.Scan(&e.ID, &e.Description, &e.Amount, &e.Category,
				&e.Person, &e.StoreName, &e.Date, &e.CreatedAt); err != nil {
				return err
			}
			expenses = append(expenses, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return expenses, nil
}

func (s *postgresStore) CreateExpense(ctx context.Context, expense *Expense) error {
	return s.withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO expenses (id, description, amount, category, person, store_name, date, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, expense.ID, expense.Description, expense.Amount, expense.Category,
			expense.Person, expense.StoreName, expense.Date, expense.CreatedAt)
		return err
	})
}

func (s *postgresStore) DeleteExpense(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := s.withRetry(ctx, func() error {
		result, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = $1", id)
		if err != nil {
			return err
		}
		count, err := result.RowsAffected()
		if err != nil {
			return err
		}
		deleted = count > 0
		return nil
	})
	return deleted, err
}

func (s *postgresStore) GetSettings(ctx context.Context) (*Settings, error) {
	var settings Settings
	err := s.withRetry(ctx, func() error {
		return s.db.QueryRowContext(ctx, `
			SELECT type, shared_account_balance, updated_at
			FROM settings
			WHERE type = $1
		`, settingsTypeSharedAccount).Scan(&settings.Type, &settings.SharedAccountBalance, &settings.UpdatedAt)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *postgresStore) UpsertSettings(ctx context.Context, settings *Settings) error {
	return s.withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO settings (type, shared_account_balance, updated_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (type)
			DO UPDATE SET shared_account_balance = $2, updated_at = $3
		`, settings.Type, settings.SharedAccountBalance, settings.UpdatedAt)
		return err
	})
}

func (s *postgresStore) ListConversionEntries(ctx context.Context) ([]ConversionEntry, error) {
	var entries []ConversionEntry

	err := s.withRetry(ctx, func() error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, id_name, store_name, category, COALESCE(comment, '')
			FROM conversion_table
			ORDER BY id
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		entries = nil
		for rows.Next() {
			var e ConversionEntry
			if err := rows.Scan(&e.ID, &e.IDName, &e.StoreName, &e.Category, &e.Comment); err != nil {
				return err
			}
			entries = append(entries, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *postgresStore) CreateConversionEntry(ctx context.Context, entry *ConversionEntry) error {
	return s.withRetry(ctx, func() error {
		return s.db.QueryRowContext(ctx, `
			INSERT INTO conversion_table (id_name, store_name, category, comment)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, entry.IDName, entry.StoreName, entry.Category, entry.Comment).Scan(&entry.ID)
	})
}

func (s *postgresStore) UpdateConversionEntry(ctx context.Context, entry *ConversionEntry) (bool, error) {
	var updated bool
	err := s.withRetry(ctx, func() error {
		result, err := s.db.ExecContext(ctx, `
			UPDATE conversion_table
			SET id_name = $2, store_name = $3, category = $4, comment = $5
			WHERE id = $1
		`, entry.ID, entry.IDName, entry.StoreName, entry.Category, entry.Comment)
		if err != nil {
			return err
		}
		count, err := result.RowsAffected()
		if err != nil {
			return err
		}
		updated = count > 0
		return nil
	})
	return updated, err
}

func (s *postgresStore) DeleteConversionEntry(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := s.withRetry(ctx, func() error {
		result, err := s.db.ExecContext(ctx, "DELETE FROM conversion_table WHERE id = $1", id)
		if err != nil {
			return err
		}
		count, err := result.RowsAffected()
		if err != nil {
			return err
		}
		deleted = count > 0
		return nil
	})
	return deleted, err
}

var _ Store = (*postgresStore)(nil)

// handleStoreError converts store errors to an HTTP status and message
func handleStoreError(err error) (int, string) {
	if isTransientError(err) {
		return 503, "Database temporarily unavailable"
	}
	errorStr := err.Error()
	if strings.Contains(errorStr, "duplicate key value violates unique constraint") {
		return 409, "Resource already exists"
	}
	if strings.Contains(errorStr, "no rows in result set") {
		return 404, "Resource not found"
	}
	return 500, "Internal server error"
}
