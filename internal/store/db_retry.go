package store

import (
	"context"
	"database/sql"
	"log/slog"
	"time"
)

// SQLITE_BUSY shows up under WAL when a writer holds the lock; short bounded
// retries ride it out instead of surfacing it to callers.

const busyRetryMax = 5

func retryDelay(attempt int) time.Duration {
	delay := time.Duration(attempt+1) * 40 * time.Millisecond
	if delay > 300*time.Millisecond {
		delay = 300 * time.Millisecond
	}
	return delay
}

func (s *Store) retriable(ctx context.Context, start time.Time, attempt int, err error) bool {
	if !isSQLiteBusy(err) || attempt >= busyRetryMax-1 {
		return false
	}
	if ctx.Err() != nil || time.Since(start) >= s.lockTimeout {
		return false
	}
	return true
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	slog.Debug("sql exec", "query", query, "args", args)
	start := time.Now()
	for attempt := 0; ; attempt++ {
		res, err := s.db.ExecContext(ctx, query, args...)
		if err == nil || !s.retriable(ctx, start, attempt, err) {
			return res, err
		}
		time.Sleep(retryDelay(attempt))
	}
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	slog.Debug("sql query", "query", query, "args", args)
	start := time.Now()
	for attempt := 0; ; attempt++ {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err == nil || !s.retriable(ctx, start, attempt, err) {
			return rows, err
		}
		time.Sleep(retryDelay(attempt))
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

type retryRow struct {
	store *Store
	ctx   context.Context
	query func() *sql.Row
}

func (r retryRow) Scan(dest ...any) error {
	start := time.Now()
	for attempt := 0; ; attempt++ {
		err := r.query().Scan(dest...)
		if err == nil || !r.store.retriable(r.ctx, start, attempt, err) {
			return err
		}
		time.Sleep(retryDelay(attempt))
	}
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) rowScanner {
	slog.Debug("sql query row", "query", query, "args", args)
	return retryRow{
		store: s,
		ctx:   ctx,
		query: func() *sql.Row { return s.db.QueryRowContext(ctx, query, args...) },
	}
}

func (s *Store) beginTx(ctx context.Context, op string) (*sql.Tx, error) {
	slog.Debug("sql tx begin", "op", op)
	start := time.Now()
	for attempt := 0; ; attempt++ {
		tx, err := s.db.BeginTx(ctx, nil)
		if err == nil || !s.retriable(ctx, start, attempt, err) {
			if err != nil {
				slog.Error("sql tx begin failed", "op", op, "err", err)
			}
			return tx, err
		}
		time.Sleep(retryDelay(attempt))
	}
}

func rollback(tx *sql.Tx, op string) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		slog.Warn("sql tx rollback failed", "op", op, "err", err)
	}
}
