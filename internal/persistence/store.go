// Package persistence is the relational store: a typed SQLite-backed store
// with transactions, CRUD that stamps updatedAt (updates match on id alone,
// with no optimistic-concurrency check), and the indexed queries the tick
// loop drives off of. Uses sqlx over modernc.org/sqlite in WAL
// mode, with JSON columns marshaled by hand at the repository boundary.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	apperrors "terraforming-mars-backend/internal/errors"
	"terraforming-mars-backend/internal/logger"

	"go.uber.org/zap"
)

// Store wraps a SQLite connection used by every repository-style query in
// this package.
type Store struct {
	db *sqlx.DB
}

// Open opens (creating if necessary) a SQLite database at path and runs
// migrations.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite: single-writer, matches WAL + busy_timeout above

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error { return s.db.Close() }

// Ext is whatever sqlx handle a query runs against: the pooled *sqlx.DB
// outside a transaction, or a *sqlx.Tx inside one. Every repository
// function in this package takes one so it works in both contexts.
type Ext interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// DB returns the store's root handle, for read queries that don't need a
// transaction (the tick loop's per-settlement snapshot reads).
func (s *Store) DB() Ext { return s.db }

// Tx is a transaction handle passed to repository functions that must
// participate in a single atomic write.
type Tx struct {
	tx *sqlx.Tx
}

// Ext returns the transaction's query handle, for repository functions
// that take an Ext to work inside or outside a transaction uniformly.
func (t *Tx) Ext() Ext { return t.tx }

const maxTxRetries = 3

// WithTx runs fn inside a single database transaction, retrying with
// backoff when an attempt fails with a STORE_UNAVAILABLE-kind error from fn
// or with sql.ErrTxDone, before surfacing STORE_UNAVAILABLE. Other begin
// and commit errors are not retried.
// fn's error, if any, is returned unwrapped so callers can inspect the
// original *apperrors.Error (a non-transient domain validation failure
// should not be retried).
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx *Tx) error) error {
	var lastErr error
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		sqlTx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			lastErr = err
			if isTransient(err) {
				backoff(attempt)
				continue
			}
			return apperrors.Wrap(apperrors.KindStoreUnavailable, "begin transaction", err)
		}

		txErr := fn(ctx, &Tx{tx: sqlTx})
		if txErr != nil {
			_ = sqlTx.Rollback()
			if isTransient(txErr) {
				lastErr = txErr
				backoff(attempt)
				continue
			}
			return txErr
		}

		if err := sqlTx.Commit(); err != nil {
			lastErr = err
			if isTransient(err) {
				backoff(attempt)
				continue
			}
			return apperrors.Wrap(apperrors.KindStoreUnavailable, "commit transaction", err)
		}

		return nil
	}

	logger.Error("transaction exhausted retries", zap.Error(lastErr))
	return apperrors.Wrap(apperrors.KindStoreUnavailable, "transaction retries exhausted", lastErr)
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if appErr, ok := err.(*apperrors.Error); ok {
		return appErr.Kind == apperrors.KindStoreUnavailable
	}
	return err == sql.ErrTxDone
}

func backoff(attempt int) {
	time.Sleep(time.Duration(attempt+1) * 20 * time.Millisecond)
}

// NotFound builds a NOT_FOUND-kind error for a missing row of the given
// resource/id.
func NotFound(kind apperrors.Kind, resource, id string) error {
	return apperrors.Wrap(kind, fmt.Sprintf("%s %s not found", resource, id), sql.ErrNoRows)
}
