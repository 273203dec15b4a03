package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/josh-kwaku/finance-ledger/internal/domain"
)

type scanner interface {
	Scan(dest ...any) error
}

type DB struct {
	pool *sql.DB
}

func NewDB(pool *sql.DB) *DB {
	return &DB{pool: pool}
}

func (d *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	tx, err := d.pool.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("BeginTx: %w: %w", domain.ErrStoreFailure, err)
	}
	return tx, nil
}

// WithTx runs fn inside one database transaction. Every write fn performs
// through tx commits together or not at all.
func (d *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("WithTx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return classify(err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("WithTx: commit: %w: %w", domain.ErrStoreFailure, err)
	}
	return nil
}

// classify tags Postgres conflicts with the domain taxonomy. Errors that
// already carry a domain sentinel pass through unchanged.
func classify(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch {
	case pqErr.Code.Class() == "40":
		// serialization_failure, deadlock_detected
		return fmt.Errorf("%w: %w", domain.ErrStoreFailure, err)
	case pqErr.Code == "23503":
		return fmt.Errorf("%w: row is still referenced: %w", domain.ErrInvalidState, err)
	default:
		return err
	}
}
