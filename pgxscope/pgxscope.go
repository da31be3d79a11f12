// Package pgxscope provides a dbscope factory over a pgx connection pool.
//
// Each scope is one PostgreSQL transaction: Open begins it, a nil failure
// commits it, a non-nil failure rolls it back. Commit and rollback both
// return the pooled connection.
//
//	pool, _ := pgxpool.New(ctx, dsn)
//	dbscope.SetDefault[pgx.Tx](pgxscope.New(pool))
package pgxscope

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MishaVyb/dbscope/dbscope"
)

// Option configures the factory.
type Option func(*factory)

// WithTxOptions sets the transaction options used for every Open. The default
// is read-committed, matching the usual ledger workload.
func WithTxOptions(opts pgx.TxOptions) Option {
	return func(f *factory) { f.txOptions = opts }
}

type factory struct {
	pool      *pgxpool.Pool
	txOptions pgx.TxOptions
}

// New returns a factory producing one pgx transaction per scope.
func New(pool *pgxpool.Pool, opts ...Option) dbscope.Factory[pgx.Tx] {
	f := &factory{
		pool:      pool,
		txOptions: pgx.TxOptions{IsoLevel: pgx.ReadCommitted},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name implements dbscope.Factory.
func (f *factory) Name() string { return "postgres" }

// Open implements dbscope.Factory.
func (f *factory) Open(ctx context.Context) (pgx.Tx, dbscope.Finish, error) {
	tx, err := f.pool.BeginTx(ctx, f.txOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("begin transaction: %w", err)
	}

	finish := func(ctx context.Context, failure error) error {
		if failure != nil {
			if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
				return fmt.Errorf("rollback transaction: %w", err)
			}
			return nil
		}
		if err := tx.Commit(ctx); err != nil {
			// Commit failure closes the transaction on the server side;
			// rollback here only releases local state.
			_ = tx.Rollback(ctx)
			return fmt.Errorf("commit transaction: %w", err)
		}
		return nil
	}
	return tx, finish, nil
}
