// Package tx carries SQL transactions through context so audit writes can
// join the business operation's transaction when one is in flight, and open
// their own scoped transaction when none is.
package tx

import (
	"context"
	"database/sql"
	"fmt"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// Executor is the subset of *sql.DB and *sql.Tx the stores need.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Scoped runs fn in a local atomic unit. If the context already carries a
// transaction, fn joins it and the owner commits; otherwise a new transaction
// is opened around fn and committed, or rolled back when fn fails. Either way
// a partial multi-field record is never visible.
func Scoped(ctx context.Context, db *sql.DB, fn func(ex Executor) error) error {
	if ambient, ok := From(ctx); ok {
		return fn(ambient)
	}

	txn, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(txn); err != nil {
		_ = txn.Rollback()
		return err
	}
	if err := txn.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
