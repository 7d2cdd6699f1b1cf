package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/apperr"
)

const rollbackTimeout = 5 * time.Second

// Beginner starts transactions. *pgxpool.Pool and pgxmock pools satisfy it.
type Beginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// ReadCommitted is the isolation used for write paths that rely on row locks.
var ReadCommitted = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

// InTx runs fn in a transaction on one pooled connection. A nil return from
// fn commits; an error or panic rolls back. The connection is returned to the
// pool on every path, including caller cancellation.
func InTx(ctx context.Context, pool Beginner, opts pgx.TxOptions, fn func(tx pgx.Tx) error) (err error) {
	tx, err := pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("%w: begin tx: %w", apperr.ErrTransientStore, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = Rollback(ctx, tx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := Rollback(ctx, tx); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}

	// pgx closes the transaction when Commit fails, so no rollback follows.
	if err := tx.Commit(ctx); err != nil {
		return Classify(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

// Rollback aborts tx on a context detached from the caller's cancellation so
// a disconnected client cannot leave the transaction open.
func Rollback(ctx context.Context, tx pgx.Tx) error {
	rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()

	err := tx.Rollback(rbCtx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}
