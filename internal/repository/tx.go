package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// Querier is the query surface shared by *sql.DB and *sql.Tx. Repository
// methods that must run inside a caller's transaction take it explicitly.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxManager scopes a unit of work to a single database transaction.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, q Querier) error) error
}

type txManager struct {
	db *sql.DB
}

// NewTxManager creates a TxManager over the shared connection pool.
func NewTxManager(db *sql.DB) TxManager {
	return &txManager{db: db}
}

// WithinTx runs fn inside one transaction. Any error from fn, or from the
// commit itself, rolls back every write made in the unit. Row locks taken
// with FOR UPDATE inside fn are held until the transaction ends.
func (m *txManager) WithinTx(ctx context.Context, fn func(ctx context.Context, q Querier) error) error {
	tx, err := m.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
