package dbutil

import (
	"context"
	"database/sql"
)

// Tx remembers whether it has been finished, so MaybeRollback can always be
// deferred.
type Tx struct {
	tx *sql.Tx
}

func NewTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions) (*Tx, error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx}, nil
}

// WithTx runs f in a transaction, committing if f returns nil and rolling
// back otherwise.
func WithTx(ctx context.Context, db *sql.DB, f func(*Tx) error) error {
	tx, err := NewTx(ctx, db, nil)
	if err != nil {
		return err
	}
	defer tx.MaybeRollback()
	if err := f(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (tt *Tx) MaybeRollback() {
	if tt.tx == nil {
		return
	}
	tt.tx.Rollback()
	tt.tx = nil
}

func (tt *Tx) Commit() error {
	err := tt.tx.Commit()
	tt.tx = nil
	return err
}

func (tt *Tx) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return tt.tx.QueryRowContext(ctx, query, args...)
}

func (tt *Tx) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return tt.tx.ExecContext(ctx, query, args...)
}
