package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Transactor runs functions inside a database transaction.
type Transactor struct {
	db DBTX
}

func NewTransactor(db DBTX) *Transactor {
	return &Transactor{db: db}
}

// WithinTx runs fn in a transaction that is committed when fn returns nil and rolled back otherwise.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	return pgx.BeginFunc(ctx, t.db, func(tx pgx.Tx) error {
		return fn(ctx, tx)
	})
}
