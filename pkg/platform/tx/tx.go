// Package tx carries a SQL transaction through a context so a store method
// called inside a snapshot joins it instead of using the pool.
package tx

import (
	"context"
	"database/sql"
)

type ctxKey struct{}

func WithTx(ctx context.Context, t *sql.Tx) context.Context {
	if t == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, t)
}

// From returns the transaction stored by WithTx.
func From(ctx context.Context) (*sql.Tx, bool) {
	t, ok := ctx.Value(ctxKey{}).(*sql.Tx)
	return t, ok
}
