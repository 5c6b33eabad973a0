// Package tx defines the unit-of-work boundary used around multi-store mutations
// (status-list rotation, revoke-and-update) and carries the active SQL transaction
// through the context so stores can join it.
package tx

import (
	"context"
	"database/sql"
)

// Runner executes fn inside one transaction. Nested calls join the outer transaction.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ctxKey struct{}

type shardKey struct{}

type inMemoryTx struct{}

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

// WithShardKey scopes in-memory transactions to a lock shard, typically the
// participant context id. Postgres runners ignore it.
func WithShardKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, shardKey{}, key)
}

func shardKeyFrom(ctx context.Context) string {
	key, _ := ctx.Value(shardKey{}).(string)
	return key
}
