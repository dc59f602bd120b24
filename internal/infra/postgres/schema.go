// Package postgres は pgvector を使用したベクトルストアとカーソルストアを提供する
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultTable はベクトルを保存するテーブル名
const DefaultTable = "research_chunks"

// EnsureSchema は pgvector 拡張とテーブルを作成する
// dimension は Embedding モデルの次元数と一致していなければならない
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive: got %d", dimension)
	}

	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id         TEXT PRIMARY KEY,
			embedding  vector(%d) NOT NULL,
			document   TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, DefaultTable, dimension),
		`CREATE TABLE IF NOT EXISTS batch_cursor (
			name                 TEXT PRIMARY KEY,
			last_processed_batch INTEGER NOT NULL,
			updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
