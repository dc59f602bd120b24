package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/mo"

	"github.com/jinford/research-genie/internal/core/indexing"
)

// CursorStore は batch_cursor テーブルの1行にカーソルを保存する
type CursorStore struct {
	pool *pgxpool.Pool
	name string
}

// NewCursorStore は name をキーとする CursorStore を作成する
func NewCursorStore(pool *pgxpool.Pool, name string) *CursorStore {
	return &CursorStore{pool: pool, name: name}
}

// Load は保存済みのカーソルを返す
func (c *CursorStore) Load(ctx context.Context) (mo.Option[int], error) {
	var next int
	err := c.pool.QueryRow(ctx,
		`SELECT last_processed_batch FROM batch_cursor WHERE name = $1`, c.name,
	).Scan(&next)
	if errors.Is(err, pgx.ErrNoRows) {
		return mo.None[int](), nil
	}
	if err != nil {
		return mo.None[int](), fmt.Errorf("failed to load cursor %s: %w", c.name, err)
	}
	return mo.Some(next), nil
}

// Save はカーソルを保存する
func (c *CursorStore) Save(ctx context.Context, nextBatch int) error {
	_, err := c.pool.Exec(ctx, `
		INSERT INTO batch_cursor (name, last_processed_batch, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET
			last_processed_batch = EXCLUDED.last_processed_batch,
			updated_at = now()
	`, c.name, nextBatch)
	if err != nil {
		return fmt.Errorf("failed to save cursor %s: %w", c.name, err)
	}
	return nil
}

var _ indexing.CursorStore = (*CursorStore)(nil)
