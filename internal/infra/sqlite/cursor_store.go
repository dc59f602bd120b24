package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/samber/mo"

	"github.com/jinford/research-genie/internal/core/indexing"
)

// CursorStore は batch_cursor テーブルの1行にカーソルを保存する
type CursorStore struct {
	db   *sql.DB
	name string
}

// CursorStore は name をキーとするカーソルストアを返す
func (s *Store) CursorStore(name string) *CursorStore {
	return &CursorStore{db: s.db, name: name}
}

// Load は保存済みのカーソルを返す
func (c *CursorStore) Load(ctx context.Context) (mo.Option[int], error) {
	var next int
	err := c.db.QueryRowContext(ctx,
		`SELECT last_processed_batch FROM batch_cursor WHERE name = ?`, c.name,
	).Scan(&next)
	if errors.Is(err, sql.ErrNoRows) {
		return mo.None[int](), nil
	}
	if err != nil {
		return mo.None[int](), fmt.Errorf("failed to load cursor %s: %w", c.name, err)
	}
	return mo.Some(next), nil
}

// Save はカーソルを保存する
func (c *CursorStore) Save(ctx context.Context, nextBatch int) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO batch_cursor (name, last_processed_batch, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			last_processed_batch = excluded.last_processed_batch,
			updated_at = CURRENT_TIMESTAMP
	`, c.name, nextBatch)
	if err != nil {
		return fmt.Errorf("failed to save cursor %s: %w", c.name, err)
	}
	return nil
}

var _ indexing.CursorStore = (*CursorStore)(nil)
