package memory

import (
	"context"
	"sync"

	"github.com/samber/mo"

	"github.com/jinford/research-genie/internal/core/indexing"
)

// CursorStore はメモリ上のカーソルストア
type CursorStore struct {
	mu    sync.Mutex
	value mo.Option[int]
}

// NewCursorStore は未保存状態の CursorStore を作成する
func NewCursorStore() *CursorStore {
	return &CursorStore{value: mo.None[int]()}
}

// Load は保存済みのカーソルを返す
func (c *CursorStore) Load(ctx context.Context) (mo.Option[int], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, nil
}

// Save はカーソルを保存する
func (c *CursorStore) Save(ctx context.Context, nextBatch int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = mo.Some(nextBatch)
	return nil
}

var _ indexing.CursorStore = (*CursorStore)(nil)
