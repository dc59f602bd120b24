// Package redis は Redis によるカーソルストアと実行ロックを提供する
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/samber/mo"

	"github.com/jinford/research-genie/internal/core/indexing"
)

const keyPrefix = "research-genie:"

// CursorStore は Redis の文字列キーにカーソルを保存する
type CursorStore struct {
	client *redis.Client
	key    string
}

// NewCursorStore は name をキーとする CursorStore を作成する
func NewCursorStore(client *redis.Client, name string) *CursorStore {
	return &CursorStore{
		client: client,
		key:    keyPrefix + "cursor:" + name,
	}
}

// Load は保存済みのカーソルを返す
func (c *CursorStore) Load(ctx context.Context) (mo.Option[int], error) {
	raw, err := c.client.Get(ctx, c.key).Result()
	if errors.Is(err, redis.Nil) {
		return mo.None[int](), nil
	}
	if err != nil {
		return mo.None[int](), fmt.Errorf("failed to load cursor %s: %w", c.key, err)
	}

	next, err := strconv.Atoi(raw)
	if err != nil {
		return mo.None[int](), fmt.Errorf("invalid cursor value %q at %s: %w", raw, c.key, err)
	}
	return mo.Some(next), nil
}

// Save はカーソルを保存する（SET は単一キーに対してアトミック）
func (c *CursorStore) Save(ctx context.Context, nextBatch int) error {
	if err := c.client.Set(ctx, c.key, strconv.Itoa(nextBatch), 0).Err(); err != nil {
		return fmt.Errorf("failed to save cursor %s: %w", c.key, err)
	}
	return nil
}

var _ indexing.CursorStore = (*CursorStore)(nil)
