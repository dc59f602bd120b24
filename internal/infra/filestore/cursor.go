package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/mo"

	"github.com/jinford/research-genie/internal/core/indexing"
)

// cursorFile は processed_batches.json の形式
type cursorFile struct {
	LastProcessedBatch int `json:"last_processed_batch"`
}

// CursorFile は JSON ファイルにカーソルを保存する
// 値は「次に処理するバッチ番号」
type CursorFile struct {
	path string
}

// NewCursorFile は新しい CursorFile を作成する
func NewCursorFile(path string) *CursorFile {
	return &CursorFile{path: path}
}

// Path はカーソルファイルのパスを返す
func (c *CursorFile) Path() string {
	return c.path
}

// Load はカーソルを読み込む。ファイルが存在しない場合は None
func (c *CursorFile) Load(ctx context.Context) (mo.Option[int], error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return mo.None[int](), nil
		}
		return mo.None[int](), fmt.Errorf("failed to read cursor file: %w", err)
	}

	var f cursorFile
	if err := json.Unmarshal(data, &f); err != nil {
		return mo.None[int](), fmt.Errorf("failed to parse cursor file %s: %w", c.path, err)
	}
	return mo.Some(f.LastProcessedBatch), nil
}

// Save はカーソルを一時ファイル経由でアトミックに書き込む
func (c *CursorFile) Save(ctx context.Context, nextBatch int) error {
	data, err := json.Marshal(cursorFile{LastProcessedBatch: nextBatch})
	if err != nil {
		return fmt.Errorf("failed to encode cursor: %w", err)
	}

	if dir := filepath.Dir(c.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create cursor directory: %w", err)
		}
	}
	if err := writeFileAtomic(c.path, data); err != nil {
		return fmt.Errorf("failed to write cursor file: %w", err)
	}
	return nil
}

var _ indexing.CursorStore = (*CursorFile)(nil)
