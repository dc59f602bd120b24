package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jinford/research-genie/internal/core/indexing"
	"github.com/jinford/research-genie/internal/core/ingestion"
)

// ChunkStore はチャンクファイル（1ドキュメント1ファイル）の読み書きを行う
// 形式は {"filename": ..., "chunks": [{"chunk_id": n, "text": ...}]}
type ChunkStore struct {
	dir    string
	logger *slog.Logger
}

// NewChunkStore は新しい ChunkStore を作成する
func NewChunkStore(dir string, opts ...Option) *ChunkStore {
	o := buildOptions(opts)
	return &ChunkStore{dir: dir, logger: o.logger}
}

// WriteChunks はチャンク化結果を <dir>/<filename> に書き出す
func (s *ChunkStore) WriteChunks(ctx context.Context, doc *ingestion.ChunkedDocument) error {
	if doc == nil || doc.Filename == "" {
		return fmt.Errorf("chunked document filename is required")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create chunk directory: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode chunks: %w", err)
	}

	path := filepath.Join(s.dir, filepath.Base(doc.Filename))
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write chunk file %s: %w", path, err)
	}
	return nil
}

// ListChunkedDocuments はディレクトリ内の全チャンクファイルを読み込む
// filename はファイル名で上書きする（ID の導出元をファイル名に揃えるため）
func (s *ChunkStore) ListChunkedDocuments(ctx context.Context) ([]*ingestion.ChunkedDocument, error) {
	names, err := listFiles(s.dir, ".json")
	if err != nil {
		return nil, fmt.Errorf("failed to list chunk files in %s: %w", s.dir, err)
	}

	docs := make([]*ingestion.ChunkedDocument, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(s.dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("チャンクファイルの読み込みに失敗したためスキップ", "path", path, "error", err)
			continue
		}

		var doc ingestion.ChunkedDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			s.logger.Warn("不正なチャンクファイルのためスキップ", "path", path, "error", err)
			continue
		}
		doc.Filename = name
		docs = append(docs, &doc)
	}
	return docs, nil
}

// writeFileAtomic は一時ファイルに書き込んでからリネームする
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

var (
	_ ingestion.ChunkSink  = (*ChunkStore)(nil)
	_ indexing.ChunkSource = (*ChunkStore)(nil)
)
