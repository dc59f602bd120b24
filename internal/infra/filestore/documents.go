// Package filestore はローカルディレクトリ上の JSON ファイルによる永続化を提供する
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jinford/research-genie/internal/core/ingestion"
)

// Option はファイルストアのオプション設定
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger はロガーを設定する
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// DocumentReader はテキスト抽出済みドキュメントをディレクトリから読み込む
//
// *.json は {"filename": ..., "text": ...} 形式、*.txt はファイル名をそのまま filename とする。
// 読み込めないファイルは警告を出して読み飛ばす。
type DocumentReader struct {
	dir    string
	logger *slog.Logger
}

// NewDocumentReader は新しい DocumentReader を作成する
func NewDocumentReader(dir string, opts ...Option) *DocumentReader {
	o := buildOptions(opts)
	return &DocumentReader{dir: dir, logger: o.logger}
}

// ListDocuments はファイル名順にドキュメントを返す
func (r *DocumentReader) ListDocuments(ctx context.Context) ([]*ingestion.Document, error) {
	names, err := listFiles(r.dir, ".json", ".txt")
	if err != nil {
		return nil, fmt.Errorf("failed to list documents in %s: %w", r.dir, err)
	}

	docs := make([]*ingestion.Document, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(r.dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			r.logger.Warn("ドキュメントの読み込みに失敗したためスキップ", "path", path, "error", err)
			continue
		}

		doc := &ingestion.Document{Filename: name, Text: string(data)}
		if strings.EqualFold(filepath.Ext(name), ".json") {
			var parsed ingestion.Document
			if err := json.Unmarshal(data, &parsed); err != nil {
				r.logger.Warn("不正なドキュメントJSONのためスキップ", "path", path, "error", err)
				continue
			}
			if parsed.Filename == "" {
				parsed.Filename = name
			}
			doc = &parsed
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// listFiles は dir 直下の指定拡張子のファイル名を昇順で返す
func listFiles(dir string, exts ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, want := range exts {
			if ext == want {
				names = append(names, e.Name())
				break
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

var _ ingestion.DocumentSource = (*DocumentReader)(nil)
