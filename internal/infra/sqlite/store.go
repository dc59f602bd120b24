// Package sqlite はローカルの SQLite ファイルによるベクトルストアとカーソルストアを提供する
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/jinford/research-genie/internal/core/ask"
	"github.com/jinford/research-genie/internal/core/indexing"
	"github.com/jinford/research-genie/internal/shared/vector"
)

const schema = `
CREATE TABLE IF NOT EXISTS vectors (
	id         TEXT PRIMARY KEY,
	embedding  BLOB NOT NULL,
	document   TEXT NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS batch_cursor (
	name                 TEXT PRIMARY KEY,
	last_processed_batch INTEGER NOT NULL,
	updated_at           DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// Store は SQLite 上のベクトルストア
// 検索は全件を読み込んでコサイン類似度で順位付けする
type Store struct {
	db   *sql.DB
	path string
}

// Open は path の SQLite データベースを開き、スキーマを作成する
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create sqlite schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close はデータベース接続を閉じる
func (s *Store) Close() error {
	return s.db.Close()
}

// Path はデータベースファイルのパスを返す
func (s *Store) Path() string {
	return s.path
}

// Upsert は id のベクトルとテキストを保存する。既存の id は上書きする
func (s *Store) Upsert(ctx context.Context, id string, vec []float32, text string) error {
	if len(vec) == 0 {
		return fmt.Errorf("vector is required")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vectors (id, embedding, document, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			embedding = excluded.embedding,
			document = excluded.document,
			updated_at = CURRENT_TIMESTAMP
	`, id, float32SliceToBytes(vec), text)
	if err != nil {
		return fmt.Errorf("failed to upsert vector %s: %w", id, err)
	}
	return nil
}

// Query はコサイン類似度の降順に最大 k 件を返す
func (s *Store) Query(ctx context.Context, vec []float32, k int) ([]ask.Match, error) {
	if k <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, embedding, document FROM vectors`)
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}
	defer rows.Close()

	texts := make(map[string]string)
	var candidates []vector.Scored
	for rows.Next() {
		var (
			id, text string
			blob     []byte
		)
		if err := rows.Scan(&id, &blob, &text); err != nil {
			return nil, fmt.Errorf("failed to scan vector row: %w", err)
		}
		score, err := vector.Cosine(vec, bytesToFloat32Slice(blob))
		if err != nil {
			continue
		}
		texts[id] = text
		candidates = append(candidates, vector.Scored{ID: id, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vector rows: %w", err)
	}

	top := vector.TopK(candidates, k)
	matches := make([]ask.Match, 0, len(top))
	for _, c := range top {
		matches = append(matches, ask.Match{ID: c.ID, Text: texts[c.ID], Score: c.Score})
	}
	return matches, nil
}

// Count は保存済みのベクトル数を返す
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vectors`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count vectors: %w", err)
	}
	return n, nil
}

// float32SliceToBytes は []float32 をリトルエンディアンのバイト列に変換する
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice はバイト列を []float32 に戻す
func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

var (
	_ indexing.VectorWriter = (*Store)(nil)
	_ ask.Retriever         = (*Store)(nil)
)
