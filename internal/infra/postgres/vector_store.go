package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/jinford/research-genie/internal/core/ask"
	"github.com/jinford/research-genie/internal/core/indexing"
)

// VectorStore は pgvector によるベクトルストア
type VectorStore struct {
	pool *pgxpool.Pool
}

// NewVectorStore は新しい VectorStore を作成する
func NewVectorStore(pool *pgxpool.Pool) *VectorStore {
	return &VectorStore{pool: pool}
}

// Upsert は id のベクトルとテキストを保存する。既存の id は上書きする
func (s *VectorStore) Upsert(ctx context.Context, id string, vec []float32, text string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO `+DefaultTable+` (id, embedding, document, updated_at)
		VALUES ($1, $2::vector, $3, now())
		ON CONFLICT (id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			document = EXCLUDED.document,
			updated_at = now()
	`, id, pgvector.NewVector(vec), text)
	if err != nil {
		return fmt.Errorf("failed to upsert vector %s: %w", id, err)
	}
	return nil
}

// Query はコサイン距離の昇順（類似度の降順）に最大 k 件を返す
// Score は 1 - コサイン距離
func (s *VectorStore) Query(ctx context.Context, vec []float32, k int) ([]ask.Match, error) {
	if k <= 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, document, 1 - (embedding <=> $1::vector) AS score
		FROM `+DefaultTable+`
		ORDER BY embedding <=> $1::vector, id
		LIMIT $2
	`, pgvector.NewVector(vec), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}
	defer rows.Close()

	var matches []ask.Match
	for rows.Next() {
		var m ask.Match
		if err := rows.Scan(&m.ID, &m.Text, &m.Score); err != nil {
			return nil, fmt.Errorf("failed to scan vector row: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vector rows: %w", err)
	}
	return matches, nil
}

// Count は保存済みのベクトル数を返す
func (s *VectorStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+DefaultTable).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count vectors: %w", err)
	}
	return n, nil
}

var (
	_ indexing.VectorWriter = (*VectorStore)(nil)
	_ ask.Retriever         = (*VectorStore)(nil)
)
