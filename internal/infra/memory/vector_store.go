// Package memory はプロセス内で完結するベクトルストアとカーソルストアを提供する
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/jinford/research-genie/internal/core/ask"
	"github.com/jinford/research-genie/internal/core/indexing"
	"github.com/jinford/research-genie/internal/shared/vector"
)

type entry struct {
	vector []float32
	text   string
}

// VectorStore はメモリ上のブルートフォースなベクトルストア
type VectorStore struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewVectorStore は空の VectorStore を作成する
func NewVectorStore() *VectorStore {
	return &VectorStore{entries: make(map[string]entry)}
}

// Upsert は id のベクトルとテキストを保存する。既存の id は上書きする
func (s *VectorStore) Upsert(ctx context.Context, id string, vec []float32, text string) error {
	if id == "" {
		return fmt.Errorf("id is required")
	}
	if len(vec) == 0 {
		return fmt.Errorf("vector is required")
	}

	stored := make([]float32, len(vec))
	copy(stored, vec)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = entry{vector: stored, text: text}
	return nil
}

// Query はコサイン類似度の降順に最大 k 件を返す
// 次元数が異なるエントリは対象外とする
func (s *VectorStore) Query(ctx context.Context, vec []float32, k int) ([]ask.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates := make([]vector.Scored, 0, len(s.entries))
	for id, e := range s.entries {
		score, err := vector.Cosine(vec, e.vector)
		if err != nil {
			continue
		}
		candidates = append(candidates, vector.Scored{ID: id, Score: score})
	}

	top := vector.TopK(candidates, k)
	matches := make([]ask.Match, 0, len(top))
	for _, c := range top {
		matches = append(matches, ask.Match{ID: c.ID, Text: s.entries[c.ID].text, Score: c.Score})
	}
	return matches, nil
}

// Count は保存済みのエントリ数を返す
func (s *VectorStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// インターフェース実装の確認
var (
	_ indexing.VectorWriter = (*VectorStore)(nil)
	_ ask.Retriever         = (*VectorStore)(nil)
)
