// Package vector はブルートフォース検索用のベクトル演算を提供する
package vector

import (
	"errors"
	"math"
	"sort"
)

// ErrDimensionMismatch は次元数が一致しない場合のエラー
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Cosine はコサイン類似度を返す
// どちらかがゼロベクトルの場合は 0 を返す
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// Scored はスコア付きの候補
type Scored struct {
	ID    string
	Score float64
}

// TopK はスコアの降順に最大 k 件を返す
// 同点の場合は ID の昇順で並べる
func TopK(candidates []Scored, k int) []Scored {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}

	sorted := make([]Scored, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].ID < sorted[j].ID
	})

	if k < len(sorted) {
		sorted = sorted[:k]
	}
	return sorted
}
