package indexing

import (
	"time"
)

// IndexItem はインデックス化の最小単位（グローバルに一意なIDを持つチャンク）
type IndexItem struct {
	ID         string // "<documentID>_<chunkID>"
	DocumentID string
	ChunkID    int
	Text       string
}

// FailureKind はチャンク単位の失敗種別
type FailureKind string

const (
	// FailureEmbedding は Embedding 生成の失敗
	FailureEmbedding FailureKind = "embedding"
	// FailureStore はベクトルストアへの保存失敗
	FailureStore FailureKind = "store"
)

// SkippedChunk はスキップされたチャンクの記録
type SkippedChunk struct {
	ID    string
	Batch int
	Kind  FailureKind
	Err   error
}

// IndexResult はインデックス化処理の結果を表す
type IndexResult struct {
	RunID            string
	TotalChunks      int
	TotalBatches     int
	StartBatch       int
	ProcessedBatches int
	IndexedChunks    int
	SkippedChunks    []SkippedChunk
	Duration         time.Duration
}

// IndexStatus はカーソルから見たインデックス化の進捗を表す
type IndexStatus struct {
	TotalChunks  int
	TotalBatches int
	NextBatch    int // 次に処理するバッチ番号（0始まり）
	BatchSize    int
}

// Completed は全バッチの処理が完了しているかを返す
func (s IndexStatus) Completed() bool {
	return s.NextBatch >= s.TotalBatches
}
