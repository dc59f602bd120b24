package indexing

import "errors"

var (
	// ErrInvalidBatchSize はバッチサイズが不正な場合のエラー
	ErrInvalidBatchSize = errors.New("batch size must be positive")

	// ErrIndexerLocked は他のインデックス化処理が実行中の場合のエラー
	ErrIndexerLocked = errors.New("another indexing run holds the lock")

	// ErrEmptyEmbedding は Embedder が空ベクトルを返した場合のエラー
	ErrEmptyEmbedding = errors.New("empty embedding")
)
