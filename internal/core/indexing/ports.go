package indexing

import (
	"context"

	"github.com/samber/mo"

	"github.com/jinford/research-genie/internal/core/ingestion"
)

// ChunkSource はインデックス化対象のチャンク済みドキュメントを提供する
type ChunkSource interface {
	ListChunkedDocuments(ctx context.Context) ([]*ingestion.ChunkedDocument, error)
}

// Embedder はテキストの Embedding 生成インターフェース
type Embedder interface {
	// Embed は単一テキストの Embedding を生成する
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorWriter はベクトルの書き込みインターフェース
// 同じIDへの書き込みは上書きとなること
type VectorWriter interface {
	Upsert(ctx context.Context, id string, vector []float32, text string) error
}

// CursorStore は次に処理するバッチ番号を永続化する
type CursorStore interface {
	// Load は保存済みのカーソルを返す。未保存の場合は None
	Load(ctx context.Context) (mo.Option[int], error)
	// Save はカーソルをアトミックに保存する
	Save(ctx context.Context, nextBatch int) error
}

// RunLock はインデックス化の同時実行を防ぐロック
type RunLock interface {
	// Acquire はロックを取得し、解放関数を返す
	// 既に他のプロセスが保持している場合は ErrIndexerLocked を返す
	Acquire(ctx context.Context) (release func(), err error)
}
