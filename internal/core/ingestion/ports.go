package ingestion

import (
	"context"

	"github.com/jinford/research-genie/internal/core/ingestion/chunk"
)

// DocumentSource はチャンク化対象のドキュメントを提供する
type DocumentSource interface {
	ListDocuments(ctx context.Context) ([]*Document, error)
}

// ChunkSink はチャンク化結果を永続化する
type ChunkSink interface {
	WriteChunks(ctx context.Context, doc *ChunkedDocument) error
}

// Chunker はテキストをチャンク列に分割する
type Chunker interface {
	Chunk(text string) []*chunk.Chunk
}
