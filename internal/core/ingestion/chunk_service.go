package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ChunkService はドキュメントをチャンク化して書き出すユースケースを提供する
type ChunkService struct {
	source  DocumentSource
	sink    ChunkSink
	chunker Chunker
	logger  *slog.Logger
}

// ChunkServiceOption は ChunkService のオプション設定
type ChunkServiceOption func(*ChunkService)

// WithChunkLogger は ChunkService にロガーを設定する
func WithChunkLogger(logger *slog.Logger) ChunkServiceOption {
	return func(s *ChunkService) {
		s.logger = logger
	}
}

// NewChunkService は新しい ChunkService を作成する
func NewChunkService(source DocumentSource, sink ChunkSink, chunker Chunker, opts ...ChunkServiceOption) *ChunkService {
	svc := &ChunkService{
		source:  source,
		sink:    sink,
		chunker: chunker,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc
}

// ChunkDocument は1ドキュメントをチャンク化する
// テキストが空、またはチャンクが1つも得られない場合は ErrNoExtractableText を返す
func (s *ChunkService) ChunkDocument(doc *Document) (*ChunkedDocument, error) {
	if doc == nil || strings.TrimSpace(doc.Text) == "" {
		return nil, ErrNoExtractableText
	}

	chunks := s.chunker.Chunk(doc.Text)
	if len(chunks) == 0 {
		return nil, ErrNoExtractableText
	}

	records := make([]ChunkRecord, 0, len(chunks))
	for _, c := range chunks {
		records = append(records, ChunkRecord{
			ChunkID: c.ChunkID,
			Text:    c.Text,
		})
	}

	return &ChunkedDocument{
		Filename: doc.DocumentID() + ".json",
		Chunks:   records,
	}, nil
}

// ChunkAll は全ドキュメントをチャンク化して書き出す
// 個々のドキュメントの失敗は記録して処理を継続する
func (s *ChunkService) ChunkAll(ctx context.Context) (*ChunkResult, error) {
	startTime := time.Now()

	docs, err := s.source.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	s.logger.Info("チャンク化を開始", "documents", len(docs))

	result := &ChunkResult{}
	seen := make(map[string]string, len(docs))
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("chunking interrupted: %w", err)
		}

		if doc == nil {
			s.logger.Warn("空のドキュメントをスキップ")
			result.SkippedDocuments++
			continue
		}

		// 同じドキュメントIDはチャンクファイルとチャンクIDが衝突するため、最初のものだけを使う
		docID := doc.DocumentID()
		if first, ok := seen[docID]; ok {
			s.logger.Warn("ドキュメントIDが重複するためスキップ",
				"filename", doc.Filename,
				"documentID", docID,
				"kept", first,
			)
			result.DuplicateDocuments++
			continue
		}
		seen[docID] = doc.Filename

		chunked, err := s.ChunkDocument(doc)
		if err != nil {
			if errors.Is(err, ErrNoExtractableText) {
				s.logger.Warn("テキストが抽出できないためスキップ", "filename", doc.Filename)
				result.SkippedDocuments++
				continue
			}
			return result, err
		}

		if err := s.sink.WriteChunks(ctx, chunked); err != nil {
			s.logger.Error("チャンクの書き出しに失敗", "filename", doc.Filename, "error", err)
			result.FailedDocuments++
			continue
		}

		result.ProcessedDocuments++
		result.TotalChunks += len(chunked.Chunks)
		s.logger.Debug("チャンクを書き出しました", "filename", chunked.Filename, "chunks", len(chunked.Chunks))
	}

	result.Duration = time.Since(startTime)
	s.logger.Info("チャンク化が完了",
		"processed", result.ProcessedDocuments,
		"skipped", result.SkippedDocuments,
		"failed", result.FailedDocuments,
		"duplicates", result.DuplicateDocuments,
		"chunks", result.TotalChunks,
		"duration", result.Duration,
	)

	return result, nil
}
