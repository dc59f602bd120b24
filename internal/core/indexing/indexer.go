package indexing

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultBatchSize はデフォルトのバッチサイズ
	DefaultBatchSize = 10
	// DefaultConcurrency はバッチ内の同時 Embedding 数のデフォルト値
	DefaultConcurrency = 1
)

// BatchIndexer はチャンクを固定サイズのバッチ単位で Embedding 化してベクトルストアへ保存する
//
// バッチの処理が終わるたびにカーソルを保存するため、中断後の再実行は
// 未完了のバッチから再開する。同一カーソルに対する並行実行はサポートしない。
type BatchIndexer struct {
	source      ChunkSource
	embedder    Embedder
	store       VectorWriter
	cursor      CursorStore
	lock        RunLock
	concurrency int
	logger      *slog.Logger
}

// BatchIndexerOption は BatchIndexer のオプション設定
type BatchIndexerOption func(*BatchIndexer)

// WithIndexLogger は BatchIndexer にロガーを設定する
func WithIndexLogger(logger *slog.Logger) BatchIndexerOption {
	return func(x *BatchIndexer) {
		x.logger = logger
	}
}

// WithIndexConcurrency はバッチ内で同時に処理するチャンク数を設定する
// バッチをまたいだ並列化は行わない
func WithIndexConcurrency(n int) BatchIndexerOption {
	return func(x *BatchIndexer) {
		x.concurrency = n
	}
}

// WithRunLock は同時実行防止用のロックを設定する
func WithRunLock(lock RunLock) BatchIndexerOption {
	return func(x *BatchIndexer) {
		x.lock = lock
	}
}

// NewBatchIndexer は新しい BatchIndexer を作成する
func NewBatchIndexer(
	source ChunkSource,
	embedder Embedder,
	store VectorWriter,
	cursor CursorStore,
	opts ...BatchIndexerOption,
) *BatchIndexer {
	x := &BatchIndexer{
		source:      source,
		embedder:    embedder,
		store:       store,
		cursor:      cursor,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(x)
	}
	if x.logger == nil {
		x.logger = slog.Default()
	}
	if x.concurrency < 1 {
		x.concurrency = DefaultConcurrency
	}
	return x
}

// Index は未処理のバッチを順に処理する
//
// 個々のチャンクの失敗はスキップとして記録し、処理を継続する。
// カーソルの読み書きに失敗した場合は再開位置を保証できないためエラーを返す。
func (x *BatchIndexer) Index(ctx context.Context, batchSize int) (*IndexResult, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBatchSize, batchSize)
	}

	startTime := time.Now()
	runID := uuid.NewString()
	logger := x.logger.With("runID", runID)

	if x.lock != nil {
		release, err := x.lock.Acquire(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire indexing lock: %w", err)
		}
		defer release()
	}

	items, err := x.loadItems(ctx)
	if err != nil {
		return nil, err
	}

	startBatch, err := x.loadCursor(ctx)
	if err != nil {
		return nil, err
	}

	totalBatches := TotalBatches(len(items), batchSize)
	result := &IndexResult{
		RunID:        runID,
		TotalChunks:  len(items),
		TotalBatches: totalBatches,
		StartBatch:   startBatch,
	}

	if len(items) == 0 {
		logger.Warn("有効なチャンクが見つかりません")
		result.Duration = time.Since(startTime)
		return result, nil
	}

	logger.Info("インデックス化を開始",
		"chunks", len(items),
		"batchSize", batchSize,
		"totalBatches", totalBatches,
		"startBatch", startBatch,
	)

	if startBatch >= totalBatches {
		logger.Info("全バッチ処理済みのためスキップ", "startBatch", startBatch, "totalBatches", totalBatches)
		result.Duration = time.Since(startTime)
		return result, nil
	}

	for batch := startBatch; batch < totalBatches; batch++ {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(startTime)
			return result, fmt.Errorf("indexing interrupted before batch %d: %w", batch, err)
		}

		lo, hi := batchBounds(batch, batchSize, len(items))
		logger.Info("バッチを処理中",
			"batch", batch+1,
			"totalBatches", totalBatches,
			"from", lo,
			"to", hi,
		)

		skipped := x.processBatch(ctx, logger, batch, items[lo:hi])

		// 処理中にキャンセルされたバッチはカーソルを進めず、再実行時にやり直す
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(startTime)
			return result, fmt.Errorf("indexing interrupted during batch %d: %w", batch, err)
		}

		if err := x.cursor.Save(ctx, batch+1); err != nil {
			result.Duration = time.Since(startTime)
			return result, fmt.Errorf("failed to save batch cursor: %w", err)
		}

		result.ProcessedBatches++
		result.IndexedChunks += (hi - lo) - len(skipped)
		result.SkippedChunks = append(result.SkippedChunks, skipped...)

		logger.Info("バッチが完了",
			"batch", batch+1,
			"totalBatches", totalBatches,
			"indexed", (hi-lo)-len(skipped),
			"skipped", len(skipped),
		)
	}

	result.Duration = time.Since(startTime)
	logger.Info("インデックス化が完了",
		"processedBatches", result.ProcessedBatches,
		"indexedChunks", result.IndexedChunks,
		"skippedChunks", len(result.SkippedChunks),
		"duration", result.Duration,
	)

	return result, nil
}

// Status は現在のカーソル位置と総バッチ数を返す
func (x *BatchIndexer) Status(ctx context.Context, batchSize int) (*IndexStatus, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBatchSize, batchSize)
	}

	items, err := x.loadItems(ctx)
	if err != nil {
		return nil, err
	}

	next, err := x.loadCursor(ctx)
	if err != nil {
		return nil, err
	}

	return &IndexStatus{
		TotalChunks:  len(items),
		TotalBatches: TotalBatches(len(items), batchSize),
		NextBatch:    next,
		BatchSize:    batchSize,
	}, nil
}

// ResetCursor はカーソルを先頭に戻す
// 次回の Index は全バッチを再処理する（保存は上書きなので重複は生じない）
func (x *BatchIndexer) ResetCursor(ctx context.Context) error {
	if err := x.cursor.Save(ctx, 0); err != nil {
		return fmt.Errorf("failed to reset batch cursor: %w", err)
	}
	x.logger.Info("バッチカーソルをリセットしました")
	return nil
}

func (x *BatchIndexer) loadItems(ctx context.Context) ([]IndexItem, error) {
	docs, err := x.source.ListChunkedDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}
	return Flatten(docs), nil
}

func (x *BatchIndexer) loadCursor(ctx context.Context) (int, error) {
	saved, err := x.cursor.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load batch cursor: %w", err)
	}

	next := saved.OrElse(0)
	if next < 0 {
		x.logger.Warn("不正なカーソル値を0として扱います", "cursor", next)
		next = 0
	}
	return next, nil
}

// processBatch はバッチ内の全チャンクを処理し、スキップしたチャンクを返す
// 全ての呼び出しが戻るまで返らない
func (x *BatchIndexer) processBatch(ctx context.Context, logger *slog.Logger, batch int, items []IndexItem) []SkippedChunk {
	failures := make([]*SkippedChunk, len(items))

	if x.concurrency <= 1 {
		for i, item := range items {
			failures[i] = x.indexItem(ctx, logger, batch, item)
		}
	} else {
		sem := make(chan struct{}, x.concurrency)
		var wg sync.WaitGroup
		for i, item := range items {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int, item IndexItem) {
				defer wg.Done()
				defer func() { <-sem }()
				failures[i] = x.indexItem(ctx, logger, batch, item)
			}(i, item)
		}
		wg.Wait()
	}

	var skipped []SkippedChunk
	for _, f := range failures {
		if f != nil {
			skipped = append(skipped, *f)
		}
	}
	return skipped
}

func (x *BatchIndexer) indexItem(ctx context.Context, logger *slog.Logger, batch int, item IndexItem) *SkippedChunk {
	vector, err := x.embedder.Embed(ctx, item.Text)
	if err == nil && len(vector) == 0 {
		err = ErrEmptyEmbedding
	}
	if err != nil {
		logger.Warn("Embedding生成に失敗したためチャンクをスキップ", "chunkID", item.ID, "batch", batch+1, "error", err)
		return &SkippedChunk{ID: item.ID, Batch: batch, Kind: FailureEmbedding, Err: err}
	}

	if err := x.store.Upsert(ctx, item.ID, vector, item.Text); err != nil {
		logger.Warn("ベクトルの保存に失敗したためチャンクをスキップ", "chunkID", item.ID, "batch", batch+1, "error", err)
		return &SkippedChunk{ID: item.ID, Batch: batch, Kind: FailureStore, Err: err}
	}

	logger.Debug("チャンクを保存しました", "chunkID", item.ID)
	return nil
}
