package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/jinford/research-genie/internal/core/indexing"
	"github.com/jinford/research-genie/internal/platform/config"
)

// IndexAction はチャンクファイルをバッチ単位でインデックス化するコマンドのアクション
func (c *Commands) IndexAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := c.open(cmd, func(cfg *config.Config) {
		if cmd.IsSet("chunks") {
			cfg.ChunksDir = cmd.String("chunks")
		}
		if cmd.IsSet("batch-size") {
			cfg.Indexing.BatchSize = cmd.Int("batch-size")
		}
		if cmd.IsSet("concurrency") {
			cfg.Indexing.Concurrency = cmd.Int("concurrency")
		}
	})
	if err != nil {
		return err
	}
	defer appCtx.Close()

	indexer, err := appCtx.Container.Indexer(ctx)
	if err != nil {
		return err
	}

	result, err := indexer.Index(ctx, appCtx.Config.Indexing.BatchSize)
	if err != nil {
		if errors.Is(err, indexing.ErrIndexerLocked) {
			return fmt.Errorf("別のインデックス化処理が実行中です: %w", err)
		}
		slog.Error("インデックス化に失敗しました", "error", err)
		return err
	}

	c.renderIndexResult(result)
	return nil
}

func (c *Commands) renderIndexResult(result *indexing.IndexResult) {
	table := tablewriter.NewWriter(c.out)
	table.Header("項目", "値")
	table.Append("実行ID", result.RunID)
	table.Append("チャンク総数", fmt.Sprintf("%d", result.TotalChunks))
	table.Append("バッチ総数", fmt.Sprintf("%d", result.TotalBatches))
	table.Append("開始バッチ", fmt.Sprintf("%d", result.StartBatch))
	table.Append("処理バッチ数", fmt.Sprintf("%d", result.ProcessedBatches))
	table.Append("インデックス済みチャンク", fmt.Sprintf("%d", result.IndexedChunks))
	table.Append("スキップしたチャンク", fmt.Sprintf("%d", len(result.SkippedChunks)))
	table.Append("処理時間", result.Duration.String())
	table.Render()

	if len(result.SkippedChunks) == 0 {
		return
	}

	fmt.Fprintln(c.out, "\n--- スキップしたチャンク ---")
	skipped := tablewriter.NewWriter(c.out)
	skipped.Header("Chunk ID", "Batch", "Kind", "Error")
	for _, s := range result.SkippedChunks {
		skipped.Append(s.ID, fmt.Sprintf("%d", s.Batch), string(s.Kind), s.Err.Error())
	}
	skipped.Render()
}
