package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/jinford/research-genie/internal/core/ingestion"
	"github.com/jinford/research-genie/internal/platform/config"
)

// ChunkAction はドキュメントをチャンク化してチャンクファイルを書き出すコマンドのアクション
func (c *Commands) ChunkAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := c.open(cmd, func(cfg *config.Config) {
		if cmd.IsSet("documents") {
			cfg.DocumentsDir = cmd.String("documents")
		}
		if cmd.IsSet("out") {
			cfg.ChunksDir = cmd.String("out")
		}
		if cmd.IsSet("window") {
			cfg.Chunking.WindowSize = cmd.Int("window")
		}
		if cmd.IsSet("overlap") {
			cfg.Chunking.Overlap = cmd.Int("overlap")
		}
	})
	if err != nil {
		return err
	}
	defer appCtx.Close()

	slog.Info("チャンク化を開始",
		"documents", appCtx.Config.DocumentsDir,
		"out", appCtx.Config.ChunksDir,
		"window", appCtx.Config.Chunking.WindowSize,
		"overlap", appCtx.Config.Chunking.Overlap,
	)

	svc, err := appCtx.Container.ChunkService()
	if err != nil {
		return err
	}

	result, err := svc.ChunkAll(ctx)
	if err != nil {
		slog.Error("チャンク化に失敗しました", "error", err)
		return err
	}

	c.renderChunkResult(result)
	return nil
}

func (c *Commands) renderChunkResult(result *ingestion.ChunkResult) {
	table := tablewriter.NewWriter(c.out)
	table.Header("項目", "値")
	table.Append("処理ドキュメント数", fmt.Sprintf("%d", result.ProcessedDocuments))
	table.Append("スキップ", fmt.Sprintf("%d", result.SkippedDocuments))
	table.Append("失敗", fmt.Sprintf("%d", result.FailedDocuments))
	table.Append("ID重複", fmt.Sprintf("%d", result.DuplicateDocuments))
	table.Append("チャンク総数", fmt.Sprintf("%d", result.TotalChunks))
	table.Append("処理時間", result.Duration.String())
	table.Render()
}
