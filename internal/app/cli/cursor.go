package cli

import (
	"context"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/jinford/research-genie/internal/platform/config"
)

func batchSizeOverride(cmd *cli.Command) func(cfg *config.Config) {
	return func(cfg *config.Config) {
		if cmd.IsSet("chunks") {
			cfg.ChunksDir = cmd.String("chunks")
		}
		if cmd.IsSet("batch-size") {
			cfg.Indexing.BatchSize = cmd.Int("batch-size")
		}
	}
}

// CursorShowAction はバッチカーソルの位置と進捗を表示するコマンドのアクション
func (c *Commands) CursorShowAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := c.open(cmd, batchSizeOverride(cmd))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	indexer, err := appCtx.Container.Indexer(ctx)
	if err != nil {
		return err
	}

	status, err := indexer.Status(ctx, appCtx.Config.Indexing.BatchSize)
	if err != nil {
		return err
	}

	state := "未完了"
	if status.Completed() {
		state = "完了"
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("項目", "値")
	table.Append("保存先", appCtx.Container.CursorDescription())
	table.Append("次のバッチ", fmt.Sprintf("%d", status.NextBatch))
	table.Append("バッチ総数", fmt.Sprintf("%d", status.TotalBatches))
	table.Append("チャンク総数", fmt.Sprintf("%d", status.TotalChunks))
	table.Append("バッチサイズ", fmt.Sprintf("%d", status.BatchSize))
	table.Append("状態", state)
	table.Render()
	return nil
}

// CursorResetAction はバッチカーソルを先頭に戻すコマンドのアクション
func (c *Commands) CursorResetAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := c.open(cmd, batchSizeOverride(cmd))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	indexer, err := appCtx.Container.Indexer(ctx)
	if err != nil {
		return err
	}

	if err := indexer.ResetCursor(ctx); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "バッチカーソルをリセットしました (%s)\n", appCtx.Container.CursorDescription())
	return nil
}
