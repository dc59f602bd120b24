package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// DBMigrateAction は pgvector のスキーマを作成するコマンドのアクション
func (c *Commands) DBMigrateAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := c.open(cmd, nil)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	db, err := appCtx.Container.Database(ctx)
	if err != nil {
		return err
	}

	dim := appCtx.Config.OpenAI.EmbeddingDimension
	if err := db.Migrate(ctx, dim); err != nil {
		return fmt.Errorf("マイグレーションに失敗: %w", err)
	}

	fmt.Fprintf(c.out, "スキーマを作成しました (dimension=%d)\n", dim)
	return nil
}
