package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	coreask "github.com/jinford/research-genie/internal/core/ask"
	"github.com/jinford/research-genie/internal/platform/config"
)

// AskAction は質問応答コマンドのアクション
func (c *Commands) AskAction(ctx context.Context, cmd *cli.Command) error {
	showSources := cmd.Bool("show-sources")
	historyFile := cmd.String("history")

	// 質問文の取得（引用符なしの複数引数も1つの質問として扱う）
	question := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("質問文を指定してください")
	}

	history, err := loadHistory(historyFile)
	if err != nil {
		return err
	}

	appCtx, err := c.open(cmd, func(cfg *config.Config) {
		if cmd.IsSet("top-k") {
			cfg.Retrieval.TopK = cmd.Int("top-k")
		}
	})
	if err != nil {
		return err
	}
	defer appCtx.Close()

	slog.Info("質問応答を開始",
		"question", question,
		"historyTurns", len(history),
		"topK", appCtx.Config.Retrieval.TopK,
	)

	svc, err := appCtx.Container.AskService(ctx)
	if err != nil {
		return err
	}

	result, err := svc.Ask(ctx, question, history)
	if err != nil {
		slog.Error("質問応答に失敗しました", "error", err)
		return err
	}

	fmt.Fprintln(c.out, result.Answer)

	if showSources {
		c.renderSources(result)
	}

	slog.Info("質問応答が完了しました", "directChat", result.DirectChat, "sources", len(result.Sources))
	return nil
}

func (c *Commands) renderSources(result *coreask.AskResult) {
	fmt.Fprintln(c.out, "\n--- 参照ソース ---")
	if result.DirectChat {
		fmt.Fprintln(c.out, "（雑談として検索せずに応答しました）")
		return
	}
	if len(result.Sources) == 0 {
		fmt.Fprintln(c.out, "（該当するチャンクはありません）")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Chunk ID", "Score")
	for i, source := range result.Sources {
		table.Append(fmt.Sprintf("%d", i+1), source.ID, fmt.Sprintf("%.4f", source.Score))
	}
	table.Render()
}

// loadHistory は会話履歴ファイル [{"user": ..., "ai": ...}] を読み込む
// path が空の場合は履歴なし
func loadHistory(path string) ([]coreask.ConversationTurn, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("会話履歴ファイルの読み込みに失敗: %w", err)
	}

	var history []coreask.ConversationTurn
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("会話履歴ファイルのパースに失敗: %w", err)
	}
	return history, nil
}
