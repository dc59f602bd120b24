package cli

import (
	"github.com/urfave/cli/v3"
)

func envFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "env",
		Usage: "環境変数ファイルパス",
		Value: ".env",
	}
}

// NewApp は research-genie のコマンドツリーを構築する
func NewApp(c *Commands) *cli.Command {
	return &cli.Command{
		Name:  "research-genie",
		Usage: "研究論文向け RAG（チャンク化・バッチインデックス化・質問応答）",
		Commands: []*cli.Command{
			{
				Name:  "chunk",
				Usage: "ドキュメントをトークン単位のチャンクに分割",
				Flags: []cli.Flag{
					envFlag(),
					&cli.StringFlag{
						Name:  "documents",
						Usage: "入力ドキュメントのディレクトリ（DOCUMENTS_DIR を上書き）",
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "チャンクファイルの出力先（CHUNKS_DIR を上書き）",
					},
					&cli.IntFlag{
						Name:  "window",
						Usage: "ウィンドウサイズ（トークン数）",
					},
					&cli.IntFlag{
						Name:  "overlap",
						Usage: "オーバーラップ（トークン数）",
					},
				},
				Action: c.ChunkAction,
			},
			{
				Name:  "index",
				Usage: "チャンクをバッチ単位で Embedding 化してベクトルストアに保存",
				Flags: []cli.Flag{
					envFlag(),
					&cli.StringFlag{
						Name:  "chunks",
						Usage: "チャンクファイルのディレクトリ（CHUNKS_DIR を上書き）",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "1バッチあたりのチャンク数",
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "バッチ内の並列数",
					},
				},
				Action: c.IndexAction,
			},
			{
				Name:      "ask",
				Usage:     "インデックス化した論文に質問",
				ArgsUsage: "<質問文>",
				Flags: []cli.Flag{
					envFlag(),
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "検索するチャンク数",
					},
					&cli.StringFlag{
						Name:  "history",
						Usage: "会話履歴のJSONファイル",
					},
					&cli.BoolFlag{
						Name:  "show-sources",
						Usage: "参照したチャンクを表示",
					},
				},
				Action: c.AskAction,
			},
			{
				Name:  "cursor",
				Usage: "バッチカーソル管理コマンド",
				Commands: []*cli.Command{
					{
						Name:  "show",
						Usage: "カーソル位置と進捗を表示",
						Flags: []cli.Flag{
							envFlag(),
							&cli.StringFlag{
								Name:  "chunks",
								Usage: "チャンクファイルのディレクトリ（CHUNKS_DIR を上書き）",
							},
							&cli.IntFlag{
								Name:  "batch-size",
								Usage: "1バッチあたりのチャンク数",
							},
						},
						Action: c.CursorShowAction,
					},
					{
						Name:  "reset",
						Usage: "カーソルを先頭に戻す",
						Flags: []cli.Flag{
							envFlag(),
						},
						Action: c.CursorResetAction,
					},
				},
			},
			{
				Name:  "db",
				Usage: "データベース管理コマンド",
				Commands: []*cli.Command{
					{
						Name:  "migrate",
						Usage: "pgvector のスキーマを作成",
						Flags: []cli.Flag{
							envFlag(),
						},
						Action: c.DBMigrateAction,
					},
				},
			},
		},
	}
}
