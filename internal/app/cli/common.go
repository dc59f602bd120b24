package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/jinford/research-genie/internal/platform/config"
	"github.com/jinford/research-genie/internal/platform/container"
	"github.com/jinford/research-genie/internal/platform/logger"
)

// AppContext はコマンド実行に必要な共通コンテキストを保持する
type AppContext struct {
	Config    *config.Config
	Container *container.ServiceContainer
}

// NewAppContext は設定からロガーとコンテナを初期化して AppContext を作成する
// 標準出力は回答や結果表示に使うため、ログは標準エラー出力に書く
func NewAppContext(cfg *config.Config, opts ...container.ContainerOption) (*AppContext, error) {
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("設定の読み込みに失敗: %w", err)
	}

	appLogger := logger.New(logger.Config{
		Level:  level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})

	containerOpts := append([]container.ContainerOption{container.WithContainerLogger(appLogger)}, opts...)
	cont, err := container.NewContainer(cfg, containerOpts...)
	if err != nil {
		return nil, fmt.Errorf("コンテナの初期化に失敗: %w", err)
	}

	return &AppContext{
		Config:    cfg,
		Container: cont,
	}, nil
}

// Close はAppContextが保持するリソースをクリーンアップする
func (ac *AppContext) Close() {
	if ac.Container != nil {
		ac.Container.Close()
	}
}

// Logger はAppContextのロガーを返す
func (ac *AppContext) Logger() *slog.Logger {
	if ac.Container != nil {
		return ac.Container.Logger()
	}
	return slog.Default()
}

// Commands はコマンドアクションを保持する
// 出力先とコンテナオプションはテストで差し替える
type Commands struct {
	out           io.Writer
	containerOpts []container.ContainerOption
}

// NewCommands は Commands を作成する
// out が nil の場合は標準出力
func NewCommands(out io.Writer, opts ...container.ContainerOption) *Commands {
	if out == nil {
		out = os.Stdout
	}
	return &Commands{out: out, containerOpts: opts}
}

// open は --env の設定を読み込み、フラグによる上書きを適用して AppContext を作成する
func (c *Commands) open(cmd *cli.Command, override func(cfg *config.Config)) (*AppContext, error) {
	cfg, err := config.Load(cmd.String("env"))
	if err != nil {
		return nil, fmt.Errorf("設定の読み込みに失敗: %w", err)
	}
	if override != nil {
		override(cfg)
	}
	return NewAppContext(cfg, c.containerOpts...)
}
