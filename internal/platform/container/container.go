package container

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jinford/research-genie/internal/core/ask"
	"github.com/jinford/research-genie/internal/core/indexing"
	"github.com/jinford/research-genie/internal/core/ingestion"
	"github.com/jinford/research-genie/internal/core/ingestion/chunk"
	"github.com/jinford/research-genie/internal/infra/filestore"
	"github.com/jinford/research-genie/internal/infra/memory"
	"github.com/jinford/research-genie/internal/infra/openai"
	"github.com/jinford/research-genie/internal/infra/postgres"
	"github.com/jinford/research-genie/internal/infra/redis"
	"github.com/jinford/research-genie/internal/infra/sqlite"
	"github.com/jinford/research-genie/internal/infra/tokenizer"
	"github.com/jinford/research-genie/internal/platform/config"
	"github.com/jinford/research-genie/internal/platform/database"
)

// Embedder はインデックス化と検索で共有する Embedding 生成インターフェース
type Embedder interface {
	indexing.Embedder
	ask.Embedder
}

// VectorStore は書き込みと検索の両方を提供するベクトルストア
type VectorStore interface {
	indexing.VectorWriter
	ask.Retriever
}

// ServiceContainer はアプリケーションの依存関係を保持する
//
// 各コンポーネントは最初に要求されたときに構築する。
// chunk コマンドのようにデータベースや API を必要としない処理で接続を張らないため。
type ServiceContainer struct {
	cfg     *config.Config
	options containerOptions

	tokenizer   chunk.Tokenizer
	chunker     *chunk.SlidingWindowChunker
	chunkStore  *filestore.ChunkStore
	embedder    Embedder
	chat        ask.ChatModel
	vectorStore VectorStore
	cursorStore indexing.CursorStore
	runLock     indexing.RunLock

	database    *database.Database
	sqliteStore *sqlite.Store
	redisClient *goredis.Client
}

type containerOptions struct {
	logger      *slog.Logger
	embedder    Embedder
	chatModel   ask.ChatModel
	tokenizer   chunk.Tokenizer
	vectorStore VectorStore
	cursorStore indexing.CursorStore
	runLock     indexing.RunLock
	database    *database.Database
}

// ContainerOption は ServiceContainer 構築時のオプション
type ContainerOption func(*containerOptions)

// WithContainerLogger はロガーを差し替える
func WithContainerLogger(logger *slog.Logger) ContainerOption {
	return func(opts *containerOptions) {
		opts.logger = logger
	}
}

// WithContainerEmbedder はカスタム Embedder を注入する
func WithContainerEmbedder(embedder Embedder) ContainerOption {
	return func(opts *containerOptions) {
		opts.embedder = embedder
	}
}

// WithContainerChatModel はチャットモデルを差し替える
func WithContainerChatModel(chat ask.ChatModel) ContainerOption {
	return func(opts *containerOptions) {
		opts.chatModel = chat
	}
}

// WithContainerTokenizer は Tokenizer を差し替える
func WithContainerTokenizer(tok chunk.Tokenizer) ContainerOption {
	return func(opts *containerOptions) {
		opts.tokenizer = tok
	}
}

// WithContainerVectorStore はベクトルストアを差し替える
func WithContainerVectorStore(store VectorStore) ContainerOption {
	return func(opts *containerOptions) {
		opts.vectorStore = store
	}
}

// WithContainerCursorStore はカーソルストアを差し替える
func WithContainerCursorStore(store indexing.CursorStore) ContainerOption {
	return func(opts *containerOptions) {
		opts.cursorStore = store
	}
}

// WithContainerRunLock はインデックス化の実行ロックを差し替える
func WithContainerRunLock(lock indexing.RunLock) ContainerOption {
	return func(opts *containerOptions) {
		opts.runLock = lock
	}
}

// WithContainerDatabase は既存の Database を使用する
func WithContainerDatabase(db *database.Database) ContainerOption {
	return func(opts *containerOptions) {
		opts.database = db
	}
}

// NewContainer は設定からコンテナを生成する
func NewContainer(cfg *config.Config, opts ...ContainerOption) (*ServiceContainer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	options := containerOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	return &ServiceContainer{
		cfg:         cfg,
		options:     options,
		tokenizer:   options.tokenizer,
		embedder:    options.embedder,
		chat:        options.chatModel,
		vectorStore: options.vectorStore,
		cursorStore: options.cursorStore,
		runLock:     options.runLock,
		database:    options.database,
	}, nil
}

// Logger はロガーを返す
func (c *ServiceContainer) Logger() *slog.Logger {
	if c == nil || c.options.logger == nil {
		return slog.Default()
	}
	return c.options.logger
}

// Config は設定を返す
func (c *ServiceContainer) Config() *config.Config {
	return c.cfg
}

// Chunker はスライディングウィンドウチャンカーを返す
func (c *ServiceContainer) Chunker() (*chunk.SlidingWindowChunker, error) {
	if c.chunker != nil {
		return c.chunker, nil
	}

	if c.tokenizer == nil {
		tok, err := tokenizer.NewTiktoken(c.cfg.Chunking.Encoding)
		if err != nil {
			return nil, fmt.Errorf("Tokenizer 初期化に失敗しました: %w", err)
		}
		c.tokenizer = tok
	}

	chunker, err := chunk.NewSlidingWindowChunker(c.tokenizer, c.cfg.Chunking.WindowSize, c.cfg.Chunking.Overlap)
	if err != nil {
		return nil, fmt.Errorf("Chunker 初期化に失敗しました: %w", err)
	}
	c.chunker = chunker
	return chunker, nil
}

// ChunkStore はチャンクファイルのストアを返す
func (c *ServiceContainer) ChunkStore() *filestore.ChunkStore {
	if c.chunkStore == nil {
		c.chunkStore = filestore.NewChunkStore(c.cfg.ChunksDir, filestore.WithLogger(c.Logger()))
	}
	return c.chunkStore
}

// ChunkService はドキュメントのチャンク化サービスを返す
func (c *ServiceContainer) ChunkService() (*ingestion.ChunkService, error) {
	chunker, err := c.Chunker()
	if err != nil {
		return nil, err
	}

	reader := filestore.NewDocumentReader(c.cfg.DocumentsDir, filestore.WithLogger(c.Logger()))
	return ingestion.NewChunkService(reader, c.ChunkStore(), chunker, ingestion.WithChunkLogger(c.Logger())), nil
}

// Indexer はバッチインデクサを返す
func (c *ServiceContainer) Indexer(ctx context.Context) (*indexing.BatchIndexer, error) {
	embedder := c.Embedder()

	store, err := c.VectorStore(ctx)
	if err != nil {
		return nil, err
	}
	cursor, err := c.CursorStore(ctx)
	if err != nil {
		return nil, err
	}
	lock, err := c.RunLock(ctx)
	if err != nil {
		return nil, err
	}

	opts := []indexing.BatchIndexerOption{
		indexing.WithIndexLogger(c.Logger()),
		indexing.WithIndexConcurrency(c.cfg.Indexing.Concurrency),
	}
	if lock != nil {
		opts = append(opts, indexing.WithRunLock(lock))
	}

	return indexing.NewBatchIndexer(c.ChunkStore(), embedder, store, cursor, opts...), nil
}

// AskService は質問応答サービスを返す
func (c *ServiceContainer) AskService(ctx context.Context) (*ask.AskService, error) {
	chat, err := c.ChatModel()
	if err != nil {
		return nil, err
	}
	store, err := c.VectorStore(ctx)
	if err != nil {
		return nil, err
	}

	return ask.NewAskService(c.Embedder(), store, chat,
		ask.WithAskLogger(c.Logger()),
		ask.WithTopK(c.cfg.Retrieval.TopK),
	), nil
}

// Embedder は Embedding クライアントを返す
func (c *ServiceContainer) Embedder() Embedder {
	if c.embedder == nil {
		c.embedder = openai.NewEmbedder(
			c.cfg.OpenAI.APIKey,
			openai.WithEmbeddingModel(c.cfg.OpenAI.EmbeddingModel),
			openai.WithEmbeddingDimension(c.cfg.OpenAI.EmbeddingDimension),
			openai.WithEmbeddingBaseURL(c.cfg.OpenAI.BaseURL),
			openai.WithEmbeddingTimeout(c.timeout()),
		)
	}
	return c.embedder
}

// ChatModel はチャットモデルクライアントを返す
func (c *ServiceContainer) ChatModel() (ask.ChatModel, error) {
	if c.chat != nil {
		return c.chat, nil
	}

	client, err := openai.NewChatClient(
		c.cfg.OpenAI.APIKey,
		openai.WithChatModel(c.cfg.OpenAI.LLMModel),
		openai.WithChatBaseURL(c.cfg.OpenAI.BaseURL),
		openai.WithChatTimeout(c.timeout()),
	)
	if err != nil {
		return nil, fmt.Errorf("OpenAI チャットクライアント初期化に失敗しました: %w", err)
	}
	c.chat = client
	return client, nil
}

// VectorStore は設定されたバックエンドのベクトルストアを返す
func (c *ServiceContainer) VectorStore(ctx context.Context) (VectorStore, error) {
	if c.vectorStore != nil {
		return c.vectorStore, nil
	}

	switch c.cfg.Storage.VectorStore {
	case config.VectorStorePostgres:
		db, err := c.Database(ctx)
		if err != nil {
			return nil, err
		}
		c.vectorStore = postgres.NewVectorStore(db.Pool)
	case config.VectorStoreSQLite:
		store, err := c.openSQLite()
		if err != nil {
			return nil, err
		}
		c.vectorStore = store
	case config.VectorStoreMemory:
		c.vectorStore = memory.NewVectorStore()
	default:
		return nil, fmt.Errorf("unknown vector store: %q", c.cfg.Storage.VectorStore)
	}
	return c.vectorStore, nil
}

// CursorStore は設定されたバックエンドのカーソルストアを返す
func (c *ServiceContainer) CursorStore(ctx context.Context) (indexing.CursorStore, error) {
	if c.cursorStore != nil {
		return c.cursorStore, nil
	}

	key := c.cfg.Storage.CursorKey
	switch c.cfg.Storage.CursorStore {
	case config.CursorStoreFile:
		c.cursorStore = filestore.NewCursorFile(c.cfg.Storage.CursorFile)
	case config.CursorStorePostgres:
		db, err := c.Database(ctx)
		if err != nil {
			return nil, err
		}
		c.cursorStore = postgres.NewCursorStore(db.Pool, key)
	case config.CursorStoreSQLite:
		store, err := c.openSQLite()
		if err != nil {
			return nil, err
		}
		c.cursorStore = store.CursorStore(key)
	case config.CursorStoreRedis:
		c.cursorStore = redis.NewCursorStore(c.redisConn(), key)
	case config.CursorStoreMemory:
		c.cursorStore = memory.NewCursorStore()
	default:
		return nil, fmt.Errorf("unknown cursor store: %q", c.cfg.Storage.CursorStore)
	}
	return c.cursorStore, nil
}

// RunLock はカーソルストアに対応する実行ロックを返す
// プロセス間で共有できるバックエンド（postgres / redis）以外では nil
func (c *ServiceContainer) RunLock(ctx context.Context) (indexing.RunLock, error) {
	if c.runLock != nil {
		return c.runLock, nil
	}
	if c.options.cursorStore != nil {
		return nil, nil
	}

	key := c.cfg.Storage.CursorKey
	switch c.cfg.Storage.CursorStore {
	case config.CursorStorePostgres:
		db, err := c.Database(ctx)
		if err != nil {
			return nil, err
		}
		c.runLock = postgres.NewAdvisoryLock(db.Pool, key, c.Logger())
	case config.CursorStoreRedis:
		c.runLock = redis.NewRunLock(c.redisConn(), key, redis.DefaultLockTTL, c.Logger())
	}
	return c.runLock, nil
}

// Database は PostgreSQL 接続を返す
func (c *ServiceContainer) Database(ctx context.Context) (*database.Database, error) {
	if c.database != nil {
		return c.database, nil
	}

	db, err := database.New(ctx, database.ConnectionParams{
		Host:     c.cfg.Database.Host,
		Port:     c.cfg.Database.Port,
		User:     c.cfg.Database.User,
		Password: c.cfg.Database.Password,
		DBName:   c.cfg.Database.DBName,
		SSLMode:  c.cfg.Database.SSLMode,
	})
	if err != nil {
		return nil, fmt.Errorf("データベース初期化に失敗しました: %w", err)
	}
	c.database = db
	return db, nil
}

// CursorDescription はカーソルの保存先を人が読める形で返す
func (c *ServiceContainer) CursorDescription() string {
	if c.options.cursorStore != nil {
		return "custom"
	}
	switch c.cfg.Storage.CursorStore {
	case config.CursorStoreFile:
		return "file:" + c.cfg.Storage.CursorFile
	case config.CursorStoreSQLite:
		return "sqlite:" + c.cfg.Storage.SQLitePath + "#" + c.cfg.Storage.CursorKey
	default:
		return c.cfg.Storage.CursorStore + ":" + c.cfg.Storage.CursorKey
	}
}

// Close は内部リソースを解放する
// 注入された Database は呼び出し元が閉じる
func (c *ServiceContainer) Close() {
	if c == nil {
		return
	}
	if c.database != nil && c.database != c.options.database {
		c.database.Close()
	}
	if c.sqliteStore != nil {
		if err := c.sqliteStore.Close(); err != nil {
			c.Logger().Warn("SQLite のクローズに失敗しました", "error", err)
		}
	}
	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			c.Logger().Warn("Redis のクローズに失敗しました", "error", err)
		}
	}
}

func (c *ServiceContainer) openSQLite() (*sqlite.Store, error) {
	if c.sqliteStore != nil {
		return c.sqliteStore, nil
	}
	store, err := sqlite.Open(c.cfg.Storage.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("SQLite 初期化に失敗しました: %w", err)
	}
	c.sqliteStore = store
	return store, nil
}

func (c *ServiceContainer) redisConn() *goredis.Client {
	if c.redisClient == nil {
		c.redisClient = goredis.NewClient(&goredis.Options{
			Addr:     c.cfg.Redis.Addr,
			Password: c.cfg.Redis.Password,
			DB:       c.cfg.Redis.DB,
		})
	}
	return c.redisClient
}

func (c *ServiceContainer) timeout() time.Duration {
	if c.cfg.OpenAI.TimeoutSeconds <= 0 {
		return openai.DefaultTimeout
	}
	return time.Duration(c.cfg.OpenAI.TimeoutSeconds) * time.Second
}
