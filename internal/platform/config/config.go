package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// ベクトルストアのバックエンド
const (
	VectorStorePostgres = "postgres"
	VectorStoreSQLite   = "sqlite"
	VectorStoreMemory   = "memory"
)

// カーソルストアのバックエンド
const (
	CursorStoreFile     = "file"
	CursorStorePostgres = "postgres"
	CursorStoreSQLite   = "sqlite"
	CursorStoreRedis    = "redis"
	CursorStoreMemory   = "memory"
)

// Config はアプリケーション全体の設定を保持します
type Config struct {
	// 入出力ディレクトリ
	DocumentsDir string
	ChunksDir    string

	Chunking  ChunkingConfig
	Indexing  IndexingConfig
	Retrieval RetrievalConfig
	Storage   StorageConfig

	// Database設定（postgres バックエンド用）
	Database DatabaseConfig

	// Redis設定（redis カーソルストア用）
	Redis RedisConfig

	// OpenAI 互換 API 設定（Embeddings + Chat）
	OpenAI OpenAIConfig

	Log LogConfig
}

// ChunkingConfig はチャンク化の設定
type ChunkingConfig struct {
	WindowSize int
	Overlap    int
	Encoding   string // tiktoken のエンコーディング名
}

// IndexingConfig はインデックス化の設定
type IndexingConfig struct {
	BatchSize   int
	Concurrency int
}

// RetrievalConfig は検索の設定
type RetrievalConfig struct {
	TopK int
}

// StorageConfig は永続化バックエンドの設定
type StorageConfig struct {
	VectorStore string
	CursorStore string
	CursorFile  string // file カーソルストアのパス
	CursorKey   string // カーソルの名前（コレクション名）
	SQLitePath  string
}

// DatabaseConfig はデータベース接続設定
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig は Redis 接続設定
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// OpenAIConfig はOpenAI API設定（Embeddings + LLM）
type OpenAIConfig struct {
	APIKey             string
	BaseURL            string // 空の場合は OpenAI、Ollama などは http://localhost:11434/v1
	EmbeddingModel     string
	EmbeddingDimension int
	LLMModel           string
	TimeoutSeconds     int
}

// LogConfig はログ出力の設定
type LogConfig struct {
	Level  string
	Format string
}

// Load は環境変数または.envファイルから設定を読み込みます
func Load(envFilePath string) (*Config, error) {
	// .envファイルが存在する場合は読み込む
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			// ファイルが存在しない場合はエラーとしない（環境変数のみで動作可能）
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load .env file: %w", err)
			}
		}
	}

	cfg := &Config{
		DocumentsDir: getEnv("DOCUMENTS_DIR", "./data/documents"),
		ChunksDir:    getEnv("CHUNKS_DIR", "./data/chunks"),
		Chunking: ChunkingConfig{
			WindowSize: getEnvAsInt("CHUNK_WINDOW_SIZE", 512),
			Overlap:    getEnvAsInt("CHUNK_OVERLAP", 128),
			Encoding:   getEnv("CHUNK_ENCODING", "cl100k_base"),
		},
		Indexing: IndexingConfig{
			BatchSize:   getEnvAsInt("INDEX_BATCH_SIZE", 10),
			Concurrency: getEnvAsInt("INDEX_CONCURRENCY", 1),
		},
		Retrieval: RetrievalConfig{
			TopK: getEnvAsInt("RETRIEVAL_TOP_K", 5),
		},
		Storage: StorageConfig{
			VectorStore: strings.ToLower(getEnv("VECTOR_STORE", VectorStoreSQLite)),
			CursorStore: strings.ToLower(getEnv("CURSOR_STORE", CursorStoreFile)),
			CursorFile:  getEnv("CURSOR_FILE", "processed_batches.json"),
			CursorKey:   getEnv("CURSOR_KEY", "research_chunks"),
			SQLitePath:  getEnv("SQLITE_PATH", "./data/research_genie.db"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "research"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "research_genie"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		OpenAI: OpenAIConfig{
			APIKey:             getEnv("OPENAI_API_KEY", ""),
			BaseURL:            getEnv("OPENAI_BASE_URL", ""),
			EmbeddingModel:     getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			EmbeddingDimension: getEnvAsInt("OPENAI_EMBEDDING_DIMENSION", 1536),
			LLMModel:           getEnv("OPENAI_LLM_MODEL", "gpt-4o-mini"),
			TimeoutSeconds:     getEnvAsInt("OPENAI_TIMEOUT_SECONDS", 60),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// Validate は設定値の整合性を検証します
func (c *Config) Validate() error {
	var errs []error

	if c.Chunking.WindowSize <= 0 {
		errs = append(errs, fmt.Errorf("CHUNK_WINDOW_SIZE must be positive: got %d", c.Chunking.WindowSize))
	}
	if c.Chunking.Overlap < 0 {
		errs = append(errs, fmt.Errorf("CHUNK_OVERLAP must not be negative: got %d", c.Chunking.Overlap))
	}
	if c.Chunking.WindowSize > 0 && c.Chunking.Overlap >= c.Chunking.WindowSize {
		errs = append(errs, fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_WINDOW_SIZE (%d)", c.Chunking.Overlap, c.Chunking.WindowSize))
	}
	if c.Indexing.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("INDEX_BATCH_SIZE must be positive: got %d", c.Indexing.BatchSize))
	}
	if c.Retrieval.TopK <= 0 {
		errs = append(errs, fmt.Errorf("RETRIEVAL_TOP_K must be positive: got %d", c.Retrieval.TopK))
	}

	switch c.Storage.VectorStore {
	case VectorStorePostgres, VectorStoreSQLite, VectorStoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown VECTOR_STORE: %q", c.Storage.VectorStore))
	}

	switch c.Storage.CursorStore {
	case CursorStoreFile, CursorStorePostgres, CursorStoreSQLite, CursorStoreRedis, CursorStoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown CURSOR_STORE: %q", c.Storage.CursorStore))
	}

	return errors.Join(errs...)
}

// UsesPostgres は postgres バックエンドを使用するかを返します
func (c *Config) UsesPostgres() bool {
	return c.Storage.VectorStore == VectorStorePostgres || c.Storage.CursorStore == CursorStorePostgres
}

// UsesSQLite は sqlite バックエンドを使用するかを返します
func (c *Config) UsesSQLite() bool {
	return c.Storage.VectorStore == VectorStoreSQLite || c.Storage.CursorStore == CursorStoreSQLite
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt は環境変数を整数として取得します
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
