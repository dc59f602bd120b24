package postgres

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jinford/research-genie/internal/core/indexing"
)

// GenerateLockID は文字列からロックIDを生成する
func GenerateLockID(parts ...string) int64 {
	h := sha256.New()
	for _, part := range parts {
		h.Write([]byte(part))
	}
	hash := h.Sum(nil)

	// ハッシュの最初の8バイトをint64として使用
	var id int64
	for i := range 8 {
		id = (id << 8) | int64(hash[i])
	}

	return id
}

// AdvisoryLock は PostgreSQL のセッションスコープのアドバイザリロックによる実行ロック
// ロックはプールから確保した1接続に紐づき、解放時に接続をプールへ返す
type AdvisoryLock struct {
	pool   *pgxpool.Pool
	lockID int64
	name   string
	logger *slog.Logger
}

// NewAdvisoryLock は name に対する AdvisoryLock を作成する
func NewAdvisoryLock(pool *pgxpool.Pool, name string, logger *slog.Logger) *AdvisoryLock {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdvisoryLock{
		pool:   pool,
		lockID: GenerateLockID("research-genie", "indexer", name),
		name:   name,
		logger: logger,
	}
}

// Acquire は pg_try_advisory_lock でロックを取得する
// 他のセッションが保持している場合は待たずに indexing.ErrIndexerLocked を返す
func (l *AdvisoryLock) Acquire(ctx context.Context) (func(), error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	var ok bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", l.lockID).Scan(&ok); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to acquire advisory lock: %w", err)
	}
	if !ok {
		conn.Release()
		return nil, fmt.Errorf("%w: %s", indexing.ErrIndexerLocked, l.name)
	}

	release := func() {
		defer conn.Release()
		if _, err := conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", l.lockID); err != nil {
			l.logger.Warn("アドバイザリロックの解放に失敗しました", "lock", l.name, "error", err)
		}
	}
	return release, nil
}

var _ indexing.RunLock = (*AdvisoryLock)(nil)
