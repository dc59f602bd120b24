package redis

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jinford/research-genie/internal/core/indexing"
)

// DefaultLockTTL はロックの有効期限
// 保持中は定期的に延長する。プロセスが異常終了した場合はこの時間が経てば他の実行が取得できる
const DefaultLockTTL = 30 * time.Minute

// RunLock は SETNX による単一インデクサ実行ロック
type RunLock struct {
	client       *redis.Client
	key          string
	ownerID      string
	ttl          time.Duration
	refreshEvery time.Duration
	logger       *slog.Logger
}

// NewRunLock は name に対する RunLock を作成する
func NewRunLock(client *redis.Client, name string, ttl time.Duration, logger *slog.Logger) *RunLock {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	refreshEvery := ttl / 3
	if refreshEvery <= 0 {
		refreshEvery = ttl
	}
	return &RunLock{
		client:       client,
		key:          keyPrefix + "lock:" + name,
		ownerID:      uuid.NewString(),
		ttl:          ttl,
		refreshEvery: refreshEvery,
		logger:       logger,
	}
}

// releaseScript は所有者が一致する場合のみロックを削除する
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// refreshScript は所有者が一致する場合のみ有効期限を延長する
var refreshScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

// Acquire はロックを取得する。既に保持されている場合は indexing.ErrIndexerLocked
//
// 保持中は ctx が終わるか解放関数が呼ばれるまで有効期限を延長し続ける。
func (l *RunLock) Acquire(ctx context.Context) (func(), error) {
	ok, err := l.client.SetNX(ctx, l.key, l.ownerID, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", l.key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", indexing.ErrIndexerLocked, l.key)
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		l.keepAlive(ctx, stop)
	}()

	var once sync.Once
	release := func() {
		once.Do(func() {
			close(stop)
			wg.Wait()

			// 呼び出し元の ctx がキャンセル済みでも解放できるようにする
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.ownerID).Err(); err != nil && err != redis.Nil {
				l.logger.Warn("ロックの解放に失敗しました", "key", l.key, "error", err)
			}
		})
	}
	return release, nil
}

// keepAlive は refreshEvery ごとにロックの有効期限を ttl に戻す
// 所有権を失った場合は延長をやめる
func (l *RunLock) keepAlive(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(l.refreshEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			owned, err := l.refresh(ctx)
			if err != nil {
				l.logger.Warn("ロックの延長に失敗しました", "key", l.key, "error", err)
				continue
			}
			if !owned {
				l.logger.Warn("ロックの所有権を失いました", "key", l.key)
				return
			}
		}
	}
}

// refresh はロックを保持していれば有効期限を延長し、保持しているかを返す
func (l *RunLock) refresh(ctx context.Context) (bool, error) {
	n, err := refreshScript.Run(ctx, l.client, []string{l.key}, l.ownerID, l.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to refresh lock %s: %w", l.key, err)
	}
	return n == 1, nil
}

var _ indexing.RunLock = (*RunLock)(nil)
