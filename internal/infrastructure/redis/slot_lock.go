package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/slotbook/go-appointment-slot-booking/internal/pkg/metrics"
)

var (
	ErrLockNotFound = errors.New("スロットロックが見つかりません")
)

// releaseScript は所有者確認と削除をアトミックに実行するLuaスクリプト
// 自分のトークンでないロック（期限切れ後に他者が取得したもの）を誤って消さない
const releaseScript = `
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`

// SlotLockStore は (プロバイダー, 開始時刻) 単位の排他ロックをRedisで管理する
// 値にはホールドトークンを格納し、TTLで自動回収される
type SlotLockStore struct {
	client *redis.Client
}

// NewSlotLockStore は新しいSlotLockStoreを作成する
func NewSlotLockStore(client *redis.Client) *SlotLockStore {
	return &SlotLockStore{client: client}
}

// Key はスロットロックのキーを生成する（秒精度のUTC RFC3339）
func (s *SlotLockStore) Key(providerID string, startAt time.Time) string {
	return fmt.Sprintf("slot:%s:%s", providerID, startAt.UTC().Truncate(time.Second).Format(time.RFC3339))
}

// Acquire はSetNXでロック取得を試みる
// 既にキーが存在する場合は false を返す（エラーではない）
func (s *SlotLockStore) Acquire(ctx context.Context, providerID string, startAt time.Time, token string, ttl time.Duration) (bool, error) {
	start := time.Now()
	ok, err := s.client.SetNX(ctx, s.Key(providerID, startAt), token, ttl).Result()
	s.observe("acquire", start, err)
	if err != nil {
		return false, fmt.Errorf("スロットロック取得に失敗: %w", err)
	}
	return ok, nil
}

// Get は現在のロック保持トークンを返す（なければ ErrLockNotFound）
func (s *SlotLockStore) Get(ctx context.Context, providerID string, startAt time.Time) (string, error) {
	val, err := s.client.Get(ctx, s.Key(providerID, startAt)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrLockNotFound
		}
		return "", fmt.Errorf("スロットロック取得に失敗: %w", err)
	}
	return val, nil
}

// Release はトークンが一致する場合のみロックを削除する
// 一致しない場合は何もしない（TTL失効後の他者のロックを守る）
func (s *SlotLockStore) Release(ctx context.Context, providerID string, startAt time.Time, token string) error {
	start := time.Now()
	err := s.client.Eval(ctx, releaseScript, []string{s.Key(providerID, startAt)}, token).Err()
	s.observe("release", start, err)
	if err != nil {
		return fmt.Errorf("スロットロック解放に失敗: %w", err)
	}
	return nil
}

func (s *SlotLockStore) observe(operation string, start time.Time, err error) {
	m := metrics.Get()
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failed"
	}
	m.SlotLockDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
}
