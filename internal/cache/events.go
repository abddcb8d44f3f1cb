// Package cache は取得済みカレンダーイベントのRedisキャッシュを提供する。
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/workman/internal/model"
)

const eventKeyPrefix = "workman:events:"

// ErrMiss はキャッシュに該当エントリがないことを示す。
var ErrMiss = errors.New("cache: entry not found")

// EventStore は従業員ごとの解決済みイベント一覧をTTL付きで保持する。
// レポート生成のたびにカレンダーを再取得しないための層であり、
// 取得ワーカーが定期的に上書きする。
type EventStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewEventStore はEventStoreを生成する。
func NewEventStore(client *redis.Client, ttl time.Duration) *EventStore {
	return &EventStore{client: client, ttl: ttl}
}

// Get は従業員のキャッシュ済みイベントを返す。
// エントリがない、または期限切れの場合はErrMissを返す。
func (s *EventStore) Get(ctx context.Context, employeeID int64) ([]model.ResolvedEvent, error) {
	data, err := s.client.Get(ctx, eventKey(employeeID)).Result()
	if err == redis.Nil {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("イベントキャッシュの取得に失敗: %w", err)
	}

	var events []model.ResolvedEvent
	if err := json.Unmarshal([]byte(data), &events); err != nil {
		return nil, fmt.Errorf("イベントキャッシュの復元に失敗: %w", err)
	}
	return events, nil
}

// Set は従業員のイベント一覧をTTL付きで保存する。
func (s *EventStore) Set(ctx context.Context, employeeID int64, events []model.ResolvedEvent) error {
	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("イベントキャッシュの直列化に失敗: %w", err)
	}
	if err := s.client.Set(ctx, eventKey(employeeID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("イベントキャッシュの保存に失敗: %w", err)
	}
	return nil
}

// Invalidate は従業員のキャッシュエントリを削除する。
func (s *EventStore) Invalidate(ctx context.Context, employeeID int64) error {
	if err := s.client.Del(ctx, eventKey(employeeID)).Err(); err != nil {
		return fmt.Errorf("イベントキャッシュの削除に失敗: %w", err)
	}
	return nil
}

func eventKey(employeeID int64) string {
	return fmt.Sprintf("%s%d", eventKeyPrefix, employeeID)
}
