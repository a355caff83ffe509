// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lawguide-go/internal/model"

	"github.com/go-redis/redis/v8"
)

// ErrSessionNotFound 表示会话不存在或已过期。
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository 定义了会话状态的存取接口。
// 会话只在过期时间内有效，不做跨重启的持久化承诺。
type SessionRepository interface {
	Save(ctx context.Context, state model.SessionState) error
	Find(ctx context.Context, id string) (model.SessionState, error)
	Delete(ctx context.Context, id string) error
	// Purge 删除已过期或被淘汰的会话并返回其 ID。依赖存储自身 TTL 的实现返回空列表，
	// 由调用方通过 Find 判断会话是否已不存在。
	Purge(ctx context.Context, now time.Time) ([]string, error)
}

type redisSessionRepository struct {
	redisClient *redis.Client
	ttl         time.Duration
}

// NewRedisSessionRepository 创建一个基于 Redis 的 SessionRepository。
func NewRedisSessionRepository(redisClient *redis.Client, ttl time.Duration) SessionRepository {
	return &redisSessionRepository{redisClient: redisClient, ttl: ttl}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// Save 将会话状态序列化为 JSON 写入 Redis，并刷新过期时间。
func (r *redisSessionRepository) Save(ctx context.Context, state model.SessionState) error {
	jsonData, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal session state: %w", err)
	}
	if err := r.redisClient.Set(ctx, sessionKey(state.ID), jsonData, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session state: %w", err)
	}
	return nil
}

// Find 从 Redis 读取会话状态。
func (r *redisSessionRepository) Find(ctx context.Context, id string) (model.SessionState, error) {
	jsonData, err := r.redisClient.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		return model.SessionState{}, ErrSessionNotFound
	}
	if err != nil {
		return model.SessionState{}, fmt.Errorf("failed to get session state: %w", err)
	}
	var state model.SessionState
	if err := json.Unmarshal(jsonData, &state); err != nil {
		return model.SessionState{}, fmt.Errorf("failed to unmarshal session state: %w", err)
	}
	return state, nil
}

// Delete 删除会话。
func (r *redisSessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.redisClient.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session state: %w", err)
	}
	return nil
}

// Purge 由 Redis TTL 负责过期，这里无需处理。
func (r *redisSessionRepository) Purge(ctx context.Context, now time.Time) ([]string, error) {
	return nil, nil
}
