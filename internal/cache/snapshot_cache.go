// Package cache 缓存最近一次报告生成的看板快照
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"campaignflow/internal/agent"
	"campaignflow/internal/metrics"

	"github.com/redis/go-redis/v9"
)

// ErrSnapshotNotFound 尚无快照
var ErrSnapshotNotFound = errors.New("dashboard snapshot not found")

// SnapshotCache 看板快照缓存
type SnapshotCache interface {
	Set(ctx context.Context, snapshot agent.DashboardSnapshot) error
	Latest(ctx context.Context) (*agent.DashboardSnapshot, error)
}

// MemorySnapshotCache 内存实现
type MemorySnapshotCache struct {
	mu       sync.RWMutex
	snapshot *agent.DashboardSnapshot
}

// NewMemorySnapshotCache 创建内存缓存
func NewMemorySnapshotCache() *MemorySnapshotCache {
	return &MemorySnapshotCache{}
}

func (c *MemorySnapshotCache) Set(_ context.Context, snapshot agent.DashboardSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = &snapshot
	return nil
}

func (c *MemorySnapshotCache) Latest(_ context.Context) (*agent.DashboardSnapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snapshot == nil {
		metrics.CacheMissesTotal.WithLabelValues("memory").Inc()
		return nil, ErrSnapshotNotFound
	}
	metrics.CacheHitsTotal.WithLabelValues("memory").Inc()
	cp := *c.snapshot
	return &cp, nil
}

// RedisSnapshotCache 基于 Redis 的实现，多实例共享同一份看板数据
type RedisSnapshotCache struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

// NewRedisSnapshotCache 创建 Redis 缓存
func NewRedisSnapshotCache(client redis.UniversalClient, ttl time.Duration) *RedisSnapshotCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisSnapshotCache{client: client, key: "campaignflow:dashboard:latest", ttl: ttl}
}

func (c *RedisSnapshotCache) Set(ctx context.Context, snapshot agent.DashboardSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("序列化看板快照失败: %w", err)
	}
	return c.client.Set(ctx, c.key, payload, c.ttl).Err()
}

func (c *RedisSnapshotCache) Latest(ctx context.Context) (*agent.DashboardSnapshot, error) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheMissesTotal.WithLabelValues("redis").Inc()
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	metrics.CacheHitsTotal.WithLabelValues("redis").Inc()

	var snapshot agent.DashboardSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("解析看板快照失败: %w", err)
	}
	return &snapshot, nil
}
