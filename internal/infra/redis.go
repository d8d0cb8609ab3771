package infra

import (
	"context"
	"fmt"
	"time"

	"campaignflow/internal/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisClient 按配置创建 Redis 客户端并检查连通性
// 支持三种模式: standalone(单节点), sentinel(哨兵), cluster(集群)
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (redis.UniversalClient, error) {
	opts, err := universalOptions(cfg)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewUniversalClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功",
		zap.String("mode", modeOf(cfg)),
		zap.Strings("addrs", opts.Addrs),
		zap.Int("db", opts.DB),
	)
	return rdb, nil
}

func modeOf(cfg config.RedisConfig) string {
	if cfg.Mode == "" {
		return "standalone"
	}
	return cfg.Mode
}

func universalOptions(cfg config.RedisConfig) (*redis.UniversalOptions, error) {
	opts := &redis.UniversalOptions{
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	}

	switch modeOf(cfg) {
	case "standalone":
		opts.Addrs = []string{cfg.Addr()}
	case "sentinel":
		if cfg.MasterName == "" || len(cfg.SentinelAddrs) == 0 {
			return nil, fmt.Errorf("哨兵模式需要配置 master_name 和 sentinel_addrs")
		}
		opts.MasterName = cfg.MasterName
		opts.Addrs = cfg.SentinelAddrs
		opts.SentinelPassword = cfg.SentinelPassword
	case "cluster":
		if len(cfg.ClusterAddrs) == 0 {
			return nil, fmt.Errorf("集群模式需要配置 cluster_addrs")
		}
		// 集群模式不支持选择 DB
		opts.Addrs = cfg.ClusterAddrs
		opts.DB = 0
	default:
		return nil, fmt.Errorf("不支持的 Redis 模式: %s (可选: standalone, sentinel, cluster)", cfg.Mode)
	}
	return opts, nil
}
