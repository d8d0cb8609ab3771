package api

import (
	"context"
	"errors"
	"time"

	dashboardHandlers "campaignflow/api/handlers/dashboard"
	"campaignflow/api/handlers/workflows"
	"campaignflow/internal/agent"
	"campaignflow/internal/agent/runtime"
	"campaignflow/internal/cache"
	"campaignflow/internal/config"
	"campaignflow/internal/dashboard"
	"campaignflow/internal/infra"
	"campaignflow/internal/infra/queue"
	"campaignflow/internal/logger"
	"campaignflow/internal/middleware"
	"campaignflow/internal/worker"
	"campaignflow/internal/workflow"
	"campaignflow/internal/workflow/executor"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// AppContainer 应用依赖容器
type AppContainer struct {
	// 基础设施
	Config      *config.Config
	RedisClient redis.UniversalClient
	QueueClient queue.Client

	// 编排核心
	Snapshots cache.SnapshotCache
	History   *workflow.HistoryStore
	Agents    agent.Set
	Engine    *executor.Engine

	// 看板推送与后台任务
	DashboardHub *dashboard.Hub
	WorkerServer *worker.Server

	// 执行类接口限流
	RateLimiter *middleware.RateLimiter
}

// Handlers HTTP 处理器集合
type Handlers struct {
	Workflow  *workflows.WorkflowExecuteHandler
	Dashboard *dashboardHandlers.Handler
}

// InitContainer 初始化应用容器
func InitContainer(ctx context.Context, cfg *config.Config) (*AppContainer, error) {
	if cfg == nil {
		return nil, errors.New("配置为空")
	}
	container := &AppContainer{Config: cfg}

	container.initRedis(ctx, cfg)
	container.initCache(cfg)

	if err := container.initAgents(cfg); err != nil {
		return nil, err
	}
	if err := container.initWorkflow(cfg); err != nil {
		return nil, err
	}

	container.initDashboard(cfg)
	container.initWorker(cfg)
	container.RateLimiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerMinute: cfg.Server.ExecuteRatePerMinute,
		BurstSize:         cfg.Server.ExecuteBurst,
	})

	return container, nil
}

// InitHandlers 初始化所有 Handlers
func (c *AppContainer) InitHandlers() *Handlers {
	log := logger.Get()
	return &Handlers{
		Workflow:  workflows.NewWorkflowExecuteHandler(c.Engine, c.QueueClient, log),
		Dashboard: dashboardHandlers.NewHandler(c.Engine, c.DashboardHub),
	}
}

// initRedis 连接失败时降级为内存快照与同步执行
func (c *AppContainer) initRedis(ctx context.Context, cfg *config.Config) {
	if !cfg.Redis.Enabled {
		logger.Info("Redis 未启用，看板快照使用内存缓存，异步执行不可用")
		return
	}

	redisCfg := normalizeRedisConfig(cfg.Redis)
	cfg.Redis = redisCfg

	client, err := infra.NewRedisClient(ctx, redisCfg, logger.Get())
	if err != nil {
		logger.Warn("Redis 不可用，看板快照与任务队列退回内存实现", zap.Error(err))
		return
	}
	c.RedisClient = client
	c.QueueClient = queue.NewClient(redisCfg)
}

func (c *AppContainer) initCache(cfg *config.Config) {
	if c.RedisClient == nil {
		c.Snapshots = cache.NewMemorySnapshotCache()
		return
	}
	ttl := time.Duration(cfg.Dashboard.CacheTTLSeconds) * time.Second
	c.Snapshots = cache.NewRedisSnapshotCache(c.RedisClient, ttl)
}

func (c *AppContainer) initAgents(cfg *config.Config) error {
	set, err := runtime.NewAgentSet(cfg, c.Snapshots, runtime.Deps{Logger: logger.Get()})
	if err != nil {
		return err
	}
	c.Agents = set
	return nil
}

func (c *AppContainer) initWorkflow(cfg *config.Config) error {
	c.History = workflow.NewHistoryStore()
	engine, err := executor.NewEngine(c.Agents, c.History,
		executor.WithLogger(logger.Get()),
		executor.WithCampaign(cfg.Campaign),
		executor.WithSnapshotCache(c.Snapshots),
	)
	if err != nil {
		return err
	}
	c.Engine = engine
	return nil
}

func (c *AppContainer) initDashboard(cfg *config.Config) {
	interval := time.Duration(cfg.Dashboard.PushIntervalSeconds) * time.Second
	c.DashboardHub = dashboard.NewHub(c.Engine,
		dashboard.WithPushInterval(interval),
		dashboard.WithHubLogger(logger.Get()),
	)
}

func (c *AppContainer) initWorker(cfg *config.Config) {
	if c.QueueClient == nil {
		return
	}
	c.WorkerServer = worker.NewServer(cfg.Redis, c.Engine, logger.Get())
}

// Close 释放容器持有的资源
func (c *AppContainer) Close() {
	if c.Engine != nil && c.Engine.MonitoringActive() {
		_ = c.Engine.StopMonitoring()
	}
	if c.DashboardHub != nil {
		c.DashboardHub.Stop()
	}
	if c.RateLimiter != nil {
		c.RateLimiter.Stop()
	}
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			logger.Warn("关闭任务队列客户端失败", zap.Error(err))
		}
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			logger.Warn("关闭 Redis 连接失败", zap.Error(err))
		}
	}
}
