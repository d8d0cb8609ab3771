package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"campaignflow/api"
	"campaignflow/internal/config"
	"campaignflow/internal/logger"
	"campaignflow/internal/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	// 0. 统一加载 .env，便于集中管理 APP_* 环境变量
	if path, err := config.LoadEnvFile(); err != nil {
		fmt.Println(err)
	} else if path != "" {
		fmt.Printf("已加载环境变量文件: %s\n", path)
	}

	env := config.Env()

	// 1. 加载配置
	cfg, err := config.Load(env, os.Getenv("APP_CONFIG"))
	if err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	if err := logger.Init(cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.String("env", env),
		zap.String("mode", cfg.Server.Mode),
		zap.String("version", version),
	)
	metrics.RecordBuildInfo(version, runtime.Version())

	collector := metrics.NewRuntimeCollector(15 * time.Second)
	collector.Start()
	defer collector.Stop()

	// 3. 设置 Gin 模式
	gin.SetMode(cfg.Server.Mode)

	// 4. 初始化依赖容器与路由
	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	container, err := api.InitContainer(rootCtx, cfg)
	if err != nil {
		logger.Fatal("初始化应用容器失败", zap.Error(err))
	}
	defer container.Close()

	router := api.SetupRouter(container)

	// 5. 创建 HTTP 服务器
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器启动", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器启动失败", zap.Error(err))
		}
	}()

	// 6. 看板推送
	go container.DashboardHub.Run(rootCtx)

	// 7. Worker（仅在 Redis 可用时）
	if container.WorkerServer != nil {
		if err := container.WorkerServer.Start(); err != nil {
			logger.Error("Worker 服务器启动失败", zap.Error(err))
		}
	}

	// 8. 持续监控
	if cfg.Monitoring.AutoStart {
		interval := time.Duration(cfg.Monitoring.IntervalMinutes) * time.Minute
		container.Engine.StartMonitoring(interval)
	}

	// 9. 优雅关闭
	gracefulShutdown(server, container)
}

// gracefulShutdown 优雅关闭
func gracefulShutdown(server *http.Server, container *api.AppContainer) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	if container.WorkerServer != nil {
		container.WorkerServer.Shutdown()
	}

	logger.Info("服务器已安全关闭")
}
