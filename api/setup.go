package api

import (
	"campaignflow/internal/metrics"
	"campaignflow/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter 设置并返回 Gin 路由
func SetupRouter(container *AppContainer) *gin.Engine {
	router := gin.New()

	// 全局中间件
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(RequestLogger())
	router.Use(CORS())

	// Prometheus 指标收集中间件
	router.Use(metrics.PrometheusMiddleware())

	// 公开端点
	router.GET("/health", HealthCheck())
	router.GET("/ready", ReadinessCheck(container))

	// Prometheus 指标端点
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers := container.InitHandlers()
	RegisterRoutes(router, container, handlers)

	return router
}
