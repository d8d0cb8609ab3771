package api

import (
	"campaignflow/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册所有 API 路由
func RegisterRoutes(router *gin.Engine, container *AppContainer, handlers *Handlers) {
	// 看板实时推送
	router.GET("/ws/dashboard", handlers.Dashboard.Connect)

	api := router.Group("/api")
	registerAPIRoutes(api, container, handlers)

	// 版本化 API 组
	apiV1 := router.Group("/api/v1")
	registerAPIRoutes(apiV1, container, handlers)
}

func registerAPIRoutes(apiGroup *gin.RouterGroup, c *AppContainer, h *Handlers) {
	registerWorkflowRoutes(apiGroup, c, h)
	registerMonitoringRoutes(apiGroup, c, h)
	registerDashboardRoutes(apiGroup, h)
}

// registerWorkflowRoutes 工作流执行、历史与导出
func registerWorkflowRoutes(apiGroup *gin.RouterGroup, c *AppContainer, h *Handlers) {
	wf := apiGroup.Group("/workflows")
	{
		wf.POST("/execute", middleware.RateLimitByEndpoint(c.RateLimiter), h.Workflow.ExecuteWorkflow)
		wf.GET("/summary", h.Workflow.GetSummary)
		wf.GET("/history", h.Workflow.ListHistory)
		wf.GET("/export", h.Workflow.ExportHistory)
	}
}

// registerMonitoringRoutes 持续监控
func registerMonitoringRoutes(apiGroup *gin.RouterGroup, c *AppContainer, h *Handlers) {
	defaultMinutes := c.Config.Monitoring.IntervalMinutes
	if defaultMinutes <= 0 {
		defaultMinutes = 15
	}
	mon := apiGroup.Group("/monitoring")
	{
		mon.POST("/start", middleware.RateLimitByEndpoint(c.RateLimiter), h.Workflow.StartMonitoring(defaultMinutes))
		mon.POST("/stop", h.Workflow.StopMonitoring)
		mon.GET("/status", h.Workflow.MonitoringStatus)
	}
}

func registerDashboardRoutes(apiGroup *gin.RouterGroup, h *Handlers) {
	apiGroup.GET("/dashboard/status", h.Dashboard.GetStatus)
}
