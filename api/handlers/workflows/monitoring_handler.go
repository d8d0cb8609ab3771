package workflows

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	response "campaignflow/api/handlers/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MaxMonitorIntervalMinutes 监控间隔上限（一天）
const MaxMonitorIntervalMinutes = 24 * 60

// StartMonitoringRequest 启动持续监控请求
type StartMonitoringRequest struct {
	IntervalMinutes int `json:"interval_minutes"`
}

// MonitoringStatusResponse 持续监控状态
type MonitoringStatusResponse struct {
	Active          bool       `json:"active"`
	IntervalMinutes int        `json:"interval_minutes,omitempty"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
}

// StartMonitoring 启动持续监控
// POST /api/monitoring/start
func (h *WorkflowExecuteHandler) StartMonitoring(defaultMinutes int) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req StartMonitoringRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			response.Fail(c, http.StatusBadRequest, response.CodeBadRequest, "请求参数错误: "+err.Error())
			return
		}
		if req.IntervalMinutes < 0 {
			response.Fail(c, http.StatusBadRequest, response.CodeBadRequest, "interval_minutes 不能为负数")
			return
		}
		if req.IntervalMinutes > MaxMonitorIntervalMinutes {
			response.Fail(c, http.StatusBadRequest, response.CodeBadRequest,
				fmt.Sprintf("interval_minutes 不能超过 %d", MaxMonitorIntervalMinutes))
			return
		}
		minutes := req.IntervalMinutes
		if minutes == 0 {
			minutes = defaultMinutes
		}

		handle, started := h.engine.StartMonitoring(time.Duration(minutes) * time.Minute)
		if !started {
			response.Fail(c, http.StatusConflict, response.CodeMonitoringActive, "持续监控已在运行")
			return
		}

		resp := MonitoringStatusResponse{Active: true, IntervalMinutes: minutes}
		if handle != nil {
			startedAt := handle.StartedAt()
			resp.StartedAt = &startedAt
		}
		h.logger.Info("持续监控已通过 API 启动", zap.Int("interval_minutes", minutes))
		response.OK(c, http.StatusOK, resp)
	}
}

// StopMonitoring 停止持续监控
// POST /api/monitoring/stop
func (h *WorkflowExecuteHandler) StopMonitoring(c *gin.Context) {
	if err := h.engine.StopMonitoring(); err != nil {
		response.Fail(c, http.StatusConflict, response.CodeMonitoringInactive, err.Error())
		return
	}
	response.OK(c, http.StatusOK, MonitoringStatusResponse{Active: false})
}

// MonitoringStatus 持续监控状态
// GET /api/monitoring/status
func (h *WorkflowExecuteHandler) MonitoringStatus(c *gin.Context) {
	response.OK(c, http.StatusOK, MonitoringStatusResponse{Active: h.engine.MonitoringActive()})
}
