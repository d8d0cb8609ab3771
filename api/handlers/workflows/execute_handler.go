package workflows

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	response "campaignflow/api/handlers/common"
	"campaignflow/internal/infra/queue"
	"campaignflow/internal/worker/tasks"
	"campaignflow/internal/workflow"
	"campaignflow/internal/workflow/executor"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Orchestrator Handler 依赖的编排器能力，由 executor.Engine 实现
type Orchestrator interface {
	ExecuteWorkflow(ctx context.Context, workflowType string) (*workflow.Record, error)
	Summary() workflow.Summary
	Export(format string) (*workflow.Export, error)
	History() *workflow.HistoryStore
	StartMonitoring(interval time.Duration) (*executor.MonitorHandle, bool)
	StopMonitoring() error
	MonitoringActive() bool
}

// WorkflowExecuteHandler 工作流执行 Handler
type WorkflowExecuteHandler struct {
	engine Orchestrator
	queue  queue.Client
	logger *zap.Logger
}

// NewWorkflowExecuteHandler 创建 WorkflowExecuteHandler 实例，queueClient 为 nil 时异步请求退化为同步执行
func NewWorkflowExecuteHandler(engine Orchestrator, queueClient queue.Client, logger *zap.Logger) *WorkflowExecuteHandler {
	return &WorkflowExecuteHandler{
		engine: engine,
		queue:  queueClient,
		logger: logger,
	}
}

// ExecuteWorkflowRequest 执行工作流请求
type ExecuteWorkflowRequest struct {
	Type  string `json:"type"`
	Async bool   `json:"async"`
}

// EnqueuedResponse 异步执行响应
type EnqueuedResponse struct {
	TaskID       string    `json:"task_id"`
	RequestID    string    `json:"request_id"`
	WorkflowType string    `json:"workflow_type"`
	RequestedAt  time.Time `json:"requested_at"`
}

// FailedWorkflowResponse 工作流失败响应，附带失败记录
type FailedWorkflowResponse struct {
	Success  bool             `json:"success"`
	Code     string           `json:"code"`
	Message  string           `json:"message"`
	Workflow *workflow.Record `json:"workflow,omitempty"`
}

// ExecuteWorkflow 执行完整投放流水线
// POST /api/workflows/execute
func (h *WorkflowExecuteHandler) ExecuteWorkflow(c *gin.Context) {
	var req ExecuteWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Fail(c, http.StatusBadRequest, response.CodeBadRequest, "请求参数错误: "+err.Error())
		return
	}
	if req.Type == "" {
		req.Type = workflow.TypeFullAutomation
	}

	if req.Async && h.queue != nil {
		h.enqueue(c, req.Type)
		return
	}

	// 客户端断开不影响已开始的工作流
	rec, err := h.engine.ExecuteWorkflow(context.WithoutCancel(c.Request.Context()), req.Type)
	switch {
	case errors.Is(err, executor.ErrWorkflowBusy):
		response.Fail(c, http.StatusConflict, response.CodeWorkflowBusy, err.Error())
	case err != nil:
		c.JSON(http.StatusInternalServerError, FailedWorkflowResponse{
			Success:  false,
			Code:     response.CodeWorkflowFailed,
			Message:  err.Error(),
			Workflow: rec,
		})
	default:
		response.OK(c, http.StatusOK, rec)
	}
}

func (h *WorkflowExecuteHandler) enqueue(c *gin.Context, workflowType string) {
	payload := tasks.ExecuteWorkflowPayload{
		WorkflowType: workflowType,
		RequestID:    uuid.NewString(),
		RequestedAt:  time.Now().UTC(),
	}
	taskID, err := h.queue.EnqueueExecuteWorkflow(payload)
	if err != nil {
		h.logger.Error("投递工作流任务失败", zap.Error(err))
		response.Fail(c, http.StatusServiceUnavailable, response.CodeQueueUnavailable, "投递任务失败: "+err.Error())
		return
	}
	response.OK(c, http.StatusAccepted, EnqueuedResponse{
		TaskID:       taskID,
		RequestID:    payload.RequestID,
		WorkflowType: workflowType,
		RequestedAt:  payload.RequestedAt,
	})
}
