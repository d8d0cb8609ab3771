package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"campaignflow/internal/worker/tasks"
	"campaignflow/internal/workflow"
	"campaignflow/internal/workflow/executor"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// WorkflowRunner 工作流执行器抽象，便于注入 mock
type WorkflowRunner interface {
	ExecuteWorkflow(ctx context.Context, workflowType string) (*workflow.Record, error)
}

type WorkflowHandler struct {
	runner WorkflowRunner
	logger *zap.Logger
}

func NewWorkflowHandler(runner WorkflowRunner, logger *zap.Logger) *WorkflowHandler {
	return &WorkflowHandler{
		runner: runner,
		logger: logger,
	}
}

// HandleExecuteWorkflow 执行 workflow:execute 任务
// 引擎忙时返回可重试错误；阶段失败不重试
func (h *WorkflowHandler) HandleExecuteWorkflow(ctx context.Context, t *asynq.Task) error {
	var p tasks.ExecuteWorkflowPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("json unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	h.logger.Info("开始执行工作流任务",
		zap.String("workflow_type", p.WorkflowType),
		zap.String("request_id", p.RequestID),
		zap.Time("requested_at", p.RequestedAt),
	)

	// 任务超时不中断阶段执行
	rec, err := h.runner.ExecuteWorkflow(context.WithoutCancel(ctx), p.WorkflowType)
	if err != nil {
		if errors.Is(err, executor.ErrWorkflowBusy) {
			h.logger.Warn("引擎繁忙，稍后重试", zap.String("request_id", p.RequestID))
			return err
		}
		fields := []zap.Field{zap.String("request_id", p.RequestID), zap.Error(err)}
		if rec != nil {
			fields = append(fields, zap.String("workflow_id", rec.ID), zap.Int("stages", len(rec.Stages)))
		}
		h.logger.Error("工作流执行失败", fields...)
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	h.logger.Info("工作流执行完成",
		zap.String("workflow_id", rec.ID),
		zap.String("duration", rec.Duration),
	)
	return nil
}
