package tasks

import "time"

// Task Types
const (
	TypeExecuteWorkflow = "workflow:execute"
)

// 队列名称
const (
	QueueWorkflow = "workflow"
	QueueDefault  = "default"
)

// ExecuteWorkflowPayload 工作流执行任务载荷
type ExecuteWorkflowPayload struct {
	WorkflowType string    `json:"workflow_type"`
	RequestID    string    `json:"request_id,omitempty"`
	RequestedAt  time.Time `json:"requested_at"`
}
