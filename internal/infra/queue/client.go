package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"campaignflow/internal/config"
	"campaignflow/internal/worker/tasks"

	"github.com/hibiken/asynq"
)

// WorkflowTaskTimeout asynq 任务超时；worker 执行时剥离取消信号，超时不会中断正在执行的阶段
const WorkflowTaskTimeout = 24 * time.Hour

// Client 任务队列客户端接口
type Client interface {
	EnqueueExecuteWorkflow(payload tasks.ExecuteWorkflowPayload) (string, error)
	Close() error
}

type asynqClient struct {
	client *asynq.Client
}

// NewClient 创建任务队列客户端
func NewClient(cfg config.RedisConfig) Client {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &asynqClient{client: client}
}

// EnqueueExecuteWorkflow 投递工作流执行任务，返回任务 ID
func (c *asynqClient) EnqueueExecuteWorkflow(payload tasks.ExecuteWorkflowPayload) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload failed: %w", err)
	}

	task := asynq.NewTask(tasks.TypeExecuteWorkflow, data)

	// 重试只用于引擎繁忙，阶段失败由 handler 标记为不重试
	info, err := c.client.Enqueue(task,
		asynq.MaxRetry(3),
		asynq.Timeout(WorkflowTaskTimeout),
		asynq.Queue(tasks.QueueWorkflow),
	)
	if err != nil {
		return "", fmt.Errorf("enqueue task failed: %w", err)
	}
	return info.ID, nil
}

func (c *asynqClient) Close() error {
	return c.client.Close()
}
