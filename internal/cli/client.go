package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"campaignflow/internal/workflow"
	"campaignflow/internal/workflow/executor"
)

// APIError 服务端返回的错误
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
	// Workflow 工作流失败时附带的失败记录
	Workflow *workflow.Record `json:"workflow,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// Enqueued 异步执行结果
type Enqueued struct {
	TaskID       string    `json:"task_id"`
	RequestID    string    `json:"request_id"`
	WorkflowType string    `json:"workflow_type"`
	RequestedAt  time.Time `json:"requested_at"`
}

// MonitoringStatus 持续监控状态
type MonitoringStatus struct {
	Active          bool       `json:"active"`
	IntervalMinutes int        `json:"interval_minutes,omitempty"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
}

// ExecuteResult 同步执行返回 Record，异步执行返回 Enqueued
type ExecuteResult struct {
	Record   *workflow.Record
	Enqueued *Enqueued
}

// Client campaignflow 服务端的 HTTP 客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient 创建客户端
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// Execute 触发一次工作流
func (c *Client) Execute(ctx context.Context, workflowType string, async bool) (*ExecuteResult, error) {
	body := map[string]any{"type": workflowType, "async": async}
	resp, err := c.do(ctx, http.MethodPost, "/api/workflows/execute", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusAccepted {
		var enq Enqueued
		if err := decodeData(resp, &enq); err != nil {
			return nil, err
		}
		return &ExecuteResult{Enqueued: &enq}, nil
	}

	var rec workflow.Record
	if err := decodeData(resp, &rec); err != nil {
		return nil, err
	}
	return &ExecuteResult{Record: &rec}, nil
}

// Summary 历史统计
func (c *Client) Summary(ctx context.Context) (*workflow.Summary, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/workflows/summary", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var s workflow.Summary
	if err := decodeData(resp, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Export 导出历史，返回原始内容
func (c *Client) Export(ctx context.Context, format string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/workflows/export?format="+url.QueryEscape(format), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, decodeError(resp)
	}
	return io.ReadAll(resp.Body)
}

// StartMonitoring 启动持续监控，minutes 为 0 时使用服务端默认间隔
func (c *Client) StartMonitoring(ctx context.Context, minutes int) (*MonitoringStatus, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/monitoring/start", map[string]int{"interval_minutes": minutes})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var st MonitoringStatus
	if err := decodeData(resp, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// StopMonitoring 停止持续监控
func (c *Client) StopMonitoring(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/monitoring/stop", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeData(resp, &MonitoringStatus{})
}

// DashboardStatus 聚合状态
func (c *Client) DashboardStatus(ctx context.Context) (*executor.DashboardStatus, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/dashboard/status", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var st executor.DashboardStatus
	if err := decodeData(resp, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("编码请求失败: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求 %s %s 失败: %w", method, path, err)
	}
	return resp, nil
}

func decodeData(resp *http.Response, out any) error {
	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("解析响应失败: %w", err)
	}
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("解析响应数据失败: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	data, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}
