package common

import "github.com/gin-gonic/gin"

// APIResponse 通用响应结构，用于封装成功或失败结果。
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// PaginationMeta 分页元信息。
type PaginationMeta struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"page_size"`
	Total     int64 `json:"total"`
	TotalPage int   `json:"total_page"`
}

// ListResponse 列表响应结构，包含数据与分页信息。
type ListResponse struct {
	Items      interface{}    `json:"items"`
	Pagination PaginationMeta `json:"pagination"`
}

// ErrorResponse 统一错误返回结构。
type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// 错误码
const (
	CodeBadRequest         = "BAD_REQUEST"
	CodeWorkflowBusy       = "WORKFLOW_BUSY"
	CodeWorkflowFailed     = "WORKFLOW_FAILED"
	CodeMonitoringActive   = "MONITORING_ACTIVE"
	CodeMonitoringInactive = "MONITORING_INACTIVE"
	CodeQueueUnavailable   = "QUEUE_UNAVAILABLE"
	CodeInternal           = "INTERNAL_ERROR"
)

// OK 返回成功响应
func OK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, APIResponse{Success: true, Data: data})
}

// Fail 返回错误响应
func Fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{Success: false, Code: code, Message: message})
}

// NewPagination 根据总数计算分页信息
func NewPagination(page, pageSize int, total int64) PaginationMeta {
	totalPage := 0
	if pageSize > 0 {
		totalPage = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return PaginationMeta{Page: page, PageSize: pageSize, Total: total, TotalPage: totalPage}
}
