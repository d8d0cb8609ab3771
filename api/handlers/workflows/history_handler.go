package workflows

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	response "campaignflow/api/handlers/common"
	"campaignflow/internal/workflow"

	"github.com/gin-gonic/gin"
)

// GetSummary 历史统计
// GET /api/workflows/summary
func (h *WorkflowExecuteHandler) GetSummary(c *gin.Context) {
	response.OK(c, http.StatusOK, h.engine.Summary())
}

// ListHistory 分页返回已完成的工作流
// GET /api/workflows/history?page=1&page_size=20
func (h *WorkflowExecuteHandler) ListHistory(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	records := h.engine.History().List()
	total := len(records)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	response.OK(c, http.StatusOK, response.ListResponse{
		Items:      records[start:end],
		Pagination: response.NewPagination(page, pageSize, int64(total)),
	})
}

// ExportHistory 导出历史
// GET /api/workflows/export?format=json|csv|yaml，其他格式返回原始记录
func (h *WorkflowExecuteHandler) ExportHistory(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", workflow.FormatJSON))

	exp, err := h.engine.Export(format)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.CodeInternal, err.Error())
		return
	}
	if len(exp.Body) == 0 {
		c.JSON(http.StatusOK, exp.Raw)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=workflows.%s", exp.Format))
	c.Data(http.StatusOK, exp.ContentType, exp.Body)
}
