package workflow

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"campaignflow/internal/metrics"

	"gopkg.in/yaml.v3"
)

// NoData 无可用数据时的占位值
const NoData = "N/A"

// 导出格式
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatYAML = "yaml"
)

var csvHeader = []string{"Workflow ID", "Type", "Status", "Start Time", "End Time", "Duration", "Stages Completed"}

// Summary 历史统计
type Summary struct {
	TotalWorkflows      int     `json:"totalWorkflows"`
	SuccessfulWorkflows int     `json:"successfulWorkflows"`
	FailedWorkflows     int     `json:"failedWorkflows"`
	AverageDuration     string  `json:"averageDuration"`
	LastWorkflow        *Record `json:"lastWorkflow"`
}

// Export 导出结果，格式不支持时 Body 为空、Raw 为历史记录原样副本
type Export struct {
	Format      string    `json:"format"`
	ContentType string    `json:"contentType"`
	Body        []byte    `json:"-"`
	Raw         []*Record `json:"raw,omitempty"`
}

// exportDocument 结构化导出文档
type exportDocument struct {
	Workflows  []*Record `json:"workflows"`
	Summary    Summary   `json:"summary"`
	ExportedAt time.Time `json:"exportedAt"`
}

// HistoryStore 终态工作流记录，只追加
type HistoryStore struct {
	mu      sync.RWMutex
	records []*Record
	clock   func() time.Time
}

// NewHistoryStore 创建历史存储
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{clock: time.Now}
}

// SetClock 替换导出时间戳使用的时钟
func (h *HistoryStore) SetClock(clock func() time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clock = clock
}

// RecordCompletion 追加一条终态记录
func (h *HistoryStore) RecordCompletion(rec *Record) {
	if rec == nil {
		return
	}
	h.mu.Lock()
	h.records = append(h.records, rec.Clone())
	n := len(h.records)
	h.mu.Unlock()

	metrics.WorkflowHistorySize.Set(float64(n))
}

// List 按完成顺序返回全部记录
func (h *HistoryStore) List() []*Record {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.listLocked()
}

// Latest 最近一条记录，历史为空时返回 nil
func (h *HistoryStore) Latest() *Record {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.records) == 0 {
		return nil
	}
	return h.records[len(h.records)-1].Clone()
}

// Len 记录条数
func (h *HistoryStore) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.records)
}

// Summarize 统计总数、成功/失败数与成功记录的平均耗时
func (h *HistoryStore) Summarize() Summary {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.summarizeLocked()
}

// Export 按格式导出历史，未知格式返回原始记录
func (h *HistoryStore) Export(format string) (*Export, error) {
	h.mu.RLock()
	records := h.listLocked()
	summary := h.summarizeLocked()
	now := h.clock()
	h.mu.RUnlock()

	doc := exportDocument{Workflows: records, Summary: summary, ExportedAt: now.UTC()}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatJSON:
		body, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("导出 JSON 失败: %w", err)
		}
		return &Export{Format: FormatJSON, ContentType: "application/json", Body: body}, nil

	case FormatCSV:
		body, err := encodeCSV(records)
		if err != nil {
			return nil, fmt.Errorf("导出 CSV 失败: %w", err)
		}
		return &Export{Format: FormatCSV, ContentType: "text/csv", Body: body}, nil

	case FormatYAML:
		body, err := encodeYAML(doc)
		if err != nil {
			return nil, fmt.Errorf("导出 YAML 失败: %w", err)
		}
		return &Export{Format: FormatYAML, ContentType: "application/yaml", Body: body}, nil

	default:
		return &Export{Format: format, ContentType: "application/json", Raw: records}, nil
	}
}

func (h *HistoryStore) listLocked() []*Record {
	out := make([]*Record, len(h.records))
	for i, r := range h.records {
		out[i] = r.Clone()
	}
	return out
}

func (h *HistoryStore) summarizeLocked() Summary {
	s := Summary{TotalWorkflows: len(h.records), AverageDuration: NoData}

	var total int64
	var counted int
	for _, r := range h.records {
		switch r.Status {
		case StatusCompleted:
			s.SuccessfulWorkflows++
			secs, err := ParseDurationSeconds(r.Duration)
			if err != nil {
				continue
			}
			total += secs
			counted++
		case StatusFailed:
			s.FailedWorkflows++
		}
	}
	if counted > 0 {
		avg := int64(math.Round(float64(total) / float64(counted)))
		s.AverageDuration = FormatDuration(avg * 1000)
	}
	if n := len(h.records); n > 0 {
		s.LastWorkflow = h.records[n-1].Clone()
	}
	return s
}

func encodeCSV(records []*Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, r := range records {
		end := ""
		if r.EndTime != nil {
			end = r.EndTime.UTC().Format(time.RFC3339)
		}
		row := []string{
			r.ID,
			r.Type,
			r.Status,
			r.StartTime.UTC().Format(time.RFC3339),
			end,
			r.Duration,
			strconv.Itoa(len(r.Stages)),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// encodeYAML 先经 JSON 归一化字段名，YAML 与 JSON 导出保持同样的键
func encodeYAML(doc exportDocument) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return yaml.Marshal(generic)
}
