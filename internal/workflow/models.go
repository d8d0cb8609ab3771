package workflow

import (
	"time"

	"campaignflow/internal/agent"
)

// TypeFullAutomation 唯一支持的工作流类型
const TypeFullAutomation = "full_automation"

// 工作流终态，进行中时 Status 为空
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Record 一次完整流水线执行的记录
type Record struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	StartTime time.Time      `json:"startTime"`
	EndTime   *time.Time     `json:"endTime,omitempty"`
	Duration  string         `json:"duration,omitempty"`
	Stages    []StageOutcome `json:"stages"`
	Results   Results        `json:"results"`
	Status    string         `json:"status,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Results 各阶段写入的原始 Agent 结果，后续阶段只读取已写入的字段
type Results struct {
	CampaignSetup         *agent.Campaign          `json:"campaignSetup,omitempty"`
	KeywordOptimization   *agent.KeywordResult     `json:"keywordOptimization,omitempty"`
	AdCopyGeneration      *agent.AdCopyResult      `json:"adCopyGeneration,omitempty"`
	PerformanceMonitoring *agent.PerformanceResult `json:"performanceMonitoring,omitempty"`
	BidOptimization       *agent.BidResult         `json:"bidOptimization,omitempty"`
	Reporting             *agent.Report            `json:"reporting,omitempty"`
}

// StageOutcome 单个阶段的执行结果，追加后不再修改
type StageOutcome struct {
	Stage      int            `json:"stage"`
	Name       string         `json:"name"`
	Status     string         `json:"status"`
	DurationMs int64          `json:"duration"`
	Result     map[string]any `json:"result,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// IsTerminal 是否已结束
func (r *Record) IsTerminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}

// CampaignID 返回 Stage 1 创建的活动 ID，不存在时返回空串
func (r *Record) CampaignID() string {
	if r == nil || r.Results.CampaignSetup == nil {
		return ""
	}
	return r.Results.CampaignSetup.ID
}

// Clone 复制记录，Results 中的 Agent 结果写入后不再修改，按指针共享
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	cp := *r
	if r.EndTime != nil {
		end := *r.EndTime
		cp.EndTime = &end
	}
	cp.Stages = make([]StageOutcome, len(r.Stages))
	for i, s := range r.Stages {
		if s.Result != nil {
			m := make(map[string]any, len(s.Result))
			for k, v := range s.Result {
				m[k] = v
			}
			s.Result = m
		}
		cp.Stages[i] = s
	}
	return &cp
}
