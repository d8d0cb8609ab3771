package agent

import (
	"context"
	"errors"
)

// StatusReporter 可查询当前状态的 Agent
type StatusReporter interface {
	Status() StatusSnapshot
}

// CampaignSetup 创建投放活动
type CampaignSetup interface {
	StatusReporter
	Setup(ctx context.Context, req CampaignRequest) (*Campaign, error)
}

// KeywordManager 关键词扩展与过滤
type KeywordManager interface {
	StatusReporter
	Optimize(ctx context.Context, seedKeywords []string) (*KeywordResult, error)
}

// AdCopyGenerator 广告文案生成
type AdCopyGenerator interface {
	StatusReporter
	Generate(ctx context.Context, campaign *Campaign, keywords []Keyword) (*AdCopyResult, error)
}

// PerformanceMonitor 性能监控
type PerformanceMonitor interface {
	StatusReporter
	Monitor(ctx context.Context, campaignID string) (*PerformanceResult, error)
}

// BidOptimizer 出价优化，keywords 为空时做活动级调整
type BidOptimizer interface {
	StatusReporter
	AdjustBids(ctx context.Context, campaignID string, metrics PerformanceMetrics, keywords []Keyword) (*BidResult, error)
}

// Reporter 报告生成
type Reporter interface {
	StatusReporter
	GenerateReport(ctx context.Context, campaign *Campaign, performance *PerformanceResult, statuses []StatusSnapshot) (*Report, error)
}

// Set 编排器使用的全部 Agent
type Set struct {
	CampaignSetup      CampaignSetup
	KeywordManager     KeywordManager
	AdCopy             AdCopyGenerator
	PerformanceMonitor PerformanceMonitor
	BidOptimizer       BidOptimizer
	Reporting          Reporter
}

// ErrIncompleteSet Agent 集合不完整
var ErrIncompleteSet = errors.New("agent set is incomplete")

// Validate 校验所有 Agent 均已注入
func (s Set) Validate() error {
	if s.CampaignSetup == nil || s.KeywordManager == nil || s.AdCopy == nil ||
		s.PerformanceMonitor == nil || s.BidOptimizer == nil || s.Reporting == nil {
		return ErrIncompleteSet
	}
	return nil
}

// Statuses 按固定顺序返回每个 Agent 的状态快照
func (s Set) Statuses() []StatusSnapshot {
	reporters := []StatusReporter{
		s.CampaignSetup,
		s.KeywordManager,
		s.AdCopy,
		s.PerformanceMonitor,
		s.BidOptimizer,
		s.Reporting,
	}
	out := make([]StatusSnapshot, 0, len(reporters))
	for _, r := range reporters {
		if r == nil {
			continue
		}
		out = append(out, r.Status())
	}
	return out
}
