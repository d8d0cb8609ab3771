package executor

import (
	"context"

	"campaignflow/internal/agent"
	"campaignflow/internal/config"
	"campaignflow/internal/workflow"
)

const (
	// PlaceholderCampaignID Stage 1 结果缺失时使用的活动 ID
	PlaceholderCampaignID = "campaign_placeholder"

	adCopyKeywordLimit = 10
	bidKeywordLimit    = 5
)

// stage 固定流水线中的一个阶段
type stage struct {
	number int
	name   string
	key    string
	run    func(ctx context.Context, prior workflow.Results) (stageOutput, error)
}

// stageOutput 阶段产出：写回 Results 的函数与精简摘要
type stageOutput struct {
	apply   func(r *workflow.Results)
	summary map[string]any
}

func (e *Engine) stages(campaign config.CampaignConfig) []stage {
	return []stage{
		{number: 1, name: "Campaign Setup", key: "setup", run: func(ctx context.Context, _ workflow.Results) (stageOutput, error) {
			return e.runSetupStage(ctx, campaign)
		}},
		{number: 2, name: "Keyword & Ad Copy Optimization", key: "optimization", run: func(ctx context.Context, prior workflow.Results) (stageOutput, error) {
			return e.runOptimizationStage(ctx, campaign, prior)
		}},
		{number: 3, name: "Performance Monitoring & Bid Optimization", key: "monitoring", run: e.runMonitoringStage},
		{number: 4, name: "Reporting", key: "reporting", run: e.runReportingStage},
	}
}

// runSetupStage Stage 1：按固定地区、预算与种子关键词创建活动
func (e *Engine) runSetupStage(ctx context.Context, c config.CampaignConfig) (stageOutput, error) {
	req := agent.CampaignRequest{
		Budget:       c.DailyBudget,
		CampaignType: c.CampaignType,
		Targeting: agent.Targeting{
			Location: c.Location,
			Radius:   c.Radius,
			Keywords: append([]string(nil), c.SeedKeywords...),
		},
	}
	campaign, err := e.agents.CampaignSetup.Setup(ctx, req)
	if err != nil {
		return stageOutput{}, err
	}

	summary := map[string]any{}
	if campaign != nil {
		summary["campaignId"] = campaign.ID
		summary["campaignName"] = campaign.Name
		summary["status"] = campaign.Status
		summary["budget"] = campaign.Budget
	}
	return stageOutput{
		apply:   func(r *workflow.Results) { r.CampaignSetup = campaign },
		summary: summary,
	}, nil
}

// runOptimizationStage Stage 2：关键词优化，取 exact 桶前 10 个生成广告文案
func (e *Engine) runOptimizationStage(ctx context.Context, c config.CampaignConfig, prior workflow.Results) (stageOutput, error) {
	keywords, err := e.agents.KeywordManager.Optimize(ctx, append([]string(nil), c.SeedKeywords...))
	if err != nil {
		return stageOutput{}, err
	}

	var exact []agent.Keyword
	if keywords != nil {
		exact = firstN(keywords.Keywords.Exact, adCopyKeywordLimit)
	} else {
		exact = []agent.Keyword{}
	}

	campaign := prior.CampaignSetup
	if campaign == nil {
		campaign = &agent.Campaign{}
	}
	ads, err := e.agents.AdCopy.Generate(ctx, campaign, exact)
	if err != nil {
		return stageOutput{}, err
	}

	summary := map[string]any{"keywordsUsedForAds": len(exact)}
	if keywords != nil {
		summary["totalKeywords"] = keywords.Summary.TotalKeywords
		summary["negativeKeywords"] = len(keywords.NegativeKeywords)
	}
	if ads != nil {
		summary["adsCreated"] = ads.Summary.TotalAds
		summary["testGroups"] = ads.Summary.TestGroups
	}
	return stageOutput{
		apply: func(r *workflow.Results) {
			r.KeywordOptimization = keywords
			r.AdCopyGeneration = ads
		},
		summary: summary,
	}, nil
}

// runMonitoringStage Stage 3：监控性能，再用 exact 桶前 5 个关键词调整出价
func (e *Engine) runMonitoringStage(ctx context.Context, prior workflow.Results) (stageOutput, error) {
	campaignID := PlaceholderCampaignID
	if prior.CampaignSetup != nil && prior.CampaignSetup.ID != "" {
		campaignID = prior.CampaignSetup.ID
	}

	performance, err := e.agents.PerformanceMonitor.Monitor(ctx, campaignID)
	if err != nil {
		return stageOutput{}, err
	}

	keywords := []agent.Keyword{}
	if prior.KeywordOptimization != nil {
		keywords = firstN(prior.KeywordOptimization.Keywords.Exact, bidKeywordLimit)
	}

	var m agent.PerformanceMetrics
	if performance != nil {
		m = performance.Metrics
	}
	bids, err := e.agents.BidOptimizer.AdjustBids(ctx, campaignID, m, keywords)
	if err != nil {
		return stageOutput{}, err
	}

	summary := map[string]any{"campaignId": campaignID, "keywordsAdjusted": len(keywords)}
	if performance != nil {
		summary["performanceStatus"] = performance.Status
		summary["alerts"] = len(performance.Alerts)
	}
	if bids != nil {
		summary["bidAdjustments"] = bids.Summary.TotalAdjustments
	}
	return stageOutput{
		apply: func(r *workflow.Results) {
			r.PerformanceMonitoring = performance
			r.BidOptimization = bids
		},
		summary: summary,
	}, nil
}

// runReportingStage Stage 4：汇总活动、性能与全部 Agent 状态生成报告
func (e *Engine) runReportingStage(ctx context.Context, prior workflow.Results) (stageOutput, error) {
	report, err := e.agents.Reporting.GenerateReport(ctx, prior.CampaignSetup, prior.PerformanceMonitoring, e.agents.Statuses())
	if err != nil {
		return stageOutput{}, err
	}

	summary := map[string]any{}
	if report != nil {
		summary["reportId"] = report.ID
		summary["insights"] = len(report.Insights)
		summary["recommendations"] = len(report.Recommendations)
	}
	return stageOutput{
		apply:   func(r *workflow.Results) { r.Reporting = report },
		summary: summary,
	}, nil
}

// firstN 取前 n 个元素的副本
func firstN[T any](items []T, n int) []T {
	if len(items) < n {
		n = len(items)
	}
	out := make([]T, n)
	copy(out, items[:n])
	return out
}
