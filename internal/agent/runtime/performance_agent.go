package runtime

import (
	"context"
	"errors"
	"fmt"

	"campaignflow/internal/agent"
	"campaignflow/internal/config"
	"campaignflow/internal/metrics"

	"github.com/Knetic/govaluate"
	"go.uber.org/zap"
)

// alertRule 预编译的告警规则
type alertRule struct {
	config.AlertRule
	expr *govaluate.EvaluableExpression
}

// PerformanceAgent 模拟性能监控并按规则产生告警
type PerformanceAgent struct {
	state    *agentState
	deps     Deps
	campaign config.CampaignConfig
	rules    []alertRule
	logger   *zap.Logger
}

// NewPerformanceAgent 创建性能监控 Agent，规则表达式解析失败时返回错误
func NewPerformanceAgent(campaign config.CampaignConfig, rules []config.AlertRule, deps Deps) (*PerformanceAgent, error) {
	deps = deps.withDefaults()
	compiled := make([]alertRule, 0, len(rules))
	for _, r := range rules {
		expr, err := govaluate.NewEvaluableExpression(r.Expression)
		if err != nil {
			return nil, fmt.Errorf("解析告警规则 %s 失败: %w", r.Name, err)
		}
		compiled = append(compiled, alertRule{AlertRule: r, expr: expr})
	}
	return &PerformanceAgent{
		state:    newAgentState(agent.NamePerformanceMonitor, deps.Clock),
		deps:     deps,
		campaign: campaign.WithFallbacks(),
		rules:    compiled,
		logger:   deps.Logger.Named(agent.NamePerformanceMonitor),
	}, nil
}

// Monitor 采集一次活动指标并分析
func (a *PerformanceAgent) Monitor(ctx context.Context, campaignID string) (*agent.PerformanceResult, error) {
	var result *agent.PerformanceResult
	err := a.state.track("monitor_performance", func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if campaignID == "" {
			return errors.New("campaign id is required")
		}

		m := a.simulate()
		alerts, err := a.EvaluateAlerts(m)
		if err != nil {
			return err
		}
		analysis := analyze(m, a.campaign)

		status := "healthy"
		if len(alerts) > 0 {
			status = "needs_attention"
		}
		result = &agent.PerformanceResult{
			CampaignID:      campaignID,
			Status:          status,
			Metrics:         m,
			Analysis:        analysis,
			Alerts:          alerts,
			Actions:         actionsFor(alerts),
			Recommendations: recommendationsFor(analysis),
			Timestamp:       a.deps.Clock(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.state.add("checks_performed", 1)
	a.state.add("alerts_raised", len(result.Alerts))
	if len(result.Alerts) > 0 {
		a.logger.Warn("性能告警",
			zap.String("campaign_id", campaignID),
			zap.Int("alerts", len(result.Alerts)),
		)
	}
	return result, nil
}

// EvaluateAlerts 对指标逐条计算告警规则
func (a *PerformanceAgent) EvaluateAlerts(m agent.PerformanceMetrics) ([]agent.Alert, error) {
	params := map[string]interface{}{
		"impressions":     float64(m.Impressions),
		"clicks":          float64(m.Clicks),
		"conversions":     float64(m.Conversions),
		"cost":            m.Cost,
		"revenue":         m.Revenue,
		"ctr":             m.CTR,
		"cpc":             m.CPC,
		"cpa":             m.CPA,
		"conversion_rate": m.ConversionRate,
		"roas":            m.ROAS,
		"target_cpa":      a.campaign.TargetCPA,
		"target_roas":     a.campaign.TargetROAS,
		"daily_budget":    a.campaign.DailyBudget,
	}

	alerts := make([]agent.Alert, 0)
	for _, r := range a.rules {
		v, err := r.expr.Evaluate(params)
		if err != nil {
			return nil, fmt.Errorf("计算告警规则 %s 失败: %w", r.Name, err)
		}
		hit, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("告警规则 %s 结果不是布尔值: %v", r.Name, v)
		}
		if hit {
			alerts = append(alerts, agent.Alert{Rule: r.Name, Severity: r.Severity, Message: r.Message})
			metrics.PerformanceAlertsTotal.WithLabelValues(r.Name, r.Severity).Inc()
		}
	}
	return alerts, nil
}

// Status 状态快照
func (a *PerformanceAgent) Status() agent.StatusSnapshot {
	return a.state.snapshot()
}

func (a *PerformanceAgent) simulate() agent.PerformanceMetrics {
	src := a.deps.Source
	impressions := 1000 + src.Intn(9000)
	ctr := between(src, 1, 6)
	clicks := int(float64(impressions) * ctr / 100)
	cpc := between(src, 1, 5)
	cost := float64(clicks) * cpc
	convRate := between(src, 2, 10)
	conversions := int(float64(clicks) * convRate / 100)
	revenue := float64(conversions) * between(src, 100, 300)

	m := agent.PerformanceMetrics{
		Impressions:    impressions,
		Clicks:         clicks,
		Conversions:    conversions,
		Cost:           round2(cost),
		Revenue:        round2(revenue),
		CTR:            round2(ctr),
		CPC:            round2(cpc),
		ConversionRate: round2(convRate),
	}
	if conversions > 0 {
		m.CPA = round2(cost / float64(conversions))
	}
	if cost > 0 {
		m.ROAS = round2(revenue / cost)
	}
	return m
}

func analyze(m agent.PerformanceMetrics, c config.CampaignConfig) agent.PerformanceAnalysis {
	var a agent.PerformanceAnalysis
	score := 50.0

	if m.CTR >= 3 {
		score += 15
		a.Strengths = append(a.Strengths, "strong click-through rate")
	} else {
		score -= 10
		a.Weaknesses = append(a.Weaknesses, "click-through rate below benchmark")
	}
	if m.CPA > 0 && m.CPA <= c.TargetCPA {
		score += 20
		a.Strengths = append(a.Strengths, "cost per acquisition within target")
	} else {
		score -= 15
		a.Weaknesses = append(a.Weaknesses, "cost per acquisition above target")
	}
	if m.ROAS >= c.TargetROAS {
		score += 15
		a.Strengths = append(a.Strengths, "return on ad spend meets target")
	} else {
		score -= 10
		a.Weaknesses = append(a.Weaknesses, "return on ad spend below target")
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	a.Score = score
	switch {
	case score >= 80:
		a.Grade = "A"
	case score >= 60:
		a.Grade = "B"
	case score >= 40:
		a.Grade = "C"
	default:
		a.Grade = "D"
	}
	return a
}

func actionsFor(alerts []agent.Alert) []string {
	actions := make([]string, 0, len(alerts))
	for _, al := range alerts {
		switch al.Rule {
		case "high_cpa":
			actions = append(actions, "reduce bids on underperforming keywords")
		case "low_ctr":
			actions = append(actions, "refresh ad copy")
		case "low_roas":
			actions = append(actions, "shift budget to converting keywords")
		case "budget_pace":
			actions = append(actions, "review daily budget pacing")
		default:
			actions = append(actions, "investigate "+al.Rule)
		}
	}
	return actions
}

func recommendationsFor(a agent.PerformanceAnalysis) []string {
	recs := make([]string, 0, len(a.Weaknesses)+1)
	for _, w := range a.Weaknesses {
		recs = append(recs, "Address "+w)
	}
	if len(recs) == 0 {
		recs = append(recs, "Maintain current strategy and scale budget gradually")
	}
	return recs
}
