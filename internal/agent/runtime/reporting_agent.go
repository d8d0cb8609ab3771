package runtime

import (
	"context"
	"fmt"
	"strings"

	"campaignflow/internal/agent"
	"campaignflow/internal/cache"
	"campaignflow/internal/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReportingAgent 汇总活动、性能与 Agent 状态生成报告，并刷新看板快照
type ReportingAgent struct {
	state     *agentState
	deps      Deps
	campaign  config.CampaignConfig
	snapshots cache.SnapshotCache
	logger    *zap.Logger
}

// NewReportingAgent 创建报告 Agent，snapshots 为 nil 时不写看板缓存
func NewReportingAgent(campaign config.CampaignConfig, snapshots cache.SnapshotCache, deps Deps) *ReportingAgent {
	deps = deps.withDefaults()
	return &ReportingAgent{
		state:     newAgentState(agent.NameReporting, deps.Clock),
		deps:      deps,
		campaign:  campaign.WithFallbacks(),
		snapshots: snapshots,
		logger:    deps.Logger.Named(agent.NameReporting),
	}
}

// GenerateReport 生成报告，campaign 与 performance 均可为空
func (a *ReportingAgent) GenerateReport(ctx context.Context, campaign *agent.Campaign, performance *agent.PerformanceResult, statuses []agent.StatusSnapshot) (*agent.Report, error) {
	var report *agent.Report
	err := a.state.track("generate_report", func() error {
		if err := ctx.Err(); err != nil {
			return err
		}

		var m agent.PerformanceMetrics
		var alerts []agent.Alert
		var recs []string
		if performance != nil {
			m = performance.Metrics
			alerts = performance.Alerts
			recs = append(recs, performance.Recommendations...)
		}

		now := a.deps.Clock()
		report = &agent.Report{
			ID:                  "report_" + uuid.NewString(),
			ExecutiveSummary:    executiveSummary(campaign, m, len(alerts)),
			PerformanceOverview: m,
			KPIAnalysis:         a.kpis(m),
			AgentActivity:       append([]agent.StatusSnapshot(nil), statuses...),
			Insights:            insights(m, alerts),
			Recommendations:     recs,
			RawData:             agent.ReportRawData{Campaign: campaign, Performance: performance},
			GeneratedAt:         now,
		}
		report.Dashboard = dashboardSnapshot(report, campaign, len(alerts))
		return nil
	})
	if err != nil {
		return nil, err
	}

	if a.snapshots != nil {
		if err := a.snapshots.Set(ctx, report.Dashboard); err != nil {
			a.logger.Warn("写入看板快照失败", zap.Error(err))
		}
	}
	a.state.add("reports_generated", 1)
	return report, nil
}

// Status 状态快照
func (a *ReportingAgent) Status() agent.StatusSnapshot {
	return a.state.snapshot()
}

func (a *ReportingAgent) kpis(m agent.PerformanceMetrics) []agent.KPI {
	return []agent.KPI{
		// CPA 越低越好
		{Name: "CPA", Value: m.CPA, Target: a.campaign.TargetCPA, Status: gradeLowerBetter(m.CPA, a.campaign.TargetCPA)},
		{Name: "ROAS", Value: m.ROAS, Target: a.campaign.TargetROAS, Status: gradeHigherBetter(m.ROAS, a.campaign.TargetROAS)},
		{Name: "CTR", Value: m.CTR, Target: 3, Status: gradeHigherBetter(m.CTR, 3)},
		{Name: "Conversion Rate", Value: m.ConversionRate, Target: 5, Status: gradeHigherBetter(m.ConversionRate, 5)},
	}
}

func gradeHigherBetter(v, target float64) string {
	switch {
	case v >= target:
		return "good"
	case v >= target*0.8:
		return "warning"
	default:
		return "poor"
	}
}

func gradeLowerBetter(v, target float64) string {
	switch {
	case v == 0:
		return "warning"
	case v <= target:
		return "good"
	case v <= target*1.2:
		return "warning"
	default:
		return "poor"
	}
}

func executiveSummary(c *agent.Campaign, m agent.PerformanceMetrics, alertCount int) string {
	name := "Unnamed campaign"
	if c != nil && c.Name != "" {
		name = c.Name
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d impressions, %d clicks, %d conversions at $%.2f spend.", name, m.Impressions, m.Clicks, m.Conversions, m.Cost)
	if m.ROAS > 0 {
		fmt.Fprintf(&b, " ROAS %.2fx.", m.ROAS)
	}
	if alertCount > 0 {
		fmt.Fprintf(&b, " %d alert(s) require attention.", alertCount)
	}
	return b.String()
}

func insights(m agent.PerformanceMetrics, alerts []agent.Alert) []string {
	out := make([]string, 0, len(alerts)+1)
	for _, al := range alerts {
		out = append(out, fmt.Sprintf("[%s] %s", al.Severity, al.Message))
	}
	if m.Clicks > 0 && m.Conversions == 0 {
		out = append(out, "Clicks are not converting; review landing page")
	}
	if len(out) == 0 {
		out = append(out, "No issues detected in this period")
	}
	return out
}

func dashboardSnapshot(r *agent.Report, c *agent.Campaign, alertCount int) agent.DashboardSnapshot {
	snap := agent.DashboardSnapshot{
		Status:     "unknown",
		Metrics:    r.PerformanceOverview,
		AlertCount: alertCount,
		ReportID:   r.ID,
		UpdatedAt:  r.GeneratedAt,
	}
	if c != nil {
		snap.CampaignID = c.ID
		snap.CampaignName = c.Name
		if c.Status != "" {
			snap.Status = c.Status
		}
	}
	return snap
}
