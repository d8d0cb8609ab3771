package runtime

import (
	"context"
	"testing"
	"time"

	"campaignflow/internal/agent"
	"campaignflow/internal/cache"
	"campaignflow/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fixedSource 固定取值的随机源
type fixedSource struct {
	f float64
}

func (s fixedSource) Float64() float64 { return s.f }
func (s fixedSource) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(s.f * float64(n))
}

func testDeps(t *testing.T, f float64) Deps {
	fixed := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return Deps{
		Source: fixedSource{f: f},
		Clock:  func() time.Time { return fixed },
		Logger: zaptest.NewLogger(t),
	}
}

func TestCampaignSetupAgent_Setup(t *testing.T) {
	a := NewCampaignSetupAgent(testDeps(t, 0.5))

	c, err := a.Setup(context.Background(), agent.CampaignRequest{
		Budget:       150,
		CampaignType: "search",
		Targeting:    agent.Targeting{Location: "Melbourne, VIC", Radius: 25, Keywords: []string{"security guards"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "campaign_1714554000000", c.ID)
	assert.Equal(t, "Search Campaign - Melbourne, VIC", c.Name)
	assert.Equal(t, "active", c.Status)

	st := a.Status()
	assert.Equal(t, agent.StatusIdle, st.Status)
	assert.Equal(t, "setup_campaign", st.LastAction)
	assert.Equal(t, 1, st.Counters["campaigns_created"])
}

func TestCampaignSetupAgent_RejectsZeroBudget(t *testing.T) {
	a := NewCampaignSetupAgent(testDeps(t, 0.5))

	_, err := a.Setup(context.Background(), agent.CampaignRequest{})
	require.Error(t, err)
	assert.Equal(t, agent.StatusError, a.Status().Status)
	assert.Equal(t, 1, a.Status().Counters["errors"])
}

func TestKeywordAgent_FiltersNegativesAndBuckets(t *testing.T) {
	a := NewKeywordAgent(testDeps(t, 0.5))

	res, err := a.Optimize(context.Background(), []string{"security services", "security guards"})
	require.NoError(t, err)

	// 每个种子 13 个修饰词，其中 free/jobs/training 被过滤
	assert.Len(t, res.Keywords.Exact, 20)
	assert.Len(t, res.Keywords.Phrase, 20)
	assert.Len(t, res.Keywords.Broad, 20)
	assert.Equal(t, 6, res.Summary.FilteredKeywords)
	assert.Equal(t, 60, res.Summary.TotalKeywords)

	for _, kw := range res.Keywords.Exact {
		assert.Equal(t, "exact", kw.MatchType)
		assert.NotContains(t, kw.Text, "free")
	}
	// 种子本身相关度最高，排在最前
	assert.Equal(t, "security services", res.Keywords.Exact[0].Text)
	assert.Contains(t, res.NegativeKeywords, "jobs")
}

func TestKeywordAgent_NoSeeds(t *testing.T) {
	a := NewKeywordAgent(testDeps(t, 0.5))
	_, err := a.Optimize(context.Background(), nil)
	assert.Error(t, err)
}

func TestAdCopyAgent_LengthLimits(t *testing.T) {
	a := NewAdCopyAgent(testDeps(t, 0.2))
	keywords := []agent.Keyword{{Text: "emergency security guards melbourne cbd"}, {Text: "security services"}}

	res, err := a.Generate(context.Background(), nil, keywords)
	require.NoError(t, err)
	require.Len(t, res.Ads, 3)
	assert.Len(t, res.TestGroups, 2)
	assert.Equal(t, 2, res.Summary.KeywordsUsed)

	for _, ad := range res.Ads {
		for _, h := range ad.Headlines {
			assert.LessOrEqual(t, len([]rune(h)), maxHeadlineLen)
		}
		for _, d := range ad.Descriptions {
			assert.LessOrEqual(t, len([]rune(d)), maxDescriptionLen)
		}
		assert.Contains(t, ad.ID, "draft")
	}
}

func TestPerformanceAgent_EvaluateAlerts(t *testing.T) {
	campaign := config.DefaultCampaign()
	a, err := NewPerformanceAgent(campaign, config.DefaultAlertRules(), testDeps(t, 0.5))
	require.NoError(t, err)

	alerts, err := a.EvaluateAlerts(agent.PerformanceMetrics{CPA: 120, CTR: 1.2, ROAS: 5, Cost: 40})
	require.NoError(t, err)

	rules := make([]string, 0, len(alerts))
	for _, al := range alerts {
		rules = append(rules, al.Rule)
	}
	assert.ElementsMatch(t, []string{"high_cpa", "low_ctr"}, rules)

	none, err := a.EvaluateAlerts(agent.PerformanceMetrics{CPA: 30, CTR: 4, ROAS: 6, Cost: 20})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPerformanceAgent_InvalidRule(t *testing.T) {
	_, err := NewPerformanceAgent(config.DefaultCampaign(), []config.AlertRule{{Name: "bad", Expression: "cpa >"}}, Deps{})
	assert.Error(t, err)
}

func TestPerformanceAgent_Monitor(t *testing.T) {
	a, err := NewPerformanceAgent(config.DefaultCampaign(), config.DefaultAlertRules(), testDeps(t, 0.5))
	require.NoError(t, err)

	res, err := a.Monitor(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", res.CampaignID)
	assert.Greater(t, res.Metrics.Impressions, 0)
	assert.Len(t, res.Actions, len(res.Alerts))
	assert.NotEmpty(t, res.Recommendations)

	_, err = a.Monitor(context.Background(), "")
	assert.Error(t, err)
}

func TestBidAgent_Strategies(t *testing.T) {
	a := NewBidAgent(config.DefaultCampaign(), testDeps(t, 0.5))
	ctx := context.Background()

	// CPA 超过目标 20% 以上：降价
	res, err := a.AdjustBids(ctx, "c1", agent.PerformanceMetrics{CPA: 80, ROAS: 2, CPC: 2}, []agent.Keyword{
		{Text: "a", SuggestedBid: 4, RelevanceScore: 0.9},
		{Text: "b", SuggestedBid: 2, RelevanceScore: 0.6},
	})
	require.NoError(t, err)
	assert.Equal(t, "decrease", res.PerformanceAnalysis.Strategy)
	require.Len(t, res.BidAdjustments, 2)
	assert.Equal(t, -10.0, res.BidAdjustments[0].ChangePercent)
	assert.Equal(t, 3.6, res.BidAdjustments[0].NewBid)
	assert.Equal(t, 2, res.Summary.Decreases)

	// 无关键词：活动级调整
	res, err = a.AdjustBids(ctx, "c1", agent.PerformanceMetrics{CPA: 45, ROAS: 6, CPC: 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, "increase", res.PerformanceAnalysis.Strategy)
	require.Len(t, res.BidAdjustments, 1)
	assert.Equal(t, "campaign", res.BidAdjustments[0].Target)
	assert.Equal(t, 2.2, res.BidAdjustments[0].NewBid)
}

func TestReportingAgent_WritesDashboardSnapshot(t *testing.T) {
	snapshots := cache.NewMemorySnapshotCache()
	a := NewReportingAgent(config.DefaultCampaign(), snapshots, testDeps(t, 0.5))
	ctx := context.Background()

	campaign := &agent.Campaign{ID: "c1", Name: "Search Campaign", Status: "active"}
	perf := &agent.PerformanceResult{
		CampaignID: "c1",
		Metrics:    agent.PerformanceMetrics{Impressions: 1000, Clicks: 40, Conversions: 2, CPA: 30, ROAS: 5},
		Alerts:     []agent.Alert{{Rule: "low_ctr", Severity: "warning", Message: "low"}},
	}
	report, err := a.GenerateReport(ctx, campaign, perf, []agent.StatusSnapshot{{Agent: "x"}})
	require.NoError(t, err)
	assert.NotEmpty(t, report.ID)
	assert.Len(t, report.KPIAnalysis, 4)
	assert.Len(t, report.AgentActivity, 1)
	assert.Contains(t, report.ExecutiveSummary, "1 alert(s)")

	snap, err := snapshots.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c1", snap.CampaignID)
	assert.Equal(t, 1, snap.AlertCount)
	assert.Equal(t, report.ID, snap.ReportID)
}

func TestReportingAgent_EmptyInputs(t *testing.T) {
	a := NewReportingAgent(config.DefaultCampaign(), nil, testDeps(t, 0.5))

	report, err := a.GenerateReport(context.Background(), nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "unknown", report.Dashboard.Status)
	assert.Contains(t, report.ExecutiveSummary, "Unnamed campaign")
}

func TestNewAgentSet(t *testing.T) {
	cfg := &config.Config{Campaign: config.DefaultCampaign()}
	set, err := NewAgentSet(cfg, cache.NewMemorySnapshotCache(), testDeps(t, 0.5))
	require.NoError(t, err)

	statuses := set.Statuses()
	require.Len(t, statuses, 6)
	assert.Equal(t, agent.NameCampaignSetup, statuses[0].Agent)
	assert.Equal(t, agent.NameReporting, statuses[5].Agent)
}
