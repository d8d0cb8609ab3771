package executor

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"campaignflow/internal/agent"
)

// fakeAgents 同时实现六个 Agent 接口，并记录每次调用的入参
type fakeAgents struct {
	mu sync.Mutex

	campaign *agent.Campaign
	setupErr error
	setupReq []agent.CampaignRequest
	block    chan struct{}

	keywords   *agent.KeywordResult
	keywordErr error

	adCopyCampaigns []*agent.Campaign
	adCopyKeywords  [][]agent.Keyword
	adErr           error

	monitorIDs []string
	perf       *agent.PerformanceResult
	monitorErr error
	// monitorGate 非空时 Monitor 通知 monitorEntered 后阻塞到 gate 关闭
	monitorGate    chan struct{}
	monitorEntered chan struct{}

	bidIDs      []string
	bidKeywords [][]agent.Keyword
	bidErr      error

	reportCampaigns []*agent.Campaign
	reportStatuses  [][]agent.StatusSnapshot
	reportErr       error

	calls []string
}

func newFakeAgents() *fakeAgents {
	return &fakeAgents{
		campaign: &agent.Campaign{ID: "c1", Name: "Test Campaign", Status: "active"},
		keywords: &agent.KeywordResult{Keywords: agent.KeywordBuckets{Exact: makeKeywords(12)}},
		perf:     &agent.PerformanceResult{CampaignID: "c1", Metrics: agent.PerformanceMetrics{CPA: 40}},
	}
}

func (f *fakeAgents) set() agent.Set {
	return agent.Set{
		CampaignSetup:      f,
		KeywordManager:     f,
		AdCopy:             f,
		PerformanceMonitor: f,
		BidOptimizer:       f,
		Reporting:          f,
	}
}

func (f *fakeAgents) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeAgents) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeAgents) callsSnapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAgents) Setup(_ context.Context, req agent.CampaignRequest) (*agent.Campaign, error) {
	f.record("setup")
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setupReq = append(f.setupReq, req)
	return f.campaign, f.setupErr
}

func (f *fakeAgents) Optimize(_ context.Context, _ []string) (*agent.KeywordResult, error) {
	f.record("optimize")
	return f.keywords, f.keywordErr
}

func (f *fakeAgents) Generate(_ context.Context, campaign *agent.Campaign, keywords []agent.Keyword) (*agent.AdCopyResult, error) {
	f.record("generate")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adCopyCampaigns = append(f.adCopyCampaigns, campaign)
	f.adCopyKeywords = append(f.adCopyKeywords, keywords)
	if f.adErr != nil {
		return nil, f.adErr
	}
	return &agent.AdCopyResult{Summary: agent.AdCopySummary{TotalAds: 3}}, nil
}

func (f *fakeAgents) Monitor(_ context.Context, campaignID string) (*agent.PerformanceResult, error) {
	f.record("monitor")
	f.mu.Lock()
	gate, entered := f.monitorGate, f.monitorEntered
	f.mu.Unlock()
	if gate != nil {
		entered <- struct{}{}
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.monitorIDs = append(f.monitorIDs, campaignID)
	return f.perf, f.monitorErr
}

func (f *fakeAgents) AdjustBids(_ context.Context, campaignID string, _ agent.PerformanceMetrics, keywords []agent.Keyword) (*agent.BidResult, error) {
	f.record("adjust_bids")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bidIDs = append(f.bidIDs, campaignID)
	f.bidKeywords = append(f.bidKeywords, keywords)
	if f.bidErr != nil {
		return nil, f.bidErr
	}
	return &agent.BidResult{CampaignID: campaignID}, nil
}

func (f *fakeAgents) GenerateReport(_ context.Context, campaign *agent.Campaign, _ *agent.PerformanceResult, statuses []agent.StatusSnapshot) (*agent.Report, error) {
	f.record("report")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reportCampaigns = append(f.reportCampaigns, campaign)
	f.reportStatuses = append(f.reportStatuses, statuses)
	if f.reportErr != nil {
		return nil, f.reportErr
	}
	return &agent.Report{ID: "r1"}, nil
}

func (f *fakeAgents) Status() agent.StatusSnapshot {
	return agent.StatusSnapshot{Agent: "fake", Status: agent.StatusIdle, LastAction: "none"}
}

func makeKeywords(n int) []agent.Keyword {
	out := make([]agent.Keyword, n)
	for i := range out {
		out[i] = agent.Keyword{Text: fmt.Sprintf("kw-%02d", i), MatchType: "exact"}
	}
	return out
}

// stepClock 每次调用前进固定步长
type stepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func newStepClock(step time.Duration) *stepClock {
	return &stepClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), step: step}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// manualTicker 由测试手动触发的节拍源
type manualTicker struct {
	ch          chan time.Time
	released    chan struct{}
	releaseOnce sync.Once
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time), released: make(chan struct{})}
}

func (m *manualTicker) factory(time.Duration) (<-chan time.Time, func()) {
	return m.ch, func() { m.releaseOnce.Do(func() { close(m.released) }) }
}

// tick 阻塞到监控循环接收节拍，循环串行执行周期，因此返回时上一个周期已结束
func (m *manualTicker) tick(t *testing.T) {
	t.Helper()
	select {
	case m.ch <- time.Now():
	case <-time.After(time.Second):
		t.Fatal("monitor loop is not waiting for a tick")
	}
}

// tryTick 循环未在等待节拍时返回 false
func (m *manualTicker) tryTick() bool {
	select {
	case m.ch <- time.Now():
		return true
	default:
		return false
	}
}
