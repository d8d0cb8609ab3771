package agent

import "time"

// Agent 名称，同时作为状态快照与指标的标签
const (
	NameCampaignSetup      = "campaign_setup"
	NameKeywordManager     = "keyword_manager"
	NameAdCopy             = "ad_copy"
	NamePerformanceMonitor = "performance_monitor"
	NameBidOptimizer       = "bid_optimizer"
	NameReporting          = "reporting"
)

// Agent 状态
const (
	StatusIdle    = "idle"
	StatusWorking = "working"
	StatusError   = "error"
)

// Targeting 投放定向
type Targeting struct {
	Location string   `json:"location"`
	Radius   int      `json:"radius"`
	Keywords []string `json:"keywords"`
}

// CampaignRequest 创建投放活动的请求
type CampaignRequest struct {
	Budget       float64   `json:"budget"`
	CampaignType string    `json:"campaignType"`
	Targeting    Targeting `json:"targeting"`
}

// CampaignMetrics 活动级累计指标
type CampaignMetrics struct {
	Impressions int     `json:"impressions"`
	Clicks      int     `json:"clicks"`
	Conversions int     `json:"conversions"`
	Cost        float64 `json:"cost"`
}

// Campaign 投放活动
type Campaign struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Status       string          `json:"status"`
	Budget       float64         `json:"budget"`
	CampaignType string          `json:"campaignType"`
	Targeting    Targeting       `json:"targeting"`
	Created      time.Time       `json:"created"`
	Metrics      CampaignMetrics `json:"metrics"`
}

// Keyword 关键词
type Keyword struct {
	Text           string  `json:"text"`
	MatchType      string  `json:"matchType"` // exact, phrase, broad
	SearchVolume   int     `json:"searchVolume"`
	Competition    float64 `json:"competition"`
	SuggestedBid   float64 `json:"suggestedBid"`
	RelevanceScore float64 `json:"relevanceScore"`
}

// KeywordBuckets 按匹配方式分组的关键词
type KeywordBuckets struct {
	Exact  []Keyword `json:"exact"`
	Phrase []Keyword `json:"phrase"`
	Broad  []Keyword `json:"broad"`
}

// KeywordSummary 关键词统计
type KeywordSummary struct {
	TotalKeywords    int     `json:"totalKeywords"`
	ExactCount       int     `json:"exactCount"`
	PhraseCount      int     `json:"phraseCount"`
	BroadCount       int     `json:"broadCount"`
	NegativeCount    int     `json:"negativeCount"`
	AverageBid       float64 `json:"averageBid"`
	EstimatedClicks  int     `json:"estimatedClicks"`
	FilteredKeywords int     `json:"filteredKeywords"`
}

// KeywordResult 关键词优化结果
type KeywordResult struct {
	Keywords         KeywordBuckets `json:"keywords"`
	NegativeKeywords []string       `json:"negativeKeywords"`
	Summary          KeywordSummary `json:"summary"`
}

// Ad 单条广告
type Ad struct {
	ID           string   `json:"id"`
	Headlines    []string `json:"headlines"`
	Descriptions []string `json:"descriptions"`
	Keywords     []string `json:"keywords"`
	Variant      string   `json:"variant"`
}

// TestGroup A/B 测试分组
type TestGroup struct {
	Name         string   `json:"name"`
	AdIDs        []string `json:"adIds"`
	TrafficSplit float64  `json:"trafficSplit"`
}

// AdCopySummary 广告文案统计
type AdCopySummary struct {
	TotalAds     int `json:"totalAds"`
	TestGroups   int `json:"testGroups"`
	KeywordsUsed int `json:"keywordsUsed"`
}

// AdCopyResult 广告文案生成结果
type AdCopyResult struct {
	Ads        []Ad          `json:"ads"`
	TestGroups []TestGroup   `json:"testGroups"`
	Summary    AdCopySummary `json:"summary"`
}

// PerformanceMetrics 性能指标
type PerformanceMetrics struct {
	Impressions    int     `json:"impressions"`
	Clicks         int     `json:"clicks"`
	Conversions    int     `json:"conversions"`
	Cost           float64 `json:"cost"`
	Revenue        float64 `json:"revenue"`
	CTR            float64 `json:"ctr"` // 百分比
	CPC            float64 `json:"cpc"`
	CPA            float64 `json:"cpa"`
	ConversionRate float64 `json:"conversionRate"` // 百分比
	ROAS           float64 `json:"roas"`
}

// Alert 性能告警
type Alert struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// PerformanceAnalysis 性能分析
type PerformanceAnalysis struct {
	Score      float64  `json:"score"` // 0-100
	Grade      string   `json:"grade"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}

// PerformanceResult 性能监控结果
type PerformanceResult struct {
	CampaignID      string              `json:"campaignId"`
	Status          string              `json:"status"`
	Metrics         PerformanceMetrics  `json:"metrics"`
	Analysis        PerformanceAnalysis `json:"analysis"`
	Alerts          []Alert             `json:"alerts"`
	Actions         []string            `json:"actions"`
	Recommendations []string            `json:"recommendations"`
	Timestamp       time.Time           `json:"timestamp"`
}

// BidAdjustment 出价调整
type BidAdjustment struct {
	Target        string  `json:"target"` // 关键词文本，或 "campaign" 表示活动级调整
	CurrentBid    float64 `json:"currentBid"`
	NewBid        float64 `json:"newBid"`
	ChangePercent float64 `json:"changePercent"`
	Reason        string  `json:"reason"`
}

// BidPerformanceAnalysis 出价相关的绩效判断
type BidPerformanceAnalysis struct {
	CPAStatus  string `json:"cpaStatus"`  // above_target, on_target, below_target
	ROASStatus string `json:"roasStatus"` // above_target, on_target, below_target
	Strategy   string `json:"strategy"`   // increase, decrease, maintain
}

// BidSummary 出价调整统计
type BidSummary struct {
	TotalAdjustments int     `json:"totalAdjustments"`
	Increases        int     `json:"increases"`
	Decreases        int     `json:"decreases"`
	AverageChange    float64 `json:"averageChange"`
}

// BidResult 出价优化结果
type BidResult struct {
	CampaignID          string                 `json:"campaignId"`
	BidAdjustments      []BidAdjustment        `json:"bidAdjustments"`
	PerformanceAnalysis BidPerformanceAnalysis `json:"performanceAnalysis"`
	Summary             BidSummary             `json:"summary"`
}

// KPI 单项关键指标
type KPI struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Target float64 `json:"target"`
	Status string  `json:"status"` // good, warning, poor
}

// DashboardSnapshot 看板快照，由报告生成时写入缓存
type DashboardSnapshot struct {
	CampaignID   string             `json:"campaignId"`
	CampaignName string             `json:"campaignName"`
	Status       string             `json:"status"`
	Metrics      PerformanceMetrics `json:"metrics"`
	AlertCount   int                `json:"alertCount"`
	ReportID     string             `json:"reportId"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

// ReportRawData 报告原始输入
type ReportRawData struct {
	Campaign    *Campaign          `json:"campaign,omitempty"`
	Performance *PerformanceResult `json:"performance,omitempty"`
}

// Report 报告
type Report struct {
	ID                  string             `json:"id"`
	ExecutiveSummary    string             `json:"executiveSummary"`
	PerformanceOverview PerformanceMetrics `json:"performanceOverview"`
	KPIAnalysis         []KPI              `json:"kpiAnalysis"`
	AgentActivity       []StatusSnapshot   `json:"agentActivity"`
	Insights            []string           `json:"insights"`
	Recommendations     []string           `json:"recommendations"`
	Dashboard           DashboardSnapshot  `json:"dashboard"`
	RawData             ReportRawData      `json:"rawData"`
	GeneratedAt         time.Time          `json:"generatedAt"`
}

// StatusSnapshot Agent 状态快照
type StatusSnapshot struct {
	Agent      string         `json:"agent"`
	Status     string         `json:"status"`
	LastAction string         `json:"lastAction"`
	Counters   map[string]int `json:"counters,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}
