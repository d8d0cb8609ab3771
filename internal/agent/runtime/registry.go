package runtime

import (
	"fmt"

	"campaignflow/internal/agent"
	"campaignflow/internal/cache"
	"campaignflow/internal/config"
)

// NewAgentSet 根据配置组装全部模拟 Agent
func NewAgentSet(cfg *config.Config, snapshots cache.SnapshotCache, deps Deps) (agent.Set, error) {
	deps = deps.withDefaults()
	campaign := cfg.Campaign.WithFallbacks()

	rules := cfg.Alerts.Rules
	if len(rules) == 0 {
		rules = config.DefaultAlertRules()
	}
	monitor, err := NewPerformanceAgent(campaign, rules, deps)
	if err != nil {
		return agent.Set{}, fmt.Errorf("创建性能监控 Agent 失败: %w", err)
	}

	set := agent.Set{
		CampaignSetup:      NewCampaignSetupAgent(deps),
		KeywordManager:     NewKeywordAgent(deps),
		AdCopy:             NewAdCopyAgent(deps),
		PerformanceMonitor: monitor,
		BidOptimizer:       NewBidAgent(campaign, deps),
		Reporting:          NewReportingAgent(campaign, snapshots, deps),
	}
	return set, set.Validate()
}
