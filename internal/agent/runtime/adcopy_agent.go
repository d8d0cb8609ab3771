package runtime

import (
	"context"
	"fmt"
	"strings"

	"campaignflow/internal/agent"

	"go.uber.org/zap"
)

const (
	maxHeadlineLen    = 30
	maxDescriptionLen = 90
)

var headlineTemplates = []string{
	"%s Experts",
	"Trusted %s",
	"Book %s Today",
	"Local %s Team",
	"%s | Fast Quotes",
}

var descriptionTemplates = []string{
	"Licensed %s in %s. Call now for a free quote and same-day response.",
	"Reliable %s you can count on. Serving %s with experienced staff.",
	"Need %s? Our team covers %s around the clock. Get in touch today.",
}

var adVariants = []string{"A", "B", "C"}

// AdCopyAgent 基于模板生成广告文案与 A/B 测试分组
type AdCopyAgent struct {
	state  *agentState
	deps   Deps
	logger *zap.Logger
}

// NewAdCopyAgent 创建文案 Agent
func NewAdCopyAgent(deps Deps) *AdCopyAgent {
	deps = deps.withDefaults()
	return &AdCopyAgent{
		state:  newAgentState(agent.NameAdCopy, deps.Clock),
		deps:   deps,
		logger: deps.Logger.Named(agent.NameAdCopy),
	}
}

// Generate 生成广告，campaign 可为空对象
func (a *AdCopyAgent) Generate(ctx context.Context, campaign *agent.Campaign, keywords []agent.Keyword) (*agent.AdCopyResult, error) {
	if campaign == nil {
		campaign = &agent.Campaign{}
	}

	var result *agent.AdCopyResult
	err := a.state.track("generate_ad_copy", func() error {
		if err := ctx.Err(); err != nil {
			return err
		}

		topics := keywordTopics(keywords)
		location := campaign.Targeting.Location
		if location == "" {
			location = "your area"
		}

		ads := make([]agent.Ad, 0, len(adVariants))
		for i, variant := range adVariants {
			topic := topics[i%len(topics)]
			ads = append(ads, agent.Ad{
				ID:           fmt.Sprintf("ad_%s_%s", campaignKey(campaign), strings.ToLower(variant)),
				Headlines:    a.headlines(topic),
				Descriptions: a.descriptions(topic, location),
				Keywords:     topics,
				Variant:      variant,
			})
		}

		groups := []agent.TestGroup{
			{Name: "headline_test", AdIDs: []string{ads[0].ID, ads[1].ID}, TrafficSplit: 0.5},
			{Name: "description_test", AdIDs: []string{ads[0].ID, ads[2].ID}, TrafficSplit: 0.5},
		}
		result = &agent.AdCopyResult{
			Ads:        ads,
			TestGroups: groups,
			Summary: agent.AdCopySummary{
				TotalAds:     len(ads),
				TestGroups:   len(groups),
				KeywordsUsed: len(keywords),
			},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.state.add("ads_generated", len(result.Ads))
	return result, nil
}

// Status 状态快照
func (a *AdCopyAgent) Status() agent.StatusSnapshot {
	return a.state.snapshot()
}

func (a *AdCopyAgent) headlines(topic string) []string {
	start := a.deps.Source.Intn(len(headlineTemplates))
	out := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		tpl := headlineTemplates[(start+i)%len(headlineTemplates)]
		out = append(out, truncate(fmt.Sprintf(tpl, titleWords(topic)), maxHeadlineLen))
	}
	return out
}

func (a *AdCopyAgent) descriptions(topic, location string) []string {
	start := a.deps.Source.Intn(len(descriptionTemplates))
	out := make([]string, 0, 2)
	for i := 0; i < 2; i++ {
		tpl := descriptionTemplates[(start+i)%len(descriptionTemplates)]
		out = append(out, truncate(fmt.Sprintf(tpl, topic, location), maxDescriptionLen))
	}
	return out
}

func keywordTopics(keywords []agent.Keyword) []string {
	if len(keywords) == 0 {
		return []string{"professional services"}
	}
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		out = append(out, kw.Text)
	}
	return out
}

func campaignKey(c *agent.Campaign) string {
	if c.ID == "" {
		return "draft"
	}
	return c.ID
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}
