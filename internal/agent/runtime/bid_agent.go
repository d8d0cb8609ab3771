package runtime

import (
	"context"
	"errors"

	"campaignflow/internal/agent"
	"campaignflow/internal/config"

	"go.uber.org/zap"
)

const minBid = 0.1

// BidAgent 根据 CPA/ROAS 与目标值的偏差调整出价
type BidAgent struct {
	state    *agentState
	deps     Deps
	campaign config.CampaignConfig
	logger   *zap.Logger
}

// NewBidAgent 创建出价优化 Agent
func NewBidAgent(campaign config.CampaignConfig, deps Deps) *BidAgent {
	deps = deps.withDefaults()
	return &BidAgent{
		state:    newAgentState(agent.NameBidOptimizer, deps.Clock),
		deps:     deps,
		campaign: campaign.WithFallbacks(),
		logger:   deps.Logger.Named(agent.NameBidOptimizer),
	}
}

// AdjustBids 调整出价，keywords 为空时只做活动级调整
func (a *BidAgent) AdjustBids(ctx context.Context, campaignID string, m agent.PerformanceMetrics, keywords []agent.Keyword) (*agent.BidResult, error) {
	var result *agent.BidResult
	err := a.state.track("adjust_bids", func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if campaignID == "" {
			return errors.New("campaign id is required")
		}

		analysis := a.analyze(m)
		var adjustments []agent.BidAdjustment
		if len(keywords) == 0 {
			adjustments = []agent.BidAdjustment{
				adjust("campaign", m.CPC, basePercent(analysis.Strategy), reasonFor(analysis)),
			}
		} else {
			adjustments = make([]agent.BidAdjustment, 0, len(keywords))
			for _, kw := range keywords {
				pct := basePercent(analysis.Strategy)
				// 高相关度关键词少降多升
				if kw.RelevanceScore >= 0.8 {
					pct += 5
				}
				adjustments = append(adjustments, adjust(kw.Text, kw.SuggestedBid, pct, reasonFor(analysis)))
			}
		}

		result = &agent.BidResult{
			CampaignID:          campaignID,
			BidAdjustments:      adjustments,
			PerformanceAnalysis: analysis,
			Summary:             summarizeBids(adjustments),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.state.add("bids_adjusted", len(result.BidAdjustments))
	a.logger.Debug("出价调整完成",
		zap.String("campaign_id", campaignID),
		zap.String("strategy", result.PerformanceAnalysis.Strategy),
	)
	return result, nil
}

// Status 状态快照
func (a *BidAgent) Status() agent.StatusSnapshot {
	return a.state.snapshot()
}

func (a *BidAgent) analyze(m agent.PerformanceMetrics) agent.BidPerformanceAnalysis {
	out := agent.BidPerformanceAnalysis{
		CPAStatus:  compareTarget(m.CPA, a.campaign.TargetCPA),
		ROASStatus: compareTarget(m.ROAS, a.campaign.TargetROAS),
		Strategy:   "maintain",
	}
	switch {
	case out.CPAStatus == "above_target":
		out.Strategy = "decrease"
	case out.ROASStatus == "above_target":
		out.Strategy = "increase"
	}
	return out
}

// compareTarget 偏差 20% 以内视为达标
func compareTarget(value, target float64) string {
	switch {
	case target <= 0:
		return "on_target"
	case value > target*1.2:
		return "above_target"
	case value < target*0.8:
		return "below_target"
	default:
		return "on_target"
	}
}

func basePercent(strategy string) float64 {
	switch strategy {
	case "decrease":
		return -15
	case "increase":
		return 10
	default:
		return 0
	}
}

func reasonFor(a agent.BidPerformanceAnalysis) string {
	switch a.Strategy {
	case "decrease":
		return "CPA above target"
	case "increase":
		return "ROAS above target"
	default:
		return "performance on target"
	}
}

func adjust(target string, current, pct float64, reason string) agent.BidAdjustment {
	newBid := round2(current * (1 + pct/100))
	if newBid < minBid {
		newBid = minBid
	}
	return agent.BidAdjustment{
		Target:        target,
		CurrentBid:    round2(current),
		NewBid:        newBid,
		ChangePercent: pct,
		Reason:        reason,
	}
}

func summarizeBids(adjs []agent.BidAdjustment) agent.BidSummary {
	s := agent.BidSummary{TotalAdjustments: len(adjs)}
	var total float64
	for _, adj := range adjs {
		switch {
		case adj.ChangePercent > 0:
			s.Increases++
		case adj.ChangePercent < 0:
			s.Decreases++
		}
		total += adj.ChangePercent
	}
	if len(adjs) > 0 {
		s.AverageChange = round2(total / float64(len(adjs)))
	}
	return s
}
