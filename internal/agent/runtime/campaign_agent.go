package runtime

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"campaignflow/internal/agent"

	"go.uber.org/zap"
)

// CampaignSetupAgent 模拟创建投放活动
type CampaignSetupAgent struct {
	state  *agentState
	deps   Deps
	logger *zap.Logger
}

// NewCampaignSetupAgent 创建活动设置 Agent
func NewCampaignSetupAgent(deps Deps) *CampaignSetupAgent {
	deps = deps.withDefaults()
	return &CampaignSetupAgent{
		state:  newAgentState(agent.NameCampaignSetup, deps.Clock),
		deps:   deps,
		logger: deps.Logger.Named(agent.NameCampaignSetup),
	}
}

// Setup 创建活动
func (a *CampaignSetupAgent) Setup(ctx context.Context, req agent.CampaignRequest) (*agent.Campaign, error) {
	var campaign *agent.Campaign
	err := a.state.track("setup_campaign", func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if req.Budget <= 0 {
			return errors.New("campaign budget must be positive")
		}

		now := a.deps.Clock()
		campaignType := req.CampaignType
		if campaignType == "" {
			campaignType = "search"
		}
		campaign = &agent.Campaign{
			ID:           fmt.Sprintf("campaign_%d", now.UnixMilli()),
			Name:         campaignName(campaignType, req.Targeting.Location),
			Status:       "active",
			Budget:       req.Budget,
			CampaignType: campaignType,
			Targeting: agent.Targeting{
				Location: req.Targeting.Location,
				Radius:   req.Targeting.Radius,
				Keywords: append([]string(nil), req.Targeting.Keywords...),
			},
			Created: now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.state.add("campaigns_created", 1)
	a.logger.Info("投放活动已创建",
		zap.String("campaign_id", campaign.ID),
		zap.Float64("budget", campaign.Budget),
	)
	return campaign, nil
}

// Status 状态快照
func (a *CampaignSetupAgent) Status() agent.StatusSnapshot {
	return a.state.snapshot()
}

func campaignName(campaignType, location string) string {
	label := strings.ToUpper(campaignType[:1]) + campaignType[1:]
	if location == "" {
		return label + " Campaign"
	}
	return fmt.Sprintf("%s Campaign - %s", label, location)
}
