package executor

import (
	"context"
	"errors"
	"time"

	"campaignflow/internal/agent"
	"campaignflow/internal/cache"
	"campaignflow/internal/workflow"

	"go.uber.org/zap"
)

// OrchestratorView 编排器状态
type OrchestratorView struct {
	Status                string `json:"status"`
	CurrentWorkflowID     string `json:"currentWorkflowId"`
	CurrentWorkflowType   string `json:"currentWorkflowType"`
	CurrentWorkflowStatus string `json:"currentWorkflowStatus"`
	StagesCompleted       int    `json:"stagesCompleted"`
	HistorySize           int    `json:"historySize"`
	MonitoringActive      bool   `json:"monitoringActive"`
}

// DashboardView 最近一次报告的看板数据
type DashboardView struct {
	CampaignID   string                   `json:"campaignId"`
	CampaignName string                   `json:"campaignName"`
	Status       string                   `json:"status"`
	Metrics      agent.PerformanceMetrics `json:"metrics"`
	AlertCount   int                      `json:"alertCount"`
	ReportID     string                   `json:"reportId"`
	LastUpdated  string                   `json:"lastUpdated"`
}

// DashboardStatus 看板状态投影
type DashboardStatus struct {
	Orchestrator OrchestratorView       `json:"orchestrator"`
	Agents       []agent.StatusSnapshot `json:"agents"`
	Dashboard    DashboardView          `json:"dashboard"`
	Timestamp    time.Time              `json:"timestamp"`
}

// DashboardStatus 汇总编排器、全部 Agent 与看板快照；缺失数据用 "unknown"/"N/A" 占位
func (e *Engine) DashboardStatus(ctx context.Context) DashboardStatus {
	return DashboardStatus{
		Orchestrator: e.orchestratorView(),
		Agents:       e.agents.Statuses(),
		Dashboard:    e.dashboardView(ctx),
		Timestamp:    e.clock(),
	}
}

func (e *Engine) orchestratorView() OrchestratorView {
	e.mu.Lock()
	view := OrchestratorView{
		Status:                e.status,
		CurrentWorkflowID:     workflow.NoData,
		CurrentWorkflowType:   workflow.NoData,
		CurrentWorkflowStatus: workflow.NoData,
	}
	if cur := e.current; cur != nil {
		view.CurrentWorkflowID = cur.ID
		view.CurrentWorkflowType = cur.Type
		view.CurrentWorkflowStatus = cur.Status
		if view.CurrentWorkflowStatus == "" {
			view.CurrentWorkflowStatus = "in_progress"
		}
		for _, s := range cur.Stages {
			if s.Status == workflow.StatusCompleted {
				view.StagesCompleted++
			}
		}
	}
	e.mu.Unlock()

	view.HistorySize = e.history.Len()
	view.MonitoringActive = e.MonitoringActive()
	return view
}

func (e *Engine) dashboardView(ctx context.Context) DashboardView {
	view := DashboardView{
		CampaignID:   workflow.NoData,
		CampaignName: workflow.NoData,
		Status:       "unknown",
		ReportID:     workflow.NoData,
		LastUpdated:  workflow.NoData,
	}
	if e.snapshots == nil {
		return view
	}

	snap, err := e.snapshots.Latest(ctx)
	if err != nil {
		if !errors.Is(err, cache.ErrSnapshotNotFound) {
			e.logger.Warn("读取看板快照失败", zap.Error(err))
		}
		return view
	}

	view.Metrics = snap.Metrics
	view.AlertCount = snap.AlertCount
	if snap.CampaignID != "" {
		view.CampaignID = snap.CampaignID
	}
	if snap.CampaignName != "" {
		view.CampaignName = snap.CampaignName
	}
	if snap.Status != "" {
		view.Status = snap.Status
	}
	if snap.ReportID != "" {
		view.ReportID = snap.ReportID
	}
	if !snap.UpdatedAt.IsZero() {
		view.LastUpdated = snap.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return view
}
