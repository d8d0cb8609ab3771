package executor

import (
	"context"
	"testing"
	"time"

	"campaignflow/internal/agent"
	"campaignflow/internal/cache"
	"campaignflow/internal/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardStatus_Sentinels(t *testing.T) {
	e := newTestEngine(t, newFakeAgents(), WithSnapshotCache(cache.NewMemorySnapshotCache()))

	st := e.DashboardStatus(context.Background())
	assert.Equal(t, StatusIdle, st.Orchestrator.Status)
	assert.Equal(t, workflow.NoData, st.Orchestrator.CurrentWorkflowID)
	assert.Equal(t, 0, st.Orchestrator.HistorySize)
	assert.Len(t, st.Agents, 6)

	assert.Equal(t, "unknown", st.Dashboard.Status)
	assert.Equal(t, workflow.NoData, st.Dashboard.CampaignID)
	assert.Equal(t, workflow.NoData, st.Dashboard.LastUpdated)
	assert.Zero(t, st.Dashboard.Metrics)
}

func TestDashboardStatus_AfterWorkflow(t *testing.T) {
	snapshots := cache.NewMemorySnapshotCache()
	f := newFakeAgents()
	e := newTestEngine(t, f, WithSnapshotCache(snapshots))

	rec, err := e.ExecuteWorkflow(context.Background(), "")
	require.NoError(t, err)

	updated := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, snapshots.Set(context.Background(), agent.DashboardSnapshot{
		CampaignID: "c1",
		Status:     "active",
		Metrics:    agent.PerformanceMetrics{Clicks: 10},
		AlertCount: 2,
		UpdatedAt:  updated,
	}))

	st := e.DashboardStatus(context.Background())
	assert.Equal(t, StatusCompleted, st.Orchestrator.Status)
	assert.Equal(t, rec.ID, st.Orchestrator.CurrentWorkflowID)
	assert.Equal(t, workflow.StatusCompleted, st.Orchestrator.CurrentWorkflowStatus)
	assert.Equal(t, 4, st.Orchestrator.StagesCompleted)
	assert.Equal(t, 1, st.Orchestrator.HistorySize)

	assert.Equal(t, "c1", st.Dashboard.CampaignID)
	assert.Equal(t, workflow.NoData, st.Dashboard.CampaignName)
	assert.Equal(t, "active", st.Dashboard.Status)
	assert.Equal(t, 2, st.Dashboard.AlertCount)
	assert.Equal(t, "2024-05-01T10:00:00Z", st.Dashboard.LastUpdated)
}

func TestDashboardStatus_NoCacheConfigured(t *testing.T) {
	e := newTestEngine(t, newFakeAgents())
	st := e.DashboardStatus(context.Background())
	assert.Equal(t, "unknown", st.Dashboard.Status)
	assert.Equal(t, workflow.NoData, st.Dashboard.ReportID)
}
