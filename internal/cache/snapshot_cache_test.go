package cache

import (
	"context"
	"testing"
	"time"

	"campaignflow/internal/agent"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySnapshotCache(t *testing.T) {
	c := NewMemorySnapshotCache()
	ctx := context.Background()

	_, err := c.Latest(ctx)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	require.NoError(t, c.Set(ctx, agent.DashboardSnapshot{CampaignID: "c1", Status: "active", UpdatedAt: time.Now()}))
	require.NoError(t, c.Set(ctx, agent.DashboardSnapshot{CampaignID: "c2", Status: "paused"}))

	got, err := c.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c2", got.CampaignID)

	// 返回的是副本
	got.CampaignID = "mutated"
	again, err := c.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c2", again.CampaignID)
}
