package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"campaignflow/internal/dashboard"
	"campaignflow/internal/workflow"
	"campaignflow/internal/workflow/executor"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticProvider struct{}

func (staticProvider) DashboardStatus(context.Context) executor.DashboardStatus {
	return executor.DashboardStatus{
		Orchestrator: executor.OrchestratorView{
			Status:            executor.StatusIdle,
			CurrentWorkflowID: workflow.NoData,
		},
		Dashboard: executor.DashboardView{Status: "unknown", CampaignID: workflow.NoData},
	}
}

func newRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/dashboard/status", h.GetStatus)
	r.GET("/ws/dashboard", h.Connect)
	return r
}

func TestGetStatus(t *testing.T) {
	r := newRouter(NewHandler(staticProvider{}, nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dashboard/status", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool                     `json:"success"`
		Data    executor.DashboardStatus `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, workflow.NoData, resp.Data.Orchestrator.CurrentWorkflowID)
	assert.Equal(t, "unknown", resp.Data.Dashboard.Status)
}

func TestConnect_WithoutHub(t *testing.T) {
	r := newRouter(NewHandler(staticProvider{}, nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws/dashboard", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestConnect_PushesStatus(t *testing.T) {
	hub := dashboard.NewHub(staticProvider{}, dashboard.WithKeepAliveInterval(0))
	t.Cleanup(hub.Stop)
	srv := httptest.NewServer(newRouter(NewHandler(staticProvider{}, hub)))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/dashboard"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg dashboard.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, dashboard.MessageConnected, msg.Type)

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, dashboard.MessageStatus, msg.Type)
	require.NotNil(t, msg.Status)
	assert.Equal(t, executor.StatusIdle, msg.Status.Orchestrator.Status)
}
