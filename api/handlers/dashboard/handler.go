package dashboard

import (
	"context"
	"net/http"
	"time"

	response "campaignflow/api/handlers/common"
	"campaignflow/internal/dashboard"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Handler 仪表盘状态与实时推送
type Handler struct {
	provider dashboard.StatusProvider
	hub      *dashboard.Hub
	upgrader websocket.Upgrader
}

// NewHandler 创建处理器，hub 为空时只提供 HTTP 状态查询
func NewHandler(provider dashboard.StatusProvider, hub *dashboard.Hub) *Handler {
	return &Handler{
		provider: provider,
		hub:      hub,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 5 * time.Second,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// GetStatus 编排器、Agent 与仪表盘快照的聚合状态
// GET /api/dashboard/status
func (h *Handler) GetStatus(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	response.OK(c, http.StatusOK, h.provider.DashboardStatus(ctx))
}

// Connect 升级连接并注册到推送 hub
// GET /ws/dashboard
func (h *Handler) Connect(c *gin.Context) {
	if h.hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "仪表盘推送未启用"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	conn.SetReadLimit(1024)
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Minute))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * time.Minute))
	})

	h.hub.Register(conn)
	go h.readLoop(conn)
}

func (h *Handler) readLoop(conn *websocket.Conn) {
	defer func() {
		h.hub.Unregister(conn)
		_ = conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
