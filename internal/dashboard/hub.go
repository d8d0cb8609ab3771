package dashboard

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"campaignflow/internal/logger"
	"campaignflow/internal/metrics"
	"campaignflow/internal/workflow/executor"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// StatusProvider 仪表盘状态来源，由 executor.Engine 实现
type StatusProvider interface {
	DashboardStatus(ctx context.Context) executor.DashboardStatus
}

// Message 推送给仪表盘客户端的消息
type Message struct {
	Type   string                    `json:"type"`
	Status *executor.DashboardStatus `json:"status,omitempty"`
	Text   string                    `json:"message,omitempty"`
}

// 消息类型
const (
	MessageConnected = "connected"
	MessageStatus    = "status"
)

type clientConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *clientConn) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub 管理仪表盘 WebSocket 连接并定时推送状态
type Hub struct {
	mu                sync.RWMutex
	clients           map[*websocket.Conn]*clientConn
	provider          StatusProvider
	pushInterval      time.Duration
	keepAliveInterval time.Duration
	logger            *zap.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// HubOption 配置 hub
type HubOption func(*Hub)

// WithPushInterval 设置推送间隔
func WithPushInterval(interval time.Duration) HubOption {
	return func(h *Hub) { h.pushInterval = interval }
}

// WithKeepAliveInterval 设置心跳间隔
func WithKeepAliveInterval(interval time.Duration) HubOption {
	return func(h *Hub) { h.keepAliveInterval = interval }
}

// WithHubLogger 设置日志器
func WithHubLogger(l *zap.Logger) HubOption {
	return func(h *Hub) { h.logger = l }
}

// NewHub 创建 Hub
func NewHub(provider StatusProvider, opts ...HubOption) *Hub {
	hub := &Hub{
		clients:           make(map[*websocket.Conn]*clientConn),
		provider:          provider,
		pushInterval:      5 * time.Second,
		keepAliveInterval: 30 * time.Second,
		logger:            logger.Get(),
		stopCh:            make(chan struct{}),
		done:              make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(hub)
		}
	}
	return hub
}

// Register 注册连接并立即推送一次当前状态
func (h *Hub) Register(conn *websocket.Conn) {
	client := &clientConn{conn: conn}
	h.mu.Lock()
	h.clients[conn] = client
	h.mu.Unlock()
	metrics.WSConnections.Inc()

	if data, err := json.Marshal(Message{Type: MessageConnected, Text: "仪表盘已连接"}); err == nil {
		_ = client.write(data)
	}
	if data, err := h.statusMessage(context.Background()); err == nil {
		if err := client.write(data); err != nil {
			h.drop(conn)
			return
		}
	}
	h.startKeepAlive(client)
}

// Unregister 移除连接
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		metrics.WSConnections.Dec()
	}
}

// ConnectedCount 当前连接数
func (h *Hub) ConnectedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast 向所有连接推送当前状态，返回第一个写入错误
func (h *Hub) Broadcast(ctx context.Context) error {
	h.mu.RLock()
	clients := make([]*clientConn, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	if len(clients) == 0 {
		return nil
	}

	data, err := h.statusMessage(ctx)
	if err != nil {
		return err
	}

	var firstErr error
	for _, c := range clients {
		if err := c.write(data); err != nil {
			h.drop(c.conn)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Run 按推送间隔广播，直到 Stop 或 ctx 取消
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	if h.pushInterval <= 0 {
		<-h.stopCh
		return
	}
	ticker := time.NewTicker(h.pushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.stopCh:
			return
		case <-ticker.C:
			if err := h.Broadcast(ctx); err != nil {
				h.logger.Debug("仪表盘推送失败", zap.Error(err))
			}
		}
	}
}

// Stop 停止推送并关闭所有连接
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopCh)
		h.mu.Lock()
		for conn := range h.clients {
			_ = conn.Close()
			delete(h.clients, conn)
			metrics.WSConnections.Dec()
		}
		h.mu.Unlock()
	})
}

// Done Run 退出后关闭
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) statusMessage(ctx context.Context) ([]byte, error) {
	status := h.provider.DashboardStatus(ctx)
	return json.Marshal(Message{Type: MessageStatus, Status: &status})
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.Unregister(conn)
	_ = conn.Close()
}

func (h *Hub) startKeepAlive(client *clientConn) {
	if h.keepAliveInterval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(h.keepAliveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-h.stopCh:
				return
			case <-ticker.C:
			}
			client.mu.Lock()
			err := client.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			client.mu.Unlock()
			if err != nil {
				h.drop(client.conn)
				return
			}
		}
	}()
}
