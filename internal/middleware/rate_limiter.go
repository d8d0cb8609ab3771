package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiterConfig 限流配置
type RateLimiterConfig struct {
	RequestsPerMinute int           // 每分钟补充的令牌数
	BurstSize         int           // 突发容量
	CleanupInterval   time.Duration // 清理间隔
}

// DefaultRateLimiterConfig 默认配置，执行类接口每分钟 30 次
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerMinute: 30,
		BurstSize:         5,
		CleanupInterval:   5 * time.Minute,
	}
}

type clientState struct {
	tokens     float64
	lastUpdate time.Time
}

// RateLimiter 按客户端的令牌桶限流器
type RateLimiter struct {
	config  RateLimiterConfig
	clients map[string]*clientState
	clock   func() time.Time
	mu      sync.Mutex

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimiter 创建限流器并启动清理协程
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	def := DefaultRateLimiterConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = def.RequestsPerMinute
	}
	if config.BurstSize <= 0 {
		config.BurstSize = def.BurstSize
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = def.CleanupInterval
	}

	rl := &RateLimiter{
		config:  config,
		clients: make(map[string]*clientState),
		clock:   time.Now,
		stopCh:  make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Allow 检查是否允许请求
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock()
	state, ok := rl.clients[key]
	if !ok {
		rl.clients[key] = &clientState{tokens: float64(rl.config.BurstSize - 1), lastUpdate: now}
		return true
	}

	perSecond := float64(rl.config.RequestsPerMinute) / 60
	state.tokens += now.Sub(state.lastUpdate).Seconds() * perSecond
	if state.tokens > float64(rl.config.BurstSize) {
		state.tokens = float64(rl.config.BurstSize)
	}
	state.lastUpdate = now

	if state.tokens < 1 {
		return false
	}
	state.tokens--
	return true
}

// ActiveClients 当前跟踪的客户端数
func (rl *RateLimiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle(10 * time.Minute)
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) evictIdle(idle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.clock()
	for key, state := range rl.clients {
		if now.Sub(state.lastUpdate) > idle {
			delete(rl.clients, key)
		}
	}
}

// Stop 停止限流器，可重复调用
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// RateLimitByEndpoint 按端点与客户端 IP 限流
func RateLimitByEndpoint(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "endpoint:" + c.FullPath() + ":" + c.ClientIP()
		if !limiter.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success":     false,
				"code":        "RATE_LIMIT_EXCEEDED",
				"message":     "该接口请求过于频繁",
				"retry_after": 1,
			})
			return
		}
		c.Next()
	}
}
