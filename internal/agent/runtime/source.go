package runtime

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MetricsSource 模拟指标的随机源，测试中可替换为固定序列
type MetricsSource interface {
	// Float64 返回 [0,1) 内的值
	Float64() float64
	// Intn 返回 [0,n) 内的整数
	Intn(n int) int
}

type randomSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomSource 创建并发安全的随机源，seed 为 0 时使用当前时间
func NewRandomSource(seed int64) MetricsSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &randomSource{rnd: rand.New(rand.NewSource(seed))}
}

func (s *randomSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64()
}

func (s *randomSource) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Intn(n)
}

// between 在 [lo, hi) 内取值
func between(src MetricsSource, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Deps Agent 公共依赖
type Deps struct {
	Source MetricsSource
	Clock  func() time.Time
	Logger *zap.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Source == nil {
		d.Source = NewRandomSource(0)
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return d
}
