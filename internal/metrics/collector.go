package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RuntimeCollector Go 运行时指标收集器
type RuntimeCollector struct {
	interval time.Duration
	stopCh   chan struct{}
}

// NewRuntimeCollector 创建运行时指标收集器
func NewRuntimeCollector(interval time.Duration) *RuntimeCollector {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &RuntimeCollector{interval: interval, stopCh: make(chan struct{})}
}

// Start 启动定期收集
func (c *RuntimeCollector) Start() {
	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		c.collectOnce()
		for {
			select {
			case <-ticker.C:
				c.collectOnce()
			case <-c.stopCh:
				return
			}
		}
	}()
}

// Stop 停止收集
func (c *RuntimeCollector) Stop() {
	close(c.stopCh)
}

func (c *RuntimeCollector) collectOnce() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	goMemoryUsage.Set(float64(m.Alloc))
	goMemorySys.Set(float64(m.Sys))
	goGoroutines.Set(float64(runtime.NumGoroutine()))
	goGCCount.Set(float64(m.NumGC))
}

// Go 运行时指标
var (
	goMemoryUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "campaignflow_go_memory_usage_bytes",
		Help: "当前 Go 内存使用量",
	})
	goMemorySys = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "campaignflow_go_memory_sys_bytes",
		Help: "Go 从系统获取的内存",
	})
	goGoroutines = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "campaignflow_go_goroutines",
		Help: "当前 Goroutine 数量",
	})
	goGCCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "campaignflow_go_gc_count",
		Help: "GC 执行总次数",
	})
)

// RecordAgentExecution 记录 Agent 调用指标
// 在 Agent 调用前后包装执行
func RecordAgentExecution(agentName string, fn func() error) error {
	AgentExecutionsRunning.WithLabelValues(agentName).Inc()
	defer AgentExecutionsRunning.WithLabelValues(agentName).Dec()

	start := time.Now()
	err := fn()
	AgentExecutionDuration.WithLabelValues(agentName).Observe(time.Since(start).Seconds())

	status := "success"
	if err != nil {
		status = "failed"
	}
	AgentExecutionsTotal.WithLabelValues(agentName, status).Inc()
	return err
}

// RecordStage 记录单个阶段的结果与耗时
func RecordStage(stageName string, duration time.Duration, err error) {
	status := "completed"
	if err != nil {
		status = "failed"
	}
	WorkflowStagesTotal.WithLabelValues(stageName, status).Inc()
	WorkflowStageDuration.WithLabelValues(stageName).Observe(duration.Seconds())
}

// RecordWorkflow 记录一次工作流执行
func RecordWorkflow(workflowType, status string, duration time.Duration) {
	WorkflowExecutionsTotal.WithLabelValues(workflowType, status).Inc()
	if duration > 0 {
		WorkflowExecutionDuration.WithLabelValues(workflowType).Observe(duration.Seconds())
	}
}
