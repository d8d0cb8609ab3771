package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// API 指标
var (
	// APIRequestsTotal API 请求总数
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaignflow_api_requests_total",
			Help: "API 请求总数",
		},
		[]string{"method", "path", "status"},
	)

	// APIRequestDuration API 请求延迟（秒）
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campaignflow_api_request_duration_seconds",
			Help:    "API 请求延迟分布",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Agent 执行指标
var (
	// AgentExecutionsTotal Agent 调用总数
	AgentExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaignflow_agent_executions_total",
			Help: "Agent 调用总数",
		},
		[]string{"agent", "status"},
	)

	// AgentExecutionDuration Agent 调用耗时（秒）
	AgentExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campaignflow_agent_execution_duration_seconds",
			Help:    "Agent 调用耗时分布",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"agent"},
	)

	// AgentExecutionsRunning 正在执行的 Agent 调用数
	AgentExecutionsRunning = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "campaignflow_agent_executions_running",
			Help: "正在执行的 Agent 调用数",
		},
		[]string{"agent"},
	)

	// PerformanceAlertsTotal 性能告警数（按规则）
	PerformanceAlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaignflow_performance_alerts_total",
			Help: "性能告警触发次数",
		},
		[]string{"rule", "severity"},
	)
)

// 工作流执行指标
var (
	// WorkflowExecutionsTotal 工作流执行总数
	WorkflowExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaignflow_workflow_executions_total",
			Help: "工作流执行总数",
		},
		[]string{"workflow_type", "status"}, // status: completed, failed, busy
	)

	// WorkflowExecutionDuration 工作流执行耗时（秒）
	WorkflowExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campaignflow_workflow_execution_duration_seconds",
			Help:    "工作流执行耗时分布",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 30, 60, 300},
		},
		[]string{"workflow_type"},
	)

	// WorkflowStagesTotal 阶段执行总数
	WorkflowStagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaignflow_workflow_stages_total",
			Help: "工作流阶段执行总数",
		},
		[]string{"stage", "status"},
	)

	// WorkflowStageDuration 阶段耗时（秒）
	WorkflowStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campaignflow_workflow_stage_duration_seconds",
			Help:    "工作流阶段耗时分布",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"stage"},
	)

	// WorkflowHistorySize 历史记录条数
	WorkflowHistorySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "campaignflow_workflow_history_size",
			Help: "已完成工作流的历史记录数",
		},
	)
)

// 持续监控指标
var (
	// MonitorCyclesTotal 监控周期总数
	MonitorCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaignflow_monitor_cycles_total",
			Help: "持续监控周期执行总数",
		},
		[]string{"result"}, // skipped, ok, alerted, error
	)

	// MonitorActive 持续监控是否运行
	MonitorActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "campaignflow_monitor_active",
			Help: "持续监控是否在运行（1/0）",
		},
	)

	// WSConnections 看板 WebSocket 连接数
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "campaignflow_dashboard_ws_connections",
			Help: "看板 WebSocket 当前连接数",
		},
	)
)

// 缓存指标
var (
	// CacheHitsTotal 缓存命中总数
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaignflow_cache_hits_total",
			Help: "缓存命中总数",
		},
		[]string{"backend"},
	)

	// CacheMissesTotal 缓存未命中总数
	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaignflow_cache_misses_total",
			Help: "缓存未命中总数",
		},
		[]string{"backend"},
	)
)

// BuildInfo 构建信息
var BuildInfo = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "campaignflow_build_info",
		Help: "构建信息",
	},
	[]string{"version", "go_version"},
)

// RecordBuildInfo 记录构建信息
func RecordBuildInfo(version, goVersion string) {
	BuildInfo.WithLabelValues(version, goVersion).Set(1)
}
