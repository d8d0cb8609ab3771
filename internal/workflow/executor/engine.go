package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"campaignflow/internal/agent"
	"campaignflow/internal/cache"
	"campaignflow/internal/config"
	"campaignflow/internal/logger"
	"campaignflow/internal/metrics"
	"campaignflow/internal/workflow"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// 编排器状态
const (
	StatusIdle      = "idle"
	StatusWorking   = "working"
	StatusCompleted = "completed"
	StatusError     = "error"
)

// ErrWorkflowBusy 已有工作流在执行
var ErrWorkflowBusy = errors.New("a workflow is already running")

// Engine 工作流编排引擎，按固定顺序执行四个阶段并维护当前记录与历史
type Engine struct {
	agents    agent.Set
	history   *workflow.HistoryStore
	snapshots cache.SnapshotCache
	campaign  config.CampaignConfig
	logger    *zap.Logger
	tracer    trace.Tracer
	clock     func() time.Time
	newID     func() string
	newTicker TickerFactory

	mu      sync.Mutex
	status  string
	current *workflow.Record
	running bool

	monitorMu sync.Mutex
	monitor   *MonitorHandle
}

// EngineOption 用于自定义 Engine 配置
type EngineOption func(*Engine)

// WithClock 替换时钟，阶段耗时与时间戳均取自该时钟
func WithClock(clock func() time.Time) EngineOption {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// TickerFactory 创建监控循环使用的节拍源，返回节拍通道与释放函数
type TickerFactory func(d time.Duration) (<-chan time.Time, func())

// WithTicker 替换持续监控的节拍源
func WithTicker(fn TickerFactory) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.newTicker = fn
		}
	}
}

func systemTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// WithLogger 设置日志
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithCampaign 设置 Stage 1/2 使用的投放参数
func WithCampaign(c config.CampaignConfig) EngineOption {
	return func(e *Engine) {
		e.campaign = c
	}
}

// WithSnapshotCache 设置看板快照缓存
func WithSnapshotCache(c cache.SnapshotCache) EngineOption {
	return func(e *Engine) {
		e.snapshots = c
	}
}

// WithTracer 设置 OpenTelemetry Tracer
func WithTracer(t trace.Tracer) EngineOption {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// WithIDGenerator 替换工作流 ID 生成器
func WithIDGenerator(fn func() string) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// NewEngine 创建执行引擎
func NewEngine(agents agent.Set, history *workflow.HistoryStore, opts ...EngineOption) (*Engine, error) {
	if err := agents.Validate(); err != nil {
		return nil, err
	}
	if history == nil {
		history = workflow.NewHistoryStore()
	}
	e := &Engine{
		agents:    agents,
		history:   history,
		campaign:  config.DefaultCampaign(),
		logger:    logger.Get(),
		tracer:    otel.Tracer("campaignflow/internal/workflow/executor"),
		clock:     time.Now,
		newID:     uuid.NewString,
		newTicker: systemTicker,
		status:    StatusIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// ExecuteWorkflow 依次执行四个阶段
// 成功时记录写入历史；失败时返回失败记录与阶段原始错误，失败记录不进入历史
func (e *Engine) ExecuteWorkflow(ctx context.Context, workflowType string) (*workflow.Record, error) {
	if workflowType == "" {
		workflowType = workflow.TypeFullAutomation
	}

	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		metrics.RecordWorkflow(workflowType, "busy", 0)
		return nil, ErrWorkflowBusy
	}
	rec := &workflow.Record{
		ID:        e.newID(),
		Type:      workflowType,
		StartTime: e.clock(),
		Stages:    []workflow.StageOutcome{},
	}
	e.running = true
	e.status = StatusWorking
	e.current = rec
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	ctx, span := e.tracer.Start(ctx, "Engine.ExecuteWorkflow")
	defer span.End()
	span.SetAttributes(
		attribute.String("workflow.id", rec.ID),
		attribute.String("workflow.type", workflowType),
	)

	ctx = logger.WithWorkflowID(ctx, rec.ID)
	log := logger.FromContext(ctx, e.logger)
	log.Info("工作流开始执行", zap.String("type", workflowType))

	campaign := e.resolveCampaign(log)

	for _, st := range e.stages(campaign) {
		if err := e.runStage(ctx, rec, st); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return e.fail(rec, err, log), err
		}
	}

	return e.complete(rec, log), nil
}

// resolveCampaign 启动时检查投放参数是否完整，缺失时告警并使用占位值
func (e *Engine) resolveCampaign(log *zap.Logger) config.CampaignConfig {
	if missing := e.campaign.MissingFields(); len(missing) > 0 {
		log.Warn("投放配置不完整，使用默认值继续", zap.Strings("missing", missing))
	}
	return e.campaign.WithFallbacks()
}

func (e *Engine) complete(rec *workflow.Record, log *zap.Logger) *workflow.Record {
	e.mu.Lock()
	end := e.clock()
	elapsed := end.Sub(rec.StartTime)
	rec.EndTime = &end
	rec.Duration = workflow.FormatDuration(elapsed.Milliseconds())
	rec.Status = workflow.StatusCompleted
	e.status = StatusCompleted
	out := rec.Clone()
	e.mu.Unlock()

	e.history.RecordCompletion(out)
	metrics.RecordWorkflow(rec.Type, workflow.StatusCompleted, elapsed)
	log.Info("工作流执行完成", zap.String("duration", out.Duration))
	return out
}

func (e *Engine) fail(rec *workflow.Record, err error, log *zap.Logger) *workflow.Record {
	e.mu.Lock()
	end := e.clock()
	elapsed := end.Sub(rec.StartTime)
	rec.EndTime = &end
	rec.Duration = workflow.FormatDuration(elapsed.Milliseconds())
	rec.Status = workflow.StatusFailed
	rec.Error = err.Error()
	e.status = StatusError
	out := rec.Clone()
	e.mu.Unlock()

	metrics.RecordWorkflow(rec.Type, workflow.StatusFailed, elapsed)
	log.Error("工作流执行失败", zap.Error(err))
	return out
}

// runStage 执行单个阶段；耗时只覆盖 Agent 调用本身
func (e *Engine) runStage(ctx context.Context, rec *workflow.Record, st stage) error {
	ctx, span := e.tracer.Start(ctx, fmt.Sprintf("Stage-%d:%s", st.number, st.key))
	defer span.End()

	prior := e.priorResults(rec)

	start := e.clock()
	out, err := st.run(ctx, prior)
	elapsed := e.clock().Sub(start)

	metrics.RecordStage(st.key, elapsed, err)

	outcome := workflow.StageOutcome{
		Stage:      st.number,
		Name:       st.name,
		DurationMs: elapsed.Milliseconds(),
	}
	if err != nil {
		outcome.Status = workflow.StatusFailed
		outcome.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		outcome.Status = workflow.StatusCompleted
		outcome.Result = out.summary
	}

	e.mu.Lock()
	if err == nil && out.apply != nil {
		out.apply(&rec.Results)
	}
	rec.Stages = append(rec.Stages, outcome)
	e.mu.Unlock()

	logger.FromContext(ctx, e.logger).Debug("阶段结束",
		zap.Int("stage", st.number),
		zap.String("status", outcome.Status),
		zap.Int64("duration_ms", outcome.DurationMs),
	)
	return err
}

func (e *Engine) priorResults(rec *workflow.Record) workflow.Results {
	e.mu.Lock()
	defer e.mu.Unlock()
	return rec.Results
}

// Status 编排器当前状态
func (e *Engine) Status() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// CurrentWorkflow 当前（或最近一次）工作流记录的副本
func (e *Engine) CurrentWorkflow() *workflow.Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current.Clone()
}

// History 历史存储
func (e *Engine) History() *workflow.HistoryStore {
	return e.history
}

// Summary 历史统计
func (e *Engine) Summary() workflow.Summary {
	return e.history.Summarize()
}

// Export 导出历史
func (e *Engine) Export(format string) (*workflow.Export, error) {
	return e.history.Export(format)
}
