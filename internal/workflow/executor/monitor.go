package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"campaignflow/internal/metrics"

	"go.uber.org/zap"
)

// DefaultMonitorInterval 默认监控间隔
const DefaultMonitorInterval = 15 * time.Minute

// MonitorHandle 持续监控句柄
type MonitorHandle struct {
	interval  time.Duration
	startedAt time.Time
	stopCh    chan struct{}
	done      chan struct{}
	stopOnce  sync.Once
}

// Stop 取消后续周期，正在执行的周期会跑完；可重复调用
func (h *MonitorHandle) Stop() {
	h.stopOnce.Do(func() { close(h.stopCh) })
}

// Done 监控循环退出后关闭
func (h *MonitorHandle) Done() <-chan struct{} {
	return h.done
}

// Interval 监控间隔
func (h *MonitorHandle) Interval() time.Duration {
	return h.interval
}

// StartedAt 启动时间
func (h *MonitorHandle) StartedAt() time.Time {
	return h.startedAt
}

func (h *MonitorHandle) stopped() bool {
	select {
	case <-h.stopCh:
		return true
	default:
		return false
	}
}

// cycleResult 单个监控周期的结果标签
type cycleResult string

const (
	cycleSkipped cycleResult = "skipped"
	cycleOK      cycleResult = "ok"
	cycleAlerted cycleResult = "alerted"
	cycleError   cycleResult = "error"
)

// StartContinuousMonitoring 按固定间隔执行监控周期，与主工作流相互独立
func (e *Engine) StartContinuousMonitoring(interval time.Duration) *MonitorHandle {
	if interval <= 0 {
		interval = DefaultMonitorInterval
	}
	h := &MonitorHandle{
		interval:  interval,
		startedAt: e.clock(),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
	go e.monitorLoop(h)

	e.logger.Info("持续监控已启动", zap.Duration("interval", interval))
	return h
}

func (e *Engine) monitorLoop(h *MonitorHandle) {
	defer close(h.done)
	metrics.MonitorActive.Inc()
	defer metrics.MonitorActive.Dec()

	ticks, release := e.newTicker(h.interval)
	defer release()

	for {
		select {
		case <-h.stopCh:
			e.logger.Info("持续监控已停止")
			return
		case <-ticks:
			// 同时就绪时优先响应停止
			if h.stopped() {
				e.logger.Info("持续监控已停止")
				return
			}
			e.runMonitoringCycle(context.Background())
		}
	}
}

// runMonitoringCycle 执行一次监控：读取最近一条历史，有告警时再调整出价并生成报告
// 错误只记录日志，不会中断循环
func (e *Engine) runMonitoringCycle(ctx context.Context) (result cycleResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("监控周期异常", zap.Any("panic", r))
			result = cycleError
		}
		metrics.MonitorCyclesTotal.WithLabelValues(string(result)).Inc()
	}()

	latest := e.history.Latest()
	if latest == nil {
		return cycleSkipped
	}
	campaignID := latest.CampaignID()
	if campaignID == "" {
		return cycleSkipped
	}

	log := e.logger.With(zap.String("campaign_id", campaignID))

	performance, err := e.agents.PerformanceMonitor.Monitor(ctx, campaignID)
	if err != nil {
		log.Error("监控周期：性能监控失败", zap.Error(err))
		return cycleError
	}
	if performance == nil || len(performance.Alerts) == 0 {
		return cycleOK
	}

	log.Warn("监控周期发现告警", zap.Int("alerts", len(performance.Alerts)))

	if _, err := e.agents.BidOptimizer.AdjustBids(ctx, campaignID, performance.Metrics, nil); err != nil {
		log.Error("监控周期：出价调整失败", zap.Error(err))
		return cycleError
	}
	if _, err := e.agents.Reporting.GenerateReport(ctx, latest.Results.CampaignSetup, performance, e.agents.Statuses()); err != nil {
		log.Error("监控周期：报告生成失败", zap.Error(err))
		return cycleError
	}
	return cycleAlerted
}

// StartMonitoring 启动引擎托管的监控循环，已在运行时返回现有句柄与 false
func (e *Engine) StartMonitoring(interval time.Duration) (*MonitorHandle, bool) {
	e.monitorMu.Lock()
	defer e.monitorMu.Unlock()
	if e.monitor != nil && !e.monitor.stopped() {
		return e.monitor, false
	}
	e.monitor = e.StartContinuousMonitoring(interval)
	return e.monitor, true
}

// StopMonitoring 停止引擎托管的监控循环
func (e *Engine) StopMonitoring() error {
	e.monitorMu.Lock()
	defer e.monitorMu.Unlock()
	if e.monitor == nil || e.monitor.stopped() {
		return fmt.Errorf("continuous monitoring is not running")
	}
	e.monitor.Stop()
	e.monitor = nil
	return nil
}

// MonitoringActive 引擎托管的监控循环是否在运行
func (e *Engine) MonitoringActive() bool {
	e.monitorMu.Lock()
	defer e.monitorMu.Unlock()
	return e.monitor != nil && !e.monitor.stopped()
}
