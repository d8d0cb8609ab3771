package runtime

import (
	"sync"
	"time"

	"campaignflow/internal/agent"
	"campaignflow/internal/metrics"
)

// agentState 每个 Agent 的可变状态，工作流与监控循环可能并发访问
type agentState struct {
	mu         sync.Mutex
	name       string
	status     string
	lastAction string
	counters   map[string]int
	clock      func() time.Time
}

func newAgentState(name string, clock func() time.Time) *agentState {
	return &agentState{
		name:       name,
		status:     agent.StatusIdle,
		lastAction: "none",
		counters:   make(map[string]int),
		clock:      clock,
	}
}

// track 执行一次 Agent 操作并更新状态与指标
func (s *agentState) track(action string, fn func() error) error {
	s.mu.Lock()
	s.status = agent.StatusWorking
	s.lastAction = action
	s.mu.Unlock()

	err := metrics.RecordAgentExecution(s.name, fn)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.status = agent.StatusError
		s.counters["errors"]++
		return err
	}
	s.status = agent.StatusIdle
	return nil
}

func (s *agentState) add(counter string, delta int) {
	s.mu.Lock()
	s.counters[counter] += delta
	s.mu.Unlock()
}

func (s *agentState) snapshot() agent.StatusSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	counters := make(map[string]int, len(s.counters))
	for k, v := range s.counters {
		counters[k] = v
	}
	return agent.StatusSnapshot{
		Agent:      s.name,
		Status:     s.status,
		LastAction: s.lastAction,
		Counters:   counters,
		Timestamp:  s.clock(),
	}
}
