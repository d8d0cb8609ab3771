package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"campaignflow/internal/worker/tasks"
	"campaignflow/internal/workflow"
	"campaignflow/internal/workflow/executor"

	"github.com/hibiken/asynq"
	"go.uber.org/zap/zaptest"
)

type fakeRunner struct {
	called       bool
	workflowType string
	rec          *workflow.Record
	retErr       error
	ctxErr       error
}

func (f *fakeRunner) ExecuteWorkflow(ctx context.Context, workflowType string) (*workflow.Record, error) {
	f.called = true
	f.workflowType = workflowType
	if f.ctxErr = ctx.Err(); f.ctxErr != nil {
		return nil, f.ctxErr
	}
	return f.rec, f.retErr
}

func newTask(t *testing.T, p tasks.ExecuteWorkflowPayload) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return asynq.NewTask(tasks.TypeExecuteWorkflow, payload)
}

func TestWorkflowHandlerHandleExecuteWorkflow_Success(t *testing.T) {
	runner := &fakeRunner{rec: &workflow.Record{ID: "wf-1", Status: workflow.StatusCompleted, Duration: "2s"}}
	h := NewWorkflowHandler(runner, zaptest.NewLogger(t))
	task := newTask(t, tasks.ExecuteWorkflowPayload{WorkflowType: workflow.TypeFullAutomation, RequestedAt: time.Now()})

	if err := h.HandleExecuteWorkflow(context.Background(), task); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !runner.called || runner.workflowType != workflow.TypeFullAutomation {
		t.Fatalf("runner not invoked correctly: called=%v type=%s", runner.called, runner.workflowType)
	}
}

func TestWorkflowHandlerHandleExecuteWorkflow_StageErrorSkipsRetry(t *testing.T) {
	expectedErr := errors.New("boom")
	runner := &fakeRunner{rec: &workflow.Record{ID: "wf-2", Status: workflow.StatusFailed}, retErr: expectedErr}
	h := NewWorkflowHandler(runner, zaptest.NewLogger(t))

	err := h.HandleExecuteWorkflow(context.Background(), newTask(t, tasks.ExecuteWorkflowPayload{}))
	if !errors.Is(err, expectedErr) {
		t.Fatalf("expected error %v, got %v", expectedErr, err)
	}
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("stage failures should not be retried, got %v", err)
	}
}

func TestWorkflowHandlerHandleExecuteWorkflow_BusyIsRetryable(t *testing.T) {
	runner := &fakeRunner{retErr: executor.ErrWorkflowBusy}
	h := NewWorkflowHandler(runner, zaptest.NewLogger(t))

	err := h.HandleExecuteWorkflow(context.Background(), newTask(t, tasks.ExecuteWorkflowPayload{}))
	if !errors.Is(err, executor.ErrWorkflowBusy) {
		t.Fatalf("expected busy error, got %v", err)
	}
	if errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("busy error should be retried")
	}
}

func TestWorkflowHandlerHandleExecuteWorkflow_InvalidPayload(t *testing.T) {
	runner := &fakeRunner{}
	h := NewWorkflowHandler(runner, zaptest.NewLogger(t))
	task := asynq.NewTask(tasks.TypeExecuteWorkflow, []byte("not-json"))

	if err := h.HandleExecuteWorkflow(context.Background(), task); err == nil {
		t.Fatalf("expected error for invalid payload")
	}
	if runner.called {
		t.Fatalf("runner should not be called when payload invalid")
	}
}

func TestWorkflowHandlerHandleExecuteWorkflow_TaskTimeoutDoesNotCancelRun(t *testing.T) {
	runner := &fakeRunner{rec: &workflow.Record{ID: "wf-3", Status: workflow.StatusCompleted}}
	h := NewWorkflowHandler(runner, zaptest.NewLogger(t))

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	if err := h.HandleExecuteWorkflow(ctx, newTask(t, tasks.ExecuteWorkflowPayload{})); err != nil {
		t.Fatalf("expected run to complete after task deadline, got %v", err)
	}
	if runner.ctxErr != nil {
		t.Fatalf("runner saw cancelled context: %v", runner.ctxErr)
	}
}
