package logger

import (
	"context"
	"sync"
	"testing"

	"campaignflow/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitAndGetConcurrently(t *testing.T) {
	cfg := config.LogConfig{Level: "info", Format: "json", OutputPath: "stderr"}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NotNil(t, Get())
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, Init(cfg))
		}()
	}
	wg.Wait()

	assert.NotNil(t, Get())
}

func TestInitReplacesFallback(t *testing.T) {
	require.NotNil(t, Get())

	require.NoError(t, Init(config.LogConfig{Level: "error", OutputPath: "stderr"}))
	assert.False(t, Get().Core().Enabled(zapcore.InfoLevel))
	assert.True(t, Get().Core().Enabled(zapcore.ErrorLevel))
}

func TestFromContextAddsWorkflowID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	FromContext(WithWorkflowID(context.Background(), "wf-1"), base).Info("stage done")
	FromContext(context.Background(), base).Info("no workflow")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "wf-1", entries[0].ContextMap()["workflow_id"])
	assert.NotContains(t, entries[1].ContextMap(), "workflow_id")
	assert.Empty(t, GetWorkflowID(context.Background()))
}
