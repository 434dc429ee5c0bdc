package triggers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeExecutor(calls *int32) Executor {
	return func(ctx context.Context, agentID, task string, params map[string]any) (map[string]any, error) {
		atomic.AddInt32(calls, 1)
		return map[string]any{"task": task}, nil
	}
}

func TestManagerAddAndRemoveEachVariant(t *testing.T) {
	m := NewManager(Config{}, nil)
	var calls int32
	m.SetExecutor(fakeExecutor(&calls))

	sid, err := m.AddScheduled(context.Background(), &Scheduled{CronExpr: "* * * * *", Timezone: "UTC"})
	require.NoError(t, err)

	path := m.AddWebhook(&Webhook{ID: "wh1"})
	assert.Equal(t, "/wh1", path)

	eid := m.AddEvent(&Event{EventType: "thing.happened"})

	assert.Len(t, m.List(""), 3)
	assert.Len(t, m.List(TypeScheduled), 1)

	assert.True(t, m.Remove(sid))
	assert.True(t, m.Remove("wh1"))
	assert.True(t, m.Remove(eid))
	assert.Len(t, m.List(""), 0)
	assert.False(t, m.Remove("does-not-exist"))
}

func TestManagerEventFiringRunsExecutorAndRecordsHistory(t *testing.T) {
	m := NewManager(Config{ExecutionHistoryLimit: 5}, nil)
	var calls int32
	m.SetExecutor(fakeExecutor(&calls))

	eid := m.AddEvent(&Event{EventType: "ping", Task: "respond"})
	m.Emit("ping", map[string]any{"n": 1}, "")

	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, 10*time.Millisecond)

	execs := m.Executions(eid, 10)
	require.Len(t, execs, 1)
	assert.Equal(t, ExecStatusSuccess, execs[0].Status)
}

func TestManagerExecutionHistoryCap(t *testing.T) {
	m := NewManager(Config{ExecutionHistoryLimit: 2}, nil)
	var calls int32
	m.SetExecutor(fakeExecutor(&calls))

	base := &Base{ID: "trig", Name: "trig", TaskParams: map[string]any{}}
	for i := 0; i < 5; i++ {
		_, _ = m.onFiredSync(context.Background(), base, nil)
	}
	assert.Len(t, m.Executions("", 0), 2)
}

func TestManagerPauseResumeScheduled(t *testing.T) {
	m := NewManager(Config{}, nil)
	m.SetExecutor(fakeExecutor(new(int32)))
	m.Start(context.Background())
	defer m.Stop()

	sid, err := m.AddScheduled(context.Background(), &Scheduled{CronExpr: "* * * * *", Timezone: "UTC"})
	require.NoError(t, err)

	assert.True(t, m.Pause(sid))
	base, ok := m.Get(sid)
	require.True(t, ok)
	assert.Equal(t, StatusPaused, base.Status)

	assert.True(t, m.Resume(context.Background(), sid))
	base, _ = m.Get(sid)
	assert.Equal(t, StatusActive, base.Status)
}

func TestManagerWebhookFiresThroughRegisteredExecutor(t *testing.T) {
	m := NewManager(Config{}, nil)
	var calls int32
	m.SetExecutor(fakeExecutor(&calls))

	m.AddWebhook(&Webhook{ID: "wh2", AllowedMethods: []string{"POST"}, Task: "notify"})

	result, err := m.Webhook().fire(m.webhooks["wh2"], map[string]any{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, "notify", result["task"])
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestManagerNoExecutorConfiguredFailsExecution(t *testing.T) {
	m := NewManager(Config{}, nil)
	base := &Base{ID: "t", Name: "t"}
	_, err := m.onFiredSync(context.Background(), base, nil)
	assert.Error(t, err)
}
