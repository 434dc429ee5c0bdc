package triggers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

// Executor runs a trigger's task when it fires. Set via Manager.SetExecutor:
// the manager itself has no opinion on what a task is, it only records the
// execution and defers to the caller's graph/run machinery.
type Executor func(ctx context.Context, agentID, task string, params map[string]any) (map[string]any, error)

// Manager is the central registry for all three trigger variants, composing
// the scheduler, webhook handler, and event registry as separate types
// behind one map-plus-mutex front end.
type Manager struct {
	mu        sync.RWMutex
	triggers  map[string]*Base // keyed by id, for generic lookups (status/listing) across variants
	scheduled map[string]*Scheduled
	webhooks  map[string]*Webhook
	events    map[string]*Event

	executionHistoryLimit int
	executions            []*Execution

	scheduler *Scheduler
	webhook   *WebhookHandler
	eventReg  *EventRegistry

	executor Executor

	idNode *snowflake.Node
}

// Config configures manager-wide knobs not specific to any one trigger.
type Config struct {
	ExecutionHistoryLimit int
}

// NewManager creates a Manager and wires its three sub-executors together.
// idNode seeds snowflake execution IDs (time-ordered, unique per process);
// pass nil to fall back to uuid-only IDs (still unique, just not sortable).
func NewManager(cfg Config, idNode *snowflake.Node) *Manager {
	if cfg.ExecutionHistoryLimit <= 0 {
		cfg.ExecutionHistoryLimit = 100
	}
	m := &Manager{
		triggers:              make(map[string]*Base),
		scheduled:              make(map[string]*Scheduled),
		webhooks:               make(map[string]*Webhook),
		events:                 make(map[string]*Event),
		executionHistoryLimit:  cfg.ExecutionHistoryLimit,
		idNode:                 idNode,
	}
	m.scheduler = NewScheduler(func(ctx context.Context, t *Scheduled) {
		m.onFired(ctx, &t.Base, t.TaskParams)
	})
	m.webhook = NewWebhookHandler(func(t *Webhook, params map[string]any) (map[string]any, error) {
		return m.onFiredSync(context.Background(), &t.Base, params)
	})
	m.eventReg = NewEventRegistry(func(t *Event, eventType string, data map[string]any, source string) {
		params := map[string]any{"event_type": eventType, "event_data": data, "source": source}
		m.onFired(context.Background(), &t.Base, params)
	})
	return m
}

// SetExecutor installs the callback invoked on every trigger firing.
func (m *Manager) SetExecutor(ex Executor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executor = ex
}

// Webhook exposes the underlying handler so main can mount its gin routes.
func (m *Manager) Webhook() *WebhookHandler { return m.webhook }

// Start starts the scheduled-trigger loops.
func (m *Manager) Start(ctx context.Context) { m.scheduler.Start(ctx) }

// Stop stops all scheduled-trigger loops.
func (m *Manager) Stop() { m.scheduler.Stop() }

func newID() string { return uuid.New().String() }

// AddScheduled registers a new cron-based trigger.
func (m *Manager) AddScheduled(ctx context.Context, t *Scheduled) (string, error) {
	if t.ID == "" {
		t.ID = newID()
	}
	t.Type = TypeScheduled
	if t.Status == "" {
		t.Status = StatusActive
	}
	now := time.Now()
	t.CreatedAt, t.UpdatedAt = now, now

	loc, err := time.LoadLocation(t.Timezone)
	if err != nil {
		loc = time.UTC
	}
	if err := m.scheduler.Add(ctx, t, loc); err != nil {
		return "", fmt.Errorf("triggers: add scheduled: %w", err)
	}

	m.mu.Lock()
	m.triggers[t.ID] = &t.Base
	m.scheduled[t.ID] = t
	m.mu.Unlock()
	slog.Info("triggers: added scheduled trigger", "id", t.ID, "name", t.Name, "next_run", t.NextRunTime)
	return t.ID, nil
}

// AddWebhook registers a new HTTP-activated trigger and returns its path.
func (m *Manager) AddWebhook(t *Webhook) string {
	if t.ID == "" {
		t.ID = newID()
	}
	t.Type = TypeWebhook
	if t.Status == "" {
		t.Status = StatusActive
	}
	now := time.Now()
	t.CreatedAt, t.UpdatedAt = now, now
	if len(t.AllowedMethods) == 0 {
		t.AllowedMethods = []string{"POST"}
	}

	path := m.webhook.Register(t)

	m.mu.Lock()
	m.triggers[t.ID] = &t.Base
	m.webhooks[t.ID] = t
	m.mu.Unlock()
	slog.Info("triggers: added webhook trigger", "id", t.ID, "name", t.Name, "path", path)
	return path
}

// AddEvent registers a new in-process-event-activated trigger.
func (m *Manager) AddEvent(t *Event) string {
	if t.ID == "" {
		t.ID = newID()
	}
	t.Type = TypeEvent
	if t.Status == "" {
		t.Status = StatusActive
	}
	now := time.Now()
	t.CreatedAt, t.UpdatedAt = now, now

	m.eventReg.Register(t)

	m.mu.Lock()
	m.triggers[t.ID] = &t.Base
	m.events[t.ID] = t
	m.mu.Unlock()
	slog.Info("triggers: added event trigger", "id", t.ID, "name", t.Name, "event_type", t.EventType)
	return t.ID
}

// Emit dispatches an in-process event to every matching active event trigger.
func (m *Manager) Emit(eventType string, data map[string]any, source string) {
	m.eventReg.Emit(eventType, data, source)
}

// Remove removes a trigger of any variant.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	base, ok := m.triggers[id]
	if !ok {
		m.mu.Unlock()
		return false
	}
	typ := base.Type
	delete(m.triggers, id)

	var event *Event
	switch typ {
	case TypeScheduled:
		delete(m.scheduled, id)
	case TypeWebhook:
		delete(m.webhooks, id)
	case TypeEvent:
		event = m.events[id]
		delete(m.events, id)
	}
	m.mu.Unlock()

	switch typ {
	case TypeScheduled:
		m.scheduler.Remove(id)
	case TypeWebhook:
		m.webhook.Unregister(id)
	case TypeEvent:
		if event != nil {
			m.eventReg.Unregister(event)
		}
	}
	return true
}

// Pause transitions an active trigger to paused.
func (m *Manager) Pause(id string) bool {
	m.mu.Lock()
	base, ok := m.triggers[id]
	m.mu.Unlock()
	if !ok {
		return false
	}
	base.Status = StatusPaused
	base.UpdatedAt = time.Now()
	if base.Type == TypeScheduled {
		m.scheduler.Pause(id)
	}
	return true
}

// Resume transitions a paused trigger back to active.
func (m *Manager) Resume(ctx context.Context, id string) bool {
	m.mu.Lock()
	base, ok := m.triggers[id]
	var sched *Scheduled
	if ok {
		sched = m.scheduled[id]
	}
	m.mu.Unlock()
	if !ok || base.Status != StatusPaused {
		return false
	}
	base.Status = StatusActive
	base.UpdatedAt = time.Now()
	if sched != nil {
		loc, err := time.LoadLocation(sched.Timezone)
		if err != nil {
			loc = time.UTC
		}
		if err := m.scheduler.Resume(ctx, id, loc); err != nil {
			slog.Error("triggers: resume failed", "id", id, "error", err)
			base.Status = StatusError
			return false
		}
	}
	return true
}

// Get returns a trigger's shared Base fields by id.
func (m *Manager) Get(id string) (*Base, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.triggers[id]
	return b, ok
}

// List returns every registered trigger's Base, optionally filtered by type.
func (m *Manager) List(filterType Type) []*Base {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Base, 0, len(m.triggers))
	for _, b := range m.triggers {
		if filterType != "" && b.Type != filterType {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Executions returns up to limit most-recent execution records, optionally
// filtered by trigger id. limit<=0 means "no cap beyond the stored history".
func (m *Manager) Executions(triggerID string, limit int) []*Execution {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Execution, 0, len(m.executions))
	for i := len(m.executions) - 1; i >= 0; i-- {
		e := m.executions[i]
		if triggerID != "" && e.TriggerID != triggerID {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// onFired is the async firing path used by scheduled and event triggers:
// the execution runs in its own goroutine so a slow task never blocks the
// scheduler loop or the event emitter.
func (m *Manager) onFired(ctx context.Context, base *Base, params map[string]any) {
	go func() {
		if _, err := m.onFiredSync(ctx, base, params); err != nil {
			slog.Error("triggers: execution failed", "trigger", base.ID, "error", err)
		}
	}()
}

// onFiredSync is the synchronous firing path used by webhooks, whose HTTP
// response must carry the execution's result.
func (m *Manager) onFiredSync(ctx context.Context, base *Base, params map[string]any) (map[string]any, error) {
	merged := map[string]any{}
	for k, v := range base.TaskParams {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}

	exec := &Execution{
		ID:          m.newExecutionID(),
		TriggerID:   base.ID,
		TriggerName: base.Name,
		StartedAt:   time.Now(),
		Status:      ExecStatusRunning,
	}
	m.recordExecution(exec)

	base.LastExecutedAt = &exec.StartedAt
	base.ExecutionCount++

	m.mu.RLock()
	executor := m.executor
	m.mu.RUnlock()
	if executor == nil {
		exec.markFailed(fmt.Errorf("no executor configured"), time.Now())
		return nil, fmt.Errorf("triggers: no executor configured")
	}

	result, err := executor(ctx, base.AgentID, base.Task, merged)
	if err != nil {
		base.FailureCount++
		exec.markFailed(err, time.Now())
		return nil, err
	}
	exec.markSuccess(result, time.Now())
	return result, nil
}

func (m *Manager) newExecutionID() string {
	if m.idNode != nil {
		return m.idNode.Generate().String()
	}
	return newID()
}

func (m *Manager) recordExecution(e *Execution) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executions = append(m.executions, e)
	if len(m.executions) > m.executionHistoryLimit {
		m.executions = m.executions[len(m.executions)-m.executionHistoryLimit:]
	}
}
