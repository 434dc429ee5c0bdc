// Package triggers implements the trigger manager: scheduled (cron),
// webhook (HTTP), and event (in-process) triggers that start a run without a
// human caller. Each variant's registry is a map guarded by sync.RWMutex,
// with structured slog logging around state transitions and firings.
package triggers

import (
	"time"
)

// Type identifies which of the three trigger variants a Trigger is.
type Type string

const (
	TypeScheduled Type = "scheduled"
	TypeWebhook   Type = "webhook"
	TypeEvent     Type = "event"
)

// Status is the trigger lifecycle state: create → active →
// (paused ↔ active) → disabled|error.
type Status string

const (
	StatusActive   Status = "active"
	StatusPaused   Status = "paused"
	StatusDisabled Status = "disabled"
	StatusError    Status = "error"
)

// Base holds the fields every trigger variant shares.
type Base struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   Type   `json:"type"`
	Status Status `json:"status"`

	AgentID    string         `json:"agent_id"`
	Task       string         `json:"task"`
	TaskParams map[string]any `json:"task_params"`

	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	LastExecutedAt *time.Time `json:"last_executed_at,omitempty"`
	ExecutionCount int        `json:"execution_count"`
	FailureCount   int        `json:"failure_count"`
	MaxRetries     int        `json:"max_retries"`
}

// Scheduled is a cron-driven trigger.
type Scheduled struct {
	Base

	CronExpr       string `json:"cron_expr"`
	Timezone       string `json:"timezone"`
	RunImmediately bool   `json:"run_immediately"`
	CatchUp        bool   `json:"catch_up"`
	MaxInstances   int    `json:"max_instances"`

	NextRunTime time.Time `json:"next_run_time"`
}

// Webhook is an HTTP-activated trigger.
type Webhook struct {
	Base

	EndpointPath   string   `json:"endpoint_path"`
	AllowedMethods []string `json:"allowed_methods"`
	RequireAuth    bool     `json:"require_auth"`
	AuthToken      string   `json:"-"`
	ExtractBody    bool     `json:"extract_body"`
	ExtractQuery   bool     `json:"extract_query"`
	ExtractHeaders []string `json:"extract_headers"`

	RateLimit       int           `json:"rate_limit"` // 0 = unlimited
	RateLimitWindow time.Duration `json:"rate_limit_window"`
}

// Event is an in-process-event-activated trigger.
type Event struct {
	Base

	EventType    string         `json:"event_type"`
	SourceFilter string         `json:"source_filter,omitempty"`
	DataFilters  map[string]any `json:"data_filters,omitempty"`

	DebounceSeconds    int  `json:"debounce_seconds"`
	BatchEvents        bool `json:"batch_events"`
	BatchWindowSeconds int  `json:"batch_window_seconds"`
}

// ExecutionStatus is the status of one TriggerExecution record.
type ExecutionStatus string

const (
	ExecStatusRunning   ExecutionStatus = "running"
	ExecStatusSuccess   ExecutionStatus = "success"
	ExecStatusFailed    ExecutionStatus = "failed"
	ExecStatusTimeout   ExecutionStatus = "timeout"
	ExecStatusCancelled ExecutionStatus = "cancelled"
)

// Execution is a record of one trigger firing.
type Execution struct {
	ID          string          `json:"id"`
	TriggerID   string          `json:"trigger_id"`
	TriggerName string          `json:"trigger_name"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Status      ExecutionStatus `json:"status"`
	Error       string          `json:"error,omitempty"`
	RetryAttempt int            `json:"retry_attempt"`
	Result      map[string]any  `json:"result,omitempty"`
}

func (e *Execution) markSuccess(result map[string]any, now time.Time) {
	e.Status = ExecStatusSuccess
	e.CompletedAt = &now
	e.Result = result
}

func (e *Execution) markFailed(err error, now time.Time) {
	e.Status = ExecStatusFailed
	e.CompletedAt = &now
	e.Error = err.Error()
}
