package triggers

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// FireFunc is invoked when a scheduled trigger fires.
type FireFunc func(ctx context.Context, t *Scheduled)

// Scheduler runs one goroutine per active Scheduled trigger, sleeping
// cooperatively until next_run_time and exiting on context cancellation.
type Scheduler struct {
	mu       sync.RWMutex
	triggers map[string]*Scheduled
	cancels  map[string]context.CancelFunc
	fire     FireFunc
	running  bool

	// now is overridable by tests so cron-boundary scenarios don't depend
	// on wall-clock time.
	now func() time.Time
}

// NewScheduler creates a Scheduler that invokes fire when any registered
// trigger's cron expression matches.
func NewScheduler(fire FireFunc) *Scheduler {
	return &Scheduler{
		triggers: make(map[string]*Scheduled),
		cancels:  make(map[string]context.CancelFunc),
		fire:     fire,
		now:      time.Now,
	}
}

// Start marks the scheduler running and starts a loop goroutine for every
// trigger already registered and active.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	toStart := make([]*Scheduled, 0, len(s.triggers))
	for _, t := range s.triggers {
		if t.Status == StatusActive {
			toStart = append(toStart, t)
		}
	}
	s.mu.Unlock()

	for _, t := range toStart {
		s.startLoop(ctx, t)
	}
	slog.Info("triggers: scheduler started")
}

// Stop cancels every running trigger loop. Waiting for acknowledgement is
// not required: contexts are cancelled and loops exit on their own at the
// next cooperative check.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	for id, cancel := range s.cancels {
		cancel()
		delete(s.cancels, id)
	}
	slog.Info("triggers: scheduler stopped")
}

// Add registers a scheduled trigger, computes its next_run_time, and (if the
// scheduler is running and the trigger is active) starts its loop. When
// run_immediately is set, the trigger also fires once synchronously here,
// before returning.
func (s *Scheduler) Add(ctx context.Context, t *Scheduled, loc *time.Location) error {
	next, err := nextRunTime(t.CronExpr, s.now(), loc)
	if err != nil {
		return err
	}
	t.NextRunTime = next

	s.mu.Lock()
	s.triggers[t.ID] = t
	running := s.running
	s.mu.Unlock()

	if running && t.Status == StatusActive {
		s.startLoop(ctx, t)
		if t.RunImmediately {
			s.executeOnce(ctx, t)
		}
	}
	return nil
}

// Remove stops and forgets a trigger.
func (s *Scheduler) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.cancels[id]; ok {
		cancel()
		delete(s.cancels, id)
	}
	delete(s.triggers, id)
}

// Pause stops a trigger's loop without forgetting it.
func (s *Scheduler) Pause(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.triggers[id]; ok {
		t.Status = StatusPaused
	}
	if cancel, ok := s.cancels[id]; ok {
		cancel()
		delete(s.cancels, id)
	}
}

// Resume reactivates a paused trigger and restarts its loop, recomputing
// next_run_time from the current instant (missed fires during the pause are
// skipped, matching catch_up=false).
func (s *Scheduler) Resume(ctx context.Context, id string, loc *time.Location) error {
	s.mu.Lock()
	t, ok := s.triggers[id]
	running := s.running
	s.mu.Unlock()
	if !ok || t.Status != StatusPaused {
		return nil
	}

	next, err := nextRunTime(t.CronExpr, s.now(), loc)
	if err != nil {
		return err
	}
	t.NextRunTime = next
	t.Status = StatusActive

	if running {
		s.startLoop(ctx, t)
	}
	return nil
}

func (s *Scheduler) startLoop(parent context.Context, t *Scheduled) {
	s.mu.Lock()
	if _, exists := s.cancels[t.ID]; exists {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(parent)
	s.cancels[t.ID] = cancel
	s.mu.Unlock()

	go s.loop(ctx, t)
}

func (s *Scheduler) loop(ctx context.Context, t *Scheduled) {
	for {
		s.mu.RLock()
		next := t.NextRunTime
		s.mu.RUnlock()

		wait := next.Sub(s.now())
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}

		s.mu.RLock()
		status := t.Status
		s.mu.RUnlock()
		if status != StatusActive {
			return
		}

		s.executeOnce(ctx, t)

		loc, err := time.LoadLocation(t.Timezone)
		if err != nil {
			loc = time.UTC
		}
		nxt, err := nextRunTime(t.CronExpr, s.now(), loc)
		if err != nil {
			slog.Error("triggers: failed to compute next run time", "trigger", t.ID, "error", err)
			return
		}
		s.mu.Lock()
		t.NextRunTime = nxt
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (s *Scheduler) executeOnce(ctx context.Context, t *Scheduled) {
	now := s.now()
	s.mu.Lock()
	t.LastExecutedAt = &now
	t.ExecutionCount++
	s.mu.Unlock()

	func() {
		defer func() {
			if r := recover(); r != nil {
				s.mu.Lock()
				t.FailureCount++
				s.mu.Unlock()
				slog.Error("triggers: scheduled trigger panicked", "trigger", t.ID, "panic", r)
			}
		}()
		s.fire(ctx, t)
	}()
}
