package triggers

import (
	"strings"
	"sync"
	"time"
)

// EventFireFunc is invoked when an emitted event matches a registered Event
// trigger.
type EventFireFunc func(t *Event, eventType string, data map[string]any, source string)

// EventRegistry maintains event_type → [triggers] and dispatches matching
// triggers on Emit.
type EventRegistry struct {
	mu       sync.RWMutex
	byType   map[string][]*Event
	lastFire map[string]time.Time // trigger id -> last fire time, for debounce
	fire     EventFireFunc
	now      func() time.Time
}

// NewEventRegistry creates a registry that invokes fire for every trigger an
// Emit call matches.
func NewEventRegistry(fire EventFireFunc) *EventRegistry {
	return &EventRegistry{
		byType:   make(map[string][]*Event),
		lastFire: make(map[string]time.Time),
		fire:     fire,
		now:      time.Now,
	}
}

// Register adds an event trigger under its event type.
func (r *EventRegistry) Register(t *Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byType[t.EventType] = append(r.byType[t.EventType], t)
}

// Unregister removes an event trigger.
func (r *EventRegistry) Unregister(t *Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	triggers := r.byType[t.EventType]
	for i, existing := range triggers {
		if existing.ID == t.ID {
			r.byType[t.EventType] = append(triggers[:i], triggers[i+1:]...)
			break
		}
	}
	delete(r.lastFire, t.ID)
}

// Emit fires every active trigger registered for eventType whose
// source_filter and data_filters match, applying per-trigger debounce.
func (r *EventRegistry) Emit(eventType string, data map[string]any, source string) {
	r.mu.RLock()
	candidates := append([]*Event(nil), r.byType[eventType]...)
	r.mu.RUnlock()

	now := r.now()
	for _, t := range candidates {
		if t.Status != StatusActive {
			continue
		}
		if t.SourceFilter != "" && t.SourceFilter != source {
			continue
		}
		if !matchFilters(data, t.DataFilters) {
			continue
		}
		if t.DebounceSeconds > 0 {
			r.mu.Lock()
			last, seen := r.lastFire[t.ID]
			debounced := seen && now.Sub(last) < time.Duration(t.DebounceSeconds)*time.Second
			if !debounced {
				r.lastFire[t.ID] = now
			}
			r.mu.Unlock()
			if debounced {
				continue
			}
		}
		r.fire(t, eventType, data, source)
	}
}

// matchFilters checks dot-path equality against data, walking nested maps
// one "." separated part at a time.
func matchFilters(data map[string]any, filters map[string]any) bool {
	for key, expected := range filters {
		var cursor any = data
		for _, part := range strings.Split(key, ".") {
			m, ok := cursor.(map[string]any)
			if !ok {
				return false
			}
			cursor, ok = m[part]
			if !ok {
				return false
			}
		}
		if cursor != expected {
			return false
		}
	}
	return true
}
