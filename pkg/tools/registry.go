package tools

import (
	"fmt"
	"sync"
)

// ErrAlreadyRegistered is returned by Register when a name collides and
// override is false.
var ErrAlreadyRegistered = fmt.Errorf("tool already registered")

// ErrToolNotFound is returned by Get/Invoke for an unknown tool name.
var ErrToolNotFound = fmt.Errorf("tool not found")

// Registry is a thread-safe name-to-Tool mapping, generalized to any
// capability record rather than only MCP-backed tools.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	tags  map[string][]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
		tags:  make(map[string][]string),
	}
}

// Register adds a tool under its own Name(). If override is false and the
// name already exists, returns ErrAlreadyRegistered.
func (r *Registry) Register(t Tool, tags []string, override bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := t.Name()
	if _, exists := r.tools[name]; exists && !override {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, name)
	}
	r.tools[name] = t
	r.tags[name] = tags
	return nil
}

// Unregister removes a tool by name. No-op if absent.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
	delete(r.tags, name)
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return t, nil
}

// Names returns every registered tool name.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// ByTag returns every tool registered with the given tag.
func (r *Registry) ByTag(tag string) []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []Tool
	for name, tags := range r.tags {
		for _, t := range tags {
			if t == tag {
				matched = append(matched, r.tools[name])
				break
			}
		}
	}
	return matched
}

// Definitions returns {name, description, schema} for every registered
// tool, the shape an LLM client needs to bind tools for native calling.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]Definition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, Definition{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.InputSchema(),
		})
	}
	return defs
}

// Definition is the wire shape of a tool's discoverable metadata.
type Definition struct {
	Name        string
	Description string
	InputSchema Schema
}

// Discover scans a slice of candidate values and registers every one that
// implements Tool, matching the discovery contract's "scan a directory /
// module and register every value that matches the tool protocol" (here,
// the caller supplies the candidate slice since Go has no runtime package
// scanning). Returns the count registered.
func (r *Registry) Discover(candidates []any, tags []string, override bool) int {
	registered := 0
	for _, c := range candidates {
		t, ok := c.(Tool)
		if !ok {
			continue
		}
		if err := r.Register(t, tags, override); err == nil {
			registered++
		}
	}
	return registered
}
