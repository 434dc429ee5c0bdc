package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool(name string) Tool {
	return Func{
		FuncName:        name,
		FuncDescription: "echoes its args",
		SchemaValue:     Schema{"type": "object"},
		Call: func(ctx context.Context, args map[string]any) (*ToolResult, error) {
			return &ToolResult{Success: true, Output: "ok"}, nil
		},
	}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("search"), []string{"web"}, false))

	got, err := r.Get("search")
	require.NoError(t, err)
	assert.Equal(t, "search", got.Name())
}

func TestRegistryRejectsDuplicateWithoutOverride(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("search"), nil, false))
	err := r.Register(echoTool("search"), nil, false)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestRegistryAllowsOverride(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("search"), nil, false))
	assert.NoError(t, r.Register(echoTool("search"), nil, true))
}

func TestRegistryGetUnknownReturnsNotFound(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("missing")
	assert.ErrorIs(t, err, ErrToolNotFound)
}

func TestRegistryByTag(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("search"), []string{"web"}, false))
	require.NoError(t, r.Register(echoTool("calc"), []string{"math"}, false))

	web := r.ByTag("web")
	require.Len(t, web, 1)
	assert.Equal(t, "search", web[0].Name())
}

func TestRegistryDefinitions(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("search"), nil, false))
	defs := r.Definitions()
	require.Len(t, defs, 1)
	assert.Equal(t, "search", defs[0].Name)
}

func TestRegistryDiscoverSkipsNonTools(t *testing.T) {
	r := NewRegistry()
	candidates := []any{echoTool("search"), "not a tool", 42}
	n := r.Discover(candidates, nil, false)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"search"}, r.Names())
}

func TestRegistryUnregister(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("search"), nil, false))
	r.Unregister("search")
	_, err := r.Get("search")
	assert.ErrorIs(t, err, ErrToolNotFound)
}
