package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultBaseline(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1, cfg.Run.MaxRevisions)
	assert.Equal(t, 0.6, cfg.Run.RoutingConfidenceThreshold)
	assert.True(t, cfg.Run.ToolRetry)
	assert.Equal(t, 3, cfg.Run.ToolRetryMaxAttempts)
	assert.Equal(t, 100, cfg.Cache.MaxSize)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 3, cfg.Aggregate.MaxResultsPerQuery)
	assert.Equal(t, 100, cfg.Trigger.ExecutionHistoryLimit)
	require.NoError(t, validate(cfg))
}

func TestUnmarshalSearchModeBareString(t *testing.T) {
	var run RunConfig
	err := yaml.Unmarshal([]byte("search_mode: deep\nmax_revisions: 2\n"), &run)
	require.NoError(t, err)
	assert.Equal(t, "deep", run.SearchModeRaw)
	assert.Nil(t, run.SearchMode)
	assert.Equal(t, 2, run.MaxRevisions)
	assert.Equal(t, "deep", run.EffectiveOverride())
}

func TestUnmarshalSearchModeMapping(t *testing.T) {
	var run RunConfig
	err := yaml.Unmarshal([]byte("search_mode:\n  use_web: true\n  use_agent: false\nallow_interrupts: true\n"), &run)
	require.NoError(t, err)
	assert.Empty(t, run.SearchModeRaw)
	require.NotNil(t, run.SearchMode)
	assert.True(t, run.SearchMode.UseWeb)
	assert.False(t, run.SearchMode.UseAgent)
	assert.True(t, run.AllowInterrupts)
	assert.Equal(t, "web", run.EffectiveOverride())
}

func TestUnmarshalSearchModeMappingDeepWins(t *testing.T) {
	var run RunConfig
	err := yaml.Unmarshal([]byte("search_mode:\n  use_web: true\n  use_deep_search: true\n"), &run)
	require.NoError(t, err)
	assert.Equal(t, "deep", run.EffectiveOverride())
}

func TestEffectiveOverrideEmptyWhenUnset(t *testing.T) {
	var run RunConfig
	assert.Equal(t, "", run.EffectiveOverride())
}

func TestLoadMergesUserYAMLOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
run:
  max_revisions: 5
  search_mode: web
cache:
  max_size: 500
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Run.MaxRevisions)
	assert.Equal(t, "web", cfg.Run.SearchModeRaw)
	assert.Equal(t, 500, cfg.Cache.MaxSize)
	// untouched defaults survive the merge
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 3, cfg.Aggregate.MaxResultsPerQuery)
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("DEEPSEARCH_TEST_MODEL", "gpt-test")
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("run:\n  model: ${DEEPSEARCH_TEST_MODEL}\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-test", cfg.Run.Model)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("run:\n  routing_confidence_threshold: 1.5\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateRejectsOutOfRangeFields(t *testing.T) {
	cases := []func(*Config){
		func(c *Config) { c.Run.MaxRevisions = -1 },
		func(c *Config) { c.Run.RoutingConfidenceThreshold = 1.1 },
		func(c *Config) { c.Run.ToolRetryMaxAttempts = 0 },
		func(c *Config) { c.Cache.SimilarityThreshold = -0.1 },
		func(c *Config) { c.Aggregate.MaxResultsPerQuery = 0 },
		func(c *Config) { c.Aggregate.Tier1Threshold = 0.1; c.Aggregate.Tier2Threshold = 0.5 },
		func(c *Config) { c.Trigger.ExecutionHistoryLimit = 0 },
	}
	for _, mutate := range cases {
		cfg := Default()
		mutate(cfg)
		assert.Error(t, validate(cfg))
	}
}

func TestMergeRunOverrides(t *testing.T) {
	base := Default()
	overrides := RunConfig{MaxRevisions: 9, SearchModeRaw: "agent"}

	merged, err := MergeRunOverrides(base, overrides)
	require.NoError(t, err)
	assert.Equal(t, 9, merged.Run.MaxRevisions)
	assert.Equal(t, "agent", merged.Run.SearchModeRaw)
	// base is untouched
	assert.Equal(t, 1, base.Run.MaxRevisions)
	// unrelated defaults survive the override merge
	assert.Equal(t, 3, merged.Run.ToolRetryMaxAttempts)
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("DEEPSEARCH_TEST_VAR", "hello")
	out := ExpandEnv([]byte("value: ${DEEPSEARCH_TEST_VAR}"))
	assert.Equal(t, "value: hello", string(out))
}
