// Package config loads and validates run configuration: the per-run knobs
// that govern routing, revision budgets, interrupts, tool retry, and
// message trimming, plus the system-wide defaults every run falls back to
// absent an override. A loaded file is mergo-merged over the built-in
// defaults, and a per-request override is mergo-merged over that again.
package config

import (
	"time"

	"gopkg.in/yaml.v3"
)

// SearchModeConfig is the structured form of config.search_mode, an
// alternative to the bare string override ("direct"|"web"|"deep"|"agent"|
// "clarify") that instead toggles individual capabilities.
type SearchModeConfig struct {
	UseWeb        bool `yaml:"use_web"`
	UseAgent      bool `yaml:"use_agent"`
	UseDeepSearch bool `yaml:"use_deep_search"`
}

// AgentProfile gates which tool families a run may use.
type AgentProfile struct {
	EnabledTools map[string]bool `yaml:"enabled_tools"`
}

// RunConfig is the full set of per-run overrides a YAML file or API
// request may supply.
type RunConfig struct {
	Model          string `yaml:"model"`
	ReasoningModel string `yaml:"reasoning_model"`

	// search_mode accepts either a bare route string ("direct"|"web"|
	// "deep"|"agent"|"clarify") or a capability-toggle object; SearchMode
	// is populated when the YAML value was a mapping. Either form bypasses
	// the router classifier entirely.
	SearchModeRaw string            `yaml:"search_mode"`
	SearchMode    *SearchModeConfig `yaml:"-"`

	MaxRevisions               int     `yaml:"max_revisions" validate:"min=0"`
	RoutingConfidenceThreshold float64 `yaml:"routing_confidence_threshold" validate:"min=0,max=1"`

	AllowInterrupts bool `yaml:"allow_interrupts"`
	HumanReview     bool `yaml:"human_review"`

	ToolCallLimit        int           `yaml:"tool_call_limit" validate:"min=0"`
	ToolRetry            bool          `yaml:"tool_retry"`
	ToolRetryMaxAttempts int           `yaml:"tool_retry_max_attempts" validate:"min=1"`
	ToolRetryBackoff     time.Duration `yaml:"tool_retry_backoff"`

	AgentProfile AgentProfile `yaml:"agent_profile"`

	TrimMessages           bool    `yaml:"trim_messages"`
	TrimMessagesKeepFirst  int     `yaml:"trim_messages_keep_first"`
	TrimMessagesKeepLast   int     `yaml:"trim_messages_keep_last"`
	SummaryMessages        bool    `yaml:"summary_messages"`
	SummaryMessagesTrigger float64 `yaml:"summary_messages_trigger"`
}

// runConfigAlias exists only so UnmarshalYAML can decode the fields that
// aren't polymorphic without recursing into itself.
type runConfigAlias RunConfig

// UnmarshalYAML handles search_mode's two accepted shapes: a bare
// route string, or a mapping of capability toggles. The mapping shape
// can't decode directly into SearchModeRaw (a string), so its node is
// extracted and blanked out before the rest of the struct decodes
// normally through the alias.
func (r *RunConfig) UnmarshalYAML(value *yaml.Node) error {
	var mode *SearchModeConfig
	for i := 0; i+1 < len(value.Content); i += 2 {
		if value.Content[i].Value != "search_mode" {
			continue
		}
		node := value.Content[i+1]
		if node.Kind != yaml.MappingNode {
			continue
		}
		var m SearchModeConfig
		if err := node.Decode(&m); err != nil {
			return err
		}
		mode = &m
		node.Kind = yaml.ScalarNode
		node.Tag = "!!str"
		node.Value = ""
		node.Content = nil
	}

	var alias runConfigAlias
	if err := value.Decode(&alias); err != nil {
		return err
	}
	*r = RunConfig(alias)
	r.SearchMode = mode
	return nil
}

// EffectiveOverride resolves search_mode to the bare route string the
// router consults for its bypass check, deriving one from the
// capability-toggle form when that's what was supplied.
func (r RunConfig) EffectiveOverride() string {
	if r.SearchModeRaw != "" {
		return r.SearchModeRaw
	}
	if r.SearchMode == nil {
		return ""
	}
	switch {
	case r.SearchMode.UseDeepSearch:
		return "deep"
	case r.SearchMode.UseAgent:
		return "agent"
	case r.SearchMode.UseWeb:
		return "web"
	default:
		return ""
	}
}

// CacheConfig configures the search cache (size/TTL/similarity).
type CacheConfig struct {
	MaxSize             int           `yaml:"max_size"`
	TTL                 time.Duration `yaml:"ttl"`
	SimilarityThreshold float64       `yaml:"similarity_threshold" validate:"min=0,max=1"`
}

// AggregateConfig configures result aggregation (tiering/result caps).
type AggregateConfig struct {
	MaxResultsPerQuery int     `yaml:"max_results_per_query" validate:"min=1"`
	ContentSimilarity  float64 `yaml:"content_similarity" validate:"min=0,max=1"`
	Tier1Threshold     float64 `yaml:"tier1_threshold" validate:"min=0,max=1"`
	Tier2Threshold     float64 `yaml:"tier2_threshold" validate:"min=0,max=1"`
	EvidenceMax1       int     `yaml:"evidence_max1"`
	EvidenceMax2       int     `yaml:"evidence_max2"`
	EvidenceMax3       int     `yaml:"evidence_max3"`
	EvidenceMaxChars   int     `yaml:"evidence_max_chars"`
}

// TriggerConfig configures the trigger manager (execution history, rate limiting).
type TriggerConfig struct {
	ExecutionHistoryLimit int           `yaml:"execution_history_limit" validate:"min=1"`
	WebhookTimezone       string        `yaml:"webhook_timezone"`
	RateLimitWindow       time.Duration `yaml:"rate_limit_window"`
	RateLimitMaxRequests  int           `yaml:"rate_limit_max_requests"`
}

// Config is the full merged configuration: system-wide defaults plus the
// default run options a caller's per-request overrides are mergo-merged
// onto.
type Config struct {
	Run       RunConfig       `yaml:"run"`
	Cache     CacheConfig     `yaml:"cache"`
	Aggregate AggregateConfig `yaml:"aggregate"`
	Trigger   TriggerConfig   `yaml:"trigger"`
}
