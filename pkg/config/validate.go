package config

import "fmt"

// validate checks the invariants the yaml `validate` tags document: a small
// fixed set of range checks on a handful of fields.
func validate(cfg *Config) error {
	if cfg.Run.MaxRevisions < 0 {
		return fmt.Errorf("run.max_revisions must be >= 0, got %d", cfg.Run.MaxRevisions)
	}
	if cfg.Run.RoutingConfidenceThreshold < 0 || cfg.Run.RoutingConfidenceThreshold > 1 {
		return fmt.Errorf("run.routing_confidence_threshold must be in [0,1], got %f", cfg.Run.RoutingConfidenceThreshold)
	}
	if cfg.Run.ToolCallLimit < 0 {
		return fmt.Errorf("run.tool_call_limit must be >= 0, got %d", cfg.Run.ToolCallLimit)
	}
	if cfg.Run.ToolRetryMaxAttempts < 1 {
		return fmt.Errorf("run.tool_retry_max_attempts must be >= 1, got %d", cfg.Run.ToolRetryMaxAttempts)
	}
	if cfg.Cache.SimilarityThreshold < 0 || cfg.Cache.SimilarityThreshold > 1 {
		return fmt.Errorf("cache.similarity_threshold must be in [0,1], got %f", cfg.Cache.SimilarityThreshold)
	}
	if cfg.Aggregate.MaxResultsPerQuery < 1 {
		return fmt.Errorf("aggregate.max_results_per_query must be >= 1, got %d", cfg.Aggregate.MaxResultsPerQuery)
	}
	if cfg.Aggregate.Tier1Threshold < cfg.Aggregate.Tier2Threshold {
		return fmt.Errorf("aggregate.tier1_threshold (%f) must be >= tier2_threshold (%f)", cfg.Aggregate.Tier1Threshold, cfg.Aggregate.Tier2Threshold)
	}
	if cfg.Trigger.ExecutionHistoryLimit < 1 {
		return fmt.Errorf("trigger.execution_history_limit must be >= 1, got %d", cfg.Trigger.ExecutionHistoryLimit)
	}
	return nil
}
