package config

import "time"

// Default returns the system-wide baseline every loaded/overridden config
// is mergo-merged onto: cache sizing, aggregation limits, the routing
// confidence threshold, and trigger execution history retention.
func Default() *Config {
	return &Config{
		Run: RunConfig{
			MaxRevisions:               1,
			RoutingConfidenceThreshold: 0.6,
			AllowInterrupts:            false,
			HumanReview:                false,
			ToolCallLimit:              0,
			ToolRetry:                  true,
			ToolRetryMaxAttempts:       3,
			ToolRetryBackoff:           500 * time.Millisecond,
			TrimMessages:               true,
			TrimMessagesKeepFirst:      2,
			TrimMessagesKeepLast:       10,
			SummaryMessages:            false,
			SummaryMessagesTrigger:     0.8,
		},
		Cache: CacheConfig{
			MaxSize:             100,
			TTL:                 time.Hour,
			SimilarityThreshold: 0.85,
		},
		Aggregate: AggregateConfig{
			MaxResultsPerQuery: 3,
			ContentSimilarity:  0.7,
			Tier1Threshold:     0.6,
			Tier2Threshold:     0.3,
			EvidenceMax1:       10,
			EvidenceMax2:       10,
			EvidenceMax3:       5,
			EvidenceMaxChars:   12000,
		},
		Trigger: TriggerConfig{
			ExecutionHistoryLimit: 100,
			WebhookTimezone:       "UTC",
			RateLimitWindow:       time.Minute,
			RateLimitMaxRequests:  60,
		},
	}
}
