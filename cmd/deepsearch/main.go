// Command deepsearch runs the research-agent orchestration service: the
// graph engine, the search cache, and the trigger manager behind a single
// gin HTTP process exposing the webhook surface and a health check.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/codeready-toolchain/deepsearch/pkg/aggregate"
	"github.com/codeready-toolchain/deepsearch/pkg/cache"
	"github.com/codeready-toolchain/deepsearch/pkg/cleanup"
	"github.com/codeready-toolchain/deepsearch/pkg/config"
	"github.com/codeready-toolchain/deepsearch/pkg/graph"
	"github.com/codeready-toolchain/deepsearch/pkg/llm"
	"github.com/codeready-toolchain/deepsearch/pkg/masking"
	"github.com/codeready-toolchain/deepsearch/pkg/nodes"
	"github.com/codeready-toolchain/deepsearch/pkg/runstate"
	"github.com/codeready-toolchain/deepsearch/pkg/search"
	"github.com/codeready-toolchain/deepsearch/pkg/tools"
	"github.com/codeready-toolchain/deepsearch/pkg/triggers"
	"github.com/codeready-toolchain/deepsearch/pkg/verify"
	"github.com/codeready-toolchain/deepsearch/pkg/version"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "Path to configuration directory")
	configFile := flag.String("config-file", getEnv("CONFIG_FILE", ""), "Path to a run-configuration YAML file (empty = defaults only)")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("warning: could not load %s: %v", envPath, err)
		log.Printf("continuing with existing environment variables")
	} else {
		log.Printf("loaded environment from %s", envPath)
	}

	httpPort := getEnv("HTTP_PORT", "8080")
	gin.SetMode(getEnv("GIN_MODE", "release"))

	slog.Info("starting deepsearch", "version", version.Full(), "config_dir", *configDir, "http_port", httpPort)

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	idNode, err := snowflake.NewNode(1)
	if err != nil {
		log.Fatalf("failed to create snowflake node: %v", err)
	}

	deps := buildDeps(cfg)

	cancelRegistry := graph.NewCancelRegistry()
	checkpointer, checkpointBackend := buildCheckpointer(context.Background())

	g, err := nodes.Build(deps, cancelRegistry, checkpointer)
	if err != nil {
		log.Fatalf("failed to build graph: %v", err)
	}

	triggerMgr := triggers.NewManager(triggers.Config{ExecutionHistoryLimit: cfg.Trigger.ExecutionHistoryLimit}, idNode)
	triggerMgr.SetExecutor(func(ctx context.Context, agentID, task string, params map[string]any) (map[string]any, error) {
		run := &runstate.Run{
			RunID:        uuid.New().String(),
			ThreadID:     agentID,
			Input:        task,
			MaxRevisions: cfg.Run.MaxRevisions,
		}
		result, err := g.Run(ctx, run)
		if err != nil {
			return nil, err
		}
		return map[string]any{"run_id": run.RunID, "final_report": result.Run.FinalReport}, nil
	})

	startCtx, cancelTriggers := context.WithCancel(context.Background())
	defer cancelTriggers()
	triggerMgr.Start(startCtx)
	defer triggerMgr.Stop()

	janitor := cleanup.NewService(deps.Cache, cfg.Cache.TTL/4)
	janitor.Start(startCtx)
	defer janitor.Stop()

	router := gin.New()
	router.Use(gin.Recovery())
	triggerMgr.Webhook().RegisterRoutes(router, "/webhooks")

	router.GET("/health", func(c *gin.Context) {
		info := version.Report(checkpointBackend)
		c.JSON(http.StatusOK, gin.H{
			"status":             "healthy",
			"version":            info.Version,
			"checkpoint_backend": info.CheckpointBackend,
			"triggers": gin.H{
				"active": len(triggerMgr.List("")),
			},
		})
	})

	router.POST("/runs", func(c *gin.Context) {
		var body struct {
			Input     string           `json:"input"`
			Overrides config.RunConfig `json:"overrides"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		merged, err := config.MergeRunOverrides(cfg, body.Overrides)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		run := &runstate.Run{
			RunID:        uuid.New().String(),
			Input:        body.Input,
			MaxRevisions: merged.Run.MaxRevisions,
		}
		reqCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Minute)
		defer cancel()

		result, err := g.Run(reqCtx, run)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "run_id": run.RunID})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"run_id":       run.RunID,
			"final_report": result.Run.FinalReport,
			"is_complete":  result.Run.IsComplete,
		})
	})

	slog.Info("http server listening", "port", httpPort)
	if err := router.Run(":" + httpPort); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

// buildDeps assembles the process-wide collaborators every node closes
// over. LLM and search providers are external collaborators consumed only
// by interface; the mock clients here are the pluggable default a real
// deployment replaces by constructing its own llm.Client/search.Client and
// passing it through the same Deps shape.
func buildDeps(cfg *config.Config) nodes.Deps {
	llmClient := llm.NewMockClient(&llm.Response{Content: "no LLM provider configured", FinishReason: llm.FinishStop})
	searchClient := search.NewMockClient(nil)

	registry := tools.NewRegistry()
	_ = registry.Register(nodes.NewSearchTool(searchClient), []string{"search"}, false)

	retry := tools.RetryPolicy{
		Enabled:     cfg.Run.ToolRetry,
		MaxAttempts: cfg.Run.ToolRetryMaxAttempts,
		Backoff:     cfg.Run.ToolRetryBackoff,
	}
	invoker := tools.NewInvoker(registry, cfg.Run.ToolCallLimit, retry)

	return nodes.Deps{
		LLM:                 llmClient,
		Search:              searchClient,
		Cache:               cache.New(cfg.Cache.MaxSize, cfg.Cache.TTL, cfg.Cache.SimilarityThreshold),
		Dedup:               cache.NewDeduplicator(cfg.Aggregate.ContentSimilarity),
		Invoker:             invoker,
		Verifier:            verify.New(4),
		Masker:              masking.NewService(),
		ConfidenceThreshold: cfg.Run.RoutingConfidenceThreshold,
		SearchModeOverride:  cfg.Run.EffectiveOverride(),
		MaxResultsPerQuery:  cfg.Aggregate.MaxResultsPerQuery,
		MaxRevisions:        cfg.Run.MaxRevisions,
		AllowInterrupts:     cfg.Run.AllowInterrupts,
		HumanReviewEnabled:  cfg.Run.HumanReview,
		AggregateOptions: aggregate.Options{
			MaxResultsPerQuery: cfg.Aggregate.MaxResultsPerQuery,
			ContentSimilarity:  cfg.Aggregate.ContentSimilarity,
			Tier1Threshold:     cfg.Aggregate.Tier1Threshold,
			Tier2Threshold:     cfg.Aggregate.Tier2Threshold,
		},
		EvidenceMax1:     cfg.Aggregate.EvidenceMax1,
		EvidenceMax2:     cfg.Aggregate.EvidenceMax2,
		EvidenceMax3:     cfg.Aggregate.EvidenceMax3,
		EvidenceMaxChars: cfg.Aggregate.EvidenceMaxChars,
	}
}

// buildCheckpointer prefers a durable Postgres checkpointer when
// DATABASE_URL is configured, falling back to the in-memory checkpointer
// for local runs and tests: durability is a deployment concern the graph
// engine itself stays agnostic to. The returned backend name is surfaced
// through the health endpoint.
func buildCheckpointer(ctx context.Context) (graph.Checkpointer, string) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		slog.Info("DATABASE_URL not set, using in-memory checkpointer")
		return graph.NewMemoryCheckpointer(), "memory"
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		slog.Warn("failed to connect to postgres, falling back to in-memory checkpointer", "error", err)
		return graph.NewMemoryCheckpointer(), "memory"
	}
	slog.Info("connected to postgres checkpoint store")
	return graph.NewPostgresCheckpointer(pool), "postgres"
}
