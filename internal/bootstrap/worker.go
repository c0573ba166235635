package bootstrap

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mirahq/ingest-manager/internal/config"
	"github.com/mirahq/ingest-manager/internal/database"
	"github.com/mirahq/ingest-manager/internal/events"
	"github.com/mirahq/ingest-manager/internal/llm"
	"github.com/mirahq/ingest-manager/internal/logger"
	"github.com/mirahq/ingest-manager/internal/metrics"
	"github.com/mirahq/ingest-manager/internal/processor"
	"github.com/mirahq/ingest-manager/internal/repository"
	"github.com/mirahq/ingest-manager/internal/scrape"
	"github.com/mirahq/ingest-manager/internal/worker"
)

// SetupWorker wires the claim loop with its processor, metrics included.
// The returned registry also backs the /metrics endpoint.
func SetupWorker(
	cfg *config.Config,
	db *database.DB,
	publisher *events.Publisher,
	log logger.Logger,
) (*worker.Runner, *prometheus.Registry) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	sourceRepo := repository.NewSourceRepository(db.DB(), log)
	itemRepo := repository.NewItemRepository(db.DB(), log)
	tagRepo := repository.NewTagRepository(db.DB(), log)

	llmClient := llm.New(llm.Config{
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		MaxTokens:   int64(cfg.LLM.MaxTokens),
		TagsEnabled: cfg.LLM.TagsEnabled,
	}, log)

	proc := processor.New(
		sourceRepo,
		itemRepo,
		tagRepo,
		scrape.New(cfg.Worker.FetchTimeout),
		llmClient,
		llmClient,
		m,
		log,
		processor.Config{
			MaxTags: cfg.LLM.MaxTags,
		},
	)

	runner := worker.New(sourceRepo, itemRepo, proc, publisher, m, log, worker.Config{
		IdleDelay: cfg.Worker.IdleDelay,
		JobDelay:  cfg.Worker.JobDelay,
	})

	return runner, registry
}
