package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/olegsavin/invoice-assistant/internal/config"
	"github.com/olegsavin/invoice-assistant/internal/core/ports"
	"github.com/olegsavin/invoice-assistant/internal/core/usecase"
	"github.com/olegsavin/invoice-assistant/internal/export"
	"github.com/olegsavin/invoice-assistant/internal/infrastructure/llm/gemini"
	"github.com/olegsavin/invoice-assistant/internal/infrastructure/parser/pdftext"
	"github.com/olegsavin/invoice-assistant/internal/infrastructure/queue/nats"
	"github.com/olegsavin/invoice-assistant/internal/infrastructure/repository/postgres"
	"github.com/olegsavin/invoice-assistant/internal/infrastructure/resilience"
	"github.com/olegsavin/invoice-assistant/internal/infrastructure/search"
	"github.com/olegsavin/invoice-assistant/internal/infrastructure/vector/qdrant"
	"github.com/olegsavin/invoice-assistant/internal/observability/logging"
)

type App struct {
	Config config.Config
	Log    *slog.Logger

	Repo     *postgres.InvoiceRepository
	IngestUC ports.InvoiceIngestor
	QueryUC  ports.QueryService
	Export   *export.Service

	queue   *nats.Queue
	closeFn func()
}

// New wires the full application. A nil logger defaults to the JSON daemon
// logger; CLIs pass a text logger so log lines stay off stdout.
func New(ctx context.Context, service string, cfg config.Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = logging.NewJSONLogger(service, cfg.LogLevel)
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewInvoiceRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	geminiClient := gemini.New(gemini.Options{
		BaseURL:           cfg.GeminiBaseURL,
		APIKey:            cfg.GeminiAPIKey,
		GenerationModel:   cfg.GeminiGenModel,
		EmbeddingModel:    cfg.GeminiEmbedModel,
		RequestsPerSecond: cfg.GeminiRPS,
		Resilience: resilience.Config{
			RetryMaxAttempts: cfg.RetryMaxAttempts,
		},
		Logger: log,
	})
	extractorClient := gemini.NewExtractor(geminiClient)
	intents := gemini.NewIntentResolver(geminiClient)
	generator := gemini.NewAnswerGenerator(geminiClient)
	embedder := gemini.NewEmbedder(geminiClient, cfg.VectorSize)

	index := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection, cfg.VectorSize)
	store := search.NewHybridStore(repo, index, log)

	extractUC := usecase.NewExtractInvoiceUseCase(extractorClient, log)
	ingestUC := usecase.NewIngestInvoiceUseCase(
		repo, index, pdftext.New(), extractUC, embedder, cfg.EmbedBatchSize, log)
	planner := usecase.NewQueryPlanner(cfg.DefaultTopK)
	queryUC := usecase.NewRetrieveUseCase(intents, planner, embedder, store, generator, log)

	app := &App{
		Config:   cfg,
		Log:      log,
		Repo:     repo,
		IngestUC: ingestUC,
		QueryUC:  queryUC,
		Export:   export.NewService(queryUC, log),
	}
	app.closeFn = func() {
		if app.queue != nil {
			app.queue.Close()
		}
		_ = db.Close()
	}
	return app, nil
}

// Queue connects to NATS lazily. Commands that never publish or consume
// skip the connection entirely.
func (a *App) Queue() (*nats.Queue, error) {
	if a.queue != nil {
		return a.queue, nil
	}
	queue, err := nats.New(a.Config.NATSURL, a.Config.NATSSubject)
	if err != nil {
		return nil, fmt.Errorf("init ingest queue: %w", err)
	}
	a.queue = queue
	return queue, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
