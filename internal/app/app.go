package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"CasePublisher/internal/config"
	"CasePublisher/internal/domain"
	"CasePublisher/internal/extraction"
	"CasePublisher/internal/infrastructure/content"
	"CasePublisher/internal/infrastructure/fetch"
	"CasePublisher/internal/infrastructure/gcs"
	"CasePublisher/internal/infrastructure/llm"
	"CasePublisher/internal/infrastructure/media"
	"CasePublisher/internal/infrastructure/storage"
	"CasePublisher/internal/library"
	"CasePublisher/internal/logging"
	"CasePublisher/internal/ports"
	"CasePublisher/internal/scanner"
	"CasePublisher/internal/usecase"
	"CasePublisher/internal/vocabulary"
)

// Application wires configs to use cases.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	library    ports.ResourceLibrary
	vocabulary *vocabulary.Registry
	drafts     *content.DraftStore
	published  *content.PublishedStore
	closers    []io.Closer
}

// New builds the stores every command needs. Provider clients are created per publish run.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	a := &Application{
		cfg:        cfg,
		logger:     baseLogger,
		vocabulary: vocabulary.New(cfg.Paths.Vocabulary, content.NewCorpus(cfg.Paths.Content), baseLogger.With("component", "vocabulary")),
		drafts:     content.NewDraftStore(cfg.Paths.Drafts, cfg.Paths.ArchiveDir, baseLogger),
		published:  content.NewPublishedStore(cfg.Paths.Content),
	}

	switch cfg.Library.Backend {
	case config.BackendSQLite:
		lib, err := storage.OpenSQLiteLibrary(ctx, cfg.Library.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open library: %w", err)
		}
		a.library = lib
		a.closers = append(a.closers, lib)
	case config.BackendJSON, "":
		a.library = library.NewJSONLibrary(cfg.Paths.Library, baseLogger.With("component", "library"))
	default:
		return nil, fmt.Errorf("unknown library backend %q", cfg.Library.Backend)
	}

	return a, nil
}

// Close releases open stores.
func (a *Application) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Library exposes the resource library.
func (a *Application) Library() ports.ResourceLibrary {
	return a.library
}

// Vocabulary exposes the canonical vocabulary registry.
func (a *Application) Vocabulary() *vocabulary.Registry {
	return a.vocabulary
}

// Drafts lists pending drafts.
func (a *Application) Drafts(ctx context.Context) ([]domain.DraftSummary, error) {
	return a.drafts.List(ctx)
}

// Publish wires providers and runs the pipeline once.
func (a *Application) Publish(ctx context.Context, opts usecase.PublishOptions, prompter ports.Prompter) (domain.PublishReport, error) {
	mediaClient := media.NewClient(a.cfg.Media)

	var documents ports.DocumentUploader
	if a.cfg.Documents.Bucket != "" {
		uploader, err := gcs.NewUploader(ctx, a.cfg.Documents, a.logger)
		if err != nil {
			return domain.PublishReport{}, fmt.Errorf("document storage: %w", err)
		}
		defer uploader.Close()
		documents = uploader
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Drafts:     a.drafts,
		Published:  a.published,
		Vocabulary: a.vocabulary,
		Classifier: scanner.DefaultRegistry(),
		Extraction: extraction.NewService(llm.NewChatGPTClient(a.cfg.Extraction, extraction.Icons), a.logger),
		Uploader: usecase.NewUploader(usecase.UploaderDeps{
			Library:    a.library,
			Videos:     mediaClient,
			Images:     mediaClient,
			Documents:  documents,
			Downloader: fetch.NewDownloader(a.cfg.Fetch),
			Logger:     a.logger,
		}),
		Prompter:      prompter,
		Concurrency:   a.cfg.Pipeline.Concurrency,
		ContextRadius: a.cfg.Pipeline.ContextRadius,
		Logger:        a.logger,
	})

	return pipeline.Publish(ctx, opts)
}
