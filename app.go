package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-command/pkg/adapters/datasource"
	_ "github.com/ekaya-inc/ekaya-command/pkg/adapters/datasource/mssql"
	_ "github.com/ekaya-inc/ekaya-command/pkg/adapters/datasource/postgres"
	_ "github.com/ekaya-inc/ekaya-command/pkg/adapters/datasource/sqlite"
	"github.com/ekaya-inc/ekaya-command/pkg/config"
	"github.com/ekaya-inc/ekaya-command/pkg/embedding"
	"github.com/ekaya-inc/ekaya-command/pkg/interpret"
	"github.com/ekaya-inc/ekaya-command/pkg/lexicon"
	"github.com/ekaya-inc/ekaya-command/pkg/logging"
	"github.com/ekaya-inc/ekaya-command/pkg/metrics"
	"github.com/ekaya-inc/ekaya-command/pkg/nlp"
	"github.com/ekaya-inc/ekaya-command/pkg/retry"
	"github.com/ekaya-inc/ekaya-command/pkg/synonyms"
)

const embeddingWarmTimeout = 30 * time.Second

// app holds the process-scoped collaborators shared by every command.
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	store      datasource.SchemaDiscoverer
	cache      *lexicon.Cache
	engine     *interpret.Engine
	metrics    *metrics.Metrics
	embeddings *embedding.Client
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	syn, err := synonyms.Load(cfg.Lexicon.SynonymsPath, logger)
	if err != nil {
		return nil, fmt.Errorf("load synonyms: %w", err)
	}

	store, err := datasource.NewSchemaDiscoverer(ctx, cfg.Store.Type, cfg.Store.StoreSettings(), logger)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Type, err)
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		metrics: metrics.New(),
	}

	a.cache = lexicon.NewCache(
		lexicon.NewBuilder(store, cfg.Lexicon.SampleLimit, cfg.Lexicon.SampleConcurrency, logger),
		lexicon.CompileOptions{Synonyms: syn, Vocabulary: interpret.Vocabulary()},
		a.metrics,
		logger,
	)

	opts := interpret.Options{
		FuzzyCutoff:         cfg.Matching.FuzzyCutoff,
		SynonymThreshold:    cfg.Matching.SynonymThreshold,
		SemanticThreshold:   cfg.Matching.SemanticThreshold,
		ModuleNameThreshold: cfg.Matching.ModuleNameThreshold,
		Observer:            a.metrics,
	}
	if cfg.Embedding.IsAvailable() {
		a.embeddings, err = embedding.NewClient(&embedding.Config{
			Endpoint:  cfg.Embedding.BaseURL,
			Model:     cfg.Embedding.Model,
			APIKey:    cfg.Embedding.APIKey,
			CacheSize: cfg.Embedding.CacheSize,
		}, logger)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("create embeddings client: %w", err)
		}
		opts.Similarity = a.embeddings
		a.cache.OnPublish(a.warmEmbeddings)
	}

	a.engine = interpret.NewEngine(a.cache, newParser(cfg.NLP.Engine, logger), syn, opts, logger)
	return a, nil
}

func newParser(engine string, logger *zap.Logger) nlp.Parser {
	if engine == "rules" {
		return nlp.RuleParser{}
	}
	return nlp.NewProseParser(logger)
}

// initialRefresh publishes the first snapshot, retrying while the store is
// unreachable.
func (a *app) initialRefresh(ctx context.Context) error {
	return retry.DoIfRetryable(ctx, retry.DefaultConfig(), a.logger, func() error {
		_, err := a.cache.Refresh(ctx)
		return err
	})
}

// warmEmbeddings fetches the vectors of newly published module names in the
// background so semantic matching does not pay for them on a request.
func (a *app) warmEmbeddings(snap *lexicon.Snapshot) {
	names := snap.ModuleNames()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), embeddingWarmTimeout)
		defer cancel()
		if err := a.embeddings.Warm(ctx, names); err != nil {
			a.logger.Warn("Failed to warm module embeddings",
				zap.String("snapshot_id", snap.ID),
				zap.String("error", logging.SanitizeError(err)))
		}
	}()
}

// Close releases the store connection and the embeddings cache.
func (a *app) Close() {
	if a.embeddings != nil {
		a.embeddings.Close()
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("Failed to close store", zap.Error(err))
	}
}
