package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"smartsummarizer/cache"
	"smartsummarizer/core"
	"smartsummarizer/db"
	"smartsummarizer/llm"
	"smartsummarizer/logging"
	"smartsummarizer/metrics"
	"smartsummarizer/pipeline"
	"smartsummarizer/shutdown"

	"go.uber.org/zap"
)

// How often expired history rows are removed.
const retentionInterval = time.Hour

// app holds everything built from the configuration that both the web page
// and the summarize command need.
type app struct {
	cfg     *core.Config
	logger  *logging.Logger
	llm     llm.Config
	service *pipeline.Service
	metrics *metrics.Store
	prom    *metrics.Prometheus

	cache    cache.Cache
	database *db.Database
	repo     *db.Repository
}

// newApp builds the cache, the history database and the summarization
// pipeline. The LLM credential is not checked here; callers decide when.
func newApp(cfg *core.Config, logger *logging.Logger) (*app, error) {
	a := &app{
		cfg:    cfg,
		logger: logger,
		llm:    llm.FromCoreConfig(cfg),
		metrics: metrics.NewStore(metrics.StoreConfig{
			HistoryCapacity: 100,
			Version:         core.GetVersionInfo(),
			DegradedAfter:   3,
		}, time.Now()),
	}

	prompts, err := llm.LoadPromptSet(cfg.PromptsFile)
	if err != nil {
		return nil, err
	}
	procCfg, err := pipeline.ProcessorConfig(cfg)
	if err != nil {
		return nil, err
	}

	a.cache, err = cache.New(cache.Config{
		Backend:  cfg.CacheBackend,
		Size:     cfg.CacheSize,
		TTL:      cfg.CacheTTL,
		RedisURL: cfg.RedisURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	opts := pipeline.Options{
		LLM:       a.llm,
		Prompts:   prompts,
		Processor: procCfg,
		Cache:     a.cache,
		Metrics:   a.metrics,
		Logger:    logger,
	}
	if cfg.MetricsEnabled {
		a.prom = metrics.NewPrometheus()
		opts.Metrics = metrics.Multi{a.metrics, a.prom}
	}

	if historyEnabled(cfg.HistoryDB) {
		a.database, err = db.Open(cfg.HistoryDB)
		if err != nil {
			a.cache.Close()
			return nil, fmt.Errorf("failed to open history database: %w", err)
		}
		a.repo = db.NewRepository(a.database)
		writerCfg := db.DefaultAsyncWriterConfig()
		writerCfg.OnError = func(err error) {
			logger.Warn("Failed to store summary in history", zap.Error(err))
		}
		a.repo.StartAsync(writerCfg)
		opts.History = a.repo
	}

	a.service, err = pipeline.New(opts)
	if err != nil {
		a.close()
		return nil, err
	}

	provider, model := a.service.Provider()
	logger.Info("Summarizer configured",
		zap.String("provider", provider),
		zap.String("model", model),
		zap.Bool("has_default_key", a.service.HasDefaultKey()),
		zap.Int("chunk_size", cfg.ChunkSize),
		zap.Int("chunk_overlap", cfg.ChunkOverlap),
		zap.String("chunk_length_unit", cfg.ChunkLengthUnit),
		zap.Int("word_threshold", cfg.WordThreshold),
		zap.String("cache_backend", cfg.CacheBackend),
		zap.String("history_db", cfg.HistoryDB),
		zap.Bool("metrics_enabled", cfg.MetricsEnabled),
	)
	return a, nil
}

// historyEnabled reports whether HISTORY_DB names a database. An empty
// variable falls back to the default path, so "none" and "off" disable it.
func historyEnabled(path string) bool {
	switch strings.ToLower(strings.TrimSpace(path)) {
	case "", "none", "off":
		return false
	}
	return true
}

// register hands every resource to the shutdown manager in close order.
func (a *app) register(m *shutdown.Manager) {
	if a.repo != nil {
		m.Register("history", shutdown.PriorityHistory, shutdown.Func(a.repo.Close))
	}
	m.Register("cache", shutdown.PriorityCache, shutdown.Closer(a.cache))
	if a.database != nil {
		m.Register("database", shutdown.PriorityDatabase, shutdown.Closer(a.database))
	}
	m.Register("logger", shutdown.PriorityLogger, shutdown.SyncLogger(a.logger))
}

// startRetention deletes history older than HISTORY_RETENTION until ctx ends.
func (a *app) startRetention(ctx context.Context) {
	if a.repo == nil || a.cfg.HistoryRetention <= 0 {
		return
	}
	go a.repo.RunRetention(ctx, a.cfg.HistoryRetention, retentionInterval, func(deleted int64, err error) {
		if err != nil {
			a.logger.Warn("History retention failed", zap.Error(err))
			return
		}
		if deleted > 0 {
			a.logger.Info("Removed old summaries", zap.Int64("deleted", deleted))
		}
	})
}

// close releases resources without a shutdown manager.
func (a *app) close() {
	if a.repo != nil {
		a.repo.Close()
	}
	if a.cache != nil {
		a.cache.Close()
	}
	if a.database != nil {
		a.database.Close()
	}
}
