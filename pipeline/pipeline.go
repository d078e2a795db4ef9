// Package pipeline runs one summarization end to end: credential check,
// chunking and strategy selection, cache lookup, the LLM chain, and the
// history record.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"smartsummarizer/cache"
	"smartsummarizer/core"
	"smartsummarizer/db"
	"smartsummarizer/llm"
	"smartsummarizer/logging"
	"smartsummarizer/metrics"
	"smartsummarizer/summarizer"

	"go.uber.org/zap"
)

// Input sources recorded in history.
const (
	SourceText = "text"
	SourcePDF  = "pdf"
)

const previewLength = 200

// SessionFactory builds the LLM collaborator for one session.
type SessionFactory func(ctx context.Context, cfg llm.Config, prompts llm.PromptSet) (summarizer.Summarizer, error)

// History receives finished summaries.
type History interface {
	Record(ctx context.Context, rec db.SummaryRecord) (string, error)
}

// Options wires a Service.
type Options struct {
	// LLM is the server default; its APIKey may be empty when the page
	// supplies one per request.
	LLM       llm.Config
	Prompts   llm.PromptSet
	Processor summarizer.ProcessorConfig

	Cache   cache.Cache
	History History
	Metrics metrics.Recorder
	Logger  *logging.Logger

	// NewSession defaults to llm.NewSession.
	NewSession SessionFactory
}

// Request is one summarization request.
type Request struct {
	Text       string
	Source     string
	SourceName string

	// APIKey overrides the configured credential for this request only.
	APIKey string

	// Strategy forces a strategy; the zero value selects by word count.
	Strategy summarizer.Strategy
}

// Response is the outcome shown to the user.
type Response struct {
	ID       string              `json:"id,omitempty"`
	Summary  string              `json:"summary"`
	Strategy summarizer.Strategy `json:"strategy"`
	Words    int                 `json:"words"`
	Chunks   int                 `json:"chunks"`
	Cached   bool                `json:"cached"`
	Provider string              `json:"provider"`
	Model    string              `json:"model"`
	Duration time.Duration       `json:"-"`
}

// Service is safe for concurrent use.
type Service struct {
	llm        llm.Config
	prompts    llm.PromptSet
	processor  summarizer.ProcessorConfig
	cache      cache.Cache
	history    History
	metrics    metrics.Recorder
	logger     *logging.Logger
	newSession SessionFactory

	// mu guards defaultSession, built on first use from the configured key.
	mu             sync.Mutex
	defaultSession summarizer.Summarizer
}

// New validates the processor configuration and returns a Service.
func New(opts Options) (*Service, error) {
	if err := opts.Processor.Splitter.Validate(); err != nil {
		return nil, err
	}
	if opts.Cache == nil {
		opts.Cache = cache.Nop{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.NewSession == nil {
		opts.NewSession = func(ctx context.Context, cfg llm.Config, p llm.PromptSet) (summarizer.Summarizer, error) {
			return llm.NewSession(ctx, cfg, p)
		}
	}
	return &Service{
		llm:        opts.LLM,
		prompts:    opts.Prompts,
		processor:  opts.Processor,
		cache:      opts.Cache,
		history:    opts.History,
		metrics:    opts.Metrics,
		logger:     opts.Logger.Named("pipeline"),
		newSession: opts.NewSession,
	}, nil
}

// HasDefaultKey reports whether requests may omit the API key.
func (s *Service) HasDefaultKey() bool {
	return s.llm.Validate() == nil
}

// CheckCredential reports core.ErrMissingAuth when neither apiKey nor the
// configured credential is usable.
func (s *Service) CheckCredential(apiKey string) error {
	return s.llm.WithAPIKey(apiKey).Validate()
}

// Provider returns the configured provider and model.
func (s *Service) Provider() (provider, model string) {
	return s.llm.Provider, s.llm.ResolvedModel()
}

func (s *Service) processorConfig(force summarizer.Strategy) summarizer.ProcessorConfig {
	cfg := s.processor
	if force.Valid() {
		cfg.ForceStrategy = force
	}
	return cfg
}

// Plan chunks the request text and selects a strategy without calling the
// LLM or checking the credential.
func (s *Service) Plan(req Request) (*summarizer.Plan, error) {
	p, err := summarizer.NewProcessor(s.processorConfig(req.Strategy), summarizer.SummarizerFunc(
		func(context.Context, []summarizer.Document, summarizer.Strategy) (string, error) {
			return "", errors.New("plan-only processor")
		}))
	if err != nil {
		return nil, err
	}
	return p.Plan(req.Text)
}

// Summarize checks the credential first, then does nothing for blank text
// (summarizer.ErrEmptyInput), then serves from cache or runs the chain.
// LLM failures are returned as-is, wrapped, with no retry.
func (s *Service) Summarize(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	if err := s.CheckCredential(req.APIKey); err != nil {
		return nil, err
	}
	cfg := s.llm.WithAPIKey(req.APIKey)
	if summarizer.IsBlank(req.Text) {
		return nil, summarizer.ErrEmptyInput
	}

	procCfg := s.processorConfig(req.Strategy)
	key := cache.Key(req.Text, s.fingerprint(cfg, procCfg))
	fields := logging.SummaryMetrics{
		Provider:   cfg.Provider,
		Model:      cfg.ResolvedModel(),
		Source:     req.Source,
		InputChars: summarizer.CharLength(req.Text),
	}

	if entry, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("Cache lookup failed", zap.Error(err))
	} else if ok {
		strategy, _ := summarizer.ParseStrategy(entry.Strategy)
		fields.Strategy = entry.Strategy
		fields.Words = entry.Words
		fields.Chunks = entry.Chunks
		fields.CacheHit = true
		fields.TotalDuration = time.Since(start)
		s.logger.Info("Summary served from cache", logging.SummaryFields(fields))
		s.metrics.Record(metrics.Run{
			Source:    req.Source,
			Strategy:  entry.Strategy,
			Status:    metrics.RunStatusSuccess,
			Cached:    true,
			Words:     entry.Words,
			Chunks:    entry.Chunks,
			StartTime: start,
			Duration:  fields.TotalDuration,
		})
		return &Response{
			Summary:  entry.Summary,
			Strategy: strategy,
			Words:    entry.Words,
			Chunks:   entry.Chunks,
			Cached:   true,
			Provider: fields.Provider,
			Model:    fields.Model,
			Duration: fields.TotalDuration,
		}, nil
	}

	session, err := s.session(ctx, req.APIKey, cfg)
	if err != nil {
		s.recordFailure(req, start, err)
		return nil, err
	}
	proc, err := summarizer.NewProcessor(procCfg, session)
	if err != nil {
		return nil, err
	}

	result, err := proc.Process(ctx, req.Text)
	if err != nil {
		if !errors.Is(err, summarizer.ErrEmptyInput) {
			s.logger.Error("Summarization failed",
				zap.String("provider", fields.Provider),
				zap.String("model", fields.Model),
				zap.Error(err),
			)
			s.recordFailure(req, start, err)
		}
		return nil, err
	}

	fields.Strategy = result.Strategy.String()
	fields.Words = result.Words
	fields.Chunks = result.Chunks
	fields.SplitDuration = result.SplitDuration
	fields.LLMDuration = result.LLMDuration
	fields.TotalDuration = time.Since(start)
	s.logger.Info("Summary produced", logging.SummaryFields(fields))
	s.metrics.Record(metrics.Run{
		Source:    req.Source,
		Strategy:  fields.Strategy,
		Status:    metrics.RunStatusSuccess,
		Words:     result.Words,
		Chunks:    result.Chunks,
		StartTime: start,
		Duration:  fields.TotalDuration,
	})

	resp := &Response{
		Summary:  result.Summary,
		Strategy: result.Strategy,
		Words:    result.Words,
		Chunks:   result.Chunks,
		Provider: fields.Provider,
		Model:    fields.Model,
		Duration: fields.TotalDuration,
	}

	if err := s.cache.Set(ctx, key, cache.Entry{
		Summary:   result.Summary,
		Strategy:  result.Strategy.String(),
		Words:     result.Words,
		Chunks:    result.Chunks,
		CreatedAt: time.Now(),
	}); err != nil {
		s.logger.Warn("Cache store failed", zap.Error(err))
	}

	if s.history != nil {
		id, err := s.history.Record(ctx, db.SummaryRecord{
			Source:       req.Source,
			SourceName:   req.SourceName,
			Strategy:     result.Strategy.String(),
			Provider:     fields.Provider,
			Model:        fields.Model,
			Words:        result.Words,
			Chunks:       result.Chunks,
			InputPreview: summarizer.TruncateWithEllipsis(req.Text, previewLength),
			Summary:      result.Summary,
			DurationMS:   fields.TotalDuration.Milliseconds(),
		})
		if err != nil {
			s.logger.Warn("History record failed", zap.Error(err))
		}
		resp.ID = id
	}

	return resp, nil
}

// session returns the shared default session, or a fresh one when the page
// supplied its own key. A failed build is not remembered.
func (s *Service) session(ctx context.Context, apiKey string, cfg llm.Config) (summarizer.Summarizer, error) {
	if strings.TrimSpace(apiKey) != "" {
		return s.newSession(ctx, cfg, s.prompts)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.defaultSession == nil {
		session, err := s.newSession(ctx, cfg, s.prompts)
		if err != nil {
			return nil, err
		}
		s.defaultSession = session
	}
	return s.defaultSession, nil
}

func (s *Service) recordFailure(req Request, start time.Time, err error) {
	s.metrics.Record(metrics.Run{
		Source:    req.Source,
		Status:    metrics.RunStatusError,
		Words:     summarizer.CountWords(req.Text),
		StartTime: start,
		Duration:  time.Since(start),
		ErrorMsg:  err.Error(),
	})
}

// fingerprint covers everything besides the text that changes the summary.
func (s *Service) fingerprint(cfg llm.Config, p summarizer.ProcessorConfig) string {
	threshold := p.WordThreshold
	if threshold <= 0 {
		threshold = summarizer.DefaultWordThreshold
	}
	unit := p.Splitter.LengthUnit
	if unit == "" {
		unit = core.LengthUnitChars
	}
	return cfg.Fingerprint() +
		"|" + strconv.Itoa(p.Splitter.ChunkSize) +
		"|" + strconv.Itoa(p.Splitter.ChunkOverlap) +
		"|" + strconv.Itoa(threshold) +
		"|" + p.ForceStrategy.String() +
		"|" + unit
}

// ProcessorConfig builds the selector configuration from application
// configuration, switching to token lengths when CHUNK_LENGTH_UNIT=tokens.
func ProcessorConfig(cfg *core.Config) (summarizer.ProcessorConfig, error) {
	pc := summarizer.DefaultProcessorConfig()
	pc.Splitter.ChunkSize = cfg.ChunkSize
	pc.Splitter.ChunkOverlap = cfg.ChunkOverlap
	pc.WordThreshold = cfg.WordThreshold

	if cfg.ChunkLengthUnit == core.LengthUnitTokens {
		length, err := summarizer.NewTokenLength()
		if err != nil {
			return pc, fmt.Errorf("failed to load tokenizer: %w", err)
		}
		pc.Splitter.Length = length
	}
	pc.Splitter.LengthUnit = cfg.ChunkLengthUnit
	if err := pc.Splitter.Validate(); err != nil {
		return pc, err
	}
	return pc, nil
}
