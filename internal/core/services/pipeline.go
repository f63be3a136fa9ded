package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure QueryPipeline implements the interface.
var _ driving.QueryPipeline = (*QueryPipeline)(nil)

// Default pipeline values, applied when the config leaves them zero.
const (
	DefaultRetrievalTopK  = 2
	DefaultContextWindow  = 2048
	DefaultEmbedBatchSize = 32

	// pingTimeout bounds each backend ping before a build.
	pingTimeout = 5 * time.Second

	// historyTimeout bounds recording one question.
	historyTimeout = 2 * time.Second
)

// QueryPipelineConfig holds the tunables of the pipeline.
type QueryPipelineConfig struct {
	Retrieval        domain.RetrievalSettings
	Generation       domain.GenerationSettings
	Pipeline         domain.PipelineSettings
	ChunkingStrategy domain.ChunkingStrategy
	VectorBackend    domain.VectorBackend
}

// QueryPipelineConfigFromSettings extracts the pipeline config from app settings.
func QueryPipelineConfigFromSettings(s *domain.AppSettings) QueryPipelineConfig {
	return QueryPipelineConfig{
		Retrieval:        s.Retrieval,
		Generation:       s.Generation,
		Pipeline:         s.Pipeline,
		ChunkingStrategy: s.Chunking.Strategy,
		VectorBackend:    s.VectorIndex.Backend,
	}
}

// QueryPipelineDeps are the ports the pipeline drives.
// Cache, History and Progress are optional.
type QueryPipelineDeps struct {
	Source        driven.DocumentSource
	Chunker       driven.PostProcessorPipeline
	Embedder      driven.EmbeddingService
	LLM           driven.LLMService
	VectorIndexes driven.VectorIndexFactory
	NewDocStore   func() driven.DocumentStore
	Prompts       driven.PromptStore

	Cache    driven.EmbeddingCache
	History  driven.HistoryStore
	Progress func(domain.BuildProgress)
}

// QueryPipeline loads the corpus into an immutable index and answers
// questions from it.
type QueryPipeline struct {
	cfg  QueryPipelineConfig
	deps QueryPipelineDeps

	// buildMu serialises Build and Rebuild.
	buildMu sync.Mutex

	errMu    sync.Mutex
	buildErr error

	index     atomic.Pointer[Index]
	closeOnce sync.Once
	closeErr  error
}

// NewQueryPipeline creates a pipeline. It performs no I/O; call Build
// before asking questions.
func NewQueryPipeline(cfg QueryPipelineConfig, deps QueryPipelineDeps) *QueryPipeline {
	if cfg.Retrieval.TopK <= 0 {
		cfg.Retrieval.TopK = DefaultRetrievalTopK
	}
	if cfg.Pipeline.ContextWindow <= 0 {
		cfg.Pipeline.ContextWindow = DefaultContextWindow
	}
	if cfg.Pipeline.EmbedBatchSize <= 0 {
		cfg.Pipeline.EmbedBatchSize = DefaultEmbedBatchSize
	}
	if cfg.Pipeline.FallbackAnswer == "" {
		cfg.Pipeline.FallbackAnswer = domain.DefaultFallbackAnswer
	}
	return &QueryPipeline{cfg: cfg, deps: deps}
}

// Build loads the corpus and publishes the first index.
func (p *QueryPipeline) Build(ctx context.Context) (domain.IndexStats, error) {
	p.buildMu.Lock()
	defer p.buildMu.Unlock()

	if p.index.Load() != nil {
		return domain.IndexStats{}, domain.ErrAlreadyBuilt
	}

	idx, err := p.build(ctx)
	if err != nil {
		p.setBuildErr(err)
		return domain.IndexStats{}, err
	}

	p.setBuildErr(nil)
	p.index.Store(idx)
	return idx.Stats(), nil
}

// Rebuild builds a new index from the current corpus and swaps it in.
// On failure the previous index keeps serving.
func (p *QueryPipeline) Rebuild(ctx context.Context) (domain.IndexStats, error) {
	p.buildMu.Lock()
	defer p.buildMu.Unlock()

	if p.deps.Prompts != nil {
		p.deps.Prompts.Reload()
	}

	idx, err := p.build(ctx)
	if err != nil {
		if p.index.Load() == nil {
			p.setBuildErr(err)
		}
		return domain.IndexStats{}, err
	}

	p.setBuildErr(nil)
	if old := p.index.Swap(idx); old != nil {
		if err := old.Retire(); err != nil {
			logger.Warn("retire previous index: %v", err)
		}
	}
	return idx.Stats(), nil
}

// Ready reports whether an index is published.
func (p *QueryPipeline) Ready() bool {
	return p.index.Load() != nil
}

// Stats describes the published index.
func (p *QueryPipeline) Stats() (domain.IndexStats, bool) {
	idx := p.index.Load()
	if idx == nil {
		return domain.IndexStats{}, false
	}
	return idx.Stats(), true
}

// Ask answers a question from the published index. Failures are logged
// and reported through the answer's Outcome; Ask never panics.
func (p *QueryPipeline) Ask(ctx context.Context, question string) domain.Answer {
	start := time.Now()
	answer := domain.Answer{
		Question: question,
		Fallback: p.cfg.Pipeline.FallbackAnswer,
		AskedAt:  start,
	}

	text, sources, err := p.answer(ctx, question)
	answer.Sources = sources
	if err != nil {
		answer.Outcome = domain.OutcomeForError(err)
		answer.Reason = err
		logger.Error("could not answer %q: %v", question, err)
	} else {
		answer.Text = text
		answer.Outcome = domain.OutcomeAnswered
	}
	answer.Duration = time.Since(start)

	p.record(ctx, answer)
	return answer
}

// answer runs retrieval and generation. Panics in backends are turned
// into errors.
func (p *QueryPipeline) answer(ctx context.Context, question string) (text string, sources []domain.RetrievedChunk, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("backend panic: %v", r)
		}
	}()

	question = strings.TrimSpace(question)
	if question == "" {
		return "", nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	idx := p.index.Load()
	if idx == nil {
		return "", nil, p.notReady()
	}

	logger.Debug("Question: %q", question)
	sources, err = p.retrieve(ctx, idx, question)
	if err != nil {
		return "", nil, err
	}
	if len(sources) == 0 {
		return "", nil, domain.ErrNoRelevantDocuments
	}
	logger.Debug("Retrieved %d chunks", len(sources))

	prompt := buildPrompt(idx.prompt, sources, question, p.contextBudget(idx.prompt, question))
	text, err = p.deps.LLM.Generate(ctx, prompt, p.generateOptions())
	if err != nil {
		return "", sources, fmt.Errorf("generate answer: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", sources, domain.ErrEmptyGeneration
	}
	return text, sources, nil
}

// retrieve searches idx, moving to the current index once if idx was
// retired by a concurrent rebuild.
func (p *QueryPipeline) retrieve(ctx context.Context, idx *Index, question string) ([]domain.RetrievedChunk, error) {
	sources, err := idx.Retrieve(ctx, question, p.cfg.Retrieval.TopK, p.cfg.Retrieval.MinSimilarity)
	if errors.Is(err, errIndexRetired) {
		if idx = p.index.Load(); idx == nil {
			return nil, p.notReady()
		}
		sources, err = idx.Retrieve(ctx, question, p.cfg.Retrieval.TopK, p.cfg.Retrieval.MinSimilarity)
	}
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	return sources, nil
}

func (p *QueryPipeline) setBuildErr(err error) {
	p.errMu.Lock()
	p.buildErr = err
	p.errMu.Unlock()
}

// notReady explains why no index is published, including the last build failure.
func (p *QueryPipeline) notReady() error {
	p.errMu.Lock()
	buildErr := p.buildErr
	p.errMu.Unlock()

	if buildErr != nil {
		return fmt.Errorf("%w: %w", domain.ErrNotReady, buildErr)
	}
	return domain.ErrNotReady
}

func (p *QueryPipeline) generateOptions() driven.GenerateOptions {
	g := p.cfg.Generation
	return driven.GenerateOptions{
		MaxTokens:   g.MaxTokens,
		Temperature: g.Temperature,
		TopK:        g.TopK,
		TopP:        g.TopP,
		Seed:        g.Seed,
	}
}

// contextBudget is the number of characters of retrieved context that fit
// the context window after the template, the question and the answer.
func (p *QueryPipeline) contextBudget(template, question string) int {
	budget := (p.cfg.Pipeline.ContextWindow-p.cfg.Generation.MaxTokens)*charsPerToken -
		len(template) - len(question)
	return max(budget, minContextChars)
}

// record stores the answer in the history store, if any.
func (p *QueryPipeline) record(ctx context.Context, a domain.Answer) {
	if p.deps.History == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyTimeout)
	defer cancel()

	if err := p.deps.History.Record(ctx, domain.NewHistoryRecord(uuid.NewString(), a)); err != nil {
		logger.Error("record history: %v", err)
	}
}

// Close retires the index and closes every backend the pipeline drives.
func (p *QueryPipeline) Close() error {
	p.closeOnce.Do(func() {
		var errs []error
		if idx := p.index.Swap(nil); idx != nil {
			errs = append(errs, idx.Retire())
		}
		closers := []interface{ Close() error }{}
		if p.deps.Embedder != nil {
			closers = append(closers, p.deps.Embedder)
		}
		if p.deps.LLM != nil {
			closers = append(closers, p.deps.LLM)
		}
		if p.deps.Cache != nil {
			closers = append(closers, p.deps.Cache)
		}
		if p.deps.History != nil {
			closers = append(closers, p.deps.History)
		}
		if p.deps.Source != nil {
			closers = append(closers, p.deps.Source)
		}
		for _, c := range closers {
			errs = append(errs, c.Close())
		}
		p.closeErr = errors.Join(errs...)
	})
	return p.closeErr
}
