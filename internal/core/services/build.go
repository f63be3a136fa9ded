package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// build runs the build phase and returns an unpublished index.
// Every error is fatal for this build.
func (p *QueryPipeline) build(ctx context.Context) (*Index, error) {
	start := time.Now()
	logger.Section("Build")

	if err := p.checkDeps(ctx); err != nil {
		return nil, err
	}

	template, err := p.deps.Prompts.Load(driven.PromptAnswer)
	if err != nil {
		return nil, fmt.Errorf("load answer prompt: %w", err)
	}

	p.progress(domain.BuildStageLoad, 0, 0)
	docs, report, err := p.deps.Source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	p.progress(domain.BuildStageLoad, len(docs), len(docs))
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmptyCorpus, p.deps.Source.Dir())
	}
	logger.Info("Loaded %d documents from %s", len(docs), p.deps.Source.Dir())

	docStore := p.deps.NewDocStore()
	chunks, err := p.chunk(ctx, docs, docStore)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: every document in %s is empty", domain.ErrEmptyCorpus, p.deps.Source.Dir())
	}

	embedder := p.deps.Embedder
	if fitter, ok := embedder.(driven.CorpusFitter); ok {
		fitted, err := fitter.Fit(ctx, chunkTexts(chunks))
		if err != nil {
			return nil, fmt.Errorf("%w: fit embedder: %w", domain.ErrEmbeddingUnavailable, err)
		}
		embedder = fitted
	}

	cached, err := p.embed(ctx, embedder, chunks)
	if err != nil {
		return nil, err
	}

	vectors, err := p.indexChunks(ctx, embedder, chunks)
	if err != nil {
		return nil, err
	}

	stats := domain.IndexStats{
		CorpusDir:        p.deps.Source.Dir(),
		Documents:        len(docs),
		Chunks:           len(chunks),
		Skipped:          report.Skipped,
		CachedEmbeddings: cached,
		EmbeddingModel:   embedder.ModelName(),
		GenerationModel:  p.deps.LLM.ModelName(),
		VectorBackend:    p.cfg.VectorBackend.String(),
		ChunkingStrategy: p.cfg.ChunkingStrategy,
		BuiltAt:          time.Now(),
		BuildDuration:    time.Since(start),
	}
	logger.Info("Built index: %d documents, %d chunks in %s", stats.Documents, stats.Chunks, stats.BuildDuration)

	return &Index{
		embedder: embedder,
		vectors:  vectors,
		docs:     docStore,
		prompt:   template,
		stats:    stats,
	}, nil
}

// checkDeps refuses to build without every required port and, when
// configured, pings both backends.
func (p *QueryPipeline) checkDeps(ctx context.Context) error {
	d := p.deps
	switch {
	case d.Embedder == nil:
		return fmt.Errorf("%w: no embedding backend configured", domain.ErrEmbeddingUnavailable)
	case d.LLM == nil:
		return fmt.Errorf("%w: no generation backend configured", domain.ErrLLMUnavailable)
	case d.VectorIndexes == nil:
		return fmt.Errorf("%w: no vector index factory configured", domain.ErrVectorIndexUnavailable)
	case d.Source == nil, d.Chunker == nil, d.NewDocStore == nil, d.Prompts == nil:
		return fmt.Errorf("%w: pipeline is missing a document source, chunker, document store or prompt store",
			domain.ErrInvalidInput)
	}

	if !p.cfg.Pipeline.PingBackends {
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := d.Embedder.Ping(pingCtx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if err := d.LLM.Ping(pingCtx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	return nil
}

// chunk splits every document and stores documents and chunks in store.
// Documents that yield no chunks are kept but contribute nothing to retrieval.
func (p *QueryPipeline) chunk(ctx context.Context, docs []domain.Document, store driven.DocumentStore) ([]domain.Chunk, error) {
	var all []domain.Chunk
	for i := range docs {
		doc := &docs[i]
		if err := store.SaveDocument(ctx, doc); err != nil {
			return nil, fmt.Errorf("save document %s: %w", doc.ID, err)
		}

		chunks, err := p.deps.Chunker.Process(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", doc.ID, err)
		}
		if len(chunks) == 0 {
			logger.Debug("Document %s produced no chunks", doc.ID)
		} else if err := store.SaveChunks(ctx, chunks); err != nil {
			return nil, fmt.Errorf("save chunks of %s: %w", doc.ID, err)
		}

		all = append(all, chunks...)
		p.progress(domain.BuildStageChunk, i+1, len(docs))
	}
	logger.Debug("Chunked %d documents into %d chunks", len(docs), len(all))
	return all, nil
}

// embed fills chunk embeddings in batches, serving what it can from the
// cache. It returns the number of cache hits. Corpus-fitted embedders
// bypass the cache because their vectors change with the corpus.
func (p *QueryPipeline) embed(ctx context.Context, embedder driven.EmbeddingService, chunks []domain.Chunk) (int, error) {
	cache := p.deps.Cache
	if _, fitted := p.deps.Embedder.(driven.CorpusFitter); fitted {
		cache = nil
	}
	model := embedder.ModelName()

	var pending []int
	hits := 0
	for i := range chunks {
		if cache != nil {
			vec, ok, err := cache.Get(ctx, model, chunks[i].Content)
			if err != nil {
				logger.Warn("embedding cache: %v", err)
			} else if ok {
				chunks[i].Embedding = vec
				hits++
				continue
			}
		}
		pending = append(pending, i)
	}
	if hits > 0 {
		logger.Debug("Embedding cache served %d of %d chunks", hits, len(chunks))
	}

	done := hits
	p.progress(domain.BuildStageEmbed, done, len(chunks))
	batchSize := p.cfg.Pipeline.EmbedBatchSize
	for start := 0; start < len(pending); start += batchSize {
		end := min(start+batchSize, len(pending))
		batch := pending[start:end]

		texts := make([]string, len(batch))
		for j, idx := range batch {
			texts[j] = chunks[idx].Content
		}
		vecs, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("%w: embed chunks: %w", domain.ErrEmbeddingUnavailable, err)
		}
		if len(vecs) != len(texts) {
			return 0, fmt.Errorf("%w: embed chunks: got %d vectors for %d texts",
				domain.ErrEmbeddingUnavailable, len(vecs), len(texts))
		}

		for j, idx := range batch {
			chunks[idx].Embedding = vecs[j]
			if cache != nil {
				if err := cache.Put(ctx, model, texts[j], vecs[j]); err != nil {
					logger.Warn("embedding cache: %v", err)
				}
			}
		}
		done += len(batch)
		p.progress(domain.BuildStageEmbed, done, len(chunks))
	}
	return hits, nil
}

// indexChunks inserts every chunk embedding into a fresh vector index. The
// dimension comes from the vectors actually produced, falling back to the
// embedder's advertised size.
func (p *QueryPipeline) indexChunks(ctx context.Context, embedder driven.EmbeddingService, chunks []domain.Chunk) (driven.VectorIndex, error) {
	dims := embedder.Dimensions()
	if len(chunks) > 0 && len(chunks[0].Embedding) > 0 {
		dims = len(chunks[0].Embedding)
	}

	vectors, err := p.deps.VectorIndexes(ctx, dims)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrVectorIndexUnavailable, err)
	}

	for i := range chunks {
		if err := vectors.Add(ctx, chunks[i].ID, chunks[i].Embedding); err != nil {
			_ = vectors.Close()
			return nil, fmt.Errorf("index chunk %s: %w", chunks[i].ID, err)
		}
		p.progress(domain.BuildStageIndex, i+1, len(chunks))
	}
	return vectors, nil
}

func (p *QueryPipeline) progress(stage domain.BuildStage, done, total int) {
	if p.deps.Progress != nil {
		p.deps.Progress(domain.BuildProgress{Stage: stage, Done: done, Total: total})
	}
}

func chunkTexts(chunks []domain.Chunk) []string {
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}
	return texts
}
