package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/docqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/bolt"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa/internal/adapters/driven/vector"
	"github.com/custodia-labs/docqa/internal/connectors/filesystem"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/core/services"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/normalisers/plaintext"
	"github.com/custodia-labs/docqa/internal/postprocessors"
)

// corpusDir overrides corpus.dir for a single run.
var corpusDir string

func init() {
	rootCmd.PersistentFlags().StringVar(&corpusDir, "corpus", "", "corpus directory (overrides corpus.dir)")
}

// appRuntime is an assembled, unbuilt query pipeline and the pieces the
// commands need next to it.
type appRuntime struct {
	Settings *domain.AppSettings
	Pipeline driving.QueryPipeline
	Source   driven.DocumentSource
	History  driving.HistoryService
}

// Close releases the pipeline and everything it owns.
func (r *appRuntime) Close() error {
	if r.Pipeline == nil {
		return nil
	}
	return r.Pipeline.Close()
}

// newRuntime assembles the pipeline from settings. Tests replace it.
var newRuntime = assembleRuntime

// openRuntime assembles and builds the pipeline. A build error is fatal
// and the runtime is closed before returning.
func openRuntime(ctx context.Context, progress func(domain.BuildProgress)) (*appRuntime, domain.IndexStats, error) {
	rt, err := newRuntime(ctx, progress)
	if err != nil {
		return nil, domain.IndexStats{}, err
	}
	stats, err := rt.Pipeline.Build(ctx)
	if err != nil {
		_ = rt.Close()
		return nil, domain.IndexStats{}, fmt.Errorf("build index: %w", err)
	}
	return rt, stats, nil
}

func assembleRuntime(ctx context.Context, progress func(domain.BuildProgress)) (*appRuntime, error) {
	if settingsService == nil {
		return nil, errors.New("settings service not configured")
	}
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if corpusDir != "" {
		settings.Corpus.Dir = corpusDir
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	chunker, err := postprocessors.NewDefaultRegistry().BuildPipeline(settings.Chunking.PipelineConfig())
	if err != nil {
		return nil, fmt.Errorf("configure chunking: %w", err)
	}
	vectors, err := vector.NewFactory(settings.VectorIndex.Backend)
	if err != nil {
		return nil, err
	}
	prompts, err := file.NewPromptStore(promptDir())
	if err != nil {
		return nil, err
	}

	backends, err := ai.Init(ctx, settings, false)
	if err != nil {
		return nil, err
	}

	deps := services.QueryPipelineDeps{
		Source:        filesystem.New(filesystem.ConfigFromSettings(settings.Corpus), plaintext.New()),
		Chunker:       chunker,
		Embedder:      backends.EmbeddingService,
		LLM:           backends.LLMService,
		VectorIndexes: vectors,
		NewDocStore:   func() driven.DocumentStore { return memory.NewDocumentStore() },
		Prompts:       prompts,
		Progress:      progress,
	}

	scratch := scratchDir(settings)
	scratchErr := os.MkdirAll(scratch, 0o700)
	if scratchErr != nil {
		logger.Warn("scratch directory %s: %v", scratch, scratchErr)
	}

	if settings.Cache.Embeddings && scratchErr == nil {
		cache, err := bolt.NewEmbeddingCacheInDir(scratch)
		if err != nil {
			logger.Warn("embedding cache disabled: %v", err)
		} else {
			deps.Cache = cache
		}
	}

	history, err := storage.NewHistoryStore(ctx, settings.History.DSN)
	if err != nil {
		logger.Warn("question history disabled: %v", err)
	} else if history != nil {
		deps.History = history
	}

	pipeline := services.NewQueryPipeline(services.QueryPipelineConfigFromSettings(settings), deps)
	return &appRuntime{
		Settings: settings,
		Pipeline: pipeline,
		Source:   deps.Source,
		History:  services.NewHistoryService(deps.History),
	}, nil
}

// promptDir is the prompts directory beside the config file.
func promptDir() string {
	if configDir == "" {
		return ""
	}
	return filepath.Join(configDir, "prompts")
}

// scratchDir resolves pipeline.scratch_dir, defaulting to the config directory.
func scratchDir(settings *domain.AppSettings) string {
	if settings.Pipeline.ScratchDir != "" {
		return settings.Pipeline.ScratchDir
	}
	if configDir != "" {
		return filepath.Join(configDir, "cache")
	}
	dir, err := file.DefaultDir()
	if err != nil {
		return filepath.Join(".", ".docqa", "cache")
	}
	return filepath.Join(dir, "cache")
}
