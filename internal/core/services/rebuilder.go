package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// DefaultRebuildDebounce is the quiet period after the last corpus change
// before a rebuild starts.
const DefaultRebuildDebounce = 500 * time.Millisecond

// Rebuilder watches the corpus and rebuilds the pipeline's index after
// changes settle. Bursts of changes produce one rebuild.
type Rebuilder struct {
	source   driven.DocumentSource
	pipeline driving.QueryPipeline
	debounce time.Duration

	// OnRebuild, if set, is called after every rebuild attempt.
	OnRebuild func(domain.IndexStats, error)

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewRebuilder creates a rebuilder. A non-positive debounce uses DefaultRebuildDebounce.
func NewRebuilder(source driven.DocumentSource, pipeline driving.QueryPipeline, debounce time.Duration) *Rebuilder {
	if debounce <= 0 {
		debounce = DefaultRebuildDebounce
	}
	return &Rebuilder{
		source:   source,
		pipeline: pipeline,
		debounce: debounce,
	}
}

// Start watches the corpus until ctx is cancelled or Stop is called.
// It blocks, and returns an error only if watching cannot begin.
func (r *Rebuilder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = true
	r.stopCh = make(chan struct{})
	stopCh := r.stopCh
	r.wg.Add(1)
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
		r.wg.Done()
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	changes, err := r.source.Watch(ctx)
	if err != nil {
		return err
	}
	logger.Info("Watching %s for changes", r.source.Dir())

	timer := time.NewTimer(r.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-stopCh:
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			logger.Debug("Corpus change: %s %s", change.Type, change.Path)
			timer.Reset(r.debounce)
		case <-timer.C:
			r.rebuild(ctx)
		}
	}
}

func (r *Rebuilder) rebuild(ctx context.Context) {
	stats, err := r.pipeline.Rebuild(ctx)
	if err != nil {
		logger.Error("rebuild after corpus change failed, keeping previous index: %v", err)
	} else {
		logger.Info("Rebuilt index: %d documents, %d chunks", stats.Documents, stats.Chunks)
	}
	if r.OnRebuild != nil {
		r.OnRebuild(stats, err)
	}
}

// Stop ends a running Start and waits for an in-progress rebuild.
func (r *Rebuilder) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	close(r.stopCh)
	r.mu.Unlock()

	r.wg.Wait()
	return nil
}
