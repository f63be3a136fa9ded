package domain

import "time"

// IndexStats describes a built index.
type IndexStats struct {
	// CorpusDir is the directory the index was built from.
	CorpusDir string

	// Documents is the number of documents indexed.
	Documents int

	// Chunks is the number of chunks embedded.
	Chunks int

	// Skipped lists files the document source could not load.
	Skipped []SkippedFile

	// CachedEmbeddings is the number of chunk embeddings served from cache.
	CachedEmbeddings int

	// EmbeddingModel is the model that produced the vectors.
	EmbeddingModel string

	// GenerationModel is the model that writes answers.
	GenerationModel string

	// VectorBackend names the index implementation.
	VectorBackend string

	// ChunkingStrategy names the chunking policy in effect.
	ChunkingStrategy ChunkingStrategy

	// BuiltAt is when the build completed.
	BuiltAt time.Time

	// BuildDuration is how long the build took.
	BuildDuration time.Duration
}

// BuildStage identifies a step of the build phase for progress reporting.
type BuildStage string

// Build stages in execution order.
const (
	BuildStageLoad  BuildStage = "load"
	BuildStageChunk BuildStage = "chunk"
	BuildStageEmbed BuildStage = "embed"
	BuildStageIndex BuildStage = "index"
)

// BuildProgress reports progress through a build stage.
type BuildProgress struct {
	// Stage is the current build step.
	Stage BuildStage

	// Done is the number of items processed in this stage.
	Done int

	// Total is the number of items in this stage.
	Total int
}
