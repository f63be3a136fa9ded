package web

import (
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// AskRequest is the POST /api/ask body.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse is returned by /api/ask. Answer is always displayable.
type AskResponse struct {
	Question   string       `json:"question"`
	Answer     string       `json:"answer"`
	Outcome    string       `json:"outcome"`
	Reason     string       `json:"reason,omitempty"`
	Sources    []SourceInfo `json:"sources"`
	DurationMS int64        `json:"duration_ms"`
}

// SourceInfo describes one retrieved chunk.
type SourceInfo struct {
	Document   string  `json:"document"`
	Path       string  `json:"path"`
	Position   int     `json:"position"`
	Similarity float64 `json:"similarity"`
}

// StatsResponse is returned by /api/stats.
type StatsResponse struct {
	CorpusDir        string    `json:"corpus_dir"`
	Documents        int       `json:"documents"`
	Chunks           int       `json:"chunks"`
	Skipped          int       `json:"skipped"`
	CachedEmbeddings int       `json:"cached_embeddings"`
	EmbeddingModel   string    `json:"embedding_model"`
	GenerationModel  string    `json:"generation_model"`
	VectorBackend    string    `json:"vector_backend"`
	ChunkingStrategy string    `json:"chunking_strategy"`
	BuiltAt          time.Time `json:"built_at"`
	BuildDurationMS  int64     `json:"build_duration_ms"`
}

func newAskResponse(a domain.Answer) AskResponse {
	sources := make([]SourceInfo, len(a.Sources))
	for i, s := range a.Sources {
		sources[i] = SourceInfo{
			Document:   s.DocumentTitle,
			Path:       s.DocumentPath,
			Position:   s.Chunk.Position,
			Similarity: s.Similarity,
		}
	}
	return AskResponse{
		Question:   a.Question,
		Answer:     a.Display(),
		Outcome:    a.Outcome.String(),
		Reason:     a.ReasonString(),
		Sources:    sources,
		DurationMS: a.Duration.Milliseconds(),
	}
}

func newStatsResponse(s domain.IndexStats) StatsResponse {
	return StatsResponse{
		CorpusDir:        s.CorpusDir,
		Documents:        s.Documents,
		Chunks:           s.Chunks,
		Skipped:          len(s.Skipped),
		CachedEmbeddings: s.CachedEmbeddings,
		EmbeddingModel:   s.EmbeddingModel,
		GenerationModel:  s.GenerationModel,
		VectorBackend:    s.VectorBackend,
		ChunkingStrategy: s.ChunkingStrategy.String(),
		BuiltAt:          s.BuiltAt,
		BuildDurationMS:  s.BuildDuration.Milliseconds(),
	}
}
