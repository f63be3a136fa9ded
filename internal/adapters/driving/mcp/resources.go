package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for docqa resources.
	uriScheme = "docqa://"

	// defaultHistoryLimit is used by the plain history resource.
	defaultHistoryLimit = 20
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "stats",
		Name:        "index-stats",
		Description: "Statistics about the current index",
		MIMEType:    "application/json",
	}, s.handleStatsResource)

	if s.ports.History == nil {
		return
	}

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "history",
		Name:        "history",
		Description: "Recently asked questions, newest first",
		MIMEType:    "application/json",
	}, s.handleHistoryResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "history/{limit}",
		Name:        "history-limited",
		Description: "Up to {limit} recently asked questions",
		MIMEType:    "application/json",
	}, s.handleHistoryResource)
}

type statsInfo struct {
	CorpusDir        string    `json:"corpus_dir"`
	Documents        int       `json:"documents"`
	Chunks           int       `json:"chunks"`
	Skipped          []string  `json:"skipped"`
	EmbeddingModel   string    `json:"embedding_model"`
	GenerationModel  string    `json:"generation_model"`
	VectorBackend    string    `json:"vector_backend"`
	ChunkingStrategy string    `json:"chunking_strategy"`
	BuiltAt          time.Time `json:"built_at"`
}

// handleStatsResource describes the index, or reports that none is built.
func (s *Server) handleStatsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	stats, ok := s.ports.Pipeline.Stats()
	if !ok {
		return nil, fmt.Errorf("reading stats: %w", domain.ErrNotReady)
	}

	skipped := make([]string, len(stats.Skipped))
	for i, f := range stats.Skipped {
		skipped[i] = f.Path
	}
	return jsonResult(req.Params.URI, statsInfo{
		CorpusDir:        stats.CorpusDir,
		Documents:        stats.Documents,
		Chunks:           stats.Chunks,
		Skipped:          skipped,
		EmbeddingModel:   stats.EmbeddingModel,
		GenerationModel:  stats.GenerationModel,
		VectorBackend:    stats.VectorBackend,
		ChunkingStrategy: stats.ChunkingStrategy.String(),
		BuiltAt:          stats.BuiltAt,
	})
}

type historyInfo struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	Outcome  string    `json:"outcome"`
	AskedAt  time.Time `json:"asked_at"`
}

// handleHistoryResource returns recent questions. Serves both the plain
// and the limited URI.
func (s *Server) handleHistoryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	limit := defaultHistoryLimit
	if n := extractHistoryLimit(req.Params.URI); n > 0 {
		limit = n
	}

	records, err := s.ports.History.Recent(ctx, limit)
	if errors.Is(err, domain.ErrHistoryDisabled) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}

	infos := make([]historyInfo, len(records))
	for i, r := range records {
		infos[i] = historyInfo{
			Question: r.Question,
			Answer:   r.Answer,
			Outcome:  r.Outcome.String(),
			AskedAt:  r.AskedAt,
		}
	}
	return jsonResult(req.Params.URI, infos)
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractHistoryLimit extracts the limit from docqa://history/{limit}.
// Returns 0 when the URI has no valid limit.
func extractHistoryLimit(uri string) int {
	prefix := uriScheme + "history/"
	if !strings.HasPrefix(uri, prefix) {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimPrefix(uri, prefix))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
