package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the indexed documents"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer   string         `json:"answer"`
	Answered bool           `json:"answered"`
	Outcome  string         `json:"outcome"`
	Reason   string         `json:"reason,omitempty"`
	Sources  []SourceOutput `json:"sources"`
}

// SourceOutput is one chunk the answer was drawn from.
type SourceOutput struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	Path       string  `json:"path"`
	Position   int     `json:"position"`
	Similarity float64 `json:"similarity"`
	Content    string  `json:"content"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "ask",
		Description: "Answer a question from the indexed documents. " +
			"When no answer can be produced a fixed fallback answer is returned.",
	}, s.handleAsk)
}

// handleAsk handles the ask tool invocation. Pipeline failures are part
// of the output, not tool errors.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer := s.ports.Pipeline.Ask(ctx, input.Question)
	return nil, newAskOutput(answer), nil
}

func newAskOutput(a domain.Answer) AskOutput {
	out := AskOutput{
		Answer:   a.Display(),
		Answered: a.Answered(),
		Outcome:  a.Outcome.String(),
		Reason:   a.ReasonString(),
		Sources:  make([]SourceOutput, len(a.Sources)),
	}
	for i, src := range a.Sources {
		out.Sources[i] = SourceOutput{
			DocumentID: src.Chunk.DocumentID,
			Title:      src.DocumentTitle,
			Path:       src.DocumentPath,
			Position:   src.Chunk.Position,
			Similarity: src.Similarity,
			Content:    src.Chunk.Content,
		}
	}
	return out
}
