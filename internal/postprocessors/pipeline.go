// Package postprocessors turns loaded documents into the chunks that get
// embedded. A pipeline starts with one splitting processor (fixed windows,
// sentences or the whole document) chosen by the chunking settings, and may
// be followed by processors that rewrite the chunks.
package postprocessors

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/postprocessors/chunker"
)

var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline runs its processors in order over one document.
//
// Chunks that end up blank are dropped and the remainder renumbered, so a
// document's positions are always 0..n-1 and chunk IDs follow them.
type Pipeline struct {
	steps []driven.PostProcessor
}

// NewPipeline creates a pipeline running steps in the given order.
func NewPipeline(steps ...driven.PostProcessor) *Pipeline {
	return &Pipeline{steps: steps}
}

// Process chunks doc. A document with no usable text yields no chunks and no error.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}
	if len(p.steps) == 0 {
		return nil, fmt.Errorf("%w: pipeline has no processors", domain.ErrInvalidInput)
	}

	var chunks []domain.Chunk
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := step.Process(ctx, doc, chunks)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", step.Name(), doc.ID, err)
		}
		chunks = out
	}
	return renumber(doc.ID, chunks), nil
}

// renumber drops blank chunks and makes positions contiguous.
func renumber(documentID string, chunks []domain.Chunk) []domain.Chunk {
	var out []domain.Chunk
	for _, c := range chunks {
		if strings.TrimSpace(c.Content) == "" {
			continue
		}
		pos := len(out)
		if c.ID == "" || c.Position != pos {
			c.ID = chunker.ChunkID(documentID, pos)
			c.Position = pos
		}
		c.DocumentID = documentID
		out = append(out, c)
	}
	return out
}

// Add appends a step.
func (p *Pipeline) Add(step driven.PostProcessor) {
	p.steps = append(p.steps, step)
}

// Names lists the steps in run order, for logging.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name()
	}
	return names
}
