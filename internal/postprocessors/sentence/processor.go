// Package sentence provides a chunking processor that groups whole sentences.
package sentence

import (
	"context"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/postprocessors/chunker"
	"github.com/custodia-labs/docqa/internal/textutil"
)

// DefaultSentencesPerChunk is the default group size.
const DefaultSentencesPerChunk = 5

// DefaultOverlap is the default number of sentences shared by neighbouring chunks.
const DefaultOverlap = 1

// Processor groups sentences into chunks with sentence overlap.
type Processor struct {
	sentencesPerChunk int
	overlap           int
}

// Option configures the sentence processor.
type Option func(*Processor)

// WithSentencesPerChunk sets the number of sentences per chunk.
func WithSentencesPerChunk(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.sentencesPerChunk = n
		}
	}
}

// WithOverlap sets the number of overlapping sentences.
func WithOverlap(n int) Option {
	return func(p *Processor) {
		if n >= 0 {
			p.overlap = n
		}
	}
}

// New creates a sentence processor.
func New(opts ...Option) *Processor {
	p := &Processor{
		sentencesPerChunk: DefaultSentencesPerChunk,
		overlap:           DefaultOverlap,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.overlap >= p.sentencesPerChunk {
		p.overlap = p.sentencesPerChunk - 1
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "sentence"
}

// Process groups the document's sentences. Input chunks are ignored.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	sentences := textutil.Sentences(doc.Content)
	if len(sentences) == 0 {
		return nil, nil
	}

	var chunks []domain.Chunk
	for i, position := 0, 0; i < len(sentences); position++ {
		end := min(i+p.sentencesPerChunk, len(sentences))
		chunks = append(chunks, domain.Chunk{
			ID:         chunker.ChunkID(doc.ID, position),
			DocumentID: doc.ID,
			Content:    strings.Join(sentences[i:end], " "),
			Position:   position,
			Metadata:   map[string]any{"first_sentence": i, "sentences": end - i},
		})
		if end == len(sentences) {
			break
		}
		i = end - p.overlap
	}
	return chunks, nil
}
