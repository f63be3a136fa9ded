package postprocessors

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/postprocessors/chunker"
	"github.com/custodia-labs/docqa/internal/postprocessors/whole"
)

// stubProcessor replaces the chunks it receives with a fixed set, or passes
// them through when chunks is nil.
type stubProcessor struct {
	name   string
	chunks []domain.Chunk
	err    error
	seen   []domain.Chunk
}

func (s *stubProcessor) Name() string { return s.name }

func (s *stubProcessor) Process(_ context.Context, _ *domain.Document, in []domain.Chunk) ([]domain.Chunk, error) {
	s.seen = in
	if s.err != nil {
		return nil, s.err
	}
	if s.chunks != nil {
		return s.chunks, nil
	}
	return in, nil
}

func TestPipeline_RejectsNilDocument(t *testing.T) {
	_, err := NewPipeline(whole.New()).Process(context.Background(), nil)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestPipeline_RequiresAProcessor(t *testing.T) {
	_, err := NewPipeline().Process(context.Background(), &domain.Document{ID: "a.txt", Content: "text"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestPipeline_WholeDocument(t *testing.T) {
	doc := &domain.Document{ID: "cats.txt", Content: "The cat eats fish."}

	chunks, err := NewPipeline(whole.New()).Process(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Content != doc.Content || chunks[0].DocumentID != "cats.txt" {
		t.Errorf("unexpected chunk %+v", chunks[0])
	}
	if chunks[0].ID != chunker.ChunkID("cats.txt", 0) {
		t.Errorf("expected stable ID, got %q", chunks[0].ID)
	}
}

func TestPipeline_StepsRunInOrder(t *testing.T) {
	split := &stubProcessor{name: "split", chunks: []domain.Chunk{
		{ID: "c0", Content: "one", Position: 0},
		{ID: "c1", Content: "two", Position: 1},
	}}
	rewrite := &stubProcessor{name: "rewrite"}

	p := NewPipeline(split)
	p.Add(rewrite)

	chunks, err := p.Process(context.Background(), &domain.Document{ID: "d"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if split.seen != nil {
		t.Errorf("first step should receive no chunks, got %v", split.seen)
	}
	if len(rewrite.seen) != 2 {
		t.Errorf("second step should receive the split chunks, got %v", rewrite.seen)
	}
	if len(chunks) != 2 || chunks[0].ID != "c0" || chunks[1].ID != "c1" {
		t.Errorf("unexpected chunks %+v", chunks)
	}
	if got := p.Names(); !reflect.DeepEqual(got, []string{"split", "rewrite"}) {
		t.Errorf("unexpected names %v", got)
	}
}

func TestPipeline_DropsBlankChunksAndRenumbers(t *testing.T) {
	split := &stubProcessor{name: "split", chunks: []domain.Chunk{
		{ID: "c0", Content: "first", Position: 0},
		{ID: "c1", Content: "  \n\t", Position: 1},
		{ID: "c2", Content: "third", Position: 2},
	}}

	chunks, err := NewPipeline(split).Process(context.Background(), &domain.Document{ID: "notes.txt"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].ID != "c0" || chunks[0].Position != 0 {
		t.Errorf("first chunk changed: %+v", chunks[0])
	}
	if chunks[1].Position != 1 || chunks[1].ID != chunker.ChunkID("notes.txt", 1) {
		t.Errorf("second chunk not renumbered: %+v", chunks[1])
	}
	if chunks[1].Content != "third" {
		t.Errorf("unexpected content %q", chunks[1].Content)
	}
}

func TestPipeline_BlankDocument(t *testing.T) {
	chunks, err := NewPipeline(whole.New()).Process(context.Background(), &domain.Document{ID: "empty.txt", Content: "   "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks, got %v", chunks)
	}
}

func TestPipeline_StepError(t *testing.T) {
	boom := errors.New("boom")
	p := NewPipeline(&stubProcessor{name: "split", err: boom})

	_, err := p.Process(context.Background(), &domain.Document{ID: "a.txt"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped step error, got %v", err)
	}
	if got := err.Error(); got != "split a.txt: boom" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestPipeline_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPipeline(whole.New()).Process(ctx, &domain.Document{ID: "a.txt", Content: "x"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
