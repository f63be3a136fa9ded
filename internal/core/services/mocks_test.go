package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockSource implements driven.DocumentSource for testing.
type mockSource struct {
	mu      sync.Mutex
	dir     string
	docs    []domain.Document
	loadErr error
	changes chan domain.CorpusChange
	loads   int
	closed  bool
}

func newMockSource(docs ...domain.Document) *mockSource {
	return &mockSource{dir: "/corpus", docs: docs}
}

func (m *mockSource) Dir() string { return m.dir }

func (m *mockSource) Load(_ context.Context) ([]domain.Document, domain.LoadReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.loadErr != nil {
		return nil, domain.LoadReport{}, m.loadErr
	}
	docs := make([]domain.Document, len(m.docs))
	copy(docs, m.docs)
	return docs, domain.LoadReport{Dir: m.dir}, nil
}

func (m *mockSource) Watch(_ context.Context) (<-chan domain.CorpusChange, error) {
	if m.changes == nil {
		return nil, errors.New("watch not supported")
	}
	return m.changes, nil
}

func (m *mockSource) Close() error {
	m.closed = true
	return nil
}

func (m *mockSource) setDocs(docs ...domain.Document) {
	m.mu.Lock()
	m.docs = docs
	m.mu.Unlock()
}

func (m *mockSource) setLoadErr(err error) {
	m.mu.Lock()
	m.loadErr = err
	m.mu.Unlock()
}

func (m *mockSource) loadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads
}

// mockEmbedder implements driven.EmbeddingService for testing.
// Vectors count occurrences of each vocabulary word.
type mockEmbedder struct {
	vocab    []string
	embedErr error
	batchErr error
	short    bool
	panicMsg string
	// queryDims truncates Embed output when set.
	queryDims int
	mu       sync.Mutex
	batched  int
	closed   bool
}

func newMockEmbedder(vocab ...string) *mockEmbedder {
	return &mockEmbedder{vocab: vocab}
}

func (m *mockEmbedder) vector(text string) []float32 {
	text = strings.ToLower(text)
	vec := make([]float32, len(m.vocab))
	for i, w := range m.vocab {
		vec[i] = float32(strings.Count(text, w))
	}
	return vec
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	vec := m.vector(text)
	if m.queryDims > 0 && m.queryDims < len(vec) {
		vec = vec[:m.queryDims]
	}
	return vec, nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	m.mu.Lock()
	m.batched += len(texts)
	m.mu.Unlock()

	vecs := make([][]float32, 0, len(texts))
	for _, t := range texts {
		vecs = append(vecs, m.vector(t))
	}
	if m.short && len(vecs) > 0 {
		vecs = vecs[:len(vecs)-1]
	}
	return vecs, nil
}

func (m *mockEmbedder) Dimensions() int   { return len(m.vocab) }
func (m *mockEmbedder) ModelName() string { return "mock-embed" }

func (m *mockEmbedder) Ping(_ context.Context) error {
	return m.embedErr
}

func (m *mockEmbedder) Close() error {
	m.closed = true
	return nil
}

func (m *mockEmbedder) batchedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batched
}

// mockLLM implements driven.LLMService for testing.
type mockLLM struct {
	mu       sync.Mutex
	answer   string
	err      error
	pingErr  error
	panicMsg string
	prompts  []string
	opts     []driven.GenerateOptions
	closed   bool
}

func (m *mockLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

func (m *mockLLM) ModelName() string { return "mock-llm" }

func (m *mockLLM) Ping(_ context.Context) error {
	return m.pingErr
}

func (m *mockLLM) Close() error {
	m.closed = true
	return nil
}

func (m *mockLLM) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

// mockPrompts implements driven.PromptStore for testing.
type mockPrompts struct {
	mu       sync.Mutex
	template string
	err      error
	reloads  int
}

func (m *mockPrompts) Load(_ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	return m.template, nil
}

func (m *mockPrompts) Reload() {
	m.mu.Lock()
	m.reloads++
	m.mu.Unlock()
}

// mockCache implements driven.EmbeddingCache for testing.
type mockCache struct {
	mu      sync.Mutex
	vectors map[string][]float32
	getErr  error
	closed  bool
}

func newMockCache() *mockCache {
	return &mockCache{vectors: make(map[string][]float32)}
}

func (m *mockCache) Get(_ context.Context, model, text string) ([]float32, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	vec, ok := m.vectors[model+"|"+text]
	return vec, ok, nil
}

func (m *mockCache) Put(_ context.Context, model, text string, vector []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors[model+"|"+text] = vector
	return nil
}

func (m *mockCache) Close() error {
	m.closed = true
	return nil
}

// mockHistory implements driven.HistoryStore for testing.
type mockHistory struct {
	mu        sync.Mutex
	records   []domain.HistoryRecord
	recordErr error
	recentErr error
	limits    []int
	closed    bool
}

func (m *mockHistory) Record(_ context.Context, rec domain.HistoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recordErr != nil {
		return m.recordErr
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *mockHistory) Recent(_ context.Context, limit int) ([]domain.HistoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limits = append(m.limits, limit)
	if m.recentErr != nil {
		return nil, m.recentErr
	}
	return m.records, nil
}

func (m *mockHistory) Close() error {
	m.closed = true
	return nil
}

// mockPipeline implements driving.QueryPipeline for testing.
type mockPipeline struct {
	mu         sync.Mutex
	rebuilds   int
	rebuildErr error
	rebuilt    chan struct{}
}

func (m *mockPipeline) Build(_ context.Context) (domain.IndexStats, error) {
	return domain.IndexStats{}, nil
}

func (m *mockPipeline) Rebuild(_ context.Context) (domain.IndexStats, error) {
	m.mu.Lock()
	m.rebuilds++
	err := m.rebuildErr
	m.mu.Unlock()
	if m.rebuilt != nil {
		m.rebuilt <- struct{}{}
	}
	return domain.IndexStats{Documents: 1}, err
}

func (m *mockPipeline) Ask(_ context.Context, question string) domain.Answer {
	return domain.Answer{Question: question}
}

func (m *mockPipeline) Ready() bool { return true }

func (m *mockPipeline) Stats() (domain.IndexStats, bool) {
	return domain.IndexStats{}, true
}

func (m *mockPipeline) Close() error { return nil }

func (m *mockPipeline) rebuildCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rebuilds
}
