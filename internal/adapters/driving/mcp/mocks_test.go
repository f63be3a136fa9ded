package mcp

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// mockPipeline is a mock implementation of driving.QueryPipeline.
type mockPipeline struct {
	answer    domain.Answer
	stats     domain.IndexStats
	ready     bool
	questions []string
}

func (m *mockPipeline) Build(_ context.Context) (domain.IndexStats, error) {
	return m.stats, nil
}

func (m *mockPipeline) Rebuild(_ context.Context) (domain.IndexStats, error) {
	return m.stats, nil
}

func (m *mockPipeline) Ask(_ context.Context, question string) domain.Answer {
	m.questions = append(m.questions, question)
	a := m.answer
	a.Question = question
	return a
}

func (m *mockPipeline) Ready() bool {
	return m.ready
}

func (m *mockPipeline) Stats() (domain.IndexStats, bool) {
	return m.stats, m.ready
}

func (m *mockPipeline) Close() error {
	return nil
}

// mockHistoryService is a mock implementation of driving.HistoryService.
type mockHistoryService struct {
	records []domain.HistoryRecord
	err     error
	limit   int
}

func (m *mockHistoryService) Recent(_ context.Context, limit int) ([]domain.HistoryRecord, error) {
	m.limit = limit
	return m.records, m.err
}
