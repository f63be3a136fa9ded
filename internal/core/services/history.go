package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ensure HistoryService implements the interface.
var _ driving.HistoryService = (*HistoryService)(nil)

// DefaultHistoryLimit is used when Recent is called without a positive limit.
const DefaultHistoryLimit = 20

// HistoryService reads recorded questions.
type HistoryService struct {
	store driven.HistoryStore
}

// NewHistoryService creates a history service. A nil store means history is disabled.
func NewHistoryService(store driven.HistoryStore) *HistoryService {
	return &HistoryService{store: store}
}

// Recent returns up to limit records, newest first.
func (s *HistoryService) Recent(ctx context.Context, limit int) ([]domain.HistoryRecord, error) {
	if s.store == nil {
		return nil, domain.ErrHistoryDisabled
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	records, err := s.store.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return records, nil
}
