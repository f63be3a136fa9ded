package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// HistoryStore persists asked questions and their outcomes.
type HistoryStore interface {
	// Record stores one question.
	Record(ctx context.Context, rec domain.HistoryRecord) error

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]domain.HistoryRecord, error)

	// Close releases resources.
	Close() error
}
