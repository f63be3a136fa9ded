package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// HistoryService exposes previously asked questions.
type HistoryService interface {
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]domain.HistoryRecord, error)
}
