// Package vector selects a vector index implementation.
package vector

import (
	"fmt"

	"github.com/custodia-labs/docqa/internal/adapters/driven/vector/chromem"
	"github.com/custodia-labs/docqa/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// NewFactory returns the index constructor for a backend.
func NewFactory(backend domain.VectorBackend) (driven.VectorIndexFactory, error) {
	switch backend {
	case domain.VectorBackendMemory, "":
		return memory.Factory, nil
	case domain.VectorBackendChromem:
		return chromem.Factory, nil
	default:
		return nil, fmt.Errorf("%w: unknown vector backend %q", domain.ErrVectorIndexUnavailable, backend)
	}
}
