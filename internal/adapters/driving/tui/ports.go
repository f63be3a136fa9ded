// Package tui provides an interactive terminal chat over the query pipeline.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI uses.
type Ports struct {
	// Pipeline answers questions. Required.
	Pipeline driving.QueryPipeline

	// History supplies earlier questions for recall. Optional.
	History driving.HistoryService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Pipeline == nil {
		return ErrMissingPipeline
	}
	return nil
}
