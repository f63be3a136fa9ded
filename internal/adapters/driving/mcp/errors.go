// Package mcp serves the query pipeline over the Model Context Protocol so
// AI assistants can ask questions about the corpus.
package mcp

import "errors"

// ErrMissingPipeline is returned when the query pipeline is not provided.
var ErrMissingPipeline = errors.New("mcp: query pipeline is required")
