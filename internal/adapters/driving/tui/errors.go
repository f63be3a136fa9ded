package tui

import "errors"

// ErrMissingPipeline is returned when the query pipeline is not provided.
var ErrMissingPipeline = errors.New("tui: query pipeline is required")
