// Package domain defines the core entities of docqa.
//
// This package is the innermost layer of the hexagonal architecture.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: one corpus file as loaded at build time
//   - Chunk: a retrievable unit of a document
//   - Answer: the result of asking a question (answer or failure with reason)
//   - IndexStats: a description of a built index
//   - AppSettings: every configurable knob, with defaults
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
