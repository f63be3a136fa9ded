package domain

import "time"

// Document is one file of the corpus as loaded at build time.
// Documents are immutable after loading; a new build produces new values.
type Document struct {
	// ID is the unique identifier for the document (its source path).
	ID string

	// Path is the file the content was read from.
	Path string

	// Title is the human-readable title derived from the file name.
	Title string

	// Content is the full text of the file.
	Content string

	// Size is the file size in bytes.
	Size int64

	// ModTime is the file modification time observed at load.
	ModTime time.Time

	// Metadata contains arbitrary key-value pairs (e.g. mime_type).
	Metadata map[string]any
}

// Chunk represents a retrievable unit within a document.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	// It is derived from DocumentID and Position, so rebuilding an
	// unchanged corpus yields the same IDs.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// Embedding is the vector representation used for retrieval.
	Embedding []float32

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}

// RetrievedChunk is a chunk returned by similarity search, with its document.
type RetrievedChunk struct {
	// Chunk is the matched chunk.
	Chunk Chunk

	// DocumentTitle is the title of the chunk's document.
	DocumentTitle string

	// DocumentPath is the path of the chunk's document.
	DocumentPath string

	// Similarity is the cosine similarity between question and chunk (0-1).
	Similarity float64
}

// SkippedFile records a corpus entry that could not be loaded.
type SkippedFile struct {
	// Path is the file that was skipped.
	Path string

	// Reason describes why it was skipped.
	Reason string
}

// LoadReport summarises one pass of the document source.
type LoadReport struct {
	// Dir is the corpus directory that was read.
	Dir string

	// Missing is true when the directory did not exist.
	Missing bool

	// Created is true when the missing directory was created.
	Created bool

	// Skipped lists files that were not loaded.
	Skipped []SkippedFile
}
