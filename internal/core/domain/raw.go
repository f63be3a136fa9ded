package domain

import "time"

// RawDocument represents opaque bytes read from the corpus directory.
// It is the document source's output before normalisation.
type RawDocument struct {
	// Path is the file the bytes were read from.
	Path string

	// MIMEType is the content type guessed from the file extension.
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// ModTime is the file modification time.
	ModTime time.Time

	// Metadata contains source-specific key-value pairs.
	Metadata map[string]any
}

// ChangeType represents the type of corpus change.
type ChangeType int

const (
	// ChangeCreated indicates a new file.
	ChangeCreated ChangeType = iota

	// ChangeUpdated indicates a modified file.
	ChangeUpdated

	// ChangeDeleted indicates a removed or renamed file.
	ChangeDeleted
)

// String returns the string representation.
func (c ChangeType) String() string {
	switch c {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// CorpusChange is a change observed in the corpus directory.
// Any change invalidates the whole index; it is never applied incrementally.
type CorpusChange struct {
	// Type is the kind of change.
	Type ChangeType

	// Path is the affected file.
	Path string
}
