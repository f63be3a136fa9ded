package plaintext

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser turns the bytes of a text file into a document.
// The document content is the file text, unchanged.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
// Any other type is still accepted as long as the bytes are valid UTF-8.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/markdown",
		"text/csv",
		"text/html",
		"text/yaml",
		"text/toml",
		"text/x-go",
		"text/x-python",
		"text/x-shellscript",
		"text/x-sql",
		"application/json",
		"application/xml",
	}
}

// Normalise converts a raw document to a document.
// Bytes that are not valid UTF-8 are rejected with domain.ErrUnsupportedType.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if !utf8.Valid(raw.Content) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8 text", domain.ErrUnsupportedType, raw.Path)
	}

	metadata := copyMetadata(raw.Metadata)
	metadata["mime_type"] = raw.MIMEType

	return &driven.NormaliseResult{
		Document: domain.Document{
			ID:       raw.Path,
			Path:     raw.Path,
			Title:    titleFromMetadataOrPath(raw),
			Content:  string(raw.Content),
			Size:     int64(len(raw.Content)),
			ModTime:  raw.ModTime,
			Metadata: metadata,
		},
	}, nil
}

func titleFromMetadataOrPath(raw *domain.RawDocument) string {
	if title, ok := raw.Metadata["title"].(string); ok && title != "" {
		return title
	}
	return extractTitle(raw.Path)
}

// extractTitle derives a human-readable title from a file name.
func extractTitle(path string) string {
	filename := filepath.Base(path)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))

	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")

	return filename
}

func copyMetadata(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src)+1)
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
