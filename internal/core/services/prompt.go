package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

const (
	// charsPerToken converts token budgets into character budgets.
	charsPerToken = 4

	// minContextChars keeps some context in the prompt however small the window.
	minContextChars = 256

	contextSeparator = "\n\n"
)

// buildPrompt fills the answer template with the retrieved context and the
// question. Chunks are added in rank order while they fit budget characters;
// the first usable chunk is cut to fit if it alone is too long.
func buildPrompt(template string, sources []domain.RetrievedChunk, question string, budget int) string {
	var b strings.Builder
	for _, src := range sources {
		text := strings.TrimSpace(src.Chunk.Content)
		if text == "" {
			continue
		}

		need := len(text)
		if b.Len() > 0 {
			need += len(contextSeparator)
		}
		if b.Len()+need > budget {
			if b.Len() == 0 {
				b.WriteString(truncate(text, budget))
			}
			break
		}

		if b.Len() > 0 {
			b.WriteString(contextSeparator)
		}
		b.WriteString(text)
	}
	return fmt.Sprintf(template, b.String(), question)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
