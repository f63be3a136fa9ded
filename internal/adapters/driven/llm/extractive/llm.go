// Package extractive answers questions in process by selecting the context
// sentences that best match the question. It needs no model server, which
// makes it the backend of choice for offline use and reproducible tests.
package extractive

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/textutil"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultModel        = "extractive"
	DefaultMaxSentences = 3

	// charsPerToken converts a token budget into a character budget.
	charsPerToken = 4
)

// Config holds configuration for the extractive service.
type Config struct {
	// MaxSentences caps the number of sentences in an answer (default: 3).
	MaxSentences int
}

// LLMService selects answer sentences from the prompt's context block.
// Output depends only on the prompt and MaxTokens, so it is deterministic.
type LLMService struct {
	maxSentences int
}

// NewLLMService creates an extractive service.
func NewLLMService(cfg Config) *LLMService {
	if cfg.MaxSentences <= 0 {
		cfg.MaxSentences = DefaultMaxSentences
	}
	return &LLMService{maxSentences: cfg.MaxSentences}
}

// Generate returns the context sentences that share the most terms with
// the question, in their original order. It returns an empty string when
// no sentence mentions any question term.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	contextText, question := ParsePrompt(prompt)
	sentences := splitSentences(contextText)
	if len(sentences) == 0 {
		return "", nil
	}

	scored := s.rank(sentences, question)
	if len(scored) == 0 {
		return "", nil
	}

	limit := s.maxSentences
	if limit > len(scored) {
		limit = len(scored)
	}
	picked := scored[:limit]
	sort.Slice(picked, func(i, j int) bool { return picked[i].index < picked[j].index })

	budget := opts.MaxTokens * charsPerToken
	var out strings.Builder
	for _, p := range picked {
		sentence := sentences[p.index]
		if budget > 0 && out.Len() > 0 && out.Len()+1+len(sentence) > budget {
			break
		}
		if out.Len() > 0 {
			out.WriteByte(' ')
		}
		out.WriteString(sentence)
	}
	return out.String(), nil
}

type scoredSentence struct {
	index int
	score float64
}

// rank scores sentences by question-term overlap plus normalised corpus
// frequency, damped by the square root of sentence length. Sentences with
// no question term are dropped when the question has terms.
func (s *LLMService) rank(sentences []string, question string) []scoredSentence {
	queryTerms := make(map[string]struct{})
	for _, t := range textutil.Terms(question) {
		queryTerms[t] = struct{}{}
	}

	freq := make(map[string]float64)
	terms := make([][]string, len(sentences))
	for i, sentence := range sentences {
		terms[i] = textutil.Terms(sentence)
		for _, t := range terms[i] {
			freq[t]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		maxF = math.Max(maxF, v)
	}

	scored := make([]scoredSentence, 0, len(sentences))
	for i := range sentences {
		if len(terms[i]) == 0 {
			continue
		}
		var overlap, weight float64
		seen := make(map[string]struct{})
		for _, t := range terms[i] {
			weight += freq[t] / maxF
			if _, ok := queryTerms[t]; !ok {
				continue
			}
			if _, dup := seen[t]; !dup {
				overlap++
				seen[t] = struct{}{}
			}
		}
		if len(queryTerms) > 0 && overlap == 0 {
			continue
		}
		score := overlap*2 + weight/math.Sqrt(float64(len(terms[i])))
		scored = append(scored, scoredSentence{index: i, score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	return scored
}

// ParsePrompt extracts the context block and the question from a prompt.
// Without fences the whole prompt before the query line is treated as context.
func ParsePrompt(prompt string) (contextText, question string) {
	body := prompt
	if i := strings.LastIndex(body, driven.PromptQueryPrefix); i >= 0 {
		question = body[i+len(driven.PromptQueryPrefix):]
		if nl := strings.IndexByte(question, '\n'); nl >= 0 {
			question = question[:nl]
		}
		question = strings.TrimSpace(question)
		body = body[:i]
	}

	if start := strings.Index(body, driven.PromptContextFence); start >= 0 {
		rest := body[start+len(driven.PromptContextFence):]
		if end := strings.Index(rest, driven.PromptContextFence); end >= 0 {
			rest = rest[:end]
		}
		body = rest
	}
	return strings.TrimSpace(body), question
}

// splitSentences splits each paragraph separately so that sentences never
// span two retrieved chunks.
func splitSentences(text string) []string {
	var out []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.Join(strings.Fields(para), " ")
		out = append(out, textutil.Sentences(para)...)
	}
	return out
}

// ModelName returns the name of the model being used.
func (s *LLMService) ModelName() string {
	return DefaultModel
}

// Ping always succeeds; there is nothing to reach.
func (s *LLMService) Ping(context.Context) error {
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
