package cli

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestAskCmd_Args(t *testing.T) {
	assert.Equal(t, "ask [question]", askCmd.Use)
	assert.Error(t, askCmd.Args(askCmd, nil))
	assert.NoError(t, askCmd.Args(askCmd, []string{"what", "now"}))
}

func TestAsk_PrintsAnswer(t *testing.T) {
	pipeline := &mockPipeline{answer: domain.Answer{
		Text:    "The cat eats fish.",
		Outcome: domain.OutcomeAnswered,
	}}
	useRuntime(t, pipeline)

	out, errOut, err := execute(t, "ask", "what", "does", "the", "cat", "eat?")

	require.NoError(t, err)
	assert.Equal(t, "The cat eats fish.\n", out)
	assert.Empty(t, errOut)
	assert.Equal(t, []string{"what does the cat eat?"}, pipeline.questions)
	assert.True(t, pipeline.closed)
}

func TestAsk_Fallback(t *testing.T) {
	pipeline := &mockPipeline{answer: domain.Answer{
		Outcome:  domain.OutcomeBackendUnavailable,
		Reason:   errors.New("connection refused"),
		Fallback: "Sorry, I could not answer that.",
	}}
	useRuntime(t, pipeline)

	out, errOut, err := execute(t, "ask", "anything")

	require.NoError(t, err)
	assert.Contains(t, out, "Sorry, I could not answer that.")
	assert.Contains(t, errOut, "connection refused")
}

func TestAsk_Sources(t *testing.T) {
	pipeline := &mockPipeline{answer: domain.Answer{
		Text:    "The dog sleeps outside.",
		Outcome: domain.OutcomeAnswered,
		Sources: []domain.RetrievedChunk{
			{Chunk: domain.Chunk{DocumentID: "d2", Position: 1}, DocumentPath: "/corpus/dogs.txt", Similarity: 0.8125},
		},
	}}
	useRuntime(t, pipeline)

	out, _, err := execute(t, "ask", "--sources", "where does the dog sleep?")

	require.NoError(t, err)
	assert.Contains(t, out, "Sources:")
	assert.Contains(t, out, "1. /corpus/dogs.txt (chunk 1, similarity 0.812)")
}

func TestAsk_JSON(t *testing.T) {
	pipeline := &mockPipeline{answer: domain.Answer{
		Text:     "Blue.",
		Outcome:  domain.OutcomeAnswered,
		Duration: 1500 * time.Millisecond,
		Sources: []domain.RetrievedChunk{
			{Chunk: domain.Chunk{DocumentID: "d1"}, DocumentTitle: "sky", Similarity: 0.5},
		},
	}}
	useRuntime(t, pipeline)

	out, _, err := execute(t, "ask", "--json", "what colour is the sky?")
	require.NoError(t, err)

	var got askOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "what colour is the sky?", got.Question)
	assert.Equal(t, "Blue.", got.Answer)
	assert.Equal(t, "answered", got.Outcome)
	assert.Equal(t, int64(1500), got.DurationMS)
	require.Len(t, got.Sources, 1)
	assert.Equal(t, "sky", got.Sources[0].Document)
}

func TestAsk_BuildFailure(t *testing.T) {
	pipeline := &mockPipeline{buildErr: domain.ErrEmptyCorpus}
	useRuntime(t, pipeline)

	_, _, err := execute(t, "ask", "anything")

	assert.ErrorIs(t, err, domain.ErrEmptyCorpus)
	assert.True(t, pipeline.closed)
	assert.Empty(t, pipeline.questions)
}

func TestAsk_OfflineCorpus(t *testing.T) {
	useMemorySettings(t)
	useOfflineBackends(t)
	corpus := writeCorpus(t, map[string]string{
		"cats.txt": "The cat eats fish every morning. The cat sleeps on the sofa.",
		"dogs.txt": "The dog guards the house at night.",
	})

	out, _, err := execute(t, "ask", "--corpus", corpus, "what does the cat eat?")

	require.NoError(t, err)
	assert.Contains(t, out, "fish")
}

func TestSourceLabel(t *testing.T) {
	tests := []struct {
		name   string
		source domain.RetrievedChunk
		want   string
	}{
		{
			name:   "path wins",
			source: domain.RetrievedChunk{DocumentPath: "/a/b.txt", DocumentTitle: "b"},
			want:   "/a/b.txt",
		},
		{
			name:   "title without path",
			source: domain.RetrievedChunk{DocumentTitle: "b"},
			want:   "b",
		},
		{
			name:   "document id",
			source: domain.RetrievedChunk{Chunk: domain.Chunk{DocumentID: "d9"}},
			want:   "document d9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sourceLabel(tt.source))
		})
	}
}
