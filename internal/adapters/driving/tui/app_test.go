package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// --- Mock implementations ---

// mockPipeline implements driving.QueryPipeline for testing.
type mockPipeline struct {
	answer    domain.Answer
	stats     domain.IndexStats
	ready     bool
	questions []string
}

func (m *mockPipeline) Build(context.Context) (domain.IndexStats, error)   { return m.stats, nil }
func (m *mockPipeline) Rebuild(context.Context) (domain.IndexStats, error) { return m.stats, nil }
func (m *mockPipeline) Ready() bool                                        { return m.ready }
func (m *mockPipeline) Stats() (domain.IndexStats, bool)                   { return m.stats, m.ready }
func (m *mockPipeline) Close() error                                       { return nil }

func (m *mockPipeline) Ask(_ context.Context, question string) domain.Answer {
	m.questions = append(m.questions, question)
	a := m.answer
	a.Question = question
	return a
}

// mockHistory implements driving.HistoryService for testing.
type mockHistory struct {
	records []domain.HistoryRecord
	err     error
}

func (m *mockHistory) Recent(context.Context, int) ([]domain.HistoryRecord, error) {
	return m.records, m.err
}

func catAnswer() domain.Answer {
	return domain.Answer{
		Text:    "Cats eat fish.",
		Outcome: domain.OutcomeAnswered,
		Sources: []domain.RetrievedChunk{
			{Chunk: domain.Chunk{DocumentID: "d1", Content: "A cat likes fish."}, DocumentPath: "/corpus/cats.txt", Similarity: 0.9},
		},
	}
}

func newTestApp(t *testing.T, pipeline *mockPipeline) *App {
	t.Helper()
	app, err := NewApp(&Ports{Pipeline: pipeline})
	require.NoError(t, err)
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return app
}

func typeText(app *App, text string) {
	for _, r := range text {
		app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// askAndAnswer submits text and delivers the resulting answer message.
func askAndAnswer(t *testing.T, app *App, text string) {
	t.Helper()
	typeText(app, text)
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	app.Update(app.ask(app.seq, text)())
}

func TestNewApp(t *testing.T) {
	t.Run("requires a pipeline", func(t *testing.T) {
		app, err := NewApp(&Ports{})
		assert.ErrorIs(t, err, ErrMissingPipeline)
		assert.Nil(t, app)
	})

	t.Run("nil ports", func(t *testing.T) {
		app, err := NewApp(nil)
		assert.ErrorIs(t, err, ErrMissingPipeline)
		assert.Nil(t, app)
	})

	t.Run("valid ports", func(t *testing.T) {
		app, err := NewApp(&Ports{Pipeline: &mockPipeline{}})
		require.NoError(t, err)
		assert.False(t, app.Ready())
		assert.False(t, app.Asking())
		assert.Contains(t, app.View(), "Type a question")
	})
}

func TestApp_WithContext(t *testing.T) {
	app := newTestApp(t, &mockPipeline{})

	type contextKey string
	ctx := context.WithValue(context.Background(), contextKey("key"), "value")

	assert.Equal(t, app, app.WithContext(ctx))
	assert.Equal(t, ctx, app.ctx)
}

func TestApp_Init(t *testing.T) {
	app := newTestApp(t, &mockPipeline{})

	assert.NotNil(t, app.Init())
}

func TestApp_WindowSize(t *testing.T) {
	app, err := NewApp(&Ports{Pipeline: &mockPipeline{}})
	require.NoError(t, err)

	model, cmd := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.Equal(t, app, model)
	assert.Nil(t, cmd)
	assert.True(t, app.Ready())
	assert.Equal(t, 120, app.transcript.Width)
	assert.Equal(t, 35, app.transcript.Height)
}

func TestApp_AskFlow(t *testing.T) {
	pipeline := &mockPipeline{answer: catAnswer(), ready: true}
	app := newTestApp(t, pipeline)

	typeText(app, "what do cats eat?")
	assert.Equal(t, "what do cats eat?", app.Question())

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, app.Asking())
	assert.Empty(t, app.Question())
	assert.Equal(t, status.StateAsking, app.statusbar.State())
	assert.Contains(t, app.View(), "thinking")

	msg := app.ask(app.seq, "what do cats eat?")()
	app.Update(msg)

	assert.False(t, app.Asking())
	assert.Equal(t, []string{"what do cats eat?"}, pipeline.questions)
	require.Len(t, app.Answers(), 1)
	assert.Equal(t, "Cats eat fish.", app.Answers()[0].Text)
	assert.Contains(t, app.View(), "Cats eat fish.")
	assert.Equal(t, status.StateReady, app.statusbar.State())
}

func TestApp_FallbackAnswer(t *testing.T) {
	pipeline := &mockPipeline{answer: domain.Answer{
		Outcome:  domain.OutcomeBackendUnavailable,
		Reason:   errors.New("connection refused"),
		Fallback: "I could not answer the question.",
	}}
	app := newTestApp(t, pipeline)

	askAndAnswer(t, app, "anything")

	assert.Contains(t, app.View(), "I could not answer the question.")
	assert.Equal(t, status.StateError, app.statusbar.State())
	assert.Equal(t, domain.OutcomeBackendUnavailable.Description(), app.statusbar.Message())
}

func TestApp_BlankQuestionIgnored(t *testing.T) {
	pipeline := &mockPipeline{}
	app := newTestApp(t, pipeline)

	typeText(app, "   ")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.False(t, app.Asking())
	assert.Empty(t, app.Answers())
}

func TestApp_SecondQuestionWaitsForFirst(t *testing.T) {
	app := newTestApp(t, &mockPipeline{answer: catAnswer()})

	typeText(app, "first")
	app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	typeText(app, "second")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Equal(t, 1, app.seq)
	assert.Equal(t, "second", app.Question())
}

func TestApp_StaleAnswerIgnored(t *testing.T) {
	app := newTestApp(t, &mockPipeline{answer: catAnswer()})
	typeText(app, "question")
	app.Update(tea.KeyMsg{Type: tea.KeyEnter})

	app.Update(messages.AnswerReceived{Seq: app.seq + 1, Answer: catAnswer()})

	assert.True(t, app.Asking())
	assert.Empty(t, app.Answers())
}

func TestApp_SourcesPanel(t *testing.T) {
	app := newTestApp(t, &mockPipeline{answer: catAnswer()})

	// Nothing to show before the first answer.
	app.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.False(t, app.ShowingSources())

	askAndAnswer(t, app, "what do cats eat?")

	app.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.True(t, app.ShowingSources())
	assert.Equal(t, status.StateSources, app.statusbar.State())
	assert.Contains(t, app.View(), "cats.txt")

	app.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.False(t, app.ShowingSources())
	assert.Equal(t, status.StateReady, app.statusbar.State())
}

func TestApp_Recall(t *testing.T) {
	app := newTestApp(t, &mockPipeline{answer: catAnswer()})
	app.Update(messages.HistoryLoaded{Records: []domain.HistoryRecord{
		{Question: "older question"},
	}})

	askAndAnswer(t, app, "newest question")

	app.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "newest question", app.Question())

	app.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "older question", app.Question())

	app.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "older question", app.Question())

	app.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, "newest question", app.Question())

	app.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Empty(t, app.Question())
}

func TestApp_HistoryError(t *testing.T) {
	app := newTestApp(t, &mockPipeline{})

	app.Update(messages.HistoryLoaded{Err: errors.New("db down")})
	app.Update(tea.KeyMsg{Type: tea.KeyUp})

	assert.Empty(t, app.Question())
}

func TestApp_LoadHistory(t *testing.T) {
	t.Run("records", func(t *testing.T) {
		history := &mockHistory{records: []domain.HistoryRecord{{Question: "q1"}}}
		app, err := NewApp(&Ports{Pipeline: &mockPipeline{}, History: history})
		require.NoError(t, err)

		msg, ok := app.loadHistory()().(messages.HistoryLoaded)

		require.True(t, ok)
		assert.NoError(t, msg.Err)
		assert.Len(t, msg.Records, 1)
	})

	t.Run("disabled is not an error", func(t *testing.T) {
		history := &mockHistory{err: domain.ErrHistoryDisabled}
		app, err := NewApp(&Ports{Pipeline: &mockPipeline{}, History: history})
		require.NoError(t, err)

		msg := app.loadHistory()().(messages.HistoryLoaded)

		assert.NoError(t, msg.Err)
	})
}

func TestApp_Stats(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		pipeline := &mockPipeline{ready: true, stats: domain.IndexStats{Documents: 4, Chunks: 9}}
		app := newTestApp(t, pipeline)

		app.Update(app.loadStats()())

		assert.Contains(t, app.View(), "4 documents, 9 chunks")
	})

	t.Run("not ready", func(t *testing.T) {
		app := newTestApp(t, &mockPipeline{})

		app.Update(app.loadStats()())

		assert.Equal(t, status.StateNotReady, app.statusbar.State())
	})
}

func TestApp_ClearAndReset(t *testing.T) {
	app := newTestApp(t, &mockPipeline{answer: catAnswer()})
	askAndAnswer(t, app, "question")

	typeText(app, "draft")
	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, app.Question())

	app.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.Empty(t, app.Answers())
	assert.Contains(t, app.View(), "Type a question")
}

func TestApp_HelpToggle(t *testing.T) {
	app := newTestApp(t, &mockPipeline{})
	before := app.transcript.Height

	app.Update(tea.KeyMsg{Type: tea.KeyF1})

	assert.Contains(t, app.View(), "clear transcript")
	assert.Equal(t, before-1, app.transcript.Height)
}

func TestApp_Quit(t *testing.T) {
	app := newTestApp(t, &mockPipeline{})

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_ErrorOccurred(t *testing.T) {
	app := newTestApp(t, &mockPipeline{})

	app.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.Equal(t, status.StateError, app.statusbar.State())
	assert.Contains(t, app.View(), "boom")
}
