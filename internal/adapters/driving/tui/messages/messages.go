// Package messages defines Bubbletea message types for the chat TUI.
package messages

import (
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// AskRequested is a command to answer a question.
type AskRequested struct {
	// Seq numbers the request so stale answers can be told apart.
	Seq      int
	Question string
}

// AnswerReceived carries an answer back to the model.
type AnswerReceived struct {
	Seq    int
	Answer domain.Answer
}

// StatsLoaded carries the index statistics.
type StatsLoaded struct {
	Stats domain.IndexStats
	Ready bool
}

// HistoryLoaded carries previously asked questions.
type HistoryLoaded struct {
	Records []domain.HistoryRecord
	Err     error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}
