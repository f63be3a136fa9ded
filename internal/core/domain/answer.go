package domain

import (
	"errors"
	"time"
)

// DefaultFallbackAnswer is displayed whenever a question could not be answered.
const DefaultFallbackAnswer = "I could not answer the question."

// Outcome classifies the result of asking a question.
type Outcome string

// Possible outcomes of a question.
const (
	// OutcomeAnswered means Text holds a generated answer.
	OutcomeAnswered Outcome = "answered"

	// OutcomeNoRelevantDocuments means retrieval found nothing to answer from.
	OutcomeNoRelevantDocuments Outcome = "no_relevant_documents"

	// OutcomeBackendUnavailable means the embedding or generation backend failed.
	OutcomeBackendUnavailable Outcome = "backend_unavailable"

	// OutcomeInvalidQuestion means the question was empty or unusable.
	OutcomeInvalidQuestion Outcome = "invalid_question"

	// OutcomeNotReady means the pipeline has no index to serve from.
	OutcomeNotReady Outcome = "not_ready"
)

// IsValid returns true if the outcome is recognised.
func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeAnswered, OutcomeNoRelevantDocuments, OutcomeBackendUnavailable,
		OutcomeInvalidQuestion, OutcomeNotReady:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (o Outcome) String() string {
	return string(o)
}

// Description returns a human-readable description of the outcome.
func (o Outcome) Description() string {
	switch o {
	case OutcomeAnswered:
		return "Answered"
	case OutcomeNoRelevantDocuments:
		return "No relevant documents"
	case OutcomeBackendUnavailable:
		return "Backend unavailable"
	case OutcomeInvalidQuestion:
		return "Invalid question"
	case OutcomeNotReady:
		return "Not ready"
	default:
		return "Unknown"
	}
}

// OutcomeForError maps a serve-phase error to its outcome.
func OutcomeForError(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeAnswered
	case errors.Is(err, ErrNotReady), errors.Is(err, ErrEmptyCorpus):
		return OutcomeNotReady
	case errors.Is(err, ErrInvalidInput):
		return OutcomeInvalidQuestion
	case errors.Is(err, ErrNoRelevantDocuments):
		return OutcomeNoRelevantDocuments
	default:
		return OutcomeBackendUnavailable
	}
}

// Answer is the result of asking the pipeline a question.
// It is either a generated answer or a failure with a reason.
type Answer struct {
	// Question is the question as asked.
	Question string

	// Text is the generated answer. Empty unless Outcome is OutcomeAnswered.
	Text string

	// Outcome classifies the result.
	Outcome Outcome

	// Reason is the underlying failure. Nil when answered.
	Reason error

	// Sources are the chunks the answer was generated from.
	Sources []RetrievedChunk

	// Fallback is the text shown when the question was not answered.
	Fallback string

	// AskedAt is when the question was received.
	AskedAt time.Time

	// Duration is how long answering took.
	Duration time.Duration
}

// Answered returns true if the answer holds generated text.
func (a Answer) Answered() bool {
	return a.Outcome == OutcomeAnswered
}

// Display returns the text a user interface should show.
// It never returns an empty string.
func (a Answer) Display() string {
	if a.Answered() && a.Text != "" {
		return a.Text
	}
	if a.Fallback != "" {
		return a.Fallback
	}
	return DefaultFallbackAnswer
}

// ReasonString returns the failure reason as text, or "" when answered.
func (a Answer) ReasonString() string {
	if a.Reason == nil {
		return ""
	}
	return a.Reason.Error()
}
