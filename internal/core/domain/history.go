package domain

import "time"

// HistoryRecord is a persisted question and its result.
type HistoryRecord struct {
	// ID is the unique identifier for the record.
	ID string

	// Question is the question as asked.
	Question string

	// Answer is the displayed text (generated answer or fallback).
	Answer string

	// Outcome classifies the result.
	Outcome Outcome

	// Reason is the failure reason, empty when answered.
	Reason string

	// Sources lists the document IDs the answer drew on.
	Sources []string

	// AskedAt is when the question was received.
	AskedAt time.Time

	// Duration is how long answering took.
	Duration time.Duration
}

// NewHistoryRecord converts an answer into a record with the given ID.
func NewHistoryRecord(id string, a Answer) HistoryRecord {
	sources := make([]string, 0, len(a.Sources))
	seen := make(map[string]bool, len(a.Sources))
	for _, s := range a.Sources {
		if seen[s.Chunk.DocumentID] {
			continue
		}
		seen[s.Chunk.DocumentID] = true
		sources = append(sources, s.Chunk.DocumentID)
	}

	return HistoryRecord{
		ID:       id,
		Question: a.Question,
		Answer:   a.Display(),
		Outcome:  a.Outcome,
		Reason:   a.ReasonString(),
		Sources:  sources,
		AskedAt:  a.AskedAt,
		Duration: a.Duration,
	}
}
