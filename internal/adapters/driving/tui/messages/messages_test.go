package messages

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestMessages_AreTeaMessages(t *testing.T) {
	msgs := []tea.Msg{
		AskRequested{Seq: 1, Question: "q"},
		AnswerReceived{Seq: 1, Answer: domain.Answer{Question: "q"}},
		StatsLoaded{Ready: true},
		HistoryLoaded{Err: errors.New("x")},
		ErrorOccurred{Err: errors.New("x")},
	}

	for _, m := range msgs {
		switch m.(type) {
		case AskRequested, AnswerReceived, StatsLoaded, HistoryLoaded, ErrorOccurred:
		default:
			t.Fatalf("unexpected message type %T", m)
		}
	}
}

func TestAnswerReceived_CarriesSeq(t *testing.T) {
	req := AskRequested{Seq: 7, Question: "what do cats eat?"}
	msg := AnswerReceived{Seq: req.Seq, Answer: domain.Answer{Question: req.Question}}

	assert.Equal(t, 7, msg.Seq)
	assert.Equal(t, "what do cats eat?", msg.Answer.Question)
}
