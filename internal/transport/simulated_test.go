package transport

import (
	"context"
	"testing"

	"github.com/Rohit-Deshmukh/Voice-Framework/internal/models"
	"github.com/stretchr/testify/require"
)

func TestKeywordEcho(t *testing.T) {
	script := &models.Script{
		ID:      "greet",
		Persona: "caller",
		Turns: []models.TurnExpectation{
			{TurnIndex: 1, UserLine: "Hi", ExpectedKeywords: []string{"hello", "welcome"}},
		},
	}
	tr := NewKeywordEcho(script)

	reply, err := tr.Send(context.Background(), Request{RunID: "r1", TurnIndex: 1, Text: "Hi"})
	require.NoError(t, err)
	require.Equal(t, "hello welcome", reply.Text)
}

func TestKeywordEcho_UnknownTurn(t *testing.T) {
	tr := NewKeywordEcho(&models.Script{ID: "greet", Turns: []models.TurnExpectation{
		{TurnIndex: 1, UserLine: "Hi", ExpectedKeywords: []string{"hello"}},
	}})

	_, err := tr.Send(context.Background(), Request{RunID: "r1", TurnIndex: 2, Text: "?"})
	require.Error(t, err)

	var terr *Error
	require.ErrorAs(t, err, &terr)
	require.Equal(t, 2, terr.TurnIndex)
}

func TestScripted_FailureInjection(t *testing.T) {
	tr := &Scripted{
		Replies: map[int]string{1: "hello", 2: "goodbye"},
		FailAt:  2,
	}

	_, err := tr.Send(context.Background(), Request{RunID: "r1", TurnIndex: 1})
	require.NoError(t, err)

	_, err = tr.Send(context.Background(), Request{RunID: "r1", TurnIndex: 2})
	require.Error(t, err)
	require.Len(t, tr.Sent, 2)
}
