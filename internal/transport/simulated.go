package transport

import (
	"context"
	"fmt"
	"strings"

	"github.com/Rohit-Deshmukh/Voice-Framework/internal/models"
)

// KeywordEcho is the ideal-pass simulation transport: it answers every turn
// with that turn's expected keywords joined by spaces, so a well-formed
// script always evaluates to overall PASS. Useful for validating scripts
// before pointing them at a real agent.
type KeywordEcho struct {
	script *models.Script
}

// NewKeywordEcho creates a KeywordEcho bound to one script.
func NewKeywordEcho(script *models.Script) *KeywordEcho {
	return &KeywordEcho{script: script}
}

func (k *KeywordEcho) Send(ctx context.Context, req Request) (*Reply, error) {
	select {
	case <-ctx.Done():
		return nil, &Error{RunID: req.RunID, TurnIndex: req.TurnIndex, Err: ctx.Err()}
	default:
	}

	turn := k.script.Turn(req.TurnIndex)
	if turn == nil {
		return nil, &Error{
			RunID:     req.RunID,
			TurnIndex: req.TurnIndex,
			Err:       fmt.Errorf("script %s has no turn %d", k.script.ID, req.TurnIndex),
		}
	}
	return &Reply{Text: strings.Join(turn.ExpectedKeywords, " ")}, nil
}

// Scripted replays a fixed list of replies, one per turn, and can inject a
// failure at a chosen turn. It exists for engine and evaluator tests.
type Scripted struct {
	// Replies maps turn index to the agent's reply text.
	Replies map[int]string
	// FailAt, when non-zero, makes that turn's Send return FailErr.
	FailAt  int
	FailErr error

	// Sent records every request, in order.
	Sent []Request
}

func (s *Scripted) Send(ctx context.Context, req Request) (*Reply, error) {
	s.Sent = append(s.Sent, req)

	if s.FailAt != 0 && req.TurnIndex == s.FailAt {
		err := s.FailErr
		if err == nil {
			err = fmt.Errorf("injected failure at turn %d", req.TurnIndex)
		}
		return nil, &Error{RunID: req.RunID, TurnIndex: req.TurnIndex, Err: err}
	}

	text, ok := s.Replies[req.TurnIndex]
	if !ok {
		return nil, &Error{
			RunID:     req.RunID,
			TurnIndex: req.TurnIndex,
			Err:       fmt.Errorf("no scripted reply for turn %d", req.TurnIndex),
		}
	}
	return &Reply{Text: text}, nil
}
