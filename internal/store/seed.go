package store

import (
	"context"

	"github.com/Rohit-Deshmukh/Voice-Framework/internal/models"
)

// SampleScripts returns the built-in scripts the server auto-loads when
// running against the in-memory store.
func SampleScripts() []*models.Script {
	return []*models.Script{
		{
			ID:      "greeting-basic",
			Persona: "Polite first-time caller",
			Turns: []models.TurnExpectation{
				{TurnIndex: 1, UserLine: "Hello, is anyone there?", ExpectedKeywords: []string{"hello", "help"}},
				{TurnIndex: 2, UserLine: "I'd like to check my account balance", ExpectedKeywords: []string{"account", "balance"}},
				{TurnIndex: 3, UserLine: "That's all, thank you", ExpectedKeywords: []string{"thank"}},
			},
		},
		{
			ID:      "refund-escalation",
			Persona: "Frustrated customer seeking a refund",
			Turns: []models.TurnExpectation{
				{TurnIndex: 1, UserLine: "My order arrived broken and I want a refund", ExpectedKeywords: []string{"sorry", "order"}},
				{TurnIndex: 2, UserLine: "The order number is 88421", ExpectedKeywords: []string{"88421"}},
				{TurnIndex: 3, UserLine: "How long will the refund take?", ExpectedKeywords: []string{"business days"}},
			},
		},
		{
			ID:      "hours-exact",
			Persona: "Caller asking for opening hours",
			Turns: []models.TurnExpectation{
				{TurnIndex: 1, UserLine: "What are your opening hours?", ExpectedKeywords: []string{"we are open 9am to 5pm monday through friday"}, ExactMatch: true},
			},
		},
	}
}

// Seed loads the sample scripts into a script store.
func Seed(ctx context.Context, scripts ScriptStore) error {
	for _, s := range SampleScripts() {
		if err := scripts.PutScript(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
