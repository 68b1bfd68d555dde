// Package sentiment produces the optional holistic score over a finished
// transcript. Scoring never blocks or fails a run: callers treat any error
// as an absent score, and the pass/fail verdict is never influenced by it.
package sentiment

import (
	"context"
	"strings"

	"github.com/Rohit-Deshmukh/Voice-Framework/internal/models"
)

// Labels for SentimentScore.Label.
const (
	LabelPass = "pass"
	LabelFail = "fail"
	LabelNone = "none"
)

// Scorer computes a holistic score over a full transcript.
type Scorer interface {
	Score(ctx context.Context, transcript []models.TranscriptEntry) (*models.SentimentScore, error)
}

// None returns the neutral/absent score used when no scorer is configured
// or the configured scorer failed.
func None() *models.SentimentScore {
	return &models.SentimentScore{Label: LabelNone}
}

var negativeMarkers = []string{"angry", "upset", "refund", "complain"}

// RuleBased is the deterministic scorer: a negative-marker heuristic over
// the agent's lines. It is total and serves as the fallback when the assist
// service is not wired.
type RuleBased struct{}

func (RuleBased) Score(_ context.Context, transcript []models.TranscriptEntry) (*models.SentimentScore, error) {
	var agentLines []string
	for _, entry := range transcript {
		if entry.Speaker == models.SpeakerAgent {
			agentLines = append(agentLines, entry.Text)
		}
	}

	if len(agentLines) == 0 {
		return &models.SentimentScore{
			Label:   LabelFail,
			Summary: "agent never responded",
		}, nil
	}

	joined := strings.ToLower(strings.Join(agentLines, " "))
	for _, marker := range negativeMarkers {
		if strings.Contains(joined, marker) {
			return &models.SentimentScore{
				Label:   LabelFail,
				Summary: "agent tone suggested frustration or refusal",
			}, nil
		}
	}

	return &models.SentimentScore{
		Label:   LabelPass,
		Summary: "agent maintained neutral or helpful tone",
	}, nil
}
