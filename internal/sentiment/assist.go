package sentiment

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Rohit-Deshmukh/Voice-Framework/internal/assist"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/models"
)

// Assist delegates scoring to the assist service for richer summaries.
// Fails closed: any error falls back to the rule-based scorer.
type Assist struct {
	client   assist.Client
	fallback RuleBased
	logger   *slog.Logger
}

// NewAssist creates an assist-backed scorer.
func NewAssist(client assist.Client, logger *slog.Logger) *Assist {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assist{client: client, logger: logger}
}

func (a *Assist) Score(ctx context.Context, transcript []models.TranscriptEntry) (*models.SentimentScore, error) {
	if len(transcript) == 0 {
		return &models.SentimentScore{Label: LabelFail, Summary: "empty transcript"}, nil
	}

	summary, err := a.client.Generate(ctx, assist.JudgePrompt(transcript))
	if err != nil {
		a.logger.Debug("sentiment fell back to rule-based scorer", "error", err)
		return a.fallback.Score(ctx, transcript)
	}

	summary = strings.TrimSpace(summary)
	label := LabelPass
	if strings.HasPrefix(strings.ToLower(summary), "fail") {
		label = LabelFail
	}
	return &models.SentimentScore{Label: label, Summary: summary}, nil
}
