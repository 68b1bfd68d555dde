package steering

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Rohit-Deshmukh/Voice-Framework/internal/assist"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/models"
)

// Assist consults the assist service on each deviation. Fails closed: an
// assist error or an unparseable answer means CONTINUE.
type Assist struct {
	client assist.Client
	logger *slog.Logger
}

// NewAssist creates an assist-backed steering policy.
func NewAssist(client assist.Client, logger *slog.Logger) *Assist {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assist{client: client, logger: logger}
}

func (a *Assist) Decide(ctx context.Context, script *models.Script, turnIndex int, transcript []models.TranscriptEntry) (Decision, error) {
	turn := script.Turn(turnIndex)
	if turn == nil {
		return DecisionContinue, nil
	}

	lastReply, _ := models.AgentReply(transcript, turnIndex)
	answer, err := a.client.Generate(ctx, assist.SteerPrompt(script.Persona, *turn, lastReply))
	if err != nil {
		a.logger.Debug("steering fell back to continue", "turn", turnIndex, "error", err)
		return DecisionContinue, nil
	}

	return parseDecision(answer), nil
}

func parseDecision(answer string) Decision {
	first, _, _ := strings.Cut(strings.TrimSpace(answer), "\n")
	switch strings.ToUpper(strings.TrimSpace(first)) {
	case "RETRY":
		return DecisionRetry
	case "ABORT":
		return DecisionAbort
	default:
		return DecisionContinue
	}
}
