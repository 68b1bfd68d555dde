// Package steering decides what the run engine does when an agent reply
// deviates from its turn expectation. The deterministic default always
// accepts the deviation and continues; the enhanced variant consults the
// assist service and falls back to CONTINUE on any failure.
package steering

import (
	"context"

	"github.com/Rohit-Deshmukh/Voice-Framework/internal/models"
)

// Decision is the outcome of a steering consultation.
type Decision string

const (
	// DecisionContinue accepts the deviation and proceeds to the next turn.
	DecisionContinue Decision = "continue"
	// DecisionRetry re-runs the current turn, bounded by the engine's
	// maximum attempt count.
	DecisionRetry Decision = "retry"
	// DecisionAbort stops the run now.
	DecisionAbort Decision = "abort"
)

// Policy is consulted once per deviating attempt.
type Policy interface {
	Decide(ctx context.Context, script *models.Script, turnIndex int, transcript []models.TranscriptEntry) (Decision, error)
}

// Continue is the deterministic default policy: never retry, never abort.
// It is total, so it serves as the universal fallback.
type Continue struct{}

func (Continue) Decide(context.Context, *models.Script, int, []models.TranscriptEntry) (Decision, error) {
	return DecisionContinue, nil
}
