// Package evaluate implements the positional "zipper" comparison of a
// script against an executed transcript. Evaluate is a pure function: the
// run engine calls it once over the finished transcript to produce the
// authoritative verdict, and offline tools call it directly on transcripts
// captured elsewhere.
package evaluate

import (
	"strings"

	"github.com/Rohit-Deshmukh/Voice-Framework/internal/models"
)

// ReasonNotExecuted is the diagnostic attached to turns the run never reached.
const ReasonNotExecuted = "turn not executed"

// Normalize lowercases text, trims surrounding whitespace, and collapses
// internal whitespace runs to single spaces. Punctuation is preserved:
// "Yes." does not equal "yes" in exact mode.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// ExpectedText returns the normalized text an exact-match turn requires,
// which is the turn's expected keywords joined by single spaces.
func ExpectedText(turn models.TurnExpectation) string {
	joined := make([]string, 0, len(turn.ExpectedKeywords))
	for _, kw := range turn.ExpectedKeywords {
		joined = append(joined, kw)
	}
	return Normalize(strings.Join(joined, " "))
}

// MatchTurn applies the per-turn matching rule to an actual agent reply.
// The run engine uses the same rule for its deviation check, so a turn that
// deviates at run time is exactly a turn that fails here.
func MatchTurn(turn models.TurnExpectation, actual string) models.TurnVerdict {
	verdict := models.TurnVerdict{TurnIndex: turn.TurnIndex}
	normalized := Normalize(actual)

	if turn.ExactMatch {
		expected := ExpectedText(turn)
		if normalized == expected {
			verdict.Verdict = models.VerdictPass
			return verdict
		}
		verdict.Verdict = models.VerdictFail
		verdict.ExpectedText = expected
		verdict.ActualText = normalized
		return verdict
	}

	var missing []string
	for _, kw := range turn.ExpectedKeywords {
		if !strings.Contains(normalized, strings.ToLower(kw)) {
			missing = append(missing, kw)
		}
	}
	if len(missing) > 0 {
		verdict.Verdict = models.VerdictFail
		verdict.MissingKeywords = missing
		return verdict
	}

	verdict.Verdict = models.VerdictPass
	return verdict
}

// Evaluate compares a transcript against a script, strictly by position.
// Each scripted turn is judged only against the agent reply recorded under
// its own turn index; a missing turn never borrows a later entry, and no
// re-alignment happens when turns are skipped or duplicated.
//
// The returned report always contains exactly one verdict per scripted
// turn, regardless of how far the run got. Transcript entries beyond the
// script's last turn are recorded as unexpected-turn diagnostics and never
// affect any verdict.
func Evaluate(script *models.Script, transcript []models.TranscriptEntry) *models.EvaluationReport {
	report := &models.EvaluationReport{
		TurnVerdicts: make([]models.TurnVerdict, 0, len(script.Turns)),
		Overall:      models.VerdictPass,
	}

	for _, turn := range script.Turns {
		actual, ok := models.AgentReply(transcript, turn.TurnIndex)
		if !ok {
			report.TurnVerdicts = append(report.TurnVerdicts, models.TurnVerdict{
				TurnIndex: turn.TurnIndex,
				Verdict:   models.VerdictNotExecuted,
				Reason:    ReasonNotExecuted,
			})
			report.Overall = models.VerdictFail
			continue
		}

		verdict := MatchTurn(turn, actual)
		if verdict.Verdict != models.VerdictPass {
			report.Overall = models.VerdictFail
		}
		report.TurnVerdicts = append(report.TurnVerdicts, verdict)
	}

	lastTurn := len(script.Turns)
	for _, entry := range transcript {
		if entry.TurnIndex > lastTurn {
			report.Unexpected = append(report.Unexpected, models.UnexpectedTurn{
				TurnIndex: entry.TurnIndex,
				Speaker:   entry.Speaker,
				Text:      entry.Text,
			})
		}
	}

	return report
}
