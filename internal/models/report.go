package models

// Verdict is the outcome of a single turn, or of the whole run.
type Verdict string

const (
	VerdictPass Verdict = "pass"
	VerdictFail Verdict = "fail"
	// VerdictNotExecuted marks a scripted turn the run never reached.
	// It only ever appears on per-turn verdicts, never on Overall.
	VerdictNotExecuted Verdict = "not_executed"
)

// TurnVerdict is the evaluation of one scripted turn against the transcript.
type TurnVerdict struct {
	TurnIndex int     `json:"turn_index"`
	Verdict   Verdict `json:"verdict"`

	// MissingKeywords is set on keyword-mode failures.
	MissingKeywords []string `json:"missing_keywords,omitempty"`

	// ExpectedText and ActualText are set on exact-mode failures, both
	// whitespace/case normalized.
	ExpectedText string `json:"expected_text,omitempty"`
	ActualText   string `json:"actual_text,omitempty"`

	// Reason is set on NOT_EXECUTED verdicts.
	Reason string `json:"reason,omitempty"`
}

// UnexpectedTurn records a transcript entry whose turn index lies beyond the
// script's last turn. Diagnostic only; it never affects a TurnVerdict.
type UnexpectedTurn struct {
	TurnIndex int     `json:"turn_index"`
	Speaker   Speaker `json:"speaker"`
	Text      string  `json:"text"`
}

// ReportDigest summarizes a report for listings and scorecards.
type ReportDigest struct {
	TotalTurns   int     `json:"total_turns"`
	Passed       int     `json:"passed"`
	Failed       int     `json:"failed"`
	NotExecuted  int     `json:"not_executed"`
	FirstFailure int     `json:"first_failure,omitempty"` // 0 when all turns passed
	Coverage     float64 `json:"coverage"`
}

// EvaluationReport is the full per-turn scorecard for one run. TurnVerdicts
// always has exactly one entry per scripted turn, regardless of where the
// run stopped, so callers can render a complete scorecard for partial runs.
type EvaluationReport struct {
	TurnVerdicts []TurnVerdict    `json:"turn_verdicts"`
	Unexpected   []UnexpectedTurn `json:"unexpected,omitempty"`
	Overall      Verdict          `json:"overall"`
}

// Passed reports whether the overall verdict is PASS.
func (r *EvaluationReport) Passed() bool {
	return r.Overall == VerdictPass
}

// Digest computes summary counts over the per-turn verdicts.
func (r *EvaluationReport) Digest() ReportDigest {
	d := ReportDigest{TotalTurns: len(r.TurnVerdicts)}
	for _, tv := range r.TurnVerdicts {
		switch tv.Verdict {
		case VerdictPass:
			d.Passed++
		case VerdictNotExecuted:
			d.NotExecuted++
		default:
			d.Failed++
		}
		if tv.Verdict != VerdictPass && d.FirstFailure == 0 {
			d.FirstFailure = tv.TurnIndex
		}
	}
	if d.TotalTurns > 0 {
		d.Coverage = float64(d.Passed) / float64(d.TotalTurns)
	}
	return d
}
