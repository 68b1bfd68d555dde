package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/Rohit-Deshmukh/Voice-Framework/internal/models"
)

// InterpretCoverage returns a plain-language label for turn coverage (0–1).
func InterpretCoverage(coverage float64) string {
	pct := coverage * 100
	switch {
	case pct >= 100:
		return "All turns passed (100%)"
	case pct >= 80:
		return fmt.Sprintf("Most turns passed (%.0f%%)", pct)
	case pct >= 50:
		return fmt.Sprintf("About half the turns passed (%.0f%%)", pct)
	default:
		return fmt.Sprintf("Few turns passed (%.0f%%)", pct)
	}
}

// InterpretAbort explains an abort reason in plain language.
func InterpretAbort(reason string) string {
	switch reason {
	case models.AbortReasonTimeout:
		return "The agent did not reply within the per-turn time bound."
	case models.AbortReasonTransport:
		return "The connection to the agent failed mid-run."
	case models.AbortReasonSteering:
		return "The steering policy decided the conversation was unrecoverable."
	case models.AbortReasonCanceled:
		return "The run was canceled before it finished."
	case models.AbortReasonValidation:
		return "The script failed validation; no turns were executed."
	default:
		return "The run was aborted."
	}
}

// FormatSummaryReport produces a full plain-language report for one run.
func FormatSummaryReport(run *models.RunResult) string {
	var b strings.Builder

	b.WriteString("=== Run Summary ===\n\n")
	b.WriteString(fmt.Sprintf("Script:   %s\n", run.ScriptID))
	b.WriteString(fmt.Sprintf("Run:      %s (%s)\n", run.RunID, run.Mode))
	b.WriteString(fmt.Sprintf("State:    %s\n", run.State))
	if run.AbortReason != "" {
		b.WriteString(fmt.Sprintf("Aborted:  %s — %s\n", run.AbortReason, InterpretAbort(run.AbortReason)))
	}
	if !run.EndedAt.IsZero() {
		b.WriteString(fmt.Sprintf("Duration: %v\n", run.EndedAt.Sub(run.StartedAt).Round(time.Millisecond)))
	}

	if run.Report == nil {
		return b.String()
	}

	d := run.Report.Digest()
	b.WriteString(fmt.Sprintf("Overall:  %s — %s\n", run.Report.Overall, InterpretCoverage(d.Coverage)))
	b.WriteString(fmt.Sprintf("Turns:    %d passed, %d failed, %d not executed out of %d total\n",
		d.Passed, d.Failed, d.NotExecuted, d.TotalTurns))
	if d.FirstFailure > 0 {
		b.WriteString(fmt.Sprintf("First failing turn: %d\n", d.FirstFailure))
	}

	if run.Sentiment != nil && run.Sentiment.Label != "none" {
		b.WriteString(fmt.Sprintf("\nSentiment (advisory): %s", run.Sentiment.Label))
		if run.Sentiment.Summary != "" {
			b.WriteString(" — " + run.Sentiment.Summary)
		}
		b.WriteString("\n")
	}

	if len(run.Report.Unexpected) > 0 {
		b.WriteString(fmt.Sprintf("\nUnexpected turns recorded beyond the script: %d\n", len(run.Report.Unexpected)))
	}

	return b.String()
}
