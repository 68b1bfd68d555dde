package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/Rohit-Deshmukh/Voice-Framework/internal/models"
)

const (
	colTurns   = 7
	colPassed  = 7
	colFailed  = 7
	colSkipped = 8
	colState   = 11
	minNameCol = 12
	maxNameCol = 40
)

// formatDuration formats a duration in a consistent, human-readable way.
// This ensures stable output regardless of Go version changes.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(10 * time.Millisecond).String()
}

// terminalWidth returns the current terminal width, or a default when stdout
// is not a terminal.
func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 100
}

// printScorecard renders one row per run: script id, turn counts, state, and
// the overall verdict.
func printScorecard(w io.Writer, runs []*models.RunResult) {
	nameWidth := minNameCol
	for _, run := range runs {
		if l := runewidth.StringWidth(run.ScriptID); l > nameWidth {
			nameWidth = l
		}
	}
	if nameWidth > maxNameCol {
		nameWidth = maxNameCol
	}
	fixed := colTurns + colPassed + colFailed + colSkipped + colState + 14
	if avail := terminalWidth() - fixed; avail >= minNameCol && avail < nameWidth {
		nameWidth = avail
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s  %s  %s  %s  %s  %s  %s\n",
		padRight("Script", nameWidth),
		padRight("Turns", colTurns),
		padRight("Passed", colPassed),
		padRight("Failed", colFailed),
		padRight("Skipped", colSkipped),
		padRight("State", colState),
		"Verdict")
	fmt.Fprintln(w, strings.Repeat("─", nameWidth+fixed))

	for _, run := range runs {
		digest := models.ReportDigest{}
		overall := "—"
		if run.Report != nil {
			digest = run.Report.Digest()
			overall = verdictIcon(run.Report.Overall) + " " + string(run.Report.Overall)
		}
		state := string(run.State)
		if run.AbortReason != "" {
			state = fmt.Sprintf("%s(%s)", run.State, run.AbortReason)
		}
		fmt.Fprintf(w, "%s  %s  %s  %s  %s  %s  %s\n",
			padRight(truncateName(run.ScriptID, nameWidth), nameWidth),
			padRight(fmt.Sprintf("%d", digest.TotalTurns), colTurns),
			padRight(fmt.Sprintf("%d", digest.Passed), colPassed),
			padRight(fmt.Sprintf("%d", digest.Failed), colFailed),
			padRight(fmt.Sprintf("%d", digest.NotExecuted), colSkipped),
			padRight(state, colState),
			overall)
	}
	fmt.Fprintln(w)
}

// printTurnDetail renders the per-turn verdicts and transcript for one run.
func printTurnDetail(w io.Writer, run *models.RunResult) {
	fmt.Fprintf(w, "%s (%s, %s)\n", run.ScriptID, run.Mode, formatDuration(run.EndedAt.Sub(run.StartedAt)))
	if run.Report == nil {
		fmt.Fprintln(w, "  no report")
		return
	}
	for _, tv := range run.Report.TurnVerdicts {
		fmt.Fprintf(w, "  %s turn %d: %s", verdictIcon(tv.Verdict), tv.TurnIndex, tv.Verdict)
		switch {
		case len(tv.MissingKeywords) > 0:
			fmt.Fprintf(w, " — missing keywords: %s", strings.Join(tv.MissingKeywords, ", "))
		case tv.ExpectedText != "":
			fmt.Fprintf(w, " — expected %q, got %q", tv.ExpectedText, tv.ActualText)
		case tv.Reason != "":
			fmt.Fprintf(w, " — %s", tv.Reason)
		}
		fmt.Fprintln(w)
	}
	for _, ut := range run.Report.Unexpected {
		fmt.Fprintf(w, "  ⚠ unexpected turn %d (%s): %s\n", ut.TurnIndex, ut.Speaker, truncateName(ut.Text, 60))
	}
	if run.Sentiment != nil && run.Sentiment.Label != "none" {
		fmt.Fprintf(w, "  sentiment (advisory): %s", run.Sentiment.Label)
		if run.Sentiment.Summary != "" {
			fmt.Fprintf(w, " — %s", run.Sentiment.Summary)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)
}

func verdictIcon(v models.Verdict) string {
	switch v {
	case models.VerdictPass:
		return "✓"
	case models.VerdictNotExecuted:
		return "–"
	default:
		return "✗"
	}
}

// truncateName shortens a name to maxLen runes, replacing the last rune with "…" if needed.
func truncateName(name string, maxLen int) string {
	runes := []rune(name)
	if len(runes) <= maxLen {
		return name
	}
	return string(runes[:maxLen-1]) + "…"
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}

// FormatGitHubComment formats run results as a markdown comment for GitHub PRs
func FormatGitHubComment(runs []*models.RunResult) string {
	var b strings.Builder

	total := len(runs)
	passed := 0
	for _, run := range runs {
		if run.Report != nil && run.Report.Passed() {
			passed++
		}
	}

	b.WriteString("## 📞 Conversation Test Results\n\n")

	statusIcon := "✅ Passed"
	if passed < total {
		statusIcon = "❌ Failed"
	}
	b.WriteString(fmt.Sprintf("**Status:** %s | **Scripts:** %d passed / %d total\n\n", statusIcon, passed, total))

	b.WriteString("| Script | Turns | Passed | Failed | Skipped | State | Verdict |\n")
	b.WriteString("|--------|-------|--------|--------|---------|-------|--------|\n")
	for _, run := range runs {
		digest := models.ReportDigest{}
		overall := "-"
		icon := "❌"
		if run.Report != nil {
			digest = run.Report.Digest()
			overall = string(run.Report.Overall)
			if run.Report.Passed() {
				icon = "✅"
			}
		}
		state := string(run.State)
		if run.AbortReason != "" {
			state = fmt.Sprintf("%s (%s)", run.State, run.AbortReason)
		}
		b.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %d | %s | %s %s |\n",
			run.ScriptID, digest.TotalTurns, digest.Passed, digest.Failed,
			digest.NotExecuted, state, icon, overall))
	}
	b.WriteString("\n")

	// Per-turn failure detail for failing runs
	if passed < total {
		b.WriteString("### Failed Script Details\n\n")
		for _, run := range runs {
			if run.Report != nil && run.Report.Passed() {
				continue
			}
			b.WriteString(fmt.Sprintf("#### %s\n\n", run.ScriptID))
			if run.AbortReason != "" {
				b.WriteString(fmt.Sprintf("Aborted: %s\n\n", run.AbortReason))
			}
			if run.Report == nil {
				continue
			}
			for _, tv := range run.Report.TurnVerdicts {
				if tv.Verdict == models.VerdictPass {
					continue
				}
				switch {
				case len(tv.MissingKeywords) > 0:
					b.WriteString(fmt.Sprintf("- ❌ turn %d: missing keywords: %s\n",
						tv.TurnIndex, strings.Join(tv.MissingKeywords, ", ")))
				case tv.ExpectedText != "":
					b.WriteString(fmt.Sprintf("- ❌ turn %d: expected `%s`, got `%s`\n",
						tv.TurnIndex, tv.ExpectedText, tv.ActualText))
				default:
					b.WriteString(fmt.Sprintf("- ⏭ turn %d: %s\n", tv.TurnIndex, tv.Reason))
				}
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}
