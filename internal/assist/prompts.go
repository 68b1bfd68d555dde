package assist

import (
	"fmt"
	"strings"

	"github.com/Rohit-Deshmukh/Voice-Framework/internal/models"
)

// NaturalizePrompt asks the assist model to restate a scripted line in the
// run's persona while preserving intent.
func NaturalizePrompt(persona, userLine string) string {
	return fmt.Sprintf(
		"You are role-playing a caller in a QA test. Adopt the persona '%s'. "+
			"Restate the following line in your own words while preserving intent: '%s'. "+
			"Keep it under 20 words. Reply with the restated line only.",
		persona, userLine)
}

// SteerPrompt asks the assist model whether a deviating conversation can be
// recovered by retrying the current turn. The model must answer with one of
// RETRY, CONTINUE, or ABORT on the first line.
func SteerPrompt(persona string, turn models.TurnExpectation, lastReply string) string {
	if lastReply == "" {
		lastReply = "NO RESPONSE"
	}
	return fmt.Sprintf(
		"You are a QA caller ensuring the agent follows a script. Stay in persona '%s'. "+
			"The scripted step is: '%s'. The agent previously responded with: '%s'. "+
			"Decide whether politely redirecting the agent and retrying this step could recover the script. "+
			"Answer with exactly one word on the first line: RETRY, CONTINUE, or ABORT.",
		persona, turn.UserLine, lastReply)
}

// JudgePrompt asks the assist model for a holistic pass/fail over the whole
// conversation, independent of the per-turn verdicts.
func JudgePrompt(transcript []models.TranscriptEntry) string {
	var b strings.Builder
	for _, entry := range transcript {
		fmt.Fprintf(&b, "%s: %s\n", entry.Speaker, entry.Text)
	}
	return fmt.Sprintf(
		"You are a QA judge reviewing a contact center call. "+
			"Decide PASS or FAIL based solely on agent helpfulness and policy adherence. "+
			"Respond with 'Pass:' or 'Fail:' followed by a concise justification under 40 words. "+
			"Transcript:\n%sJudgment:", b.String())
}
