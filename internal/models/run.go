package models

import "time"

// Speaker identifies who produced a transcript entry.
type Speaker string

const (
	SpeakerUser  Speaker = "user"
	SpeakerAgent Speaker = "agent"
)

// RunState is the lifecycle state of a run.
type RunState string

const (
	StatePending    RunState = "pending"
	StateInProgress RunState = "in_progress"
	StateCompleted  RunState = "completed"
	StateAborted    RunState = "aborted"
)

// Terminal reports whether the state is final. A terminal run result is
// never mutated again.
func (s RunState) Terminal() bool {
	return s == StateCompleted || s == StateAborted
}

// RunMode selects how agent replies are obtained.
type RunMode string

const (
	// ModeSimulation resolves agent replies synchronously in-process.
	ModeSimulation RunMode = "simulation"
	// ModeLive awaits asynchronous provider callbacks for agent replies.
	ModeLive RunMode = "live"
)

// Abort reasons recorded on RunResult.AbortReason.
const (
	AbortReasonTimeout    = "TIMEOUT"
	AbortReasonTransport  = "TRANSPORT_ERROR"
	AbortReasonSteering   = "STEERING_ABORT"
	AbortReasonCanceled   = "CANCELED"
	AbortReasonValidation = "VALIDATION_ERROR"
)

// TranscriptEntry is one utterance in the executed conversation. Entries are
// appended in non-decreasing turn order: a user entry, then zero or more
// agent entries for the same turn (zero only on abort or timeout).
type TranscriptEntry struct {
	TurnIndex int       `json:"turn_index"`
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// SentimentScore is the optional holistic score over a full transcript. It
// never influences the pass/fail verdict.
type SentimentScore struct {
	Label   string `json:"label"` // "pass", "fail", or "none"
	Summary string `json:"summary,omitempty"`
}

// RunResult is the complete record of one run. It is created at run start,
// mutated only by the owning engine, and becomes immutable once State is
// terminal.
type RunResult struct {
	RunID       string            `json:"run_id"`
	ScriptID    string            `json:"script_id"`
	Provider    string            `json:"provider,omitempty"`
	Mode        RunMode           `json:"mode"`
	State       RunState          `json:"state"`
	Transcript  []TranscriptEntry `json:"transcript"`
	Report      *EvaluationReport `json:"report,omitempty"`
	Sentiment   *SentimentScore   `json:"sentiment,omitempty"`
	AbortReason string            `json:"abort_reason,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
	EndedAt     time.Time         `json:"ended_at,omitzero"`
}

// AgentReply returns the text of the last agent entry recorded for the
// given turn, or false if the turn produced no agent reply. The last entry
// wins so a retried turn is judged on its final attempt.
func AgentReply(transcript []TranscriptEntry, turnIndex int) (string, bool) {
	for i := len(transcript) - 1; i >= 0; i-- {
		e := transcript[i]
		if e.TurnIndex == turnIndex && e.Speaker == SpeakerAgent {
			return e.Text, true
		}
	}
	return "", false
}
