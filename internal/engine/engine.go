// Package engine executes scripts against an agent transport and records
// the resulting run. The engine owns the run record for the duration of a
// run: it creates it exactly once, appends transcript entries as turns
// execute, and writes the terminal state, evaluation report, and optional
// sentiment score when the run ends.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Rohit-Deshmukh/Voice-Framework/internal/evaluate"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/models"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/naturalize"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/sentiment"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/steering"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/store"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/transport"
	"github.com/google/uuid"
)

// DefaultMaxAttempts bounds how many times one turn may execute when the
// steering policy keeps asking for a retry.
const DefaultMaxAttempts = 3

// Engine drives runs. Construct with NewEngine; the zero value is not usable.
type Engine struct {
	runs        store.RunStore
	agent       transport.AgentTransport
	naturalizer naturalize.Naturalizer
	steering    steering.Policy
	scorer      sentiment.Scorer
	turnTimeout time.Duration
	maxAttempts int
	mode        models.RunMode
	provider    string
	now         func() time.Time
	newID       func() string
	logger      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithNaturalizer sets the user-line naturalizer. Default is pass-through.
func WithNaturalizer(n naturalize.Naturalizer) Option {
	return func(e *Engine) { e.naturalizer = n }
}

// WithSteering sets the deviation steering policy. Default always continues.
func WithSteering(p steering.Policy) Option {
	return func(e *Engine) { e.steering = p }
}

// WithScorer enables sentiment scoring of finished transcripts. Default is
// no scoring.
func WithScorer(s sentiment.Scorer) Option {
	return func(e *Engine) { e.scorer = s }
}

// WithTurnTimeout bounds how long one turn may wait for an agent reply.
// Zero disables the bound; simulation runs typically leave it unset.
func WithTurnTimeout(d time.Duration) Option {
	return func(e *Engine) { e.turnTimeout = d }
}

// WithMaxAttempts sets the per-turn attempt bound used when steering asks
// for retries. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.maxAttempts = n
		}
	}
}

// WithMode records which run mode this engine serves.
func WithMode(mode models.RunMode) Option {
	return func(e *Engine) { e.mode = mode }
}

// WithProvider records the telephony provider label on run results.
func WithProvider(name string) Option {
	return func(e *Engine) { e.provider = name }
}

// WithIDGenerator overrides run id generation. The server uses it to
// allocate a run id before execution so provider calls can be correlated.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger. Default is slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine creates an engine bound to a run store and an agent transport.
func NewEngine(runs store.RunStore, agent transport.AgentTransport, opts ...Option) *Engine {
	e := &Engine{
		runs:        runs,
		agent:       agent,
		naturalizer: naturalize.Passthrough{},
		steering:    steering.Continue{},
		maxAttempts: DefaultMaxAttempts,
		mode:        models.ModeSimulation,
		now:         time.Now,
		newID:       uuid.NewString,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs a script to completion and persists the result. The returned
// run is always terminal: COMPLETED when every scripted turn was attempted,
// ABORTED otherwise, with the abort reason recorded. A failing evaluation is
// not an error; err is non-nil only when the run could not be recorded, and
// even then the terminal run accompanies it (nil only when the initial
// create or the in-progress update failed).
func (e *Engine) Execute(ctx context.Context, script *models.Script) (*models.RunResult, error) {
	run := &models.RunResult{
		RunID:     e.newID(),
		ScriptID:  script.ID,
		Provider:  e.provider,
		Mode:      e.mode,
		State:     models.StatePending,
		StartedAt: e.now().UTC(),
	}

	if err := e.runs.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}

	logger := e.logger.With("run_id", run.RunID, "script_id", script.ID)

	// Validation failures abort before any turn executes, but the report is
	// still full-length so consumers always see one verdict per scripted turn.
	if err := script.Validate(); err != nil {
		logger.Error("script validation failed", "error", err)
		run.AbortReason = models.AbortReasonValidation
		return e.finish(ctx, run, script, models.StateAborted)
	}

	run.State = models.StateInProgress
	if err := e.runs.UpdateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("update run: %w", err)
	}
	logger.Info("run started", "mode", run.Mode, "turns", len(script.Turns))

	for _, turn := range script.Turns {
		abortReason, err := e.executeTurn(ctx, logger, run, script, turn)
		if abortReason != "" {
			logger.Warn("run aborted", "turn", turn.TurnIndex, "reason", abortReason, "error", err)
			run.AbortReason = abortReason
			return e.finish(ctx, run, script, models.StateAborted)
		}
	}

	return e.finish(ctx, run, script, models.StateCompleted)
}

// executeTurn runs one scripted turn, retrying up to the attempt bound when
// steering asks for it. A non-empty abort reason ends the run.
func (e *Engine) executeTurn(ctx context.Context, logger *slog.Logger, run *models.RunResult, script *models.Script, turn models.TurnExpectation) (string, error) {
	for attempt := 1; ; attempt++ {
		line := e.naturalizeLine(ctx, logger, script, turn)
		e.append(run, turn.TurnIndex, models.SpeakerUser, line)

		reply, err := e.send(ctx, run.RunID, turn.TurnIndex, line)
		if err != nil {
			return classifyAbort(ctx, err), err
		}
		e.append(run, turn.TurnIndex, models.SpeakerAgent, reply)

		verdict := evaluate.MatchTurn(turn, reply)
		if verdict.Verdict == models.VerdictPass {
			return "", nil
		}

		decision := e.decide(ctx, logger, script, turn.TurnIndex, run.Transcript)
		switch decision {
		case steering.DecisionAbort:
			return models.AbortReasonSteering, nil
		case steering.DecisionRetry:
			if attempt < e.maxAttempts {
				logger.Debug("retrying turn", "turn", turn.TurnIndex, "attempt", attempt+1)
				continue
			}
			logger.Debug("attempt bound reached, continuing", "turn", turn.TurnIndex)
			return "", nil
		default:
			// Deviation accepted; the final evaluation records the failure.
			return "", nil
		}
	}
}

// naturalizeLine transforms the scripted line, falling back to the raw line
// on any failure. Naturalization never stops a run.
func (e *Engine) naturalizeLine(ctx context.Context, logger *slog.Logger, script *models.Script, turn models.TurnExpectation) string {
	line, err := e.naturalizer.Transform(ctx, naturalize.Request{
		Persona:  script.Persona,
		UserLine: turn.UserLine,
	})
	if err != nil || line == "" {
		logger.Debug("naturalizer fell back to scripted line", "turn", turn.TurnIndex, "error", err)
		return turn.UserLine
	}
	return line
}

// send delivers one user line and waits for the reply, bounded by the
// per-turn timeout when one is configured.
func (e *Engine) send(ctx context.Context, runID string, turnIndex int, text string) (string, error) {
	if e.turnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.turnTimeout)
		defer cancel()
	}

	reply, err := e.agent.Send(ctx, transport.Request{RunID: runID, TurnIndex: turnIndex, Text: text})
	if err != nil {
		return "", err
	}
	return reply.Text, nil
}

// decide consults the steering policy, failing closed to CONTINUE.
func (e *Engine) decide(ctx context.Context, logger *slog.Logger, script *models.Script, turnIndex int, transcript []models.TranscriptEntry) steering.Decision {
	decision, err := e.steering.Decide(ctx, script, turnIndex, transcript)
	if err != nil {
		logger.Debug("steering failed, continuing", "turn", turnIndex, "error", err)
		return steering.DecisionContinue
	}
	return decision
}

func (e *Engine) append(run *models.RunResult, turnIndex int, speaker models.Speaker, text string) {
	run.Transcript = append(run.Transcript, models.TranscriptEntry{
		TurnIndex: turnIndex,
		Speaker:   speaker,
		Text:      text,
		Timestamp: e.now().UTC(),
	})
}

// finish evaluates the transcript, scores sentiment, and writes the terminal
// record. Evaluation always runs, including on aborts, so the report covers
// every scripted turn. The write is detached from the caller's cancellation:
// the cancellation that just aborted the run must not strand the stored
// record in a non-terminal state.
func (e *Engine) finish(ctx context.Context, run *models.RunResult, script *models.Script, state models.RunState) (*models.RunResult, error) {
	run.State = state
	run.EndedAt = e.now().UTC()
	run.Report = evaluate.Evaluate(script, run.Transcript)

	ctx = context.WithoutCancel(ctx)

	if e.scorer != nil {
		score, err := e.scorer.Score(ctx, run.Transcript)
		if err != nil {
			e.logger.Debug("sentiment scoring failed", "run_id", run.RunID, "error", err)
			score = sentiment.None()
		}
		run.Sentiment = score
	}

	if err := e.runs.UpdateRun(ctx, run); err != nil {
		// The terminal run is still returned so callers keep the partial
		// results even when recording failed.
		return run, fmt.Errorf("record run %s: %w", run.RunID, err)
	}

	e.logger.Info("run finished",
		"run_id", run.RunID,
		"state", run.State,
		"overall", run.Report.Overall,
		"abort_reason", run.AbortReason)
	return run, nil
}

// classifyAbort maps a turn failure to its abort reason. Cancellation of the
// caller's context takes precedence over how the transport surfaced it.
func classifyAbort(ctx context.Context, err error) string {
	if errors.Is(ctx.Err(), context.Canceled) {
		return models.AbortReasonCanceled
	}
	// Engine-imposed timeouts surface as a deadline on the turn context;
	// transport-internal waits surface as ErrTimeout.
	if transport.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return models.AbortReasonTimeout
	}
	return models.AbortReasonTransport
}
