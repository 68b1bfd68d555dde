package webapi

import (
	"time"

	"github.com/Rohit-Deshmukh/Voice-Framework/internal/models"
)

// RunRequest is the body of POST /api/runs.
type RunRequest struct {
	ScriptID string         `json:"script_id"`
	Mode     models.RunMode `json:"mode,omitempty"` // defaults to simulation
}

// RunSummary is the API response for a single run in the list.
type RunSummary struct {
	RunID       string          `json:"run_id"`
	ScriptID    string          `json:"script_id"`
	Provider    string          `json:"provider,omitempty"`
	Mode        models.RunMode  `json:"mode"`
	State       models.RunState `json:"state"`
	Overall     models.Verdict  `json:"overall,omitempty"`
	AbortReason string          `json:"abort_reason,omitempty"`
	StartedAt   time.Time       `json:"started_at"`
}

// SummaryResponse is the aggregate KPI response. PassRateLower and
// PassRateUpper bound the pass rate at 95% confidence; with few runs the
// interval is wide, which is the point.
type SummaryResponse struct {
	TotalRuns     int     `json:"total_runs"`
	Completed     int     `json:"completed"`
	Aborted       int     `json:"aborted"`
	Passed        int     `json:"passed"`
	PassRate      float64 `json:"pass_rate"`
	PassRateLower float64 `json:"pass_rate_lower"`
	PassRateUpper float64 `json:"pass_rate_upper"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is returned for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func summarize(run *models.RunResult) RunSummary {
	s := RunSummary{
		RunID:       run.RunID,
		ScriptID:    run.ScriptID,
		Provider:    run.Provider,
		Mode:        run.Mode,
		State:       run.State,
		AbortReason: run.AbortReason,
		StartedAt:   run.StartedAt,
	}
	if run.Report != nil {
		s.Overall = run.Report.Overall
	}
	return s
}
