// Package webapi exposes the REST surface of the harness: script CRUD, run
// execution, run inspection, and the provider webhook that feeds live runs.
package webapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Rohit-Deshmukh/Voice-Framework/internal/engine"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/models"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/statistics"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/store"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/telephony"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/transport"
	"github.com/google/uuid"
)

// Version is set at build time or defaults to dev.
var Version = "0.1.0-dev"

// listLimit bounds the run listing and summary queries.
const listLimit = 200

// Handlers holds the HTTP handler methods for the web API.
type Handlers struct {
	store      store.Store
	logger     *slog.Logger
	callback   *transport.Callback
	provider   telephony.Provider
	engineOpts []engine.Option
	calls      *callRegistry

	// newSimTransport builds the transport simulation runs execute against.
	newSimTransport func(*models.Script) transport.AgentTransport
}

// HandlerOption configures Handlers.
type HandlerOption func(*Handlers)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handlers) { h.logger = logger }
}

// WithTelephony enables live runs through a provider and its callback
// transport.
func WithTelephony(provider telephony.Provider, callback *transport.Callback) HandlerOption {
	return func(h *Handlers) {
		h.provider = provider
		h.callback = callback
	}
}

// WithEngineOptions sets shared engine options (naturalizer, steering,
// scorer, timeouts) applied to every run the server executes.
func WithEngineOptions(opts ...engine.Option) HandlerOption {
	return func(h *Handlers) { h.engineOpts = opts }
}

// WithSimulatedTransport overrides the transport simulation runs use.
// Default answers every turn with its expected keywords.
func WithSimulatedTransport(build func(*models.Script) transport.AgentTransport) HandlerOption {
	return func(h *Handlers) { h.newSimTransport = build }
}

// NewHandlers creates Handlers backed by the given store.
func NewHandlers(s store.Store, opts ...HandlerOption) *Handlers {
	h := &Handlers{
		store:  s,
		logger: slog.Default(),
		calls:  newCallRegistry(),
		newSimTransport: func(script *models.Script) transport.AgentTransport {
			return transport.NewKeywordEcho(script)
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleHealth returns a simple health check response.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
	})
}

// HandleListScripts returns all stored scripts.
func (h *Handlers) HandleListScripts(w http.ResponseWriter, r *http.Request) {
	scripts, err := h.store.ListScripts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if scripts == nil {
		scripts = []*models.Script{}
	}
	writeJSON(w, http.StatusOK, scripts)
}

// HandleGetScript returns one script by id.
func (h *Handlers) HandleGetScript(w http.ResponseWriter, r *http.Request) {
	script, err := h.store.GetScript(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "script not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, script)
}

// HandlePutScript creates or replaces a script.
func (h *Handlers) HandlePutScript(w http.ResponseWriter, r *http.Request) {
	var script models.Script
	if err := json.NewDecoder(r.Body).Decode(&script); err != nil {
		writeError(w, http.StatusBadRequest, "malformed script: "+err.Error())
		return
	}
	if id := r.PathValue("id"); id != "" && id != script.ID {
		writeError(w, http.StatusBadRequest, "script id in body does not match URL")
		return
	}

	if err := h.store.PutScript(r.Context(), &script); err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, script)
}

// HandleDeleteScript removes a script.
func (h *Handlers) HandleDeleteScript(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteScript(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "script not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRuns returns recent runs, newest first.
func (h *Handlers) HandleRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.store.ListRecentRuns(r.Context(), listLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	summaries := make([]RunSummary, 0, len(runs))
	for _, run := range runs {
		summaries = append(summaries, summarize(run))
	}
	writeJSON(w, http.StatusOK, summaries)
}

// HandleRunDetail returns a full run record including transcript and report.
func (h *Handlers) HandleRunDetail(w http.ResponseWriter, r *http.Request) {
	run, err := h.store.GetRun(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// HandleSummary returns aggregate metrics across recent runs.
func (h *Handlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	runs, err := h.store.ListRecentRuns(r.Context(), listLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	summary := SummaryResponse{TotalRuns: len(runs)}
	passed := make([]bool, 0, len(runs))
	for _, run := range runs {
		switch run.State {
		case models.StateCompleted:
			summary.Completed++
		case models.StateAborted:
			summary.Aborted++
		}
		ok := run.Report != nil && run.Report.Passed()
		if ok {
			summary.Passed++
		}
		passed = append(passed, ok)
	}
	if summary.TotalRuns > 0 {
		summary.PassRate = float64(summary.Passed) / float64(summary.TotalRuns)
		ci := statistics.PassRateCI(passed, 0.95)
		summary.PassRateLower = ci.Lower
		summary.PassRateUpper = ci.Upper
	}
	writeJSON(w, http.StatusOK, summary)
}

// HandleCreateRun executes a script. Simulation runs execute synchronously
// and return the terminal run record; live runs dial out through the
// telephony provider and return immediately with the pending run id.
func (h *Handlers) HandleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request: "+err.Error())
		return
	}

	script, err := h.store.GetScript(r.Context(), req.ScriptID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "script not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	switch req.Mode {
	case "", models.ModeSimulation:
		h.runSimulation(w, r, script)
	case models.ModeLive:
		h.startLiveRun(w, r, script)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown mode %q", req.Mode))
	}
}

func (h *Handlers) runSimulation(w http.ResponseWriter, r *http.Request, script *models.Script) {
	opts := append([]engine.Option{}, h.engineOpts...)
	opts = append(opts, engine.WithMode(models.ModeSimulation), engine.WithLogger(h.logger))

	eng := engine.NewEngine(h.store, h.newSimTransport(script), opts...)
	run, err := eng.Execute(r.Context(), script)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, run)
}

func (h *Handlers) startLiveRun(w http.ResponseWriter, r *http.Request, script *models.Script) {
	if h.provider == nil || h.callback == nil {
		writeError(w, http.StatusBadRequest, "live mode is not configured on this server")
		return
	}

	runID := uuid.NewString()
	opts := append([]engine.Option{}, h.engineOpts...)
	opts = append(opts,
		engine.WithMode(models.ModeLive),
		engine.WithProvider(h.provider.Name()),
		engine.WithIDGenerator(func() string { return runID }),
		engine.WithLogger(h.logger),
	)
	eng := engine.NewEngine(h.store, h.callback, opts...)

	// The engine owns the run from here; the request context ends with this
	// handler, so the run gets its own.
	go func() {
		if _, err := eng.Execute(context.Background(), script); err != nil {
			h.logger.Error("live run failed", "run_id", runID, "error", err)
		}
		if callID := h.calls.callFor(runID); callID != "" {
			if err := h.provider.Hangup(context.Background(), callID); err != nil {
				h.logger.Debug("hangup failed", "call_id", callID, "error", err)
			}
		}
		h.calls.release(runID)
	}()

	// Inbound calls and scripts without a destination number are not dialed
	// by us; their webhooks correlate by run id instead.
	if script.Direction != models.DirectionInbound && script.ToNumber != "" {
		callID, err := h.provider.Dial(r.Context(), telephony.Call{
			ToNumber:   script.ToNumber,
			FromNumber: script.FromNumber,
			RunID:      runID,
		})
		if err != nil {
			h.callback.FailRun(runID, err)
			writeError(w, http.StatusBadGateway, "dial failed: "+err.Error())
			return
		}
		h.calls.bind(callID, runID)
	}

	writeJSON(w, http.StatusAccepted, RunSummary{
		RunID:    runID,
		ScriptID: script.ID,
		Provider: h.provider.Name(),
		Mode:     models.ModeLive,
		State:    models.StatePending,
	})
}

// HandleWebhook ingests provider events and routes agent speech to the run
// awaiting it. Events that match no active run are acknowledged and dropped.
func (h *Handlers) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil || r.PathValue("provider") != h.provider.Name() {
		writeError(w, http.StatusNotFound, "unknown provider")
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "malformed webhook payload")
		return
	}

	event, err := h.provider.ParseEvent(r.PostForm)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	runID := h.calls.runFor(event.CallID)
	if runID == "" {
		// Inbound calls are not dialed by us; the payload carries the run id.
		runID = r.PostForm.Get("run_id")
	}
	if runID == "" {
		h.logger.Debug("webhook event for unknown call", "call_id", event.CallID, "type", event.Type)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	switch event.Type {
	case telephony.EventSpeech:
		if !h.callback.DeliverToRun(runID, event.Text) {
			h.logger.Debug("dropped speech event, no turn awaiting", "run_id", runID)
		}
	case telephony.EventCompleted:
		h.callback.FailRun(runID, errors.New("call ended before the script finished"))
	case telephony.EventFailed:
		h.callback.FailRun(runID, errors.New("provider reported call failure"))
	default:
		h.logger.Debug("webhook event", "run_id", runID, "type", event.Type)
	}
	w.WriteHeader(http.StatusNoContent)
}

// RegisterRoutes registers all web API routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, h *Handlers) {
	mux.HandleFunc("GET /api/health", h.HandleHealth)
	mux.HandleFunc("GET /api/summary", h.HandleSummary)
	mux.HandleFunc("GET /api/scripts", h.HandleListScripts)
	mux.HandleFunc("POST /api/scripts", h.HandlePutScript)
	mux.HandleFunc("GET /api/scripts/{id}", h.HandleGetScript)
	mux.HandleFunc("PUT /api/scripts/{id}", h.HandlePutScript)
	mux.HandleFunc("DELETE /api/scripts/{id}", h.HandleDeleteScript)
	mux.HandleFunc("GET /api/runs", h.HandleRuns)
	mux.HandleFunc("POST /api/runs", h.HandleCreateRun)
	mux.HandleFunc("GET /api/runs/{id}", h.HandleRunDetail)
	mux.HandleFunc("POST /api/webhook/{provider}", h.HandleWebhook)
}

// CORSMiddleware wraps a handler with CORS headers.
// If allowedOrigins is empty, no CORS header is set (same-origin only).
// Otherwise, the request Origin is checked against the allowed list.
func CORSMiddleware(next http.Handler, allowedOrigins ...string) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if len(allowedOrigins) > 0 && origin != "" && allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg, Code: code})
}
