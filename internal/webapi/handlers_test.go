package webapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Rohit-Deshmukh/Voice-Framework/internal/models"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/store"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/telephony"
	"github.com/Rohit-Deshmukh/Voice-Framework/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts ...HandlerOption) (*httptest.Server, store.Store) {
	t.Helper()

	s := store.NewMemory()
	require.NoError(t, store.Seed(context.Background(), s))

	mux := http.NewServeMux()
	RegisterRoutes(mux, NewHandlers(s, opts...))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, s
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url string, body any, out any) int {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHandleHealth(t *testing.T) {
	server, _ := newTestServer(t)

	var health HealthResponse
	status := getJSON(t, server.URL+"/api/health", &health)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", health.Status)
}

func TestScriptCRUD(t *testing.T) {
	server, _ := newTestServer(t)

	var scripts []*models.Script
	status := getJSON(t, server.URL+"/api/scripts", &scripts)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, scripts)

	var script models.Script
	status = getJSON(t, server.URL+"/api/scripts/greeting-basic", &script)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "greeting-basic", script.ID)

	status = getJSON(t, server.URL+"/api/scripts/ghost", nil)
	assert.Equal(t, http.StatusNotFound, status)

	// Create a new script.
	created := models.Script{
		ID:      "handoff",
		Persona: "Caller asking for a human",
		Turns: []models.TurnExpectation{
			{TurnIndex: 1, UserLine: "Can I talk to a person?", ExpectedKeywords: []string{"transfer"}},
		},
	}
	status = postJSON(t, server.URL+"/api/scripts", created, nil)
	require.Equal(t, http.StatusOK, status)

	status = getJSON(t, server.URL+"/api/scripts/handoff", &script)
	assert.Equal(t, http.StatusOK, status)

	// Invalid scripts are rejected with a validation error.
	bad := models.Script{ID: "bad", Turns: []models.TurnExpectation{
		{TurnIndex: 7, UserLine: "x", ExpectedKeywords: []string{"y"}},
	}}
	status = postJSON(t, server.URL+"/api/scripts", bad, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	// Delete.
	req, err := http.NewRequest(http.MethodDelete, server.URL+"/api/scripts/handoff", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestHandleCreateRun_Simulation(t *testing.T) {
	server, s := newTestServer(t)

	var run models.RunResult
	status := postJSON(t, server.URL+"/api/runs", RunRequest{ScriptID: "greeting-basic"}, &run)
	require.Equal(t, http.StatusCreated, status)

	assert.Equal(t, models.StateCompleted, run.State)
	assert.Equal(t, models.ModeSimulation, run.Mode)
	require.NotNil(t, run.Report)
	assert.True(t, run.Report.Passed())

	stored, err := s.GetRun(context.Background(), run.RunID)
	require.NoError(t, err)
	assert.Equal(t, models.StateCompleted, stored.State)
}

func TestHandleCreateRun_UnknownScript(t *testing.T) {
	server, _ := newTestServer(t)
	status := postJSON(t, server.URL+"/api/runs", RunRequest{ScriptID: "ghost"}, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHandleCreateRun_LiveNotConfigured(t *testing.T) {
	server, _ := newTestServer(t)
	status := postJSON(t, server.URL+"/api/runs",
		RunRequest{ScriptID: "greeting-basic", Mode: models.ModeLive}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHandleRunsAndSummary(t *testing.T) {
	server, _ := newTestServer(t)

	for range 2 {
		status := postJSON(t, server.URL+"/api/runs", RunRequest{ScriptID: "greeting-basic"}, nil)
		require.Equal(t, http.StatusCreated, status)
	}

	var runs []RunSummary
	status := getJSON(t, server.URL+"/api/runs", &runs)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, runs, 2)
	assert.Equal(t, models.VerdictPass, runs[0].Overall)

	var run models.RunResult
	status = getJSON(t, server.URL+"/api/runs/"+runs[0].RunID, &run)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, run.Transcript)

	var summary SummaryResponse
	status = getJSON(t, server.URL+"/api/summary", &summary)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, summary.TotalRuns)
	assert.Equal(t, 2, summary.Completed)
	assert.Equal(t, 1.0, summary.PassRate)
	// Two identical passes bootstrap to a degenerate interval at 1.0.
	assert.Equal(t, 1.0, summary.PassRateLower)
	assert.Equal(t, 1.0, summary.PassRateUpper)
}

func TestLiveRunThroughWebhook(t *testing.T) {
	provider := telephony.NewLoopback()
	callback := transport.NewCallback(transport.WithTimeout(5 * time.Second))
	server, s := newTestServer(t, WithTelephony(provider, callback))

	// Kick off a live run; the loopback provider "dials" without a network.
	var pending RunSummary
	status := postJSON(t, server.URL+"/api/runs",
		RunRequest{ScriptID: "greeting-basic", Mode: models.ModeLive}, &pending)
	require.Equal(t, http.StatusAccepted, status)
	require.NotEmpty(t, pending.RunID)
	assert.Equal(t, "loopback", pending.Provider)

	// Replay agent speech for each scripted turn via the webhook.
	script, err := s.GetScript(context.Background(), "greeting-basic")
	require.NoError(t, err)

	for _, turn := range script.Turns {
		reply := strings.Join(turn.ExpectedKeywords, " ")
		require.Eventually(t, func() bool {
			// The run_id field addresses the run directly, the way an
			// inbound call's webhook would.
			resp, err := http.PostForm(server.URL+"/api/webhook/loopback", url.Values{
				"call_id": {"external-call"},
				"run_id":  {pending.RunID},
				"event":   {"speech"},
				"text":    {reply},
			})
			require.NoError(t, err)
			resp.Body.Close()

			run, err := s.GetRun(context.Background(), pending.RunID)
			require.NoError(t, err)
			return run.State.Terminal() || len(run.Transcript) >= 2*turn.TurnIndex
		}, 5*time.Second, 20*time.Millisecond)
	}

	require.Eventually(t, func() bool {
		run, err := s.GetRun(context.Background(), pending.RunID)
		require.NoError(t, err)
		return run.State == models.StateCompleted
	}, 5*time.Second, 20*time.Millisecond)

	run, err := s.GetRun(context.Background(), pending.RunID)
	require.NoError(t, err)
	assert.Equal(t, models.ModeLive, run.Mode)
	assert.True(t, run.Report.Passed())
}

func TestHandleWebhook_RunIDFallbackAndUnknownEvents(t *testing.T) {
	provider := telephony.NewLoopback()
	callback := transport.NewCallback(transport.WithTimeout(5 * time.Second))
	server, _ := newTestServer(t, WithTelephony(provider, callback))

	// Unknown provider name.
	resp, err := http.PostForm(server.URL+"/api/webhook/twilio", url.Values{
		"call_id": {"CA1"}, "event": {"speech"}, "text": {"hi"},
	})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Malformed event payload.
	resp, err = http.PostForm(server.URL+"/api/webhook/loopback", url.Values{
		"call_id": {"CA1"}, "event": {"teleported"},
	})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Event for a call nobody is tracking is acknowledged and dropped.
	resp, err = http.PostForm(server.URL+"/api/webhook/loopback", url.Values{
		"call_id": {"CA-unknown"}, "event": {"speech"}, "text": {"hi"},
	})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestCORSMiddleware(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := CORSMiddleware(inner, "https://dashboard.example")

	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	req.Header.Set("Origin", "https://dashboard.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "https://dashboard.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/runs", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
