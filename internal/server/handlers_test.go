package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yalochat/speckit-presenter/internal/artifact"
	"github.com/yalochat/speckit-presenter/internal/constitution"
	"github.com/yalochat/speckit-presenter/internal/markdown"
	"github.com/yalochat/speckit-presenter/internal/notes"
	"github.com/yalochat/speckit-presenter/internal/platform/logger"
	"github.com/yalochat/speckit-presenter/internal/scenario"
	"github.com/yalochat/speckit-presenter/internal/store"
	"github.com/yalochat/speckit-presenter/internal/workflow"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := logger.NewNop()

	scenarios, err := scenario.LoadDefaults()
	require.NoError(t, err)
	catalog, err := scenario.NewCatalog(scenarios)
	require.NoError(t, err)

	noteSvc, err := notes.NewService("")
	require.NoError(t, err)

	activity, err := store.NewActivityStore()
	require.NoError(t, err)
	t.Cleanup(func() { activity.Close() })

	gen := artifact.NewGenerator(markdown.NewRenderer(), log)
	checker := constitution.NewChecker(log)
	events := workflow.NewEventBus()
	eng := workflow.New(catalog, gen, checker, activity, events, log)

	srv := httptest.NewServer(New(eng, catalog, checker, noteSvc, activity, events, log).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestListScenarios(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/scenarios", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(3), body["count"])
}

func TestGetScenario(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/scenarios/user-authentication", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "user-authentication", body["id"])
	assert.Equal(t, "security", body["domain"])

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/scenarios/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body["error"], "missing")
}

func TestCreateCustomScenario(t *testing.T) {
	srv := newTestServer(t)

	payload := map[string]interface{}{
		"title":       "Payment Webhook Handler",
		"description": "Receive and verify payment provider webhooks with retry handling.",
		"domain":      "payments",
	}
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/scenarios", payload)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created, ok := body["scenario"].(map[string]interface{})
	require.True(t, ok)
	id, _ := created["id"].(string)
	assert.True(t, strings.HasPrefix(id, "custom-payment-webhook-handler-"))
	assert.Equal(t, true, created["is_custom"])

	// The new scenario is immediately usable.
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/workflow/"+id, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// And deletable.
	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/scenarios/"+id, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateCustomScenarioValidation(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/scenarios", map[string]interface{}{"title": "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	errs, ok := body["errors"].([]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, errs)
}

func TestValidateScenarioEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/scenarios/validate", map[string]interface{}{
		"title":       "Valid Custom Title",
		"description": "A description comfortably longer than twenty characters.",
		"domain":      "payments",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["valid"])

	_, body = doJSON(t, http.MethodPost, srv.URL+"/api/scenarios/validate", map[string]interface{}{})
	assert.Equal(t, false, body["valid"])
	errs, ok := body["errors"].([]interface{})
	require.True(t, ok)
	assert.Len(t, errs, 3)
}

func TestDeleteFixedScenarioFails(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodDelete, srv.URL+"/api/scenarios/user-authentication", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWorkflowLifecycle(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/workflow/user-authentication", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["phase_index"])
	assert.Equal(t, float64(5), body["total_phases"])
	sessionID, _ := body["session_id"].(string)
	assert.NotEmpty(t, sessionID)

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/workflow/user-authentication/input", map[string]interface{}{
		"phase": "specify",
		"input": "Users must be able to register and log in with email and password.",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["input_received"])
	art, ok := body["artifact"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "spec", art["artifact_type"])
	assert.Contains(t, art["content_markdown"], "register and log in")

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/workflow/user-authentication/step", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["phase_index"])
	assert.NotNil(t, body["previous_phase_artifact"])

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/workflow/user-authentication/jump", map[string]interface{}{
		"phase": "plan",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["phase_index"])

	// Leaving plan triggers the constitution check.
	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/workflow/user-authentication/step", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	check, ok := body["constitution_check"].(map[string]interface{})
	require.True(t, ok)
	summary, ok := check["summary"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "warning", summary["overall_status"])

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/workflow/user-authentication/artifact/plan", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	art, ok = body["artifact"].(map[string]interface{})
	require.True(t, ok)
	md, _ := art["content_markdown"].(string)
	assert.Contains(t, md, "# Implementation Plan:")
	assert.Contains(t, md, "Previous Context")

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/workflow/user-authentication/inputs", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	inputs, ok := body["phase_inputs"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, inputs, "specify")
	assert.Equal(t, sessionID, body["session_id"])
}

func TestWorkflowErrors(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/workflow/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/workflow/user-authentication/jump", map[string]interface{}{
		"phase": "deploy",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/workflow/user-authentication/jump", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	malformed, err := http.Post(srv.URL+"/api/workflow/user-authentication/input", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer malformed.Body.Close()
	assert.Equal(t, http.StatusBadRequest, malformed.StatusCode)
}

func TestAdvancePastFinalPhase(t *testing.T) {
	srv := newTestServer(t)

	_, _ = doJSON(t, http.MethodPost, srv.URL+"/api/workflow/user-authentication/jump", map[string]interface{}{
		"phase": "implement",
	})

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/workflow/user-authentication/step", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "already at final phase")
}

func TestSessionAndReset(t *testing.T) {
	srv := newTestServer(t)

	_, before := doJSON(t, http.MethodGet, srv.URL+"/api/session", nil)
	beforeID, _ := before["session_id"].(string)
	require.NotEmpty(t, beforeID)

	_, _ = doJSON(t, http.MethodGet, srv.URL+"/api/workflow/user-authentication", nil)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/workflow/reset", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Demo reset successfully", body["message"])

	_, after := doJSON(t, http.MethodGet, srv.URL+"/api/session", nil)
	afterID, _ := after["session_id"].(string)
	assert.NotEqual(t, beforeID, afterID)
	assert.Empty(t, after["current_scenario_id"])
}

func TestConstitutionEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/constitution/principles", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(4), body["count"])

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/constitution/check/user-authentication-plan", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "user-authentication-plan", body["artifact_id"])
	checks, ok := body["checks"].([]interface{})
	require.True(t, ok)
	assert.Len(t, checks, 4)
}

func TestNotesEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/notes", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	all, ok := body["notes"].([]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, all)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/notes?context_type=phase&context_id=plan&timing=after", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	filtered, ok := body["notes"].([]interface{})
	require.True(t, ok)
	require.NotEmpty(t, filtered)
	first, ok := filtered[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "plan", first["context_id"])

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/notes/phase-plan-constitution", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "phase-plan-constitution", body["note_id"])

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/notes/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/notes/reload", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["reloaded"])
}

func TestActivityEndpoints(t *testing.T) {
	srv := newTestServer(t)

	_, _ = doJSON(t, http.MethodGet, srv.URL+"/api/workflow/user-authentication", nil)
	_, _ = doJSON(t, http.MethodPost, srv.URL+"/api/workflow/user-authentication/input", map[string]interface{}{
		"phase": "specify",
		"input": "spec input",
	})

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/activity/actions", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	actions, ok := body["actions"].([]interface{})
	require.True(t, ok)
	assert.GreaterOrEqual(t, len(actions), 2)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/activity/generations", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	generations, ok := body["generations"].([]interface{})
	require.True(t, ok)
	assert.Len(t, generations, 1)

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/activity/timings", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/scenarios", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
