package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/yalochat/speckit-presenter/internal/scenario"
	"github.com/yalochat/speckit-presenter/internal/session"
	"github.com/yalochat/speckit-presenter/internal/workflow"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the workflow error taxonomy to HTTP statuses. Unanticipated
// errors are logged with full context and surfaced as a generic server error.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *scenario.ValidationError
	switch {
	case errors.Is(err, workflow.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, workflow.ErrInvalidTransition):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  "validation failed",
			"errors": ve.Violations,
		})
	default:
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ---------- Scenarios ----------

func (s *Server) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	scenarios := s.catalog.List()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"scenarios": scenarios,
		"count":     len(scenarios),
	})
}

func (s *Server) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sc, ok := s.catalog.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "scenario not found: " + id})
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (s *Server) handleCreateScenario(w http.ResponseWriter, r *http.Request) {
	var in scenario.CustomInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	sc, err := s.catalog.CreateCustom(in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.engine.LogAction(session.ActionCustomCreate, "Created custom scenario: "+sc.ID)
	s.log.Info("custom scenario created", "scenario_id", sc.ID)

	writeJSON(w, http.StatusCreated, map[string]interface{}{"scenario": sc})
}

func (s *Server) handleValidateScenario(w http.ResponseWriter, r *http.Request) {
	var in scenario.CustomInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	violations := s.catalog.ValidateCustom(in)
	if violations == nil {
		violations = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid":  len(violations) == 0,
		"errors": violations,
	})
}

func (s *Server) handleDeleteScenario(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.catalog.DeleteCustom(id) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "custom scenario not found: " + id})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": true, "id": id})
}

// ---------- Session + workflow ----------

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Session())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.engine.Reset()
	writeJSON(w, http.StatusOK, map[string]string{
		"message":   "Demo reset successfully",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleInitWorkflow(w http.ResponseWriter, r *http.Request) {
	state, err := s.engine.Initialize(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	state, err := s.engine.Advance(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleJump(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phase string `json:"phase"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Phase == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing 'phase' in request body"})
		return
	}

	state, err := s.engine.Jump(r.PathValue("id"), scenario.Phase(req.Phase))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleSubmitInput(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phase          string                   `json:"phase"`
		Input          string                   `json:"input"`
		Clarifications []scenario.Clarification `json:"clarifications"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Phase == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing 'phase' in request body"})
		return
	}

	result, err := s.engine.SubmitInput(r.PathValue("id"), scenario.Phase(req.Phase), req.Input, req.Clarifications)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"artifact":       result.Artifact,
		"phase":          result.Phase,
		"input_received": true,
		"session_id":     result.SessionID,
	})
}

func (s *Server) handleGenerateArtifact(w http.ResponseWriter, r *http.Request) {
	result, err := s.engine.GenerateForPhase(r.PathValue("id"), scenario.Phase(r.PathValue("phase")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePhaseInputs(w http.ResponseWriter, r *http.Request) {
	sess := s.engine.Session()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"scenario_id":  r.PathValue("id"),
		"phase_inputs": s.engine.PhaseInputs(),
		"session_id":   sess.ID,
	})
}

// ---------- Constitution ----------

func (s *Server) handlePrinciples(w http.ResponseWriter, r *http.Request) {
	principles := s.checker.Principles()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"principles": principles,
		"count":      len(principles),
	})
}

func (s *Server) handleConstitutionCheck(w http.ResponseWriter, r *http.Request) {
	result, err := s.checker.RunCheck(r.PathValue("artifactId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ---------- Presenter notes ----------

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	contextType := q.Get("context_type")
	contextID := q.Get("context_id")

	var list interface{}
	switch {
	case contextType != "" && contextID != "":
		list = s.notes.ForContext(contextType, contextID, q.Get("timing"))
	case contextType != "":
		list = s.notes.ByType(contextType)
	default:
		list = s.notes.All()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notes": list})
}

func (s *Server) handleReloadNotes(w http.ResponseWriter, r *http.Request) {
	if err := s.notes.Reload(); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reloaded": true, "count": len(s.notes.All())})
}

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("noteId")
	note := s.notes.ByID(id)
	if note == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "note not found: " + id})
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// ---------- Activity history ----------

func (s *Server) handleActivityActions(w http.ResponseWriter, r *http.Request) {
	records, err := s.activity.ListActions(s.engine.Session().ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"actions": records})
}

func (s *Server) handleActivityGenerations(w http.ResponseWriter, r *http.Request) {
	records, err := s.activity.ListGenerations(s.engine.Session().ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"generations": records})
}

func (s *Server) handleActivityTimings(w http.ResponseWriter, r *http.Request) {
	records, err := s.activity.ListPhaseTimings(s.engine.Session().ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"timings": records})
}
