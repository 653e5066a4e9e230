package server

import (
	"net/http"

	"github.com/yalochat/speckit-presenter/internal/constitution"
	"github.com/yalochat/speckit-presenter/internal/notes"
	"github.com/yalochat/speckit-presenter/internal/platform/logger"
	"github.com/yalochat/speckit-presenter/internal/scenario"
	"github.com/yalochat/speckit-presenter/internal/store"
	"github.com/yalochat/speckit-presenter/internal/workflow"
)

// Server serves the presenter API and websocket event feed.
type Server struct {
	engine   *workflow.Engine
	catalog  *scenario.Catalog
	checker  *constitution.Checker
	notes    *notes.Service
	activity *store.ActivityStore
	log      *logger.Logger
	mux      *http.ServeMux
	wsHub    *WSHub
}

// New wires the API routes.
func New(
	engine *workflow.Engine,
	catalog *scenario.Catalog,
	checker *constitution.Checker,
	noteSvc *notes.Service,
	activity *store.ActivityStore,
	events *workflow.EventBus,
	log *logger.Logger,
) *Server {
	s := &Server{
		engine:   engine,
		catalog:  catalog,
		checker:  checker,
		notes:    noteSvc,
		activity: activity,
		log:      log,
		mux:      http.NewServeMux(),
		wsHub:    NewWSHub(events, log),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	// Scenarios
	s.mux.HandleFunc("GET /api/scenarios", s.handleListScenarios)
	s.mux.HandleFunc("POST /api/scenarios", s.handleCreateScenario)
	s.mux.HandleFunc("POST /api/scenarios/validate", s.handleValidateScenario)
	s.mux.HandleFunc("GET /api/scenarios/{id}", s.handleGetScenario)
	s.mux.HandleFunc("DELETE /api/scenarios/{id}", s.handleDeleteScenario)

	// Session + workflow
	s.mux.HandleFunc("GET /api/session", s.handleGetSession)
	s.mux.HandleFunc("POST /api/workflow/reset", s.handleReset)
	s.mux.HandleFunc("GET /api/workflow/{id}", s.handleInitWorkflow)
	s.mux.HandleFunc("POST /api/workflow/{id}/step", s.handleAdvance)
	s.mux.HandleFunc("POST /api/workflow/{id}/jump", s.handleJump)
	s.mux.HandleFunc("POST /api/workflow/{id}/input", s.handleSubmitInput)
	s.mux.HandleFunc("GET /api/workflow/{id}/artifact/{phase}", s.handleGenerateArtifact)
	s.mux.HandleFunc("GET /api/workflow/{id}/inputs", s.handlePhaseInputs)

	// Constitution
	s.mux.HandleFunc("GET /api/constitution/principles", s.handlePrinciples)
	s.mux.HandleFunc("GET /api/constitution/check/{artifactId}", s.handleConstitutionCheck)

	// Presenter notes
	s.mux.HandleFunc("GET /api/notes", s.handleListNotes)
	s.mux.HandleFunc("POST /api/notes/reload", s.handleReloadNotes)
	s.mux.HandleFunc("GET /api/notes/{noteId}", s.handleGetNote)

	// Activity history
	s.mux.HandleFunc("GET /api/activity/actions", s.handleActivityActions)
	s.mux.HandleFunc("GET /api/activity/generations", s.handleActivityGenerations)
	s.mux.HandleFunc("GET /api/activity/timings", s.handleActivityTimings)

	// WebSocket
	s.mux.HandleFunc("/ws/events", s.wsHub.HandleWebSocket)
}

// Handler returns the HTTP handler with CORS applied (useful for tests).
func (s *Server) Handler() http.Handler {
	return corsMiddleware(s.mux)
}

// Start begins serving HTTP.
func (s *Server) Start(addr string) error {
	go s.wsHub.Run()
	return http.ListenAndServe(addr, s.Handler())
}

// corsMiddleware adds CORS headers for development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
