package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/yalochat/speckit-presenter/internal/artifact"
	"github.com/yalochat/speckit-presenter/internal/scenario"
)

// ActionType categorizes a recorded presenter action.
type ActionType string

const (
	ActionScenarioSelect ActionType = "scenario_select"
	ActionPhaseAdvance   ActionType = "phase_advance"
	ActionPhaseJump      ActionType = "phase_jump"
	ActionPhaseInput     ActionType = "phase_input"
	ActionReset          ActionType = "reset"
	ActionCustomCreate   ActionType = "custom_create"
)

// ActionLogEntry is a single recorded action during a demo session.
type ActionLogEntry struct {
	EntryID    string     `json:"entry_id"`
	Timestamp  time.Time  `json:"timestamp"`
	ActionType ActionType `json:"action_type"`
	Detail     string     `json:"action_detail"`
	DurationMs int64      `json:"duration_ms,omitempty"`
}

// PhaseEntry holds everything the session knows about one phase: the raw
// presenter input, clarification Q&A, and the most recently generated
// artifact for reuse as downstream context.
type PhaseEntry struct {
	Input            string                   `json:"input"`
	Clarifications   []scenario.Clarification `json:"clarifications"`
	SubmittedAt      time.Time                `json:"submitted_at,omitempty"`
	Artifact         *artifact.Artifact       `json:"artifact,omitempty"`
	ArtifactMarkdown string                   `json:"artifact_markdown,omitempty"`
}

// Session is the single mutable state of the running presentation. It is
// exclusively owned and mutated by the workflow engine; the phase-input map
// only grows until an explicit reset replaces the whole session.
type Session struct {
	ID                string                             `json:"session_id"`
	StartedAt         time.Time                          `json:"started_at"`
	CurrentScenarioID string                             `json:"current_scenario_id,omitempty"`
	CurrentPhase      scenario.Phase                     `json:"current_phase_name,omitempty"`
	ActionLog         []ActionLogEntry                   `json:"action_log"`
	PhaseInputs       map[scenario.Phase]*PhaseEntry     `json:"phase_inputs"`
}

// New creates a fresh, empty session.
func New() *Session {
	return &Session{
		ID:          uuid.New().String(),
		StartedAt:   time.Now().UTC(),
		PhaseInputs: make(map[scenario.Phase]*PhaseEntry),
	}
}

// LogAction appends an entry to the session's action log.
func (s *Session) LogAction(t ActionType, detail string) ActionLogEntry {
	entry := ActionLogEntry{
		EntryID:    uuid.New().String(),
		Timestamp:  time.Now().UTC(),
		ActionType: t,
		Detail:     detail,
	}
	s.ActionLog = append(s.ActionLog, entry)
	return entry
}

// Entry returns the phase entry for a phase, or nil when nothing has been
// recorded for it.
func (s *Session) Entry(phase scenario.Phase) *PhaseEntry {
	return s.PhaseInputs[phase]
}

// EnsureEntry returns the phase entry for a phase, creating an empty one if
// needed.
func (s *Session) EnsureEntry(phase scenario.Phase) *PhaseEntry {
	entry, ok := s.PhaseInputs[phase]
	if !ok {
		entry = &PhaseEntry{}
		s.PhaseInputs[phase] = entry
	}
	return entry
}
