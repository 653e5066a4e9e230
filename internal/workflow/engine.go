package workflow

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/yalochat/speckit-presenter/internal/artifact"
	"github.com/yalochat/speckit-presenter/internal/constitution"
	"github.com/yalochat/speckit-presenter/internal/platform/logger"
	"github.com/yalochat/speckit-presenter/internal/scenario"
	"github.com/yalochat/speckit-presenter/internal/session"
)

// ConstitutionChecker runs rule checks against a generated artifact. It may
// fail independently of workflow state; the engine never lets a checker
// failure abort a phase transition.
type ConstitutionChecker interface {
	RunCheck(artifactRef string) (*constitution.Result, error)
}

// ActivityRecorder receives engine activity for the in-memory history store.
// A nil recorder disables recording.
type ActivityRecorder interface {
	RecordAction(sessionID string, entry session.ActionLogEntry) error
	RecordGeneration(sessionID, scenarioID string, a *artifact.Artifact) error
	RecordPhaseTiming(sessionID string, phase scenario.Phase, durationMs int64) error
}

// WorkflowState is the outbound shape for every workflow mutation.
type WorkflowState struct {
	Scenario              *scenario.Scenario        `json:"scenario"`
	CurrentPhase          *scenario.PhaseDescriptor `json:"current_phase"`
	PhaseIndex            int                       `json:"phase_index"`
	TotalPhases           int                       `json:"total_phases"`
	SessionID             string                    `json:"session_id"`
	ConstitutionCheck     *constitution.Result      `json:"constitution_check,omitempty"`
	PreviousPhaseArtifact *artifact.Artifact        `json:"previous_phase_artifact,omitempty"`
	PreviousPhaseInput    *session.PhaseEntry       `json:"previous_phase_input,omitempty"`
}

// GenerationResult is the outbound shape for artifact generation.
type GenerationResult struct {
	Artifact          *artifact.Artifact `json:"artifact"`
	Phase             scenario.Phase     `json:"phase"`
	ContextFromPhases []scenario.Phase   `json:"context_from_phases,omitempty"`
	SessionID         string             `json:"session_id"`
}

// Engine orchestrates phase transitions and is the sole writer of session
// state. Every operation takes the engine mutex for its full duration, so
// concurrent requests against the single session cannot interleave partial
// reads and writes.
type Engine struct {
	mu sync.Mutex

	catalog   *scenario.Catalog
	generator *artifact.Generator
	checker   ConstitutionChecker
	recorder  ActivityRecorder
	events    *EventBus
	log       *logger.Logger

	session      *session.Session
	phaseEntered time.Time
}

// New creates an engine with a fresh session.
func New(
	catalog *scenario.Catalog,
	generator *artifact.Generator,
	checker ConstitutionChecker,
	recorder ActivityRecorder,
	events *EventBus,
	log *logger.Logger,
) *Engine {
	return &Engine{
		catalog:   catalog,
		generator: generator,
		checker:   checker,
		recorder:  recorder,
		events:    events,
		log:       log,
		session:   session.New(),
	}
}

// Initialize selects a scenario and positions the session at its first phase.
func (e *Engine) Initialize(scenarioID string) (*WorkflowState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sc, ok := e.catalog.Get(scenarioID)
	if !ok {
		return nil, fmt.Errorf("scenario %s: %w", scenarioID, ErrNotFound)
	}

	first := sc.Phases[0]
	e.session.CurrentScenarioID = scenarioID
	e.session.CurrentPhase = first.Name
	e.phaseEntered = time.Now()
	e.record(e.session.LogAction(session.ActionScenarioSelect, "Selected scenario: "+scenarioID))

	e.log.Info("workflow initialized", "scenario_id", scenarioID, "first_phase", first.Name)
	e.publish(EventWorkflowInitialized, map[string]string{"scenario_id": scenarioID, "phase": string(first.Name)})

	return &WorkflowState{
		Scenario:     sc,
		CurrentPhase: &first,
		PhaseIndex:   0,
		TotalPhases:  len(sc.Phases),
		SessionID:    e.session.ID,
	}, nil
}

// Advance moves the session to the next phase of the active scenario. The
// phase being left gets its artifact regenerated from its stored input (if
// any), and leaving the plan phase triggers the constitution checker; a
// checker failure omits the check result rather than blocking the transition.
func (e *Engine) Advance(scenarioID string) (*WorkflowState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sc, ok := e.catalog.Get(scenarioID)
	if !ok {
		return nil, fmt.Errorf("scenario %s: %w", scenarioID, ErrNotFound)
	}

	current := e.session.CurrentPhase
	if current == "" {
		current = sc.Phases[0].Name
	}
	currentIndex := sc.PhaseIndex(current)
	if currentIndex < 0 {
		currentIndex = 0
		current = sc.Phases[0].Name
	}
	if currentIndex >= len(sc.Phases)-1 {
		return nil, fmt.Errorf("already at final phase %s: %w", current, ErrInvalidTransition)
	}

	// Leave the outgoing phase with a concrete output even if the caller
	// never explicitly requested generation for it.
	var prevArtifact *artifact.Artifact
	var prevInput *session.PhaseEntry
	if entry := e.session.Entry(current); entry != nil {
		prevInput = entry
		prevArtifact = e.generateInto(sc, current, entry)
	}

	nextIndex := currentIndex + 1
	next := sc.Phases[nextIndex]
	e.session.CurrentScenarioID = scenarioID
	e.session.CurrentPhase = next.Name
	e.record(e.session.LogAction(session.ActionPhaseAdvance, "Advanced to "+string(next.Name)))
	e.recordTiming(current)

	var check *constitution.Result
	if current == scenario.PhasePlan && e.checker != nil {
		ref := fmt.Sprintf("%s-%s", scenarioID, artifact.TypeForPhase(current))
		result, err := e.checker.RunCheck(ref)
		if err != nil {
			e.log.Warn("constitution check failed, continuing without result", "artifact_ref", ref, "error", err)
		} else {
			check = result
		}
	}

	e.log.Info("advanced phase", "scenario_id", scenarioID, "from", current, "to", next.Name)
	e.publish(EventPhaseAdvanced, map[string]string{"scenario_id": scenarioID, "from": string(current), "to": string(next.Name)})

	return &WorkflowState{
		Scenario:              sc,
		CurrentPhase:          &next,
		PhaseIndex:            nextIndex,
		TotalPhases:           len(sc.Phases),
		SessionID:             e.session.ID,
		ConstitutionCheck:     check,
		PreviousPhaseArtifact: prevArtifact,
		PreviousPhaseInput:    prevInput,
	}, nil
}

// Jump sets the current phase directly. The target does not have to be
// adjacent, but it must belong to the scenario's phase list.
func (e *Engine) Jump(scenarioID string, target scenario.Phase) (*WorkflowState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sc, ok := e.catalog.Get(scenarioID)
	if !ok {
		return nil, fmt.Errorf("scenario %s: %w", scenarioID, ErrNotFound)
	}

	targetIndex := sc.PhaseIndex(target)
	if targetIndex < 0 {
		return nil, fmt.Errorf("phase %s not in scenario %s: %w", target, scenarioID, ErrInvalidTransition)
	}
	descriptor := sc.Phases[targetIndex]

	prev := e.session.CurrentPhase
	e.session.CurrentScenarioID = scenarioID
	e.session.CurrentPhase = target
	e.record(e.session.LogAction(session.ActionPhaseJump, "Jumped to "+string(target)))
	e.recordTiming(prev)

	e.log.Info("jumped phase", "scenario_id", scenarioID, "to", target)
	e.publish(EventPhaseJumped, map[string]string{"scenario_id": scenarioID, "phase": string(target)})

	return &WorkflowState{
		Scenario:     sc,
		CurrentPhase: &descriptor,
		PhaseIndex:   targetIndex,
		TotalPhases:  len(sc.Phases),
		SessionID:    e.session.ID,
	}, nil
}

// SubmitInput stores the presenter's input for a phase and immediately
// generates that phase's artifact from it.
func (e *Engine) SubmitInput(
	scenarioID string,
	phase scenario.Phase,
	input string,
	clarifications []scenario.Clarification,
) (*GenerationResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sc, ok := e.catalog.Get(scenarioID)
	if !ok {
		return nil, fmt.Errorf("scenario %s: %w", scenarioID, ErrNotFound)
	}
	if sc.PhaseIndex(phase) < 0 {
		return nil, fmt.Errorf("phase %s not in scenario %s: %w", phase, scenarioID, ErrNotFound)
	}

	entry := e.session.EnsureEntry(phase)
	entry.Input = input
	entry.Clarifications = clarifications
	entry.SubmittedAt = time.Now().UTC()
	e.record(e.session.LogAction(session.ActionPhaseInput, "User input submitted for "+string(phase)))

	ctx := BuildContext(sc, phase, e.session, input, clarifications)
	a := e.generator.Generate(phase, sc, ctx)
	entry.Artifact = a
	entry.ArtifactMarkdown = a.Markdown
	e.recordGeneration(scenarioID, a)

	e.log.Info("generated artifact from input", "scenario_id", scenarioID, "phase", phase, "tokens", a.TokensUsed)
	e.publish(EventInputSubmitted, map[string]string{"scenario_id": scenarioID, "phase": string(phase)})

	return &GenerationResult{
		Artifact:  a,
		Phase:     phase,
		SessionID: e.session.ID,
	}, nil
}

// GenerateForPhase regenerates the artifact for a phase from whatever input
// is already stored, incorporating context from all prior phases. The content
// is idempotent for unchanged inputs, but the resulting artifact is cached
// back into the phase-input map.
func (e *Engine) GenerateForPhase(scenarioID string, phase scenario.Phase) (*GenerationResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sc, ok := e.catalog.Get(scenarioID)
	if !ok {
		return nil, fmt.Errorf("scenario %s: %w", scenarioID, ErrNotFound)
	}

	contextPhases := make([]scenario.Phase, 0, len(e.session.PhaseInputs))
	for p := range e.session.PhaseInputs {
		contextPhases = append(contextPhases, p)
	}
	sort.Slice(contextPhases, func(i, j int) bool { return contextPhases[i] < contextPhases[j] })

	entry := e.session.EnsureEntry(phase)
	a := e.generateInto(sc, phase, entry)
	e.recordGeneration(scenarioID, a)

	e.log.Info("generated artifact with context", "scenario_id", scenarioID, "phase", phase)
	e.publish(EventArtifactGenerated, map[string]string{"scenario_id": scenarioID, "phase": string(phase)})

	return &GenerationResult{
		Artifact:          a,
		Phase:             phase,
		ContextFromPhases: contextPhases,
		SessionID:         e.session.ID,
	}, nil
}

// Reset discards the session and every custom scenario, replacing the session
// with a brand-new empty one.
func (e *Engine) Reset() *session.Session {
	e.mu.Lock()
	defer e.mu.Unlock()

	removed := e.catalog.ClearCustom()
	oldID := e.session.ID
	e.session = session.New()
	e.phaseEntered = time.Time{}
	e.record(e.session.LogAction(session.ActionReset, "Demo reset to initial state"))

	e.log.Info("session reset", "old_session_id", oldID, "new_session_id", e.session.ID, "custom_scenarios_removed", removed)
	e.publish(EventSessionReset, map[string]string{"session_id": e.session.ID})

	return e.snapshotLocked()
}

// Session returns a point-in-time copy of the current session.
func (e *Engine) Session() *session.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// PhaseInputs returns a copy of the session's phase-input map.
func (e *Engine) PhaseInputs() map[scenario.Phase]session.PhaseEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[scenario.Phase]session.PhaseEntry, len(e.session.PhaseInputs))
	for p, entry := range e.session.PhaseInputs {
		out[p] = *entry
	}
	return out
}

// LogAction records a presenter action that happened outside the engine's own
// transitions (e.g. custom scenario creation).
func (e *Engine) LogAction(t session.ActionType, detail string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record(e.session.LogAction(t, detail))
}

// generateInto builds context for a phase from the session, generates the
// artifact, and caches it in the given entry.
func (e *Engine) generateInto(sc *scenario.Scenario, phase scenario.Phase, entry *session.PhaseEntry) *artifact.Artifact {
	ctx := BuildContext(sc, phase, e.session, entry.Input, entry.Clarifications)
	a := e.generator.Generate(phase, sc, ctx)
	entry.Artifact = a
	entry.ArtifactMarkdown = a.Markdown
	return a
}

func (e *Engine) snapshotLocked() *session.Session {
	copySess := &session.Session{
		ID:                e.session.ID,
		StartedAt:         e.session.StartedAt,
		CurrentScenarioID: e.session.CurrentScenarioID,
		CurrentPhase:      e.session.CurrentPhase,
		ActionLog:         append([]session.ActionLogEntry(nil), e.session.ActionLog...),
		PhaseInputs:       make(map[scenario.Phase]*session.PhaseEntry, len(e.session.PhaseInputs)),
	}
	for p, entry := range e.session.PhaseInputs {
		c := *entry
		copySess.PhaseInputs[p] = &c
	}
	return copySess
}

func (e *Engine) record(entry session.ActionLogEntry) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.RecordAction(e.session.ID, entry); err != nil {
		e.log.Warn("failed to record action", "action_type", entry.ActionType, "error", err)
	}
}

func (e *Engine) recordGeneration(scenarioID string, a *artifact.Artifact) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.RecordGeneration(e.session.ID, scenarioID, a); err != nil {
		e.log.Warn("failed to record generation", "phase", a.PhaseName, "error", err)
	}
}

// recordTiming stores how long the session spent in the phase being left.
func (e *Engine) recordTiming(left scenario.Phase) {
	now := time.Now()
	if e.recorder != nil && left != "" && !e.phaseEntered.IsZero() {
		elapsed := now.Sub(e.phaseEntered).Milliseconds()
		if err := e.recorder.RecordPhaseTiming(e.session.ID, left, elapsed); err != nil {
			e.log.Warn("failed to record phase timing", "phase", left, "error", err)
		}
	}
	e.phaseEntered = now
}

func (e *Engine) publish(t EventType, payload map[string]string) {
	if e.events != nil {
		e.events.Publish(t, payload)
	}
}
