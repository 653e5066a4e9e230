package artifact

import (
	"time"

	"github.com/yalochat/speckit-presenter/internal/scenario"
)

// Artifact is a generated document for one workflow phase. Artifacts are
// created fresh on every generation call and never mutated in place.
type Artifact struct {
	ArtifactType string         `json:"artifact_type"`
	PhaseName    scenario.Phase `json:"phase_name"`
	Markdown     string         `json:"content_markdown"`
	HTML         string         `json:"content_html"`
	GeneratedAt  time.Time      `json:"generated_at"`
	DurationMs   int64          `json:"generation_duration_ms"`
	TokensUsed   int            `json:"tokens_used"`
}

// phaseArtifactType maps each phase to the type of document it produces.
// The clarify phase refines the spec, so it maps to "spec".
var phaseArtifactType = map[scenario.Phase]string{
	scenario.PhaseSpecify:   "spec",
	scenario.PhaseClarify:   "spec",
	scenario.PhasePlan:      "plan",
	scenario.PhaseTasks:     "tasks",
	scenario.PhaseImplement: "implement",
}

// TypeForPhase returns the artifact type for a phase, defaulting to "spec"
// for phases outside the known set.
func TypeForPhase(phase scenario.Phase) string {
	if t, ok := phaseArtifactType[phase]; ok {
		return t
	}
	return "spec"
}
