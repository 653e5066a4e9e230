package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/yalochat/speckit-presenter/internal/artifact"
	"github.com/yalochat/speckit-presenter/internal/scenario"
	"github.com/yalochat/speckit-presenter/internal/session"
)

// laterPhases are the phases for which scenario preset clarifications may
// stand in when the presenter has not submitted any.
var laterPhases = map[scenario.Phase]bool{
	scenario.PhaseClarify:   true,
	scenario.PhasePlan:      true,
	scenario.PhaseTasks:     true,
	scenario.PhaseImplement: true,
}

// BuildContext resolves the generation context for a target phase from the
// scenario and the session's phase-input map. It is a pure read: the session
// is never mutated here.
//
// Stored artifact markdown is preferred over raw typed input for the plan and
// tasks phases, with any embedded previous-context block stripped first so
// repeated regeneration cannot nest quotes of quotes. Only plan/tasks stored
// markdown gets this treatment; the specify output stays the presenter's raw
// text so downstream phases always quote the original requirements.
func BuildContext(
	sc *scenario.Scenario,
	target scenario.Phase,
	sess *session.Session,
	userInput string,
	clarifications []scenario.Clarification,
) artifact.Context {
	ctx := artifact.Context{
		Title:         sc.Title,
		Description:   sc.Description,
		Domain:        sc.Domain,
		InitialPrompt: sc.InitialPrompt,
		Date:          time.Now().UTC().Format("2006-01-02"),
		CurrentPhase:  target,
		UserInput:     userInput,
		TechStack:     strings.Join(sc.TechStack, ", "),
	}

	ctx.SpecifyOutput = phaseInput(sess, scenario.PhaseSpecify)
	if ctx.SpecifyOutput == "" {
		ctx.SpecifyOutput = sc.InitialPrompt
	}

	ctx.PlanOutput = resolvePhaseOutput(sess, scenario.PhasePlan)
	ctx.TasksOutput = resolvePhaseOutput(sess, scenario.PhaseTasks)

	effective := clarifications
	if len(effective) == 0 && !sc.IsCustom && len(sc.DemoClarifications) > 0 && laterPhases[target] {
		effective = sc.DemoClarifications
	}
	ctx.ClarificationList = effective
	ctx.Clarifications = FormatClarifications(effective)

	return ctx
}

// resolvePhaseOutput prefers the phase's stored artifact markdown (with its
// previous-context block stripped) over the raw typed input.
func resolvePhaseOutput(sess *session.Session, phase scenario.Phase) string {
	entry := sess.Entry(phase)
	if entry == nil {
		return ""
	}
	if stripped := artifact.StripPreviousContext(entry.ArtifactMarkdown); stripped != "" {
		return stripped
	}
	return entry.Input
}

func phaseInput(sess *session.Session, phase scenario.Phase) string {
	if entry := sess.Entry(phase); entry != nil {
		return entry.Input
	}
	return ""
}

// FormatClarifications renders Q&A pairs as alternating bold question/answer
// blocks joined by blank lines. Pairs without an answer are skipped; an empty
// list yields an empty string.
func FormatClarifications(clarifications []scenario.Clarification) string {
	var blocks []string
	for _, c := range clarifications {
		if c.Answer == "" {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("**Q:** %s\n**A:** %s", c.Question, c.Answer))
	}
	return strings.Join(blocks, "\n\n")
}
