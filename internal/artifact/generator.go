package artifact

import (
	"fmt"
	"strings"
	"time"

	"github.com/yalochat/speckit-presenter/internal/platform/logger"
	"github.com/yalochat/speckit-presenter/internal/scenario"
)

// Renderer converts markdown to HTML. Implementations must not panic; an
// error here degrades to a preformatted fallback, never a failed generation.
type Renderer interface {
	Render(markdown string) (string, error)
}

// Generator assembles phase artifacts from a scenario and resolved context.
type Generator struct {
	renderer Renderer
	log      *logger.Logger
	now      func() time.Time
}

// NewGenerator creates a generator backed by the given renderer.
func NewGenerator(r Renderer, log *logger.Logger) *Generator {
	return &Generator{renderer: r, log: log, now: time.Now}
}

type builderFunc func(sc *scenario.Scenario, ctx Context) string

// builders dispatches phase name to its content-assembly routine. Phases
// outside this table get a placeholder document, not an error, so future
// phases degrade gracefully.
var builders = map[scenario.Phase]builderFunc{
	scenario.PhaseSpecify:   buildSpecify,
	scenario.PhaseClarify:   buildClarify,
	scenario.PhasePlan:      buildPlan,
	scenario.PhaseTasks:     buildTasks,
	scenario.PhaseImplement: buildImplement,
}

// Generate builds the artifact for a phase. The markdown is deterministic for
// a given scenario and context; only the timestamp and duration vary between
// calls.
func (g *Generator) Generate(phase scenario.Phase, sc *scenario.Scenario, ctx Context) *Artifact {
	start := g.now()

	build, ok := builders[phase]
	var markdown string
	if ok {
		markdown = build(sc, ctx)
	} else {
		markdown = buildPlaceholder(phase, sc, ctx)
	}

	html := g.renderHTML(markdown)
	end := g.now()

	return &Artifact{
		ArtifactType: TypeForPhase(phase),
		PhaseName:    phase,
		Markdown:     markdown,
		HTML:         html,
		GeneratedAt:  end.UTC(),
		DurationMs:   end.Sub(start).Milliseconds(),
		TokensUsed:   len(markdown) / 4,
	}
}

func (g *Generator) renderHTML(markdown string) string {
	html, err := g.renderer.Render(markdown)
	if err != nil {
		g.log.Warn("markdown renderer unavailable, using preformatted fallback", "error", err)
		return "<pre>" + markdown + "</pre>"
	}
	return html
}

// contextSource names one candidate upstream output for the previous-context
// section.
type contextSource struct {
	label string
	value func(ctx Context) string
}

var (
	fromSpecify        = contextSource{"specification", func(c Context) string { return c.SpecifyOutput }}
	fromClarifications = contextSource{"clarification", func(c Context) string { return c.Clarifications }}
	fromPlan           = contextSource{"plan", func(c Context) string { return c.PlanOutput }}
	fromTasks          = contextSource{"tasks", func(c Context) string { return c.TasksOutput }}
)

// previousContextPrecedence lists, per phase, which single upstream output to
// quote. Only the highest-precedence available source is shown.
var previousContextPrecedence = map[scenario.Phase][]contextSource{
	scenario.PhaseClarify:   {fromSpecify},
	scenario.PhasePlan:      {fromSpecify, fromClarifications},
	scenario.PhaseTasks:     {fromPlan, fromClarifications, fromSpecify},
	scenario.PhaseImplement: {fromTasks, fromPlan, fromClarifications, fromSpecify},
}

// previousContextSection renders the quoted-context block for a phase, or ""
// when no upstream output exists.
func previousContextSection(phase scenario.Phase, ctx Context) string {
	for _, src := range previousContextPrecedence[phase] {
		content := strings.TrimSpace(src.value(ctx))
		if content == "" {
			continue
		}
		var b strings.Builder
		b.WriteString(PreviousContextMarker)
		b.WriteString("\n\n")
		fmt.Fprintf(&b, "**From the %s phase:**\n\n", src.label)
		b.WriteString(content)
		b.WriteString("\n\n---\n\n")
		return b.String()
	}
	return ""
}

func buildSpecify(sc *scenario.Scenario, ctx Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Feature Specification: %s\n\n", ctx.Title)
	fmt.Fprintf(&b, "**Date:** %s | **Domain:** %s\n\n", ctx.Date, ctx.Domain)
	b.WriteString("## Overview\n\n")
	b.WriteString(ctx.Description)
	b.WriteString("\n\n## Requirements\n\n")
	b.WriteString(strings.TrimSpace(ctx.SpecifyOutput))
	b.WriteString("\n\n## Acceptance Criteria\n\n")
	b.WriteString("- [ ] All requirements above are implemented and verified\n")
	b.WriteString("- [ ] Edge cases raised during clarification are covered\n")
	b.WriteString("- [ ] Non-functional expectations (performance, security) are met\n")
	return b.String()
}

func buildClarify(sc *scenario.Scenario, ctx Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Clarifications: %s\n\n", ctx.Title)
	b.WriteString(previousContextSection(scenario.PhaseClarify, ctx))
	fmt.Fprintf(&b, "**Date:** %s\n\n", ctx.Date)
	b.WriteString("## Questions & Answers\n\n")
	if qa := strings.TrimSpace(ctx.Clarifications); qa != "" {
		b.WriteString(qa)
	} else {
		b.WriteString("_No clarifications recorded for this phase._")
	}
	b.WriteString("\n\n## Updated Understanding\n\n")
	b.WriteString("The specification is refined with the answers above before planning begins.\n")
	return b.String()
}

func buildPlan(sc *scenario.Scenario, ctx Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Implementation Plan: %s\n\n", ctx.Title)
	b.WriteString(previousContextSection(scenario.PhasePlan, ctx))
	fmt.Fprintf(&b, "**Date:** %s | **Domain:** %s\n\n", ctx.Date, ctx.Domain)
	if ctx.TechStack != "" {
		fmt.Fprintf(&b, "**Tech Stack:** %s\n\n", ctx.TechStack)
	}
	b.WriteString("## Overview\n\n")
	b.WriteString(ctx.Description)
	b.WriteString("\n\n## Implementation Approach\n\n")
	b.WriteString("### Phase 1: Foundation\n\nSet up project structure, data model and core interfaces.\n\n")
	b.WriteString("### Phase 2: Core Functionality\n\nImplement the primary feature flows defined in the specification.\n\n")
	b.WriteString("### Phase 3: Integration\n\nWire the feature into existing services and surfaces.\n\n")
	b.WriteString("### Phase 4: Hardening\n\nCover edge cases, add monitoring and complete the test suite.\n")
	if qa := strings.TrimSpace(ctx.Clarifications); qa != "" {
		b.WriteString("\n## Clarifications Applied\n\n")
		b.WriteString(qa)
		b.WriteString("\n")
	}
	return b.String()
}

func buildTasks(sc *scenario.Scenario, ctx Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Task Breakdown: %s\n\n", ctx.Title)
	b.WriteString(previousContextSection(scenario.PhaseTasks, ctx))
	fmt.Fprintf(&b, "**Date:** %s\n\n", ctx.Date)
	b.WriteString("## Overview\n\n")
	b.WriteString(ctx.Description)
	b.WriteString("\n\n## Tasks\n\n")
	for i, p := range sc.Phases {
		desc := p.Description
		if desc == "" {
			desc = "Implementation task"
		}
		fmt.Fprintf(&b, "%d. [ ] %s: %s\n", i+1, p.DisplayName, desc)
	}
	b.WriteString("\n## Dependencies\n\n")
	b.WriteString("Tasks are ordered; each task depends on the one before it unless noted otherwise.\n")
	return b.String()
}

func buildImplement(sc *scenario.Scenario, ctx Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Implementation: %s\n\n", ctx.Title)
	b.WriteString(previousContextSection(scenario.PhaseImplement, ctx))
	fmt.Fprintf(&b, "**Date:** %s\n\n", ctx.Date)
	b.WriteString("## Overview\n\n")
	b.WriteString(ctx.Description)
	b.WriteString("\n\n## Execution Notes\n\n")
	b.WriteString("Each task from the breakdown is implemented in order, following the plan's architecture decisions.\n")
	b.WriteString("\n## Verification\n\n")
	b.WriteString("- Unit tests accompany each task\n")
	b.WriteString("- Acceptance criteria from the specification are checked before sign-off\n")
	return b.String()
}

func buildPlaceholder(phase scenario.Phase, sc *scenario.Scenario, ctx Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s: %s\n\n", capitalize(string(phase)), ctx.Title)
	fmt.Fprintf(&b, "**Date:** %s\n\n", ctx.Date)
	fmt.Fprintf(&b, "No template exists for the %q phase yet.\n", phase)
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
