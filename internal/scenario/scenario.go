package scenario

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Phase identifies a workflow stage.
type Phase string

const (
	PhaseSpecify   Phase = "specify"
	PhaseClarify   Phase = "clarify"
	PhasePlan      Phase = "plan"
	PhaseTasks     Phase = "tasks"
	PhaseImplement Phase = "implement"
)

// ValidPhases is the closed set of phase names, in canonical order.
var ValidPhases = []Phase{PhaseSpecify, PhaseClarify, PhasePlan, PhaseTasks, PhaseImplement}

// IsValidPhase reports whether name is one of the known workflow phases.
func IsValidPhase(name Phase) bool {
	for _, p := range ValidPhases {
		if p == name {
			return true
		}
	}
	return false
}

// ValidDomains lists the domains allowed for pre-built scenarios. Custom
// scenarios may use any domain.
var ValidDomains = []string{"security", "ecommerce", "analytics", "infrastructure", "data", "ui", "other"}

// PhaseDescriptor describes one stage of a scenario's workflow.
type PhaseDescriptor struct {
	Name                    Phase    `yaml:"name" json:"phase_name"`
	DisplayName             string   `yaml:"display_name" json:"display_name"`
	Description             string   `yaml:"description" json:"description"`
	TalkingPoints           []string `yaml:"talking_points,omitempty" json:"talking_points,omitempty"`
	ArtifactType            string   `yaml:"artifact_type" json:"artifact_type"`
	DurationEstimateSeconds int      `yaml:"duration_estimate_seconds" json:"duration_estimate_seconds"`
}

// Clarification is a preset question/answer pair used to simulate the clarify
// phase when the presenter has not typed anything.
type Clarification struct {
	Question string `yaml:"question" json:"question"`
	Answer   string `yaml:"answer" json:"answer"`
}

// Scenario is a pre-configured or presenter-created demo feature example.
// The phase list order is fixed at creation and never reordered.
type Scenario struct {
	ID                       string            `yaml:"id" json:"id"`
	Title                    string            `yaml:"title" json:"title"`
	Description              string            `yaml:"description" json:"description"`
	Domain                   string            `yaml:"domain" json:"domain"`
	IsCustom                 bool              `yaml:"is_custom,omitempty" json:"is_custom"`
	Phases                   []PhaseDescriptor `yaml:"phases" json:"workflow_phases"`
	InitialPrompt            string            `yaml:"initial_prompt" json:"initial_prompt"`
	CreatedAt                time.Time         `yaml:"created_at,omitempty" json:"created_at"`
	Complexity               string            `yaml:"complexity" json:"complexity"`
	EstimatedDurationMinutes int               `yaml:"estimated_duration_minutes" json:"estimated_duration_minutes"`
	FeatureDescription       string            `yaml:"feature_description,omitempty" json:"feature_description,omitempty"`
	TechStack                []string          `yaml:"tech_stack,omitempty" json:"tech_stack,omitempty"`
	DemoClarifications       []Clarification   `yaml:"demo_clarifications,omitempty" json:"demo_clarifications,omitempty"`
}

// ValidationError carries the full list of violated rules for a scenario.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, ", ")
}

// Validate checks field constraints. Domain membership is only enforced for
// pre-built scenarios. Returns a *ValidationError listing every violation.
func (s *Scenario) Validate() error {
	var violations []string

	cleaned := strings.NewReplacer("-", "", "_", "").Replace(s.ID)
	if s.ID == "" || !isAlphanumeric(cleaned) {
		violations = append(violations, fmt.Sprintf("invalid scenario id: %q", s.ID))
	}
	// Bounds count characters, not bytes, so multibyte titles are not
	// penalized by their encoding.
	if n := utf8.RuneCountInString(s.Title); n < 5 || n > 100 {
		violations = append(violations, fmt.Sprintf("title must be 5-100 characters, got %d", n))
	}
	if n := utf8.RuneCountInString(s.Description); n < 20 || n > 500 {
		violations = append(violations, fmt.Sprintf("description must be 20-500 characters, got %d", n))
	}
	if !s.IsCustom && !containsString(ValidDomains, s.Domain) {
		violations = append(violations, fmt.Sprintf("domain must be one of %v, got %q", ValidDomains, s.Domain))
	}
	if !containsString([]string{"simple", "medium", "complex"}, s.Complexity) {
		violations = append(violations, fmt.Sprintf("complexity must be simple, medium or complex, got %q", s.Complexity))
	}
	if s.EstimatedDurationMinutes < 1 || s.EstimatedDurationMinutes > 60 {
		violations = append(violations, fmt.Sprintf("estimated duration must be 1-60 minutes, got %d", s.EstimatedDurationMinutes))
	}
	if len(s.Phases) == 0 {
		violations = append(violations, "scenario must declare at least one phase")
	}
	for i, p := range s.Phases {
		if !IsValidPhase(p.Name) {
			violations = append(violations, fmt.Sprintf("phase %d: unknown phase name %q", i, p.Name))
		}
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

// PhaseNames returns the scenario's phase names in declared order.
func (s *Scenario) PhaseNames() []Phase {
	names := make([]Phase, len(s.Phases))
	for i, p := range s.Phases {
		names[i] = p.Name
	}
	return names
}

// PhaseIndex returns the index of the named phase, or -1 if the scenario does
// not contain it.
func (s *Scenario) PhaseIndex(name Phase) int {
	for i, p := range s.Phases {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// DefaultPhases returns the standard five-phase workflow used for custom
// scenarios.
func DefaultPhases() []PhaseDescriptor {
	return []PhaseDescriptor{
		{
			Name:        PhaseSpecify,
			DisplayName: "Specification",
			Description: "Define the feature requirements and acceptance criteria",
			TalkingPoints: []string{
				"Starting with clear requirements prevents scope creep",
				"User stories help focus on outcomes, not implementation",
			},
			ArtifactType:            "spec",
			DurationEstimateSeconds: 45,
		},
		{
			Name:        PhaseClarify,
			DisplayName: "Clarification",
			Description: "AI asks clarifying questions to refine the specification",
			TalkingPoints: []string{
				"Clarifying questions reveal hidden assumptions",
				"Better questions lead to better implementations",
			},
			ArtifactType:            "clarification",
			DurationEstimateSeconds: 30,
		},
		{
			Name:        PhasePlan,
			DisplayName: "Planning",
			Description: "Generate the implementation plan with architecture decisions",
			TalkingPoints: []string{
				"Constitution principles guide architectural decisions",
				"The plan becomes the source of truth for implementation",
			},
			ArtifactType:            "plan",
			DurationEstimateSeconds: 60,
		},
		{
			Name:        PhaseTasks,
			DisplayName: "Tasks",
			Description: "Break down the plan into actionable development tasks",
			TalkingPoints: []string{
				"Tasks are small enough to complete in one session",
				"Dependencies are clearly marked for parallel execution",
			},
			ArtifactType:            "tasks",
			DurationEstimateSeconds: 45,
		},
		{
			Name:        PhaseImplement,
			DisplayName: "Implementation",
			Description: "Execute tasks with AI-assisted code generation",
			TalkingPoints: []string{
				"Each task is implemented following the established plan",
				"Tests are written alongside implementation",
			},
			ArtifactType:            "implementation",
			DurationEstimateSeconds: 90,
		},
	}
}

func isAlphanumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
