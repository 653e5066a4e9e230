package artifact

import (
	"strings"
	"unicode"

	"github.com/yalochat/speckit-presenter/internal/scenario"
)

// PreviousContextMarker opens the quoted-context section a generated document
// may embed. The section runs from the marker to the next horizontal rule.
const PreviousContextMarker = "## 📋 Previous Context"

// Context is the resolved input for one generation request. It is rebuilt on
// every request and never stored beyond the artifact it produces.
type Context struct {
	Title         string
	Description   string
	Domain        string
	InitialPrompt string
	Date          string
	CurrentPhase  scenario.Phase
	UserInput     string

	// Resolved outputs of earlier phases.
	SpecifyOutput     string
	Clarifications    string // formatted Q/A blocks
	ClarificationList []scenario.Clarification
	PlanOutput        string
	TasksOutput       string

	TechStack string
}

// StripPreviousContext removes the embedded previous-context block from an
// artifact's markdown so the artifact can itself be quoted as context without
// nesting quotes of quotes. The block spans from the marker to the first line
// beginning "---" after it, inclusive. If no terminating rule exists,
// everything from the marker onward is dropped.
func StripPreviousContext(markdown string) string {
	start := strings.Index(markdown, PreviousContextMarker)
	if start == -1 {
		return markdown
	}

	sepStart := strings.Index(markdown[start:], "\n---")
	if sepStart == -1 {
		return trimRight(markdown[:start])
	}
	sepStart += start

	sepLineEnd := strings.Index(markdown[sepStart+1:], "\n")
	if sepLineEnd == -1 {
		return trimRight(markdown[:start])
	}
	sepLineEnd += sepStart + 1

	before := trimRight(markdown[:start])
	after := trimLeft(markdown[sepLineEnd+1:])
	switch {
	case before != "" && after != "":
		return before + "\n\n" + after
	case before != "":
		return before
	default:
		return after
	}
}

func trimRight(s string) string {
	return strings.TrimRightFunc(s, unicode.IsSpace)
}

func trimLeft(s string) string {
	return strings.TrimLeftFunc(s, unicode.IsSpace)
}
