package scenario

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// CustomInput is the presenter-supplied payload for creating a custom scenario.
type CustomInput struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Domain             string   `json:"domain"`
	FeatureDescription string   `json:"feature_description,omitempty"`
	TechStack          []string `json:"tech_stack,omitempty"`
}

// Catalog holds the fixed scenario set plus presenter-created custom
// scenarios. Fixed scenarios are validated once at construction; custom
// scenarios live only in memory.
type Catalog struct {
	mu          sync.RWMutex
	fixed       map[string]*Scenario
	fixedOrder  []string
	custom      map[string]*Scenario
	customOrder []string
}

// NewCatalog validates and indexes the fixed scenarios. A single invalid
// definition fails construction.
func NewCatalog(fixed []Scenario) (*Catalog, error) {
	c := &Catalog{
		fixed:  make(map[string]*Scenario, len(fixed)),
		custom: make(map[string]*Scenario),
	}
	for i := range fixed {
		s := fixed[i]
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", s.ID, err)
		}
		if _, dup := c.fixed[s.ID]; dup {
			return nil, fmt.Errorf("duplicate scenario id: %s", s.ID)
		}
		c.fixed[s.ID] = &s
		c.fixedOrder = append(c.fixedOrder, s.ID)
	}
	return c, nil
}

// List returns all scenarios, fixed first, then custom, each in insertion
// order.
func (c *Catalog) List() []*Scenario {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Scenario, 0, len(c.fixedOrder)+len(c.customOrder))
	for _, id := range c.fixedOrder {
		out = append(out, c.fixed[id])
	}
	for _, id := range c.customOrder {
		out = append(out, c.custom[id])
	}
	return out
}

// Get looks up a scenario by id across both sets.
func (c *Catalog) Get(id string) (*Scenario, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if s, ok := c.custom[id]; ok {
		return s, true
	}
	s, ok := c.fixed[id]
	return s, ok
}

// ValidateCustom checks a custom scenario payload and returns the list of
// violated rules (empty when valid).
func (c *Catalog) ValidateCustom(in CustomInput) []string {
	var violations []string

	// Character counts, not byte lengths.
	title := strings.TrimSpace(in.Title)
	switch {
	case title == "":
		violations = append(violations, "title is required")
	case utf8.RuneCountInString(title) < 5:
		violations = append(violations, "title must be at least 5 characters")
	case utf8.RuneCountInString(title) > 100:
		violations = append(violations, "title must not exceed 100 characters")
	}

	description := strings.TrimSpace(in.Description)
	switch {
	case description == "":
		violations = append(violations, "description is required")
	case utf8.RuneCountInString(description) < 20:
		violations = append(violations, "description must be at least 20 characters")
	case utf8.RuneCountInString(description) > 500:
		violations = append(violations, "description must not exceed 500 characters")
	}

	domain := strings.TrimSpace(in.Domain)
	switch {
	case domain == "":
		violations = append(violations, "domain is required")
	case utf8.RuneCountInString(domain) < 3:
		violations = append(violations, "domain must be at least 3 characters")
	case utf8.RuneCountInString(domain) > 50:
		violations = append(violations, "domain must not exceed 50 characters")
	}

	if utf8.RuneCountInString(strings.TrimSpace(in.FeatureDescription)) > 2000 {
		violations = append(violations, "feature description must not exceed 2000 characters")
	}
	if len(in.TechStack) > 10 {
		violations = append(violations, "tech stack must not exceed 10 items")
	}

	return violations
}

// CreateCustom validates the payload and stores a new custom scenario with a
// generated id of the form custom-{slug(title)}-{suffix}. Custom scenarios
// bypass the domain enum but share the other constraints.
func (c *Catalog) CreateCustom(in CustomInput) (*Scenario, error) {
	if violations := c.ValidateCustom(in); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	title := strings.TrimSpace(in.Title)
	slug := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(title), "-"), "-")
	id := fmt.Sprintf("custom-%s-%s", slug, uuid.New().String()[:6])

	s := &Scenario{
		ID:                       id,
		Title:                    title,
		Description:              strings.TrimSpace(in.Description),
		Domain:                   strings.TrimSpace(in.Domain),
		IsCustom:                 true,
		Phases:                   DefaultPhases(),
		CreatedAt:                time.Now().UTC(),
		Complexity:               "medium",
		EstimatedDurationMinutes: 15,
		FeatureDescription:       strings.TrimSpace(in.FeatureDescription),
		TechStack:                in.TechStack,
	}
	s.InitialPrompt = s.FeatureDescription
	if s.InitialPrompt == "" {
		s.InitialPrompt = s.Description
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.custom[id] = s
	c.customOrder = append(c.customOrder, id)
	return s, nil
}

// ListCustom returns the custom scenarios in creation order.
func (c *Catalog) ListCustom() []*Scenario {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Scenario, 0, len(c.customOrder))
	for _, id := range c.customOrder {
		out = append(out, c.custom[id])
	}
	return out
}

// DeleteCustom removes one custom scenario. Returns false if the id is not a
// custom scenario.
func (c *Catalog) DeleteCustom(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.custom[id]; !ok {
		return false
	}
	delete(c.custom, id)
	for i, cid := range c.customOrder {
		if cid == id {
			c.customOrder = append(c.customOrder[:i], c.customOrder[i+1:]...)
			break
		}
	}
	return true
}

// ClearCustom removes every custom scenario and returns how many were removed.
func (c *Catalog) ClearCustom() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := len(c.custom)
	c.custom = make(map[string]*Scenario)
	c.customOrder = nil
	return removed
}
