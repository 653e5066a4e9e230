package constitution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yalochat/speckit-presenter/internal/platform/logger"
)

func TestPrinciples(t *testing.T) {
	c := NewChecker(logger.NewNop())
	principles := c.Principles()
	require.Len(t, principles, 4)

	ids := make([]string, len(principles))
	for i, p := range principles {
		ids[i] = p.PrincipleID
		assert.NotEmpty(t, p.Title)
		assert.NotEmpty(t, p.Description)
		assert.NotEmpty(t, p.Examples)
		assert.Contains(t, []int{1, 2}, p.Priority)
	}
	assert.Equal(t, []string{"performance", "security", "maintainability", "user-experience"}, ids)
}

func TestRunCheckPlanArtifact(t *testing.T) {
	c := NewChecker(logger.NewNop())

	result, err := c.RunCheck("user-authentication-plan")
	require.NoError(t, err)

	assert.Equal(t, "user-authentication-plan", result.ArtifactID)
	assert.Equal(t, "plan", result.ArtifactType)
	require.Len(t, result.Checks, 4)

	assert.Equal(t, 4, result.Summary.Total)
	assert.Equal(t, 3, result.Summary.Passed)
	assert.Equal(t, 1, result.Summary.Warning)
	assert.Equal(t, 0, result.Summary.Failed)
	assert.Equal(t, "warning", result.Summary.OverallStatus)

	var security *Check
	for i := range result.Checks {
		if result.Checks[i].PrincipleID == "security" {
			security = &result.Checks[i]
		}
	}
	require.NotNil(t, security)
	assert.Equal(t, "warning", security.Status)
	require.Len(t, security.Violations, 1)
	assert.Equal(t, "medium", security.Violations[0].Severity)
	assert.Equal(t, security.CheckID, security.Violations[0].CheckID)
}

func TestRunCheckNonPlanArtifact(t *testing.T) {
	c := NewChecker(logger.NewNop())

	result, err := c.RunCheck("shopping-cart-spec")
	require.NoError(t, err)

	assert.Equal(t, "spec", result.ArtifactType)
	assert.Empty(t, result.Checks)
	assert.Equal(t, "passed", result.Summary.OverallStatus)
	assert.Equal(t, 0, result.Summary.Total)
}

func TestRunCheckDefaultsToPlan(t *testing.T) {
	c := NewChecker(logger.NewNop())

	for _, ref := range []string{"noseparator", "scenario-unknowntype", "-leading"} {
		result, err := c.RunCheck(ref)
		require.NoError(t, err)
		assert.Equal(t, "plan", result.ArtifactType, "ref %q", ref)
		assert.Len(t, result.Checks, 4)
	}
}

func TestSummarize(t *testing.T) {
	t.Run("failed dominates warning", func(t *testing.T) {
		s := Summarize([]Check{{Status: "failed"}, {Status: "warning"}, {Status: "passed"}})
		assert.Equal(t, "failed", s.OverallStatus)
		assert.Equal(t, 1, s.Failed)
		assert.Equal(t, 1, s.Warning)
		assert.Equal(t, 1, s.Passed)
	})

	t.Run("empty check list passes", func(t *testing.T) {
		s := Summarize(nil)
		assert.Equal(t, "passed", s.OverallStatus)
	})

	t.Run("not_run is counted without affecting status", func(t *testing.T) {
		s := Summarize([]Check{{Status: "passed"}, {Status: "not_run"}})
		assert.Equal(t, 1, s.NotRun)
		assert.Equal(t, "passed", s.OverallStatus)
	})
}
