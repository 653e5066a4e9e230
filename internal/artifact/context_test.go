package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripPreviousContext(t *testing.T) {
	t.Run("no marker returns input unchanged", func(t *testing.T) {
		md := "# Plan\n\n## Overview\n\nbody"
		assert.Equal(t, md, StripPreviousContext(md))
	})

	t.Run("removes block between marker and rule", func(t *testing.T) {
		md := "# Plan: Auth\n\n" +
			PreviousContextMarker + "\n\n" +
			"**From the specification phase:**\n\nquoted spec text\n\n" +
			"---\n\n" +
			"## Overview\n\nplan body"

		got := StripPreviousContext(md)
		assert.Equal(t, "# Plan: Auth\n\n## Overview\n\nplan body", got)
	})

	t.Run("no terminating rule drops everything after marker", func(t *testing.T) {
		md := "# Plan\n\n" + PreviousContextMarker + "\n\nquoted text with no rule"
		assert.Equal(t, "# Plan", StripPreviousContext(md))
	})

	t.Run("rule at end of input without trailing newline", func(t *testing.T) {
		md := "# Plan\n" + PreviousContextMarker + "\nquoted\n---"
		assert.Equal(t, "# Plan", StripPreviousContext(md))
	})

	t.Run("marker at start keeps only trailing content", func(t *testing.T) {
		md := PreviousContextMarker + "\n\nquoted\n\n---\n\n## Body\n\ntext"
		assert.Equal(t, "## Body\n\ntext", StripPreviousContext(md))
	})

	t.Run("stripping is idempotent", func(t *testing.T) {
		md := "# Plan\n\n" + PreviousContextMarker + "\n\nquoted\n\n---\n\n## Body"
		once := StripPreviousContext(md)
		assert.Equal(t, once, StripPreviousContext(once))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, "", StripPreviousContext(""))
	})
}
