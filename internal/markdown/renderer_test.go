package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	r := NewRenderer()

	t.Run("headings and lists", func(t *testing.T) {
		html, err := r.Render("# Title\n\n- one\n- two\n")
		require.NoError(t, err)
		assert.Contains(t, html, "<h1>Title</h1>")
		assert.Contains(t, html, "<li>one</li>")
	})

	t.Run("gfm task lists", func(t *testing.T) {
		html, err := r.Render("- [ ] pending\n- [x] done\n")
		require.NoError(t, err)
		assert.Contains(t, html, `type="checkbox"`)
	})

	t.Run("gfm tables", func(t *testing.T) {
		html, err := r.Render("| a | b |\n| --- | --- |\n| 1 | 2 |\n")
		require.NoError(t, err)
		assert.Contains(t, html, "<table>")
	})

	t.Run("empty input yields empty output", func(t *testing.T) {
		html, err := r.Render("")
		require.NoError(t, err)
		assert.Equal(t, "", html)
	})

	t.Run("bold markers", func(t *testing.T) {
		html, err := r.Render("**Q:** What happens?")
		require.NoError(t, err)
		assert.Contains(t, html, "<strong>Q:</strong>")
	})
}
