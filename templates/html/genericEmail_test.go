package templates_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	templates "github.com/rentcontroldept/rcd-api/templates/html"
)

func TestRenderGenericEmail(t *testing.T) {
	out := templates.RenderGenericEmail("Case RA/2026/08/0042 status update",
		"Your case has moved from submitted to under_review.\nNo action is required.")

	assert.Contains(t, out, "Case RA/2026/08/0042 status update")
	assert.Contains(t, out, "under_review.<br>No action is required.")
	assert.Contains(t, out, "Rent Control Department")
}

func TestRenderGenericEmailEscapesHTML(t *testing.T) {
	out := templates.RenderGenericEmail("<script>alert(1)</script>", "a < b & b > c")

	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, "a &lt; b &amp; b &gt; c")
}
