package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderResetEmail(t *testing.T) {
	t.Parallel()

	subject, body, err := RenderResetEmail("Ann", "https://contacts.example.com/reset-password?token=abc123")
	require.NoError(t, err)
	assert.Equal(t, "Reset Password", subject)
	assert.Contains(t, body, "Hello Ann,")
	assert.Contains(t, body, `href="https://contacts.example.com/reset-password?token=abc123"`)
	assert.Contains(t, body, "valid for 5 minutes")
}

func TestRenderResetEmail_EscapesName(t *testing.T) {
	t.Parallel()

	_, body, err := RenderResetEmail(`<script>alert("x")</script>`, "https://example.com/r")
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
}
