package mailer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var digestSections = []Section{
	{
		Entity: "EBANGA",
		Lines: []string{
			" - New entry (Mod #2) | Action Date: 06/02/2023 | Amount: $50.00",
		},
	},
	{Entity: "SILENT", Lines: nil},
	{
		Entity: "TEMBEXA",
		Lines: []string{
			" - Updated (Mod #1): Action Type: X → Y",
		},
	},
}

func TestTextBody(t *testing.T) {
	body := textBody(digestSections)
	require.Contains(t, body, "EBANGA\n - New entry (Mod #2)")
	require.Contains(t, body, "TEMBEXA\n - Updated (Mod #1)")
	require.NotContains(t, body, "SILENT")
}

func TestTextBodyFallback(t *testing.T) {
	require.Equal(t, "Changes detected.", textBody(nil))
}

func TestHtmlBody(t *testing.T) {
	at := time.Date(2026, 8, 31, 12, 30, 0, 0, time.UTC)
	body := htmlBody(at, digestSections)

	require.True(t, strings.HasPrefix(body, "<p>Detected changes at 2026-08-31 12:30:00 UTC:</p>"))
	require.Contains(t, body, "<strong>EBANGA</strong>")
	require.Contains(t, body, "<li>New entry (Mod #2) | Action Date: 06/02/2023 | Amount: $50.00</li>")
	require.Contains(t, body, "<li>Updated (Mod #1): Action Type: X → Y</li>")
	require.NotContains(t, body, "SILENT")
}

func TestHtmlBodyEscapes(t *testing.T) {
	body := htmlBody(time.Now(), []Section{{
		Entity: "X<script>",
		Lines:  []string{" - Updated (Mod #1): Transaction Description: <old> → <new>"},
	}})
	require.NotContains(t, body, "<script>")
	require.Contains(t, body, "X&lt;script&gt;")
}

func TestDefaults(t *testing.T) {
	m := NewMailer(Options{})
	require.Equal(t, "USAspending Watcher", m.config.SenderName)
	require.Equal(t, "[Award Watch]", m.config.SubjectPrefix)
}
