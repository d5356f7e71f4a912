package output

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("table")
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	format, err = ParseFormat("JSON")
	require.NoError(t, err)
	require.Equal(t, FormatJSON, format)

	format, err = ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	_, err = ParseFormat("csv")
	require.Error(t, err)
}

func TestFormatters(t *testing.T) {
	report := &AuditReport{
		Root:     "/srv/www",
		Document: "index.html",
		Entries: []AuditEntry{
			{Name: "secret.html", Matches: 2, Bytes: 4096, Note: "also blocks /secret via the .html fallback"},
			{Name: "passwords.txt", Matches: 0, Note: "no matching file under root"},
		},
	}

	tableRendered, err := NewFormatter(FormatTable).FormatAudit(report)
	require.NoError(t, err)
	require.Contains(t, tableRendered, "ENTRY")
	require.Contains(t, tableRendered, "secret.html")
	require.Contains(t, tableRendered, "2 files")
	require.Contains(t, tableRendered, "1/2")

	jsonRendered, err := NewFormatter(FormatJSON).FormatAudit(report)
	require.NoError(t, err)
	require.Contains(t, jsonRendered, "\"name\": \"secret.html\"")
	require.Contains(t, jsonRendered, "\"matches\": 2")

	markdownRendered, err := NewFormatter(FormatMarkdown).FormatAudit(report)
	require.NoError(t, err)
	require.Contains(t, markdownRendered, "| Entry | Files Hidden | Bytes | Note |")
	require.Contains(t, markdownRendered, "passwords.txt")
	require.Contains(t, markdownRendered, "1/2 entries match")
}

func TestTableEmptyBlacklist(t *testing.T) {
	rendered, err := NewFormatter(FormatTable).FormatAudit(&AuditReport{Root: "/srv/www"})
	require.NoError(t, err)
	require.Equal(t, "blacklist is empty", rendered)
}

func TestMarkdownEscapesPipes(t *testing.T) {
	report := &AuditReport{
		Root:    "/srv/www",
		Entries: []AuditEntry{{Name: "a|b.html", Matches: 1, Bytes: 10}},
	}

	rendered, err := NewFormatter(FormatMarkdown).FormatAudit(report)
	require.NoError(t, err)
	require.Contains(t, rendered, `a\|b.html`)
}
