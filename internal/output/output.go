package output

import (
	"fmt"
	"strconv"
	"strings"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// AuditReport describes what the configured blacklist actually hides under
// a document root.
type AuditReport struct {
	Root     string       `json:"root"`
	Document string       `json:"default_document"`
	Entries  []AuditEntry `json:"entries"`
}

// AuditEntry is one blacklist name together with the files it matched.
type AuditEntry struct {
	Name    string `json:"name"`
	Matches int    `json:"matches"`
	Bytes   int64  `json:"bytes"`
	Note    string `json:"note,omitempty"`
}

// Formatter renders audit reports.
type Formatter interface {
	FormatAudit(report *AuditReport) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown):
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	default:
		return &TableFormatter{}
	}
}

func (r *AuditReport) hiddenCount() int {
	n := 0
	for _, e := range r.Entries {
		if e.Matches > 0 {
			n++
		}
	}
	return n
}

func matchLabel(e AuditEntry) string {
	switch e.Matches {
	case 0:
		return "none"
	case 1:
		return "1 file"
	default:
		return fmt.Sprintf("%d files", e.Matches)
	}
}

func byteLabel(e AuditEntry) string {
	if e.Matches == 0 {
		return "-"
	}
	return strconv.FormatInt(e.Bytes, 10)
}
