package output

import (
	"fmt"
	"strings"
)

// MarkdownFormatter renders results as a markdown table.
type MarkdownFormatter struct{}

// FormatAudit renders an audit report as Markdown.
func (f *MarkdownFormatter) FormatAudit(report *AuditReport) (string, error) {
	if report == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Blacklist audit for %s\n\n", escapeMarkdownCell(report.Root)))

	if len(report.Entries) == 0 {
		sb.WriteString("No entries.\n")
		return sb.String(), nil
	}

	sb.WriteString("| Entry | Files Hidden | Bytes | Note |\n")
	sb.WriteString("|-------|--------------|-------|------|\n")

	for _, e := range report.Entries {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
			escapeMarkdownCell(e.Name),
			escapeMarkdownCell(matchLabel(e)),
			escapeMarkdownCell(byteLabel(e)),
			escapeMarkdownCell(e.Note),
		))
	}

	sb.WriteString(fmt.Sprintf("\n%d/%d entries match\n", report.hiddenCount(), len(report.Entries)))
	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
