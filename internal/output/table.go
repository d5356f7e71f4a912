package output

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
)

// TableFormatter renders results as an ASCII table.
type TableFormatter struct{}

// FormatAudit renders an audit report as a table.
func (f *TableFormatter) FormatAudit(report *AuditReport) (string, error) {
	if report == nil {
		return "", nil
	}
	if len(report.Entries) == 0 {
		return "blacklist is empty", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Entry", "Files Hidden", "Bytes", "Note"})

	for _, e := range report.Entries {
		t.AppendRow(table.Row{
			e.Name,
			matchLabel(e),
			byteLabel(e),
			e.Note,
		})
	}

	t.AppendFooter(table.Row{
		"",
		fmt.Sprintf("%d/%d entries match", report.hiddenCount(), len(report.Entries)),
		"",
		"",
	})

	return t.Render(), nil
}
