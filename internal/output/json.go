package output

import (
	"encoding/json"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatAudit renders an audit report as JSON.
func (f *JSONFormatter) FormatAudit(report *AuditReport) (string, error) {
	if report == nil {
		return "", nil
	}

	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(report, "", "  ")
	} else {
		data, err = json.Marshal(report)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
