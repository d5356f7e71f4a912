package cmd

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Jacoblightning/simplewebserver/internal/output"
	"github.com/Jacoblightning/simplewebserver/internal/resolve"
)

var blacklistCmd = &cobra.Command{
	Use:   "blacklist",
	Short: "Audit the configured blacklist",
	Long: `Audit the configured blacklist against the document root.

Blacklist entries are bare filenames and hide every file with that name at
any depth under the root. The audit walks the root and reports how many
files each entry actually hides.`,
	RunE: runBlacklist,
}

func init() {
	rootCmd.AddCommand(blacklistCmd)

	blacklistCmd.Flags().StringP("output", "o", "table", "Output format: table, json, markdown")
}

func runBlacklist(cmd *cobra.Command, args []string) error {
	formatValue, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(formatValue)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rsv, err := resolve.New(cfg.Server.Root, cfg.Server.DefaultDocument, cfg.Blacklist)
	if err != nil {
		return fmt.Errorf("document root: %w", err)
	}

	report := buildAudit(rsv.Root(), cfg.Server.DefaultDocument, cfg.Blacklist)

	rendered, err := output.NewFormatter(format).FormatAudit(report)
	if err != nil {
		return err
	}
	fmt.Println(rendered)
	return nil
}

// buildAudit walks the root once and counts, per blacklist entry, the files
// it hides. Unreadable subtrees are skipped rather than failing the audit.
func buildAudit(root, defaultDocument string, names []string) *output.AuditReport {
	var ordered []string
	sizes := make(map[string][]int64, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if _, dup := sizes[name]; dup {
			continue
		}
		sizes[name] = nil
		ordered = append(ordered, name)
	}

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return nil
		}
		base := filepath.Base(path)
		if _, watched := sizes[base]; !watched {
			return nil
		}
		var size int64
		if info, err := d.Info(); err == nil {
			size = info.Size()
		}
		sizes[base] = append(sizes[base], size)
		return nil
	})

	report := &output.AuditReport{Root: root, Document: defaultDocument}
	for _, name := range ordered {
		matches := sizes[name]
		entry := output.AuditEntry{Name: name, Matches: len(matches)}
		for _, s := range matches {
			entry.Bytes += s
		}
		switch {
		case len(matches) == 0:
			entry.Note = "no matching file under root"
		case name == defaultDocument:
			entry.Note = "default document, requests for / return 404"
		case strings.HasSuffix(name, ".html"):
			entry.Note = fmt.Sprintf("also blocks /%s via the .html fallback", strings.TrimSuffix(name, ".html"))
		}
		report.Entries = append(report.Entries, entry)
	}
	return report
}
