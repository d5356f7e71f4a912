package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestBuildAudit(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "secret.html"), "top")
	writeFile(t, filepath.Join(root, "docs", "secret.html"), "nested")
	writeFile(t, filepath.Join(root, "index.html"), "hi")

	report := buildAudit(root, "index.html", []string{"secret.html", "missing.txt", "index.html", "secret.html", " "})

	require.Equal(t, root, report.Root)
	require.Len(t, report.Entries, 3)

	secret := report.Entries[0]
	require.Equal(t, "secret.html", secret.Name)
	require.Equal(t, 2, secret.Matches)
	require.Equal(t, int64(len("top")+len("nested")), secret.Bytes)
	require.Contains(t, secret.Note, "also blocks /secret")

	missing := report.Entries[1]
	require.Equal(t, "missing.txt", missing.Name)
	require.Equal(t, 0, missing.Matches)
	require.Equal(t, "no matching file under root", missing.Note)

	index := report.Entries[2]
	require.Equal(t, "index.html", index.Name)
	require.Equal(t, 1, index.Matches)
	require.Contains(t, index.Note, "default document")
}
