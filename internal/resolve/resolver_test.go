package resolve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRoot lays out a small serving tree:
//
//	index.html      "<h1>home</h1>"
//	about.html      "about"
//	notes.txt       "notes"
//	secret.txt      "secret"        (blacklisted)
//	hidden.html     "hidden"        (blacklisted)
//	docs/           directory
//	docs/guide.html "guide"
func newTestRoot(t *testing.T, blacklist []string) (*Resolver, string) {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"index.html":      "<h1>home</h1>",
		"about.html":      "about",
		"notes.txt":       "notes",
		"secret.txt":      "secret",
		"hidden.html":     "hidden",
		"docs/guide.html": "guide",
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "docs"), 0o755))
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}

	r, err := New(dir, "", blacklist)
	require.NoError(t, err)
	return r, dir
}

func TestResolveExistingFile(t *testing.T) {
	r, dir := newTestRoot(t, nil)

	res := r.Resolve("/notes.txt")
	require.Equal(t, Found, res.Outcome)
	assert.Equal(t, mustReal(t, filepath.Join(dir, "notes.txt")), res.Path)
}

func TestResolveRootServesDefaultDocument(t *testing.T) {
	r, dir := newTestRoot(t, nil)

	want := mustReal(t, filepath.Join(dir, "index.html"))
	for _, raw := range []string{"/", "", "/.", "/./"} {
		res := r.Resolve(raw)
		require.Equal(t, Found, res.Outcome, "raw path %q", raw)
		assert.Equal(t, want, res.Path, "raw path %q", raw)
	}
}

func TestResolveNestedFile(t *testing.T) {
	r, dir := newTestRoot(t, nil)

	res := r.Resolve("/docs/guide.html")
	require.Equal(t, Found, res.Outcome)
	assert.Equal(t, mustReal(t, filepath.Join(dir, "docs", "guide.html")), res.Path)
}

func TestResolveMissingFile(t *testing.T) {
	r, _ := newTestRoot(t, nil)
	assert.Equal(t, NotFound, r.Resolve("/nope.txt").Outcome)
}

func TestResolveDirectoryIsNotFound(t *testing.T) {
	r, _ := newTestRoot(t, nil)
	assert.Equal(t, NotFound, r.Resolve("/docs").Outcome)
	assert.Equal(t, NotFound, r.Resolve("/docs/").Outcome)
}

func TestResolveHTMLFallback(t *testing.T) {
	r, dir := newTestRoot(t, nil)

	res := r.Resolve("/about")
	require.Equal(t, Found, res.Outcome)
	assert.Equal(t, mustReal(t, filepath.Join(dir, "about.html")), res.Path)
}

func TestResolveHTMLFallbackNotAppliedTwice(t *testing.T) {
	// "/about.html" exists; "/about.html.html" must never be probed for a
	// name already ending in .html.
	r, _ := newTestRoot(t, nil)
	assert.Equal(t, NotFound, r.Resolve("/missing.html").Outcome)
}

func TestResolveBlacklistedFile(t *testing.T) {
	r, _ := newTestRoot(t, []string{"secret.txt"})
	assert.Equal(t, Blacklisted, r.Resolve("/secret.txt").Outcome)
}

func TestResolveBlacklistHidesMissingFilesToo(t *testing.T) {
	// Blacklist wins before the existence check; the outcome is the same
	// whether or not the file is on disk.
	r, _ := newTestRoot(t, []string{"ghost.txt"})
	assert.Equal(t, Blacklisted, r.Resolve("/ghost.txt").Outcome)
}

func TestResolveFallbackRespectsBlacklist(t *testing.T) {
	// "/hidden" would fall back to hidden.html, but that name is
	// blacklisted: the request must die as a miss, not reveal the file.
	r, _ := newTestRoot(t, []string{"hidden.html"})
	assert.Equal(t, NotFound, r.Resolve("/hidden").Outcome)
}

func TestResolveTraversalForbidden(t *testing.T) {
	r, _ := newTestRoot(t, nil)

	for _, raw := range []string{
		"/../../etc/passwd",
		"/..",
		"/docs/../../escape",
		"/%2e%2e/%2e%2e/etc/passwd",
		"/docs/%2e%2e/%2e%2e/x",
		"//etc/passwd",
	} {
		assert.Equal(t, Forbidden, r.Resolve(raw).Outcome, "raw path %q", raw)
	}
}

func TestResolveDotSegmentsAreHarmless(t *testing.T) {
	r, dir := newTestRoot(t, nil)

	res := r.Resolve("/./docs/./guide.html")
	require.Equal(t, Found, res.Outcome)
	assert.Equal(t, mustReal(t, filepath.Join(dir, "docs", "guide.html")), res.Path)
}

func TestResolvePercentDecoding(t *testing.T) {
	r, dir := newTestRoot(t, nil)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a b.txt"), []byte("x"), 0o644))

	res := r.Resolve("/a%20b.txt")
	require.Equal(t, Found, res.Outcome)
}

func TestResolveBadPercentEncoding(t *testing.T) {
	r, _ := newTestRoot(t, nil)
	assert.Equal(t, BadRequest, r.Resolve("/bad%zz").Outcome)
}

func TestResolveDecodedControlBytes(t *testing.T) {
	r, _ := newTestRoot(t, nil)
	assert.Equal(t, BadRequest, r.Resolve("/nul%00byte").Outcome)
}

func TestResolveQueryStripped(t *testing.T) {
	r, _ := newTestRoot(t, nil)
	assert.Equal(t, Found, r.Resolve("/notes.txt?download=1").Outcome)
}

func TestResolveSymlinkEscapeForbidden(t *testing.T) {
	r, dir := newTestRoot(t, nil)

	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "loot.txt"), []byte("loot"), 0o644))
	require.NoError(t, os.Symlink(filepath.Join(outside, "loot.txt"), filepath.Join(dir, "link.txt")))

	assert.Equal(t, Forbidden, r.Resolve("/link.txt").Outcome)
}

func TestResolveSymlinkInsideRootIsFine(t *testing.T) {
	r, dir := newTestRoot(t, nil)
	require.NoError(t, os.Symlink(filepath.Join(dir, "notes.txt"), filepath.Join(dir, "alias.txt")))

	res := r.Resolve("/alias.txt")
	require.Equal(t, Found, res.Outcome)
	assert.Equal(t, mustReal(t, filepath.Join(dir, "notes.txt")), res.Path)
}

func TestNewRejectsBlacklistPaths(t *testing.T) {
	dir := t.TempDir()
	_, err := New(dir, "", []string{"sub/secret.txt"})
	require.Error(t, err)
}

func TestNewRejectsMissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope"), "", nil)
	require.Error(t, err)
}

func TestNewRejectsFileRoot(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err := New(file, "", nil)
	require.Error(t, err)
}

// mustReal canonicalizes p the same way the resolver does, so assertions hold
// on systems where TempDir itself sits behind a symlink (e.g. macOS /var).
func mustReal(t *testing.T, p string) string {
	t.Helper()
	real, err := filepath.EvalSymlinks(p)
	require.NoError(t, err)
	return real
}
