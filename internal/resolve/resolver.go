// Package resolve maps request paths onto the serving root. It owns every
// decision about what a URL path is allowed to reach on disk: traversal and
// escape rejection, the blacklist, the default document, and the ".html"
// soft-rewrite fallback.
package resolve

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDocument is served when the request path is empty or "/".
const DefaultDocument = "index.html"

// Outcome is the closed set of resolution results. Blacklisted and NotFound
// are distinct here so callers can log the difference, but they must map to
// the same outward response.
type Outcome int

const (
	Found Outcome = iota
	NotFound
	Blacklisted
	Forbidden
	BadRequest
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case NotFound:
		return "not found"
	case Blacklisted:
		return "blacklisted"
	case Forbidden:
		return "forbidden"
	default:
		return "bad request"
	}
}

// Resolution is the result of resolving one request path. Path is set only
// when Outcome is Found and is always an absolute path inside the root.
type Resolution struct {
	Outcome Outcome
	Path    string
}

// Resolver resolves request paths against a fixed root directory. It is
// immutable after construction and safe for concurrent use.
type Resolver struct {
	root       string
	defaultDoc string
	blacklist  map[string]struct{}
}

// New builds a Resolver rooted at dir. The root is canonicalized up front so
// later containment checks compare like with like. blacklist entries are bare
// filenames; entries carrying a path separator are rejected.
func New(dir, defaultDocument string, blacklist []string) (*Resolver, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving root %q: %w", dir, err)
	}
	root, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("canonicalizing root %q: %w", dir, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %q is not a directory", dir)
	}

	if defaultDocument == "" {
		defaultDocument = DefaultDocument
	}

	set := make(map[string]struct{}, len(blacklist))
	for _, name := range blacklist {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if strings.ContainsRune(name, os.PathSeparator) || strings.ContainsRune(name, '/') {
			return nil, fmt.Errorf("blacklist entry %q must be a bare filename", name)
		}
		set[name] = struct{}{}
	}

	return &Resolver{root: root, defaultDoc: defaultDocument, blacklist: set}, nil
}

// Root returns the canonical serving root.
func (r *Resolver) Root() string { return r.root }

// Resolve maps rawPath to a file under the root. It never returns a path
// outside the root: traversal components, rooted overrides, and symlinks that
// lead out are all Forbidden. The ".html" fallback only ever turns a miss
// into a hit and re-applies the blacklist to the rewritten name.
func (r *Resolver) Resolve(rawPath string) Resolution {
	rel, out := r.normalize(rawPath)
	if out != Found {
		return Resolution{Outcome: out}
	}
	if rel == "" || rel == "." {
		rel = r.defaultDoc
	}

	candidate := filepath.Join(r.root, rel)
	if !r.contains(candidate) {
		return Resolution{Outcome: Forbidden}
	}

	if r.blacklisted(filepath.Base(candidate)) {
		return Resolution{Outcome: Blacklisted}
	}
	if res, ok := r.lookup(candidate); ok {
		return res
	}

	// Soft rewrite: "/about" is retried as "/about.html" when the plain
	// candidate misses. Applies only once and never to names already
	// ending in .html.
	if !strings.HasSuffix(candidate, ".html") {
		variant := candidate + ".html"
		if r.blacklisted(filepath.Base(variant)) {
			return Resolution{Outcome: NotFound}
		}
		if res, ok := r.lookup(variant); ok {
			return res
		}
	}

	return Resolution{Outcome: NotFound}
}

// normalize strips the query, percent-decodes, and reduces the request path
// to a relative path under the root. Escape attempts are rejected rather than
// cleaned away.
func (r *Resolver) normalize(rawPath string) (string, Outcome) {
	if i := strings.IndexByte(rawPath, '?'); i >= 0 {
		rawPath = rawPath[:i]
	}

	decoded, err := url.PathUnescape(rawPath)
	if err != nil {
		return "", BadRequest
	}
	for _, c := range decoded {
		if c < 0x20 || c == 0x7f {
			return "", BadRequest
		}
	}

	// Origin-form targets carry exactly one leading slash. Anything still
	// rooted after removing it ("//etc/passwd", an absolute override) is
	// an escape attempt.
	rel := strings.TrimPrefix(decoded, "/")
	if strings.HasPrefix(rel, "/") || filepath.IsAbs(rel) {
		return "", Forbidden
	}

	parts := strings.Split(rel, "/")
	kept := parts[:0]
	for _, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			return "", Forbidden
		}
		kept = append(kept, part)
	}
	return strings.Join(kept, "/"), Found
}

// lookup canonicalizes candidate and reports whether it is a servable file.
// The bool result is false when the caller should keep going (candidate
// missing or not a regular file); a true result carries the final answer,
// including Forbidden for symlinks that point outside the root.
func (r *Resolver) lookup(candidate string) (Resolution, bool) {
	real, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Resolution{}, false
		}
		// Canonicalization failed on an existing entry (dangling or
		// cyclic link, permission wall). Treat as a miss.
		return Resolution{}, false
	}
	if !r.contains(real) {
		return Resolution{Outcome: Forbidden}, true
	}
	info, err := os.Stat(real)
	if err != nil {
		return Resolution{}, false
	}
	if !info.Mode().IsRegular() {
		// Directories are never listed and never served, but the .html
		// fallback may still rescue the request.
		return Resolution{}, false
	}
	return Resolution{Outcome: Found, Path: real}, true
}

func (r *Resolver) contains(p string) bool {
	rel, err := filepath.Rel(r.root, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator)))
}

func (r *Resolver) blacklisted(name string) bool {
	_, ok := r.blacklist[name]
	return ok
}
