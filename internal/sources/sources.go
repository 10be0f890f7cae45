// Package sources turns command-line document arguments into the ordered
// list of sources handed to the coordinator.
package sources

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/Iron-Ham/tandem/internal/errors"
)

// Normalize returns the canonical form of a source identifier. URIs
// (anything with a "scheme://" prefix) are kept as given; everything else is
// treated as a local path and made absolute.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.NewValidationError("source must not be empty").WithField("source")
	}
	if isURI(raw) {
		return raw, nil
	}
	abs, err := filepath.Abs(raw)
	if err != nil {
		return "", errors.NewValidationError("cannot resolve source path").
			WithField("source").
			WithValue(raw).
			WithCause(err)
	}
	return abs, nil
}

// Resolve normalizes args, drops duplicates while keeping first-seen order,
// and removes every source matching one of the exclude glob patterns.
// A pattern matches against the normalized source or its base name.
func Resolve(args, excludes []string) ([]string, error) {
	matchers := make([]glob.Glob, 0, len(excludes))
	for _, pattern := range excludes {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, errors.NewValidationError("invalid exclude pattern").
				WithField("exclude").
				WithValue(pattern).
				WithCause(err)
		}
		matchers = append(matchers, g)
	}

	seen := make(map[string]bool, len(args))
	result := make([]string, 0, len(args))
	for _, arg := range args {
		src, err := Normalize(arg)
		if err != nil {
			return nil, err
		}
		if seen[src] || excluded(src, matchers) {
			continue
		}
		seen[src] = true
		result = append(result, src)
	}

	if len(result) == 0 {
		return nil, errors.NewValidationError("no sources left to open").WithField("sources")
	}
	return result, nil
}

func excluded(src string, matchers []glob.Glob) bool {
	base := baseName(src)
	for _, g := range matchers {
		if g.Match(src) || g.Match(base) {
			return true
		}
	}
	return false
}

// ShortName derives a short display name from a source: the last path
// segment without its extension, restricted to characters tmux accepts in
// window names.
func ShortName(src string) string {
	name := baseName(src)
	if ext := path.Ext(name); ext != "" && ext != name {
		name = strings.TrimSuffix(name, ext)
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "doc"
	}
	return b.String()
}

func baseName(src string) string {
	if isURI(src) {
		_, rest, _ := strings.Cut(src, "://")
		rest = strings.TrimRight(rest, "/")
		if i := strings.IndexAny(rest, "?#"); i >= 0 {
			rest = rest[:i]
		}
		return path.Base(rest)
	}
	return filepath.Base(src)
}

func isURI(s string) bool {
	scheme, _, ok := strings.Cut(s, "://")
	if !ok || scheme == "" {
		return false
	}
	for i, r := range scheme {
		letter := r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
		if i == 0 && !letter {
			return false
		}
		if !letter && !(r >= '0' && r <= '9') && r != '+' && r != '-' && r != '.' {
			return false
		}
	}
	return true
}
