package scanner

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultIgnorePatterns is the built-in ignore set from spec.md §4.2 item 1.
var DefaultIgnorePatterns = []string{
	".git", ".git/**",
	"node_modules", "node_modules/**",
	"target", "target/**",
	".obsidian/workspace*",
}

// IgnoreMatcher tests a path against a set of glob patterns, rooted at a
// fixed repository root. Patterns are matched using doublestar so that
// "**" behaves the way users expect from .gitignore-style globs.
type IgnoreMatcher struct {
	root     string
	patterns []string
}

// NewIgnoreMatcher builds a matcher from the default patterns plus any
// user-supplied globs (spec.md §4.2 item 1, config key ignore_patterns).
func NewIgnoreMatcher(root string, extra []string) *IgnoreMatcher {
	patterns := make([]string, 0, len(DefaultIgnorePatterns)+len(extra))
	patterns = append(patterns, DefaultIgnorePatterns...)
	patterns = append(patterns, extra...)
	return &IgnoreMatcher{root: filepath.Clean(root), patterns: patterns}
}

// Match reports whether absPath (or any of its ancestors under root)
// matches an ignore pattern.
func (m *IgnoreMatcher) Match(absPath string) bool {
	rel, err := filepath.Rel(m.root, absPath)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	for _, pat := range m.patterns {
		pat = filepath.ToSlash(pat)
		if matched, _ := doublestar.Match(pat, rel); matched {
			return true
		}
		// Also match any path-segment prefix, so a bare directory name
		// pattern like ".git" excludes everything beneath it even without
		// an explicit "/**" suffix.
		if segmentPrefixMatch(pat, rel) {
			return true
		}
	}
	return false
}

// segmentPrefixMatch reports whether pattern matches a leading path
// segment of rel (e.g. pattern ".git" matches rel ".git/HEAD").
func segmentPrefixMatch(pattern, rel string) bool {
	segs := strings.Split(rel, "/")
	for i := range segs {
		prefix := strings.Join(segs[:i+1], "/")
		if matched, _ := doublestar.Match(pattern, prefix); matched {
			return true
		}
	}
	return false
}
