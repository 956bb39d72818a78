package scanner

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIgnoreMatcherDefaultPatterns(t *testing.T) {
	root := filepath.FromSlash("/repo")
	m := NewIgnoreMatcher(root, nil)

	assert.True(t, m.Match(filepath.Join(root, ".git", "HEAD")))
	assert.True(t, m.Match(filepath.Join(root, "node_modules", "pkg", "index.js")))
	assert.False(t, m.Match(filepath.Join(root, "src", "main.go")))
}

func TestIgnoreMatcherExtraPatterns(t *testing.T) {
	root := filepath.FromSlash("/repo")
	m := NewIgnoreMatcher(root, []string{"*.log", "build/**"})

	assert.True(t, m.Match(filepath.Join(root, "server.log")))
	assert.True(t, m.Match(filepath.Join(root, "build", "out.bin")))
	assert.False(t, m.Match(filepath.Join(root, "README.md")))
}
