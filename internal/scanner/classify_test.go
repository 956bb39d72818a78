package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, "go", DetectLanguage("internal/store/sqlite.go"))
	assert.Equal(t, "markdown", DetectLanguage("notes/todo.md"))
	assert.Equal(t, "dockerfile", DetectLanguage("Dockerfile"))
	assert.Equal(t, "", DetectLanguage("a.unknownext"))
}

func TestDetectType(t *testing.T) {
	assert.Equal(t, TypeCode, DetectType("go"))
	assert.Equal(t, TypeMarkdown, DetectType("markdown"))
	assert.Equal(t, TypeConfig, DetectType("yaml"))
	assert.Equal(t, TypeText, DetectType("nonsense-language"))
}

func TestLanguagesForType(t *testing.T) {
	langs := LanguagesForType(TypeMarkdown)
	assert.ElementsMatch(t, []string{"markdown", "rst"}, langs)

	assert.Empty(t, LanguagesForType(Type("nope")))
}

func TestIsBinaryExtension(t *testing.T) {
	assert.True(t, IsBinaryExtension("photo.PNG"))
	assert.True(t, IsBinaryExtension("archive.tar.gz"))
	assert.False(t, IsBinaryExtension("main.go"))
}

func TestClassifyRejectsIgnored(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("package a"), 0o644))

	matcher := NewIgnoreMatcher(dir, []string{"a.go"})
	typ, lang, reason := Classify(path, 10, 10, matcher)
	assert.Equal(t, RejectIgnored, reason)
	assert.Equal(t, Type(""), typ)
	assert.Equal(t, "", lang)
}

func TestClassifyRejectsBinaryExtension(t *testing.T) {
	typ, _, reason := Classify("/tmp/whatever/logo.png", 10, 10, nil)
	assert.Equal(t, RejectBinaryExt, reason)
	assert.Equal(t, Type(""), typ)
}

func TestClassifyRejectsTooLarge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.go")
	require.NoError(t, os.WriteFile(path, []byte("package a"), 0o644))

	_, _, reason := Classify(path, 11*1024*1024, 10, nil)
	assert.Equal(t, RejectTooLarge, reason)
}

func TestClassifyRejectsNULByte(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weird.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello\x00world"), 0o644))

	info, err := os.Stat(path)
	require.NoError(t, err)

	_, _, reason := Classify(path, info.Size(), 10, nil)
	assert.Equal(t, RejectBinaryNul, reason)
}

func TestClassifyAcceptsPlainGoFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.go")
	content := []byte("package main\n\nfunc main() {}\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	typ, lang, reason := Classify(path, int64(len(content)), 10, nil)
	assert.Equal(t, RejectNone, reason)
	assert.Equal(t, "go", lang)
	assert.Equal(t, TypeCode, typ)
}
