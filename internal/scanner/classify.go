// Package scanner implements Filter & Classify (spec.md §4.2): deciding
// whether a discovered path is indexable and assigning it a type tag.
package scanner

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
)

// Type is the content classification assigned to an indexable file.
type Type string

const (
	TypeCode     Type = "code"
	TypeMarkdown Type = "markdown"
	TypeText     Type = "text"
	TypeConfig   Type = "config"
)

// RejectReason explains why a candidate path was not indexed.
type RejectReason string

const (
	RejectNone      RejectReason = ""
	RejectIgnored   RejectReason = "ignored"
	RejectBinaryExt RejectReason = "binary_extension"
	RejectTooLarge  RejectReason = "too_large"
	RejectBinaryNul RejectReason = "binary_nul_byte"
)

// sniffWindow is the number of leading bytes inspected for a NUL byte,
// per spec.md §4.2 item 4.
const sniffWindow = 8192

// languageMap maps file extensions (and a few exact basenames) to a
// language tag. Grounded verbatim on the teacher's scanner lookup table
// (internal/scanner/types.go) — a lookup table has one obviously correct
// shape and does not benefit from rewriting.
var languageMap = map[string]string{
	".go": "go",

	".js": "javascript", ".jsx": "javascript", ".mjs": "javascript",
	".ts": "typescript", ".tsx": "typescript",

	".py": "python", ".pyw": "python", ".pyi": "python",

	".html": "html", ".htm": "html",
	".css": "css", ".scss": "scss", ".sass": "sass", ".less": "less",

	".json": "json", ".yaml": "yaml", ".yml": "yaml", ".toml": "toml",
	".xml": "xml", ".ini": "ini", ".conf": "config", ".properties": "properties",

	".md": "markdown", ".mdx": "markdown", ".markdown": "markdown",
	".rst": "rst", ".txt": "text",

	".sh": "shell", ".bash": "shell", ".zsh": "shell", ".fish": "fish",

	".rb": "ruby", ".rake": "ruby", ".erb": "erb",

	".rs": "rust",

	".java": "java", ".kt": "kotlin", ".kts": "kotlin",

	".c": "c", ".h": "c", ".cpp": "cpp", ".hpp": "cpp", ".cc": "cpp", ".cxx": "cpp",

	".cs": "csharp",

	".swift": "swift",

	".php": "php",

	".scala": "scala",

	".ex": "elixir", ".exs": "elixir", ".erl": "erlang",

	".hs": "haskell",

	".lua": "lua",

	".sql": "sql",

	".vue": "vue", ".svelte": "svelte",
	".graphql": "graphql", ".gql": "graphql",
	".proto": "protobuf",

	"Dockerfile":  "dockerfile",
	"Makefile":    "makefile",
	"makefile":    "makefile",
	"GNUmakefile": "makefile",
}

// contentTypeMap maps a detected language to a content Type.
var contentTypeMap = map[string]Type{
	"go": TypeCode, "javascript": TypeCode, "typescript": TypeCode, "python": TypeCode,
	"ruby": TypeCode, "rust": TypeCode, "java": TypeCode, "kotlin": TypeCode,
	"c": TypeCode, "cpp": TypeCode, "csharp": TypeCode, "swift": TypeCode,
	"php": TypeCode, "scala": TypeCode, "elixir": TypeCode, "erlang": TypeCode,
	"haskell": TypeCode, "lua": TypeCode, "sql": TypeCode, "shell": TypeCode,
	"fish": TypeCode, "erb": TypeCode, "vue": TypeCode, "svelte": TypeCode,
	"graphql": TypeCode, "protobuf": TypeCode, "html": TypeCode, "css": TypeCode,
	"scss": TypeCode, "sass": TypeCode, "less": TypeCode,

	"markdown": TypeMarkdown, "rst": TypeMarkdown,

	"text": TypeText,

	"json": TypeConfig, "yaml": TypeConfig, "toml": TypeConfig, "xml": TypeConfig,
	"ini": TypeConfig, "config": TypeConfig, "properties": TypeConfig,
	"dockerfile": TypeConfig, "makefile": TypeConfig,
}

// binaryExtensions is the known-binary set from spec.md §4.2 item 2:
// images, archives, executables, fonts, media.
var binaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true,
	".ico": true, ".webp": true, ".tiff": true,

	".zip": true, ".tar": true, ".gz": true, ".bz2": true, ".xz": true,
	".7z": true, ".rar": true, ".jar": true, ".war": true,

	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".bin": true,
	".o": true, ".a": true, ".class": true, ".wasm": true,

	".ttf": true, ".otf": true, ".woff": true, ".woff2": true, ".eot": true,

	".mp3": true, ".mp4": true, ".wav": true, ".avi": true, ".mov": true,
	".mkv": true, ".flac": true, ".ogg": true, ".webm": true,

	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".ppt": true, ".pptx": true,

	".db": true, ".sqlite": true, ".sqlite3": true,
}

// DetectLanguage returns the language tag for a relative or absolute path,
// or "" if unrecognized.
func DetectLanguage(path string) string {
	base := filepath.Base(path)
	if lang, ok := languageMap[base]; ok {
		return lang
	}
	ext := filepath.Ext(path)
	if lang, ok := languageMap[ext]; ok {
		return lang
	}
	return ""
}

// DetectType maps a language tag to a content Type, defaulting to TypeText.
func DetectType(language string) Type {
	if t, ok := contentTypeMap[language]; ok {
		return t
	}
	return TypeText
}

// LanguagesForType returns every language tag that maps to the given Type,
// for filtering search results by content-type class (spec.md §6 `search`
// tool contract's `file_type` parameter).
func LanguagesForType(t Type) []string {
	var out []string
	for lang, typ := range contentTypeMap {
		if typ == t {
			out = append(out, lang)
		}
	}
	return out
}

// IsBinaryExtension reports whether the extension of path (compared
// case-insensitively) names a known-binary format per spec.md §4.2 item 2.
func IsBinaryExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return binaryExtensions[ext]
}

// Classify runs the ordered rejection checks of spec.md §4.2 against a
// candidate path and, if it passes, returns its language and Type.
func Classify(absPath string, size int64, maxFileSizeMB int, matcher *IgnoreMatcher) (Type, string, RejectReason) {
	if matcher != nil && matcher.Match(absPath) {
		return "", "", RejectIgnored
	}
	if IsBinaryExtension(absPath) {
		return "", "", RejectBinaryExt
	}
	maxBytes := int64(maxFileSizeMB) * 1024 * 1024
	if size > maxBytes {
		return "", "", RejectTooLarge
	}
	if sniffHasNUL(absPath) {
		return "", "", RejectBinaryNul
	}
	lang := DetectLanguage(absPath)
	return DetectType(lang), lang, RejectNone
}

// sniffHasNUL reports whether the first sniffWindow bytes of the file at
// path contain a NUL byte, per spec.md §4.2 item 4.
func sniffHasNUL(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, sniffWindow)
	n, _ := f.Read(buf)
	return bytes.IndexByte(buf[:n], 0) >= 0
}
