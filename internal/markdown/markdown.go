// Package markdown implements the Markdown Analyzer (spec.md §4.4):
// frontmatter, headings, wiki-links, and optional syntax stripping.
package markdown

import (
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Heading is one ATX heading, in document order.
type Heading struct {
	Depth int // 1..6
	Text  string
}

// CodeBlock is one fenced code block.
type CodeBlock struct {
	Language string
	Content  string
}

// Analysis is everything the analyzer extracts from one markdown file.
type Analysis struct {
	Title     string
	Tags      []string
	Headings  []Heading
	WikiLinks []string // normalized (lowercased) target stems
	Body      string   // content after the frontmatter block, unmodified
	Stripped  string   // Body with markdown syntax removed, if requested
	Blocks    []CodeBlock
}

var (
	headingRE  = regexp.MustCompile(`(?m)^(#{1,6})\s+(.*)$`)
	wikiLinkRE = regexp.MustCompile(`\[\[([^\]|]+)(?:\|[^\]]*)?\]\]`)
	fenceRE    = regexp.MustCompile("(?ms)^```([a-zA-Z0-9_+-]*)\\n(.*?)\\n```\\s*$")
	emphasisRE = regexp.MustCompile(`\*\*\*([^*_]+)\*\*\*|\*\*([^*_]+)\*\*|\*([^*_]+)\*|___([^*_]+)___|__([^*_]+)__|_([^*_]+)_`)
	linkRE     = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	quoteRE    = regexp.MustCompile(`(?m)^>\s?`)
)

type frontmatter struct {
	Title string   `yaml:"title"`
	Tags  []string `yaml:"tags"`
}

// Analyze parses normalized markdown text. stripSyntax and indexCodeBlocks
// mirror the strip_markdown_syntax and index_code_blocks config keys
// (spec.md §6).
func Analyze(text string, stripSyntax, indexCodeBlocks bool) *Analysis {
	a := &Analysis{}

	body := text
	if fm, rest, ok := splitFrontmatter(text); ok {
		var parsed frontmatter
		if err := yaml.Unmarshal([]byte(fm), &parsed); err == nil {
			a.Title = parsed.Title
			a.Tags = parsed.Tags
		}
		body = rest
	}
	a.Body = body

	for _, m := range headingRE.FindAllStringSubmatch(body, -1) {
		a.Headings = append(a.Headings, Heading{Depth: len(m[1]), Text: strings.TrimSpace(m[2])})
	}

	seen := make(map[string]bool)
	for _, m := range wikiLinkRE.FindAllStringSubmatch(body, -1) {
		stem := strings.ToLower(strings.TrimSpace(m[1]))
		if stem == "" || seen[stem] {
			continue
		}
		seen[stem] = true
		a.WikiLinks = append(a.WikiLinks, stem)
	}

	if indexCodeBlocks {
		for _, m := range fenceRE.FindAllStringSubmatch(body, -1) {
			a.Blocks = append(a.Blocks, CodeBlock{Language: m[1], Content: m[2]})
		}
	}

	if stripSyntax {
		a.Stripped = strip(body)
	}

	return a
}

// splitFrontmatter extracts a leading "---\n...\n---" YAML block, if the
// text begins with one (spec.md §4.4).
func splitFrontmatter(text string) (frontmatter string, rest string, ok bool) {
	if !strings.HasPrefix(text, "---\n") && text != "---" {
		return "", text, false
	}
	lines := strings.SplitAfter(text, "\n")
	if len(lines) == 0 || strings.TrimRight(lines[0], "\n") != "---" {
		return "", text, false
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], "\n") == "---" {
			fm := strings.Join(lines[1:i], "")
			rest := strings.Join(lines[i+1:], "")
			return fm, rest, true
		}
	}
	return "", text, false
}

// strip removes emphasis markers, heading markers, link syntax, and
// blockquote markers while preserving fenced code block interiors
// (spec.md §4.4). Code fences are protected by extracting them first and
// restoring them unmodified afterward.
func strip(body string) string {
	type placeholder struct {
		key, block string
	}
	var saved []placeholder
	protected := fenceRE.ReplaceAllStringFunc(body, func(block string) string {
		key := "\x00CODEBLOCK" + strconv.Itoa(len(saved)) + "\x00"
		saved = append(saved, placeholder{key: key, block: block})
		return key
	})

	protected = headingRE.ReplaceAllString(protected, "$2")
	protected = linkRE.ReplaceAllString(protected, "$1")
	protected = emphasisRE.ReplaceAllString(protected, "${1}${2}${3}${4}${5}${6}")
	protected = quoteRE.ReplaceAllString(protected, "")

	for _, p := range saved {
		protected = strings.Replace(protected, p.key, p.block, 1)
	}
	return protected
}
