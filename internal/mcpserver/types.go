package mcpserver

// SearchInput defines the input schema for the `search` tool (spec.md §6
// "MCP tool contracts": `search(query, limit?, repo?, file_type?, mode?)`).
type SearchInput struct {
	Query    string `json:"query" jsonschema:"the search query to execute"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 20"`
	Repo     string `json:"repo,omitempty" jsonschema:"restrict to repositories whose root path contains this substring"`
	FileType string `json:"file_type,omitempty" jsonschema:"restrict to a content type class: code, markdown, text, config"`
	Mode     string `json:"mode,omitempty" jsonschema:"search mode: lexical, semantic, hybrid, fuzzy, regex (default lexical)"`
}

// SearchResultEntry is one ranked hit, shaped to spec.md §6's
// `{file, repo, snippet, line?, score}`.
type SearchResultEntry struct {
	File    string  `json:"file"`
	Repo    string  `json:"repo"`
	Snippet string  `json:"snippet"`
	Line    int     `json:"line,omitempty"`
	Score   float64 `json:"score"`
}

// SearchOutput defines the output schema for the `search` tool.
type SearchOutput struct {
	Results   []SearchResultEntry `json:"results"`
	Total     int                 `json:"total"`
	Query     string              `json:"query"`
	Truncated bool                `json:"truncated"`
	Hint      string              `json:"hint,omitempty"`
}

// ListReposInput takes no parameters.
type ListReposInput struct{}

// RepoEntry is one repository summary for the `list_repos` tool.
type RepoEntry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	FileCount   int    `json:"file_count"`
	Status      string `json:"status"`
	LastIndexed string `json:"last_indexed,omitempty"`
}

// ListReposOutput defines the output schema for the `list_repos` tool
// (spec.md §6: `list_repos() -> {repositories:[...], total}`).
type ListReposOutput struct {
	Repositories []RepoEntry `json:"repositories"`
	Total        int         `json:"total"`
}

// GetFileInput defines the input schema for the `get_file` tool (spec.md
// §6: `get_file(path, max_chars?=50000)`).
type GetFileInput struct {
	Path     string `json:"path" jsonschema:"repository-relative file path"`
	MaxChars int    `json:"max_chars,omitempty" jsonschema:"truncate content to this many characters, default 50000"`
}

// GetFileOutput defines the output schema for the `get_file` tool.
type GetFileOutput struct {
	Path      string `json:"path"`
	Type      string `json:"type"`
	Content   string `json:"content"`
	Truncated bool   `json:"truncated"`
}

// GetContextInput defines the input schema for the `get_context` tool
// (spec.md §6: `get_context(path, line, context_lines?=10)`).
type GetContextInput struct {
	Path         string `json:"path" jsonschema:"repository-relative file path"`
	Line         int    `json:"line" jsonschema:"1-indexed line number to center context on"`
	ContextLines int    `json:"context_lines,omitempty" jsonschema:"lines of context on either side, default 10"`
}

// GetContextOutput defines the output schema for the `get_context` tool.
type GetContextOutput struct {
	Path      string   `json:"path"`
	StartLine int      `json:"start_line"`
	EndLine   int      `json:"end_line"`
	Lines     []string `json:"lines"`
}
