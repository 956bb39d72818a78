// Package mcpserver exposes kdex's search index over the Model Context
// Protocol (spec.md §6 "MCP tool contracts"): four tools — search,
// list_repos, get_file, get_context — bridging an AI client to the
// Searcher and Store.
//
// New component; the teacher has no MCP analogue in-tree for a pure
// search engine, but its internal/mcp/server.go and tools.go establish
// the shape followed here: a Server wrapping *mcp.Server, one handler per
// tool registered via mcp.AddTool with typed input/output schemas, and a
// MapError step translating the domain's tagged errors into MCP error
// codes.
package mcpserver

import (
	"context"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kdex-dev/kdex/internal/kdexerr"
	"github.com/kdex-dev/kdex/internal/scanner"
	"github.com/kdex-dev/kdex/internal/search"
	"github.com/kdex-dev/kdex/internal/store"
	"github.com/kdex-dev/kdex/pkg/version"
)

const (
	defaultSearchLimit  = 20
	defaultMaxChars     = 50000
	defaultContextLines = 10
)

// Server is the MCP server bridging AI clients to the search index.
type Server struct {
	mcp      *mcp.Server
	searcher *search.Searcher
	store    *store.Store
	logger   *slog.Logger
}

// New builds a Server over the given Searcher and Store and registers its
// tools.
func New(searcher *search.Searcher, st *store.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{searcher: searcher, store: st, logger: logger}

	s.mcp = mcp.NewServer(&mcp.Implementation{
		Name:    "kdex",
		Version: version.Version,
	}, nil)

	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search",
		Description: "Search the local multi-repository index using lexical, semantic, hybrid, fuzzy, or regex matching. Returns ranked file snippets with scores.",
	}, s.handleSearch)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_repos",
		Description: "List every repository currently tracked by the index, with file counts and indexing status.",
	}, s.handleListRepos)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_file",
		Description: "Fetch the full (optionally truncated) text of an indexed file by repository-relative path.",
	}, s.handleGetFile)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_context",
		Description: "Fetch a window of lines around a given line number in an indexed file, for showing a match in context.",
	}, s.handleGetContext)

	s.logger.Debug("mcp tools registered", slog.Int("count", 4))
}

// handleSearch implements the `search` tool contract (spec.md §6).
func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, in SearchInput) (
	*mcp.CallToolResult, SearchOutput, error,
) {
	if strings.TrimSpace(in.Query) == "" {
		return nil, SearchOutput{}, NewInvalidParamsError("query is required and must be non-empty")
	}

	opts := search.Options{
		Mode:  search.Mode(in.Mode),
		Limit: defaultSearchLimit,
		Filters: store.Filters{
			RepoSubstring: in.Repo,
			TypeClass:     in.FileType,
		},
	}
	if in.Limit > 0 {
		opts.Limit = in.Limit
	}

	results, err := s.searcher.Search(ctx, in.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, MapError(err)
	}

	out := SearchOutput{
		Results: make([]SearchResultEntry, 0, len(results)),
		Total:   len(results),
		Query:   in.Query,
	}
	if len(results) == opts.Limit {
		out.Truncated = true
		out.Hint = "results truncated at limit; narrow the query or raise limit for more"
	}
	for _, r := range results {
		repoName, err := s.repoName(ctx, r.RepoID)
		if err != nil {
			repoName = ""
		}
		out.Results = append(out.Results, SearchResultEntry{
			File:    r.RelPath,
			Repo:    repoName,
			Snippet: r.Snippet,
			Line:    r.Line,
			Score:   r.Score,
		})
	}
	return nil, out, nil
}

// handleListRepos implements the `list_repos` tool contract.
func (s *Server) handleListRepos(ctx context.Context, _ *mcp.CallToolRequest, _ ListReposInput) (
	*mcp.CallToolResult, ListReposOutput, error,
) {
	repos, err := s.store.ListRepositories(ctx)
	if err != nil {
		return nil, ListReposOutput{}, MapError(err)
	}

	out := ListReposOutput{Repositories: make([]RepoEntry, 0, len(repos)), Total: len(repos)}
	for _, r := range repos {
		entry := RepoEntry{
			Name:      r.Name,
			Path:      r.RootPath,
			FileCount: r.FileCount,
			Status:    string(r.Status),
		}
		if r.LastIndexedAt != nil {
			entry.LastIndexed = r.LastIndexedAt.Format("2006-01-02T15:04:05Z07:00")
		}
		out.Repositories = append(out.Repositories, entry)
	}
	return nil, out, nil
}

// handleGetFile implements the `get_file` tool contract.
func (s *Server) handleGetFile(ctx context.Context, _ *mcp.CallToolRequest, in GetFileInput) (
	*mcp.CallToolResult, GetFileOutput, error,
) {
	if strings.TrimSpace(in.Path) == "" {
		return nil, GetFileOutput{}, NewInvalidParamsError("path is required")
	}
	maxChars := in.MaxChars
	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}

	row, err := s.store.GetContentByPath(ctx, in.Path)
	if err != nil {
		return nil, GetFileOutput{}, MapError(err)
	}

	content := row.Text
	truncated := false
	if runes := []rune(content); len(runes) > maxChars {
		content = string(runes[:maxChars])
		truncated = true
	}

	return nil, GetFileOutput{
		Path:      row.RelPath,
		Type:      string(scanner.DetectType(row.Language)),
		Content:   content,
		Truncated: truncated,
	}, nil
}

// handleGetContext implements the `get_context` tool contract.
func (s *Server) handleGetContext(ctx context.Context, _ *mcp.CallToolRequest, in GetContextInput) (
	*mcp.CallToolResult, GetContextOutput, error,
) {
	if strings.TrimSpace(in.Path) == "" {
		return nil, GetContextOutput{}, NewInvalidParamsError("path is required")
	}
	if in.Line <= 0 {
		return nil, GetContextOutput{}, NewInvalidParamsError("line must be a positive 1-indexed line number")
	}
	contextLines := in.ContextLines
	if contextLines <= 0 {
		contextLines = defaultContextLines
	}

	row, err := s.store.GetContentByPath(ctx, in.Path)
	if err != nil {
		return nil, GetContextOutput{}, MapError(err)
	}

	lines := strings.Split(row.Text, "\n")
	start := in.Line - contextLines
	if start < 1 {
		start = 1
	}
	end := in.Line + contextLines
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return nil, GetContextOutput{}, kdexerr.New(kdexerr.PathNotFound, "line out of range for file").
			WithPath(in.Path)
	}

	return nil, GetContextOutput{
		Path:      row.RelPath,
		StartLine: start,
		EndLine:   end,
		Lines:     lines[start-1 : end],
	}, nil
}

// repoName resolves a repo id to its display name for search result
// annotation, defaulting to an empty string when the lookup fails (a
// deleted repository racing a concurrent search, for instance).
func (s *Server) repoName(ctx context.Context, repoID int64) (string, error) {
	r, err := s.store.GetRepositoryByID(ctx, repoID)
	if err != nil {
		return "", err
	}
	return r.Name, nil
}

// Serve runs the MCP server over stdio until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting MCP server", slog.String("transport", "stdio"))
	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && err != context.Canceled {
		s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("MCP server stopped gracefully")
	return nil
}
