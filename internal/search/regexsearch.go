package search

import (
	"context"
	"regexp"
	"regexp/syntax"
	"strings"

	"github.com/kdex-dev/kdex/internal/kdexerr"
)

// maxRegexProgramSize bounds the compiled regexp program instruction
// count, rejecting patterns whose backtracking/NFA blowup could stall a
// full-corpus scan (spec.md §4.7 "compile ... under a size/complexity
// cap", §8 "A regex whose compiled size exceeds the cap returns
// RegexTooLarge").
const maxRegexProgramSize = 10_000

// defaultContextLines is how many lines of surrounding context a regex
// match carries when the caller doesn't ask for a specific amount.
const defaultContextLines = 2

func compileGuarded(pattern string) (*regexp.Regexp, error) {
	parsed, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return nil, kdexerr.Wrap(kdexerr.Internal, "invalid regex pattern", err).WithPath(pattern)
	}
	prog, err := syntax.Compile(parsed)
	if err != nil {
		return nil, kdexerr.Wrap(kdexerr.Internal, "invalid regex pattern", err).WithPath(pattern)
	}
	if len(prog.Inst) > maxRegexProgramSize {
		return nil, kdexerr.New(kdexerr.RegexTooLarge, "compiled regex exceeds the complexity cap").
			WithSuggestion("simplify the pattern or narrow it with filters")
	}
	return regexp.Compile(pattern)
}

func (s *Searcher) regex(ctx context.Context, pattern string, opts Options) ([]Result, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, kdexerr.New(kdexerr.EmptyQuery, "regex search requires a non-empty pattern")
	}
	re, err := compileGuarded(pattern)
	if err != nil {
		return nil, err
	}

	rows, err := s.store.AllContents(ctx, opts.Filters)
	if err != nil {
		return nil, kdexerr.Wrap(kdexerr.Internal, "regex search", err)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	contextLines := opts.ContextLines
	if contextLines <= 0 {
		contextLines = defaultContextLines
	}

	var results []Result
	for _, row := range rows {
		select {
		case <-ctx.Done():
			return nil, kdexerr.New(kdexerr.Cancelled, "regex search cancelled")
		default:
		}

		loc := re.FindStringIndex(row.Text)
		if loc == nil {
			continue
		}
		lines := strings.Split(row.Text, "\n")
		matchLine := lineOf(lines, loc[0])

		start := matchLine - contextLines
		if start < 0 {
			start = 0
		}
		end := matchLine + contextLines + 1
		if end > len(lines) {
			end = len(lines)
		}

		results = append(results, Result{
			FileID:   row.FileID,
			RepoID:   row.RepoID,
			RelPath:  row.RelPath,
			Language: row.Language,
			Snippet:  strings.Join(lines[start:end], "\n"),
			Line:     matchLine + 1,
			Score:    1,
		})
		if len(results) >= limit+offset {
			break
		}
	}

	if offset >= len(results) {
		return []Result{}, nil
	}
	results = results[offset:]
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// lineOf returns the 0-indexed line number containing byte offset off,
// given text already split on "\n".
func lineOf(lines []string, off int) int {
	pos := 0
	for i, ln := range lines {
		next := pos + len(ln) + 1
		if off < next {
			return i
		}
		pos = next
	}
	return len(lines) - 1
}
