package store

import "strings"

// toFTSQuery translates a user-facing query string into an FTS5 MATCH
// expression (spec.md §4.1 "query text is translated to an FTS5 MATCH
// expression"): quoted phrases pass through verbatim, bare words become
// required terms, a trailing `*` marks a prefix predicate, AND/OR/NOT are
// propagated as FTS5 boolean operators, and any other FTS5 special
// character is escaped by quoting the token.
func toFTSQuery(q string) string {
	tokens := tokenizeQuery(q)
	if len(tokens) == 0 {
		return ""
	}

	var b strings.Builder
	for i, t := range tokens {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(t)
	}
	return b.String()
}

var booleanOps = map[string]bool{"AND": true, "OR": true, "NOT": true}

func tokenizeQuery(q string) []string {
	var out []string
	runes := []rune(q)
	n := len(runes)
	for i := 0; i < n; {
		switch {
		case runes[i] == ' ' || runes[i] == '\t' || runes[i] == '\n':
			i++
		case runes[i] == '"':
			j := i + 1
			for j < n && runes[j] != '"' {
				j++
			}
			if j < n {
				out = append(out, string(runes[i:j+1]))
				i = j + 1
			} else {
				// Unterminated quote: treat the rest as a literal phrase.
				out = append(out, quoteFTSTerm(string(runes[i+1:])))
				i = n
			}
		default:
			j := i
			for j < n && runes[j] != ' ' && runes[j] != '\t' && runes[j] != '\n' {
				j++
			}
			word := string(runes[i:j])
			i = j

			upper := strings.ToUpper(word)
			switch {
			case booleanOps[upper]:
				out = append(out, upper)
			case strings.HasSuffix(word, "*") && len(word) > 1:
				out = append(out, quoteFTSTerm(word[:len(word)-1])+"*")
			default:
				out = append(out, quoteFTSTerm(word))
			}
		}
	}
	return out
}

// quoteFTSTerm wraps a bare term in double quotes and escapes embedded
// quotes, so FTS5 special characters (-, ^, :, (, ), etc.) inside the
// term never reach the query parser as operators.
func quoteFTSTerm(term string) string {
	if term == "" {
		return term
	}
	escaped := strings.ReplaceAll(term, `"`, `""`)
	return `"` + escaped + `"`
}
