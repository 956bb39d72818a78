package store

import "testing"

func TestToFTSQuery(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare word", "authenticate", `"authenticate"`},
		{"quoted phrase passes through", `"exact phrase"`, `"exact phrase"`},
		{"prefix star", "auth*", `"auth"*`},
		{"boolean operators propagate", "foo AND bar OR NOT baz", `"foo" AND "bar" OR NOT "baz"`},
		{"boolean operators are case-insensitive", "cat and dog", `"cat" AND "dog"`},
		{"special characters escaped", `foo:bar^baz`, `"foo:bar^baz"`},
		{"empty query", "", ""},
		{"whitespace only", "   ", ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := toFTSQuery(c.in)
			if got != c.want {
				t.Errorf("toFTSQuery(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}
