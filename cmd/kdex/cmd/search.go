package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kdex-dev/kdex/internal/search"
	"github.com/kdex-dev/kdex/internal/store"
)

func newSearchCmd() *cobra.Command {
	var (
		mode    string
		limit   int
		offset  int
		repo    string
		minSim  float64
		context int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search across every indexed repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), args[0], mode, limit, offset, repo, minSim, context)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "lexical", "lexical, semantic, hybrid, fuzzy, or regex")
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of results")
	cmd.Flags().IntVar(&offset, "offset", 0, "result offset for pagination")
	cmd.Flags().StringVar(&repo, "repo", "", "restrict to repositories whose root path contains this substring")
	cmd.Flags().Float64Var(&minSim, "min-similarity", 0, "fuzzy mode similarity floor (0-1)")
	cmd.Flags().IntVar(&context, "context-lines", 2, "regex mode context lines")
	return cmd
}

func runSearch(ctx context.Context, query, mode string, limit, offset int, repoFilter string, minSim float64, contextLines int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	emb := buildEmbedder(cfg)
	searcher := search.New(st, emb)

	results, err := searcher.Search(ctx, query, search.Options{
		Mode:          search.Mode(mode),
		Filters:       store.Filters{RepoSubstring: repoFilter},
		Limit:         limit,
		Offset:        offset,
		MinSimilarity: minSim,
		ContextLines:  contextLines,
	})
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("no results")
		return nil
	}
	for _, r := range results {
		if r.Line > 0 {
			fmt.Printf("%.4f  %s:%d  %s\n", r.Score, r.RelPath, r.Line, r.Snippet)
		} else {
			fmt.Printf("%.4f  %s  %s\n", r.Score, r.RelPath, r.Snippet)
		}
	}
	return nil
}
