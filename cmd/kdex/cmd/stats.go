package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print repository and index summary counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context())
		},
	}
}

func runStats(ctx context.Context) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := st.GetStats(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("repositories: %d\nfiles: %d\nembedding chunks: %d\ntotal bytes: %d\n",
		stats.RepoCount, stats.FileCount, stats.ChunkCount, stats.TotalBytes)

	repos, err := st.ListRepositories(ctx)
	if err != nil {
		return err
	}
	for _, r := range repos {
		fmt.Printf("  %-30s %-8s %6d files  %s\n", r.Name, r.Status, r.FileCount, r.RootPath)
	}
	return nil
}
