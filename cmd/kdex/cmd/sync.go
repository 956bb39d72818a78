package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kdex-dev/kdex/internal/indexer"
	"github.com/kdex-dev/kdex/internal/store"
)

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync [name]",
		Short: "Fetch and fast-forward every remote repository, then reindex what changed",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), args)
		},
	}
}

// runSync is update's remote-only slice: spec.md §4.9 describes sync as
// fetch+fast-forward+incremental-reindex, which is exactly what updateOne
// already does for a SourceRemote repository.
func runSync(ctx context.Context, args []string) error {
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
	ix := indexer.New(st, emb)

	var targets []*store.Repository
	if len(args) == 1 {
		repo, err := findRepo(ctx, st, args[0])
		if err != nil {
			return err
		}
		if repo.SourceKind != store.SourceRemote {
			return nil
		}
		targets = []*store.Repository{repo}
	} else {
		repos, err := st.ListRepositories(ctx)
		if err != nil {
			return err
		}
		for _, r := range repos {
			if r.SourceKind == store.SourceRemote {
				targets = append(targets, r)
			}
		}
	}

	for _, repo := range targets {
		if err := updateOne(ctx, ix, cfg, repo); err != nil {
			return err
		}
	}
	return nil
}
