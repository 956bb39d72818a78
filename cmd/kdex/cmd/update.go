package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kdex-dev/kdex/internal/config"
	"github.com/kdex-dev/kdex/internal/indexer"
	"github.com/kdex-dev/kdex/internal/remote"
	"github.com/kdex-dev/kdex/internal/store"
)

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update [path|name]",
		Short: "Re-sync (if remote) and incrementally reindex one repository, or every repository if none is named",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd.Context(), args)
		},
	}
}

func runUpdate(ctx context.Context, args []string) error {
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
		targets = []*store.Repository{repo}
	} else {
		repos, err := st.ListRepositories(ctx)
		if err != nil {
			return err
		}
		targets = repos
	}

	for _, repo := range targets {
		if err := updateOne(ctx, ix, cfg, repo); err != nil {
			return err
		}
	}
	return nil
}

// updateOne syncs a remote repository's working tree before reindexing it,
// or reindexes a local repository directly (spec.md §4.9 "Remote Sync
// materializes a working tree, then delegates to Indexer").
func updateOne(ctx context.Context, ix *indexer.Indexer, cfg *config.Config, repo *store.Repository) error {
	root := repo.RootPath
	if repo.SourceKind == store.SourceRemote {
		outcome, err := remote.Sync(ctx, repo.ClonePath, repo.Branch)
		if err != nil {
			return err
		}
		if outcome == remote.SyncUpToDate {
			fmt.Printf("%s: already up to date\n", repo.Name)
			return nil
		}
		root = repo.ClonePath
	}

	res, err := ix.Index(ctx, root, indexer.Options{Config: cfg})
	if err != nil {
		return err
	}
	printResult(repo.Name, res)
	return nil
}
