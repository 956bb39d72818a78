package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kdex-dev/kdex/internal/config"
	"github.com/kdex-dev/kdex/internal/indexer"
	"github.com/kdex-dev/kdex/internal/remote"
	"github.com/kdex-dev/kdex/internal/store"
)

func newAddCmd() *cobra.Command {
	var shallow bool

	cmd := &cobra.Command{
		Use:   "add <path|owner/repo|url>",
		Short: "Add and index a local directory or remote repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd.Context(), args[0], shallow)
		},
	}
	cmd.Flags().BoolVar(&shallow, "shallow", false, "shallow-clone a remote repository")
	return cmd
}

func runAdd(ctx context.Context, target string, shallow bool) error {
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

	if info, statErr := os.Stat(target); statErr == nil && info.IsDir() {
		res, err := ix.Index(ctx, target, indexer.Options{Config: cfg})
		if err != nil {
			return err
		}
		printResult(target, res)
		return nil
	}

	spec, err := remote.ResolveSpec(target)
	if err != nil {
		return err
	}
	reposDir, err := config.ReposDir()
	if err != nil {
		return err
	}
	cloneRes, err := remote.Clone(ctx, reposDir, spec, shallow)
	if err != nil {
		return err
	}

	res, err := ix.Index(ctx, cloneRes.ClonePath, indexer.Options{Config: cfg})
	if err != nil {
		return err
	}

	repo := &store.Repository{
		RootPath:   cloneRes.ClonePath,
		Name:       spec.Owner + "/" + spec.Repo,
		SourceKind: store.SourceRemote,
		OriginURL:  spec.URL,
		Branch:     cloneRes.Branch,
		Shallow:    shallow,
		ClonePath:  cloneRes.ClonePath,
	}
	if _, err := st.UpsertRepository(ctx, repo); err != nil {
		return err
	}

	printResult(cloneRes.ClonePath, res)
	return nil
}

func printResult(root string, res *indexer.Result) {
	fmt.Printf("indexed %s: %d files (%d new, %d changed, %d unchanged, %d deleted, %d skipped)\n",
		root, res.FileCount, res.New, res.Changed, res.Unchanged, res.Deleted, res.Skipped)
}
