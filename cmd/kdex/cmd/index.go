package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kdex-dev/kdex/internal/indexer"
)

func newIndexCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "index <path>",
		Short: "Run a full indexing pass over an already-added local repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd.Context(), args[0], force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "reprocess every file, ignoring prior stamps")
	return cmd
}

func runIndex(ctx context.Context, root string, force bool) error {
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

	res, err := ix.Index(ctx, root, indexer.Options{Config: cfg, Force: force})
	if err != nil {
		return err
	}
	printResult(root, res)
	return nil
}
