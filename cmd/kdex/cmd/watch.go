package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kdex-dev/kdex/internal/indexer"
	"github.com/kdex-dev/kdex/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [path...]",
		Short: "Watch one or more indexed repositories and reindex incrementally as files change",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), args)
		},
	}
}

func runWatch(ctx context.Context, roots []string) error {
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

	if len(roots) == 0 {
		repos, err := st.ListRepositories(ctx)
		if err != nil {
			return err
		}
		for _, r := range repos {
			roots = append(roots, r.RootPath)
		}
	}
	if len(roots) == 0 {
		fmt.Println("no repositories to watch; run `kdex add` first")
		return nil
	}

	w, err := watcher.New(ix, watcher.Options{
		Config: cfg,
		OnResult: func(root string, res *indexer.Result, err error) {
			if err != nil {
				fmt.Printf("%s: watch reindex failed: %v\n", root, err)
				return
			}
			printResult(root, res)
		},
		OnWarning: func(err error) {
			fmt.Println("warning:", err)
		},
	})
	if err != nil {
		return err
	}

	for _, root := range roots {
		if err := w.AddRoot(root); err != nil {
			return err
		}
		fmt.Printf("watching %s\n", root)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = w.Start(ctx)
	w.Wait()
	return err
}
