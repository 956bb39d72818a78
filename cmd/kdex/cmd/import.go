package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kdex-dev/kdex/internal/config"
)

func newImportCmd() *cobra.Command {
	var merge bool

	cmd := &cobra.Command{
		Use:   "import <path.yaml>",
		Short: "Import a portable config document, adding its repositories and applying its settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), args[0], merge)
		},
	}
	cmd.Flags().BoolVar(&merge, "merge", false, "merge with the existing config instead of replacing it")
	return cmd
}

func runImport(ctx context.Context, inPath string, merge bool) error {
	doc, err := config.LoadPortable(inPath)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var repos []config.PortableRepo
	if merge {
		cfg, repos = config.Merge(cfg, nil, doc)
	} else {
		cfg = config.ImportSettings(doc)
		repos = doc.Repositories
	}

	if err := config.Save(cfg); err != nil {
		return err
	}

	for _, r := range repos {
		target := r.Path
		if r.Type == "remote" {
			target = r.URL
		}
		if err := runAdd(ctx, target, false); err != nil {
			fmt.Printf("skipping %s: %v\n", target, err)
			continue
		}
	}
	fmt.Printf("imported %d repositories from %s\n", len(repos), inPath)
	return nil
}
