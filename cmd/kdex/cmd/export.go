package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kdex-dev/kdex/internal/config"
	"github.com/kdex-dev/kdex/internal/store"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <path.yaml>",
		Short: "Export the portable config (settings and remote repository list) as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), args[0])
		},
	}
	return cmd
}

func runExport(ctx context.Context, outPath string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	repos, err := st.ListRepositories(ctx)
	if err != nil {
		return err
	}

	var portableRepos []config.PortableRepo
	for _, r := range repos {
		if r.SourceKind == store.SourceRemote {
			portableRepos = append(portableRepos, config.PortableRepo{
				Type:   "remote",
				URL:    r.OriginURL,
				Branch: r.Branch,
			})
		} else {
			portableRepos = append(portableRepos, config.PortableRepo{
				Type: "local",
				Path: r.RootPath,
			})
		}
	}

	doc := config.Export(cfg, portableRepos)
	if err := doc.SaveTo(outPath); err != nil {
		return err
	}
	fmt.Printf("exported %d repositories to %s\n", len(portableRepos), outPath)
	return nil
}
