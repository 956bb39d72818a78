package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kdex-dev/kdex/internal/mcpserver"
	"github.com/kdex-dev/kdex/internal/search"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over stdio for AI coding assistants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
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

	srv := mcpserver.New(searcher, st, slog.Default())
	return srv.Serve(ctx)
}
