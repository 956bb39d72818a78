// Package cmd provides the CLI commands for kdex. Per spec.md §1 these are
// thin dispatchers onto the core packages: no TUI, no progress bars, no
// shell completion beyond what cobra generates for free — plain-text
// output only, grounded on the teacher's cmd/amanmcp/cmd layout trimmed to
// the operations spec.md actually names.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kdex-dev/kdex/internal/config"
	"github.com/kdex-dev/kdex/internal/embedder"
	"github.com/kdex-dev/kdex/internal/kdexerr"
	"github.com/kdex-dev/kdex/internal/logging"
	"github.com/kdex-dev/kdex/internal/store"
	"github.com/kdex-dev/kdex/pkg/version"
)

var (
	debugMode  bool
	logCleanup func()
)

// NewRootCmd creates the root command for the kdex CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "kdex",
		Short:   "A local-first multi-repository knowledge indexer",
		Version: version.Version,
		Long: `kdex indexes local and remote repositories - code and markdown alike -
into a single hybrid lexical/semantic search index.

Add a repository, index it, and search across all of them from the
command line or via an MCP server for AI coding assistants.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("kdex version {{.Version}}\n")
	root.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging to stderr")
	root.PersistentPreRunE = setupLogging
	root.PersistentPostRunE = func(*cobra.Command, []string) error {
		if logCleanup != nil {
			logCleanup()
		}
		return nil
	}

	root.AddCommand(
		newAddCmd(),
		newRemoveCmd(),
		newIndexCmd(),
		newUpdateCmd(),
		newSearchCmd(),
		newWatchCmd(),
		newSyncCmd(),
		newExportCmd(),
		newImportCmd(),
		newServeCmd(),
		newStatsCmd(),
	)
	return root
}

// Execute runs the root command and returns the process exit code: 0 on
// success, otherwise kdexerr.ExitCode(err), which is 2 for the error kinds
// it classes as usage errors and 1 for the rest. Cobra's own argument and
// flag errors carry no kdexerr kind and exit with 1.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Println("error:", err)
		return kdexerr.ExitCode(err)
	}
	return 0
}

// setupLogging runs as the root command's PersistentPreRunE, after cobra
// has parsed --debug, so the flag actually takes effect (it is read too
// early if resolved before Execute parses args).
func setupLogging(*cobra.Command, []string) error {
	logOpts := logging.DefaultOptions()
	if debugMode {
		logOpts.Level = "debug"
		logOpts.WriteToStderr = true
	}
	logger, cleanup, err := logging.Setup(logOpts)
	if err != nil {
		return nil
	}
	logCleanup = cleanup
	slog.SetDefault(logger)
	return nil
}

// openStore opens the shared index store at the configured path.
func openStore() (*store.Store, error) {
	path, err := config.StorePath()
	if err != nil {
		return nil, err
	}
	return store.Open(path)
}

// buildEmbedder returns a shared Embedder when semantic search is enabled
// in cfg, or nil otherwise (spec.md §4.5: the embedder is a process-wide
// singleton, activated lazily on first use).
func buildEmbedder(cfg *config.Config) *embedder.Embedder {
	if !cfg.EnableSemanticSearch {
		return nil
	}
	return embedder.Shared(cfg.EmbeddingModel)
}

// loadConfig loads the persisted config, falling back to defaults.
func loadConfig() (*config.Config, error) {
	return config.Load()
}
