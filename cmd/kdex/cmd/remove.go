package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kdex-dev/kdex/internal/kdexerr"
	"github.com/kdex-dev/kdex/internal/remote"
	"github.com/kdex-dev/kdex/internal/store"
)

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <path|name>",
		Short: "Stop tracking a repository and drop its indexed data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd.Context(), args[0])
		},
	}
}

func runRemove(ctx context.Context, target string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	repo, err := findRepo(ctx, st, target)
	if err != nil {
		return err
	}

	if repo.SourceKind == store.SourceRemote && repo.ClonePath != "" {
		if err := remote.Remove(repo.ClonePath); err != nil {
			return err
		}
	}
	if err := st.RemoveRepository(ctx, repo.ID); err != nil {
		return err
	}

	fmt.Printf("removed %s\n", repo.Name)
	return nil
}

// findRepo resolves target against a root path first, falling back to a
// name match across every tracked repository.
func findRepo(ctx context.Context, st *store.Store, target string) (*store.Repository, error) {
	if repo, err := st.GetRepository(ctx, target); err == nil {
		return repo, nil
	}

	repos, err := st.ListRepositories(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range repos {
		if r.Name == target {
			return r, nil
		}
	}
	return nil, kdexerr.New(kdexerr.RepoNotFound, "no repository matches "+target).
		WithSuggestion("run `kdex stats` or check the path passed to `kdex add`")
}
