// Package remote implements the Remote Sync component (spec.md §4.9): it
// resolves a remote spec to a local clone path, clones/fetches/checks out
// with go-git, and classifies fetch outcomes (up to date, fast-forwarded,
// diverged).
//
// New component; the teacher has no remote-sync analogue. Grounded on
// ferg-cod3s-conexus's go-git usage (internal/mcp/git_helper.go:
// git.PlainOpen, plumbing, object) extended to the clone/fetch/checkout
// lifecycle, and its github connector's oauth2.StaticTokenSource pattern
// (internal/connectors/github/github.go) for HTTPS token credentials.
package remote

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"golang.org/x/oauth2"

	"github.com/kdex-dev/kdex/internal/kdexerr"
)

// Spec is a resolved remote repository reference.
type Spec struct {
	Owner string
	Repo  string
	URL   string // a full clone URL
}

// ResolveSpec interprets a full URL or an "owner/repo" shorthand (spec.md
// §4.9 "Resolves a remote spec").
func ResolveSpec(raw string) (Spec, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Spec{}, kdexerr.New(kdexerr.PathNotFound, "remote spec must not be empty")
	}

	if strings.Contains(raw, "://") || strings.HasPrefix(raw, "git@") {
		owner, repo, err := ownerRepoFromURL(raw)
		if err != nil {
			return Spec{}, err
		}
		return Spec{Owner: owner, Repo: repo, URL: raw}, nil
	}

	parts := strings.Split(raw, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Spec{}, kdexerr.New(kdexerr.PathNotFound, "remote spec must be a full URL or owner/repo").WithPath(raw)
	}
	owner, repo := parts[0], strings.TrimSuffix(parts[1], ".git")
	return Spec{Owner: owner, Repo: repo, URL: fmt.Sprintf("https://github.com/%s/%s.git", owner, repo)}, nil
}

func ownerRepoFromURL(raw string) (string, string, error) {
	trimmed := strings.TrimSuffix(raw, ".git")
	trimmed = strings.TrimSuffix(trimmed, "/")
	idx := strings.LastIndexAny(trimmed, "/:")
	if idx < 0 || idx == len(trimmed)-1 {
		return "", "", kdexerr.New(kdexerr.PathNotFound, "cannot parse owner/repo from URL").WithPath(raw)
	}
	repo := trimmed[idx+1:]
	rest := trimmed[:idx]
	idx2 := strings.LastIndexAny(rest, "/:")
	owner := rest
	if idx2 >= 0 {
		owner = rest[idx2+1:]
	}
	if owner == "" || repo == "" {
		return "", "", kdexerr.New(kdexerr.PathNotFound, "cannot parse owner/repo from URL").WithPath(raw)
	}
	return owner, repo, nil
}

// ClonePath returns the working-tree path for a resolved Spec under the
// config directory's repos root (spec.md §6 "Remote clone layout").
func ClonePath(reposDir string, s Spec) string {
	return filepath.Join(reposDir, s.Owner, s.Repo)
}

// resolveAuth implements the credential order from spec.md §4.9: SSH agent
// for SSH URLs, then KDEX_GITHUB_TOKEN/GITHUB_TOKEN for HTTPS, then
// anonymous.
func resolveAuth(url string) (transport.AuthMethod, error) {
	if strings.HasPrefix(url, "git@") || strings.HasPrefix(url, "ssh://") {
		auth, err := ssh.NewSSHAgentAuth("git")
		if err != nil {
			return nil, kdexerr.Wrap(kdexerr.AuthRequired, "ssh agent authentication unavailable", err)
		}
		return auth, nil
	}

	token := os.Getenv("KDEX_GITHUB_TOKEN")
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token == "" {
		return nil, nil // anonymous
	}

	// Route the token through an oauth2 TokenSource before handing it to
	// go-git's transport auth, so credential resolution goes through the
	// same oauth2 primitive the rest of the pack uses for GitHub tokens.
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tok, err := src.Token()
	if err != nil {
		return nil, kdexerr.Wrap(kdexerr.AuthRequired, "resolve github token", err)
	}
	return &githttp.BasicAuth{Username: "x-access-token", Password: tok.AccessToken}, nil
}

// CloneResult carries what a successful Add needs to persist into the
// Repository row.
type CloneResult struct {
	ClonePath string
	Branch    string
}

// Clone performs a clone (shallow when requested) of s into reposDir
// (spec.md §4.9 "On add, performs clone").
func Clone(ctx context.Context, reposDir string, s Spec, shallow bool) (*CloneResult, error) {
	auth, err := resolveAuth(s.URL)
	if err != nil {
		return nil, err
	}

	path := ClonePath(reposDir, s)
	opts := &git.CloneOptions{
		URL:          s.URL,
		Auth:         auth,
		SingleBranch: true,
	}
	if shallow {
		opts.Depth = 1
	}

	repo, err := git.PlainCloneContext(ctx, path, false, opts)
	if err != nil {
		return nil, kdexerr.Wrap(kdexerr.CloneFailed, "clone repository", err).WithPath(s.URL)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, kdexerr.Wrap(kdexerr.CloneFailed, "resolve cloned HEAD", err).WithPath(path)
	}
	return &CloneResult{ClonePath: path, Branch: head.Name().Short()}, nil
}

// SyncOutcome classifies the result of a fetch+checkout attempt.
type SyncOutcome int

const (
	SyncUpToDate SyncOutcome = iota
	SyncFastForwarded
)

// Sync fetches origin and fast-forwards the working tree to the
// configured branch (spec.md §4.9 "On sync, performs fetch and
// fast-forward checkout"). A non-fast-forward divergence returns a typed
// FetchDiverged error and performs no index update (spec.md §9).
func Sync(ctx context.Context, clonePath, branch string) (SyncOutcome, error) {
	repo, err := git.PlainOpen(clonePath)
	if err != nil {
		return SyncUpToDate, kdexerr.Wrap(kdexerr.RepoNotFound, "open clone", err).WithPath(clonePath)
	}

	remote, err := repo.Remote("origin")
	if err != nil {
		return SyncUpToDate, kdexerr.Wrap(kdexerr.Internal, "resolve origin remote", err).WithPath(clonePath)
	}
	url := ""
	if urls := remote.Config().URLs; len(urls) > 0 {
		url = urls[0]
	}
	auth, err := resolveAuth(url)
	if err != nil {
		return SyncUpToDate, err
	}

	localRef, err := repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		return SyncUpToDate, kdexerr.Wrap(kdexerr.Internal, "resolve local branch", err).WithPath(branch)
	}
	localCommit, err := repo.CommitObject(localRef.Hash())
	if err != nil {
		return SyncUpToDate, kdexerr.Wrap(kdexerr.Internal, "resolve local commit", err)
	}

	err = repo.FetchContext(ctx, &git.FetchOptions{RemoteName: "origin", Auth: auth})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return SyncUpToDate, kdexerr.Wrap(kdexerr.CloneFailed, "fetch origin", err).WithPath(clonePath)
	}
	if err == git.NoErrAlreadyUpToDate {
		return SyncUpToDate, nil
	}

	remoteRef, err := repo.Reference(plumbing.NewRemoteReferenceName("origin", branch), true)
	if err != nil {
		return SyncUpToDate, kdexerr.Wrap(kdexerr.Internal, "resolve remote branch", err).WithPath(branch)
	}
	if remoteRef.Hash() == localRef.Hash() {
		return SyncUpToDate, nil
	}
	remoteCommit, err := repo.CommitObject(remoteRef.Hash())
	if err != nil {
		return SyncUpToDate, kdexerr.Wrap(kdexerr.Internal, "resolve remote commit", err)
	}

	bases, err := localCommit.MergeBase(remoteCommit)
	if err != nil {
		return SyncUpToDate, kdexerr.Wrap(kdexerr.Internal, "compute merge base", err)
	}
	if len(bases) == 0 || bases[0].Hash != localCommit.Hash {
		return SyncUpToDate, kdexerr.New(kdexerr.FetchDiverged,
			fmt.Sprintf("remote has diverged from %s; run with --force to overwrite or rebase manually", branch)).
			WithPath(clonePath)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return SyncUpToDate, kdexerr.Wrap(kdexerr.Internal, "open worktree", err).WithPath(clonePath)
	}
	if err := wt.Reset(&git.ResetOptions{Commit: remoteRef.Hash(), Mode: git.HardReset}); err != nil {
		return SyncUpToDate, kdexerr.Wrap(kdexerr.Internal, "fast-forward checkout", err).WithPath(clonePath)
	}
	return SyncFastForwarded, nil
}

// Remove unlinks a clone's working directory (spec.md §4.9 "On repository
// removal, the clone directory is unlinked").
func Remove(clonePath string) error {
	if clonePath == "" {
		return nil
	}
	if err := os.RemoveAll(clonePath); err != nil {
		return kdexerr.Wrap(kdexerr.Internal, "remove clone directory", err).WithPath(clonePath)
	}
	return nil
}
