package git

import (
	"context"
	"fmt"
	"os"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	gerrors "github.com/SirVer/giti/internal/errors"
	"github.com/SirVer/giti/internal/process"
)

// Repo is a git working tree on disk
type Repo struct {
	root   string
	repo   *gogit.Repository
	runner process.Runner
}

// Open discovers the repository containing dir. An empty dir means the current
// working directory.
func Open(dir string, runner process.Runner) (*Repo, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = wd
	}

	// Use go-git to find the repository
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, gerrors.NewVcsError("", "not a git repository", err)
	}

	// Get the worktree to find the root
	worktree, err := repo.Worktree()
	if err != nil {
		return nil, gerrors.NewVcsError("", "failed to get worktree", err)
	}

	return &Repo{
		root:   worktree.Filesystem.Root(),
		repo:   repo,
		runner: runner,
	}, nil
}

// Root returns the top-level directory of the working tree
func (r *Repo) Root() string {
	return r.root
}

// ResolveRef returns the commit hash base points to, or a VcsError if it does not exist
func (r *Repo) ResolveRef(ctx context.Context, base string) (string, error) {
	if strings.TrimSpace(base) == "" {
		return "", gerrors.NewVcsError("", "empty base reference", nil)
	}

	hash, err := r.repo.ResolveRevision(plumbing.Revision(base))
	if err == nil {
		return hash.String(), nil
	}

	// go-git only understands a subset of revision syntax (no @{upstream},
	// no :/message), so let git have the final word.
	out, cliErr := r.git(ctx, "rev-parse", "--verify", "--quiet", base+"^{commit}")
	if cliErr != nil {
		return "", gerrors.NewVcsError(base, "base reference does not exist", err)
	}
	return strings.TrimSpace(out), nil
}

// git runs a git subcommand at the repository root and returns stdout.
// Failures are reported as VcsError.
func (r *Repo) git(ctx context.Context, args ...string) (string, error) {
	res, err := r.runner.Run(ctx, process.Command{
		Name: "git",
		Args: args,
		Dir:  r.root,
	})
	if err != nil {
		return "", gerrors.NewVcsError("", "git "+args[0]+" failed", err)
	}
	return res.Stdout, nil
}
