package git_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	gerrors "github.com/SirVer/giti/internal/errors"
	"github.com/SirVer/giti/internal/git"
	"github.com/SirVer/giti/internal/process"
	"github.com/SirVer/giti/testhelpers"
)

func TestParseNameStatus(t *testing.T) {
	t.Run("parses every record kind", func(t *testing.T) {
		out := "M\x00a.cc\x00A\x00new.rs\x00D\x00gone.h\x00R087\x00old.go\x00moved.go\x00C100\x00src.go\x00copy.go\x00T\x00link\x00"

		files, err := git.ParseNameStatus(out)
		require.NoError(t, err)
		require.Equal(t, []git.ChangedFile{
			{Path: "a.cc", Status: git.StatusModified},
			{Path: "new.rs", Status: git.StatusAdded},
			{Path: "gone.h", Status: git.StatusDeleted},
			{Path: "moved.go", Status: git.StatusRenamed, From: "old.go"},
			{Path: "copy.go", Status: git.StatusAdded},
			{Path: "link", Status: git.StatusModified},
		}, files)
	})

	t.Run("empty output is an empty change set", func(t *testing.T) {
		files, err := git.ParseNameStatus("")
		require.NoError(t, err)
		require.Empty(t, files)
	})

	t.Run("keeps paths with spaces and newlines intact", func(t *testing.T) {
		files, err := git.ParseNameStatus("M\x00dir with space/a\nb.cc\x00")
		require.NoError(t, err)
		require.Len(t, files, 1)
		require.Equal(t, "dir with space/a\nb.cc", files[0].Path)
	})

	t.Run("rejects truncated records", func(t *testing.T) {
		_, err := git.ParseNameStatus("R100\x00only-one\x00")
		require.Error(t, err)

		_, err = git.ParseNameStatus("M\x00")
		require.Error(t, err)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		_, err := git.ParseNameStatus("X\x00a\x00")
		require.Error(t, err)
	})
}

func TestChangedFiles(t *testing.T) {
	ctx := context.Background()

	t.Run("reports staged and unstaged changes against the base", func(t *testing.T) {
		scene := testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
			if err := testhelpers.BasicSceneSetup(s); err != nil {
				return err
			}
			return s.Repo.CommitFiles("add sources", map[string]string{
				"lib/a.cc": "int a;\n",
				"BUILD":    "cc_library()\n",
			})
		})

		// Unstaged edit, staged addition, and a deletion
		require.NoError(t, scene.Repo.WriteFile("README.md", "changed\n"))
		require.NoError(t, scene.Repo.WriteFile("new.rs", "fn main() {}\n"))
		require.NoError(t, scene.Repo.RunGitCommand("add", "new.rs"))
		require.NoError(t, scene.Repo.RunGitCommand("rm", "-q", "BUILD"))

		repo, err := git.Open(scene.Dir, process.NewExecRunner())
		require.NoError(t, err)

		files, err := repo.ChangedFiles(ctx, "origin/master")
		require.NoError(t, err)

		byPath := map[string]git.Status{}
		for _, f := range files {
			byPath[f.Path] = f.Status
		}
		require.Equal(t, map[string]git.Status{
			"README.md": git.StatusModified,
			"lib/a.cc":  git.StatusAdded,
			"new.rs":    git.StatusAdded,
		}, byPath)
	})

	t.Run("no changes yields an empty set", func(t *testing.T) {
		scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)

		repo, err := git.Open(scene.Dir, process.NewExecRunner())
		require.NoError(t, err)

		files, err := repo.ChangedFiles(ctx, "origin/master")
		require.NoError(t, err)
		require.Empty(t, files)
	})

	t.Run("unknown base is a vcs error", func(t *testing.T) {
		scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)

		repo, err := git.Open(scene.Dir, process.NewExecRunner())
		require.NoError(t, err)

		_, err = repo.ChangedFiles(ctx, "origin/does-not-exist")
		require.ErrorIs(t, err, gerrors.ErrVcs)
		require.Contains(t, err.Error(), "origin/does-not-exist")
	})

	t.Run("untracked files are listed separately", func(t *testing.T) {
		scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)
		require.NoError(t, scene.Repo.WriteFile("fresh.go", "package fresh\n"))
		require.NoError(t, scene.Repo.WriteFile(".gitignore", "ignored.go\n"))
		require.NoError(t, scene.Repo.WriteFile("ignored.go", "package ignored\n"))

		repo, err := git.Open(scene.Dir, process.NewExecRunner())
		require.NoError(t, err)

		files, err := repo.ChangedFiles(ctx, "origin/master")
		require.NoError(t, err)
		require.Empty(t, files)

		untracked, err := repo.UntrackedFiles(ctx)
		require.NoError(t, err)
		require.ElementsMatch(t, []git.ChangedFile{
			{Path: ".gitignore", Status: git.StatusAdded},
			{Path: "fresh.go", Status: git.StatusAdded},
		}, untracked)
	})
}

func TestOpen(t *testing.T) {
	t.Run("outside a repository", func(t *testing.T) {
		_, err := git.Open(t.TempDir(), process.NewExecRunner())
		require.ErrorIs(t, err, gerrors.ErrVcs)
	})

	t.Run("from a subdirectory", func(t *testing.T) {
		scene := testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
			return s.Repo.CommitFiles("initial", map[string]string{"sub/dir/x.txt": "x\n"})
		})

		repo, err := git.Open(filepath.Join(scene.Dir, "sub", "dir"), process.NewExecRunner())
		require.NoError(t, err)
		require.Equal(t, scene.Dir, repo.Root())
	})
}

func TestCommitAll(t *testing.T) {
	ctx := context.Background()
	scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)
	require.NoError(t, scene.Repo.WriteFile("README.md", "fixed\n"))

	repo, err := git.Open(scene.Dir, process.NewExecRunner())
	require.NoError(t, err)

	dirty, err := repo.DirtyFiles(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"README.md"}, dirty)

	require.NoError(t, repo.CommitAll(ctx, "Ran git fix."))

	dirty, err = repo.DirtyFiles(ctx)
	require.NoError(t, err)
	require.Empty(t, dirty)

	messages, err := scene.Repo.ListCommitMessages()
	require.NoError(t, err)
	require.Equal(t, "Ran git fix.", messages[0])
}
