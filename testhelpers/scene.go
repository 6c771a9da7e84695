package testhelpers

import (
	"os"
	"testing"
)

// Scene represents a test scene with a temporary directory and Git repository.
type Scene struct {
	Dir  string
	Repo *GitRepo
}

// SceneSetup is a function type for setting up a scene.
type SceneSetup func(*Scene) error

// NewScene creates a new test scene with a temporary directory and Git repository.
// The working directory is switched into the scene and restored on cleanup.
func NewScene(t *testing.T, setup SceneSetup) *Scene {
	t.Helper()

	tmpDir := t.TempDir()

	repo, err := NewGitRepo(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create Git repo: %v", err)
	}

	scene := &Scene{
		Dir:  tmpDir,
		Repo: repo,
	}

	t.Chdir(tmpDir)

	// Isolate tests from the developer's configuration
	t.Setenv("G_CONFIG_HOME", t.TempDir())
	t.Setenv("G_NO_INTERACTIVE", "1")
	t.Setenv("GIT_CONFIG_GLOBAL", os.DevNull)

	if setup != nil {
		if err := setup(scene); err != nil {
			t.Fatalf("Setup failed: %v", err)
		}
	}

	return scene
}

// BasicSceneSetup creates a single commit and points origin/master at it, the
// default base reference.
func BasicSceneSetup(scene *Scene) error {
	if err := scene.Repo.CommitFiles("initial", map[string]string{"README.md": "hello\n"}); err != nil {
		return err
	}
	return scene.Repo.RunGitCommand("update-ref", "refs/remotes/origin/master", "HEAD")
}
