package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"slices"
)

// ownedArgs are the first arguments g handles itself. Everything else is git's.
var ownedArgs = []string{
	"fix",
	"--update",
}

// IsPassthrough reports whether args (including the program name) should be
// forwarded to git untouched
func IsPassthrough(args []string) bool {
	if len(args) < 2 {
		return true
	}
	return !slices.Contains(ownedArgs, args[1])
}

// HandlePassthrough checks if the command should be passed through to git
// and executes it if so. Returns git's exit code and true if the command was
// handled (and the program should exit).
func HandlePassthrough(args []string) (int, bool) {
	if !IsPassthrough(args) {
		return 0, false
	}
	return RunGit(args[1:], os.Stdin, os.Stdout, os.Stderr), true
}

// RunGit runs git with args and the given stdio and returns its exit code
func RunGit(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	gitCmd := exec.Command("git", args...)
	gitCmd.Stdin = stdin
	gitCmd.Stdout = stdout
	gitCmd.Stderr = stderr

	// git shares our process group and handles interrupts itself; we only
	// wait for it to exit and report its status
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt)
	defer signal.Stop(signals)

	err := gitCmd.Run()
	if err == nil {
		return ExitSuccess
	}

	var exitError *exec.ExitError
	if errors.As(err, &exitError) {
		if code := exitError.ExitCode(); code >= 0 {
			return code
		}
	}
	fmt.Fprintf(stderr, "g: running git: %v\n", err)
	return ExitFailure
}
