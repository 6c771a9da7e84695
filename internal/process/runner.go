// Package process runs external programs and captures their results.
package process

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"time"

	gerrors "github.com/SirVer/giti/internal/errors"
)

// DefaultCommandTimeout is the default timeout for commands whose context has no deadline
const DefaultCommandTimeout = 5 * time.Minute

// Command describes one invocation of an external program
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  []string
}

// Result holds the captured outcome of a finished command
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner executes commands. It is the seam tests replace to avoid spawning processes.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// ExecRunner implements Runner with os/exec
type ExecRunner struct {
	Timeout time.Duration
}

// NewExecRunner creates a new ExecRunner with the default timeout
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Timeout: DefaultCommandTimeout}
}

// Run executes cmd and waits for it to finish. A non-zero exit, a launch
// failure or a timeout returns a *errors.CommandError together with whatever
// was captured.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	// If no timeout/deadline is set in the context, add the default one
	if _, ok := ctx.Deadline(); !ok && r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	if cmd.Dir != "" {
		c.Dir = cmd.Dir
	}
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	res := &Result{
		ExitCode: exitCode(c, err),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			err = ctx.Err()
		}
		return res, gerrors.NewCommandError(cmd.Name, cmd.Args, res.Stdout, res.Stderr, res.ExitCode, err)
	}
	return res, nil
}

func exitCode(c *exec.Cmd, err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	if err != nil || c.ProcessState == nil {
		return -1
	}
	return c.ProcessState.ExitCode()
}

// IsNotFound reports whether err means the program could not be found
func IsNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist)
}

// IsTimeout reports whether err means the command ran past its deadline
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
