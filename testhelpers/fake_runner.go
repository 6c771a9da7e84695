package testhelpers

import (
	"context"
	"fmt"
	"os/exec"
	"sync"

	gerrors "github.com/SirVer/giti/internal/errors"
	"github.com/SirVer/giti/internal/process"
)

// FakeResponse is the canned outcome for a command
type FakeResponse struct {
	ExitCode int
	Stdout   string
	Stderr   string
	// Missing simulates a binary that is not on PATH
	Missing bool
	// Err, when set, is returned as the command's cause
	Err error
}

// FakeRunner is a process.Runner that records invocations and replays canned
// responses instead of spawning processes.
type FakeRunner struct {
	mu    sync.Mutex
	Calls []process.Command

	// Respond picks the response for a command. A nil Respond, or a nil
	// result, means success with no output.
	Respond func(cmd process.Command) *FakeResponse
}

// NewFakeRunner creates a FakeRunner that resolves responses by program name
func NewFakeRunner(byName map[string]*FakeResponse) *FakeRunner {
	return &FakeRunner{
		Respond: func(cmd process.Command) *FakeResponse {
			return byName[cmd.Name]
		},
	}
}

// Run records cmd and returns the canned response
func (f *FakeRunner) Run(ctx context.Context, cmd process.Command) (*process.Result, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, cmd)
	respond := f.Respond
	f.mu.Unlock()

	var resp *FakeResponse
	if respond != nil {
		resp = respond(cmd)
	}
	if resp == nil {
		return &process.Result{}, nil
	}

	res := &process.Result{
		ExitCode: resp.ExitCode,
		Stdout:   resp.Stdout,
		Stderr:   resp.Stderr,
	}

	switch {
	case resp.Missing:
		res.ExitCode = -1
		cause := &exec.Error{Name: cmd.Name, Err: exec.ErrNotFound}
		return res, gerrors.NewCommandError(cmd.Name, cmd.Args, "", "", -1, cause)
	case resp.Err != nil:
		return res, gerrors.NewCommandError(cmd.Name, cmd.Args, res.Stdout, res.Stderr, res.ExitCode, resp.Err)
	case resp.ExitCode != 0:
		cause := fmt.Errorf("exit status %d", resp.ExitCode)
		return res, gerrors.NewCommandError(cmd.Name, cmd.Args, res.Stdout, res.Stderr, res.ExitCode, cause)
	}
	return res, nil
}

// CallsTo returns the recorded invocations of the named program
func (f *FakeRunner) CallsTo(name string) []process.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	var calls []process.Command
	for _, c := range f.Calls {
		if c.Name == name {
			calls = append(calls, c)
		}
	}
	return calls
}
