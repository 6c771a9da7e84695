package runtime

import (
	"context"
	"io"
	"os"

	"github.com/SirVer/giti/internal/config"
	"github.com/SirVer/giti/internal/git"
	"github.com/SirVer/giti/internal/process"
	"github.com/SirVer/giti/internal/tui"
)

// Context provides access to configuration and output for commands
type Context struct {
	context.Context
	Config *config.Config
	Splog  *tui.Splog
	Runner process.Runner
}

// NewContext creates a context from already constructed parts
func NewContext(ctx context.Context, cfg *config.Config, splog *tui.Splog, runner process.Runner) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Context{
		Context: ctx,
		Config:  cfg,
		Splog:   splog,
		Runner:  runner,
	}
}

// GetContext loads the user configuration and builds a context writing its
// output to out. The caller must Close it.
func GetContext(ctx context.Context, out io.Writer) (*Context, error) {
	cfg, err := config.LoadDefault()
	if err != nil {
		return nil, err
	}

	if out == nil {
		out = os.Stdout
	}
	splog, err := tui.NewSplogWithConfig(out, cfg.LogFilePath())
	if err != nil {
		return nil, err
	}

	return NewContext(ctx, cfg, splog, process.NewExecRunner()), nil
}

// OpenRepo opens the repository containing the working directory
func (c *Context) OpenRepo() (*git.Repo, error) {
	return git.Open("", c.Runner)
}

// Close flushes the log file, if any
func (c *Context) Close() error {
	if c.Splog == nil {
		return nil
	}
	return c.Splog.Close()
}
