package fix

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	gerrors "github.com/SirVer/giti/internal/errors"
	"github.com/SirVer/giti/internal/git"
	"github.com/SirVer/giti/internal/process"
)

// DefaultTimeout bounds a single formatter invocation
const DefaultTimeout = 2 * time.Minute

// Logger receives progress messages from the dispatcher
type Logger interface {
	Debug(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}

// Dispatcher runs the matching formatter for every file of a change set
type Dispatcher struct {
	runner  process.Runner
	root    string
	rules   []Rule
	timeout time.Duration
	log     Logger
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithRules replaces the rule table
func WithRules(rules []Rule) Option {
	return func(d *Dispatcher) {
		d.rules = rules
	}
}

// WithTimeout sets the per-invocation timeout. Zero disables it.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		d.timeout = timeout
	}
}

// WithLogger sets the logger for per-invocation debug output
func WithLogger(log Logger) Option {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}

// NewDispatcher creates a dispatcher that runs formatters in root
func NewDispatcher(runner process.Runner, root string, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		runner:  runner,
		root:    root,
		rules:   DefaultRules,
		timeout: DefaultTimeout,
		log:     nopLogger{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch formats files and returns one Result per file, in input order.
// A failing file never stops the remaining files from being processed.
func (d *Dispatcher) Dispatch(ctx context.Context, files []git.ChangedFile) *Report {
	results := make([]Result, len(files))

	// File indices per rule, in input order
	groups := make(map[int][]int)
	var order []int
	for i, f := range files {
		results[i].File = f
		if f.Status == git.StatusDeleted {
			results[i].Outcome = Skipped
			results[i].Reason = ReasonDeleted
			continue
		}
		idx := Lookup(d.rules, f.Path)
		if idx < 0 {
			results[i].Outcome = Skipped
			results[i].Reason = ReasonNoFormatter
			continue
		}
		results[i].Formatter = d.rules[idx].displayName()
		if _, ok := groups[idx]; !ok {
			order = append(order, idx)
		}
		groups[idx] = append(groups[idx], i)
	}

	for _, idx := range order {
		rule := d.rules[idx]
		members := groups[idx]
		if rule.Batch && len(members) > 1 {
			d.runBatch(ctx, rule, files, members, results)
			continue
		}
		for _, i := range members {
			d.record(&results[i], d.invoke(ctx, rule, files[i].Path))
		}
	}

	return &Report{Results: results}
}

// runBatch formats all members with one invocation. On failure the files are
// retried one by one so each failure lands on the file that caused it.
func (d *Dispatcher) runBatch(ctx context.Context, rule Rule, files []git.ChangedFile, members []int, results []Result) {
	paths := make([]string, len(members))
	for j, i := range members {
		paths[j] = files[i].Path
	}

	err := d.invoke(ctx, rule, paths...)
	if err == nil {
		for _, i := range members {
			results[i].Outcome = Formatted
		}
		return
	}

	var fe *gerrors.FormatterError
	if errors.As(err, &fe) && (fe.Missing || fe.TimedOut) {
		for _, i := range members {
			d.record(&results[i], err)
		}
		return
	}

	d.log.Debug("%s failed on a batch of %d files, retrying individually", rule.Command, len(members))
	for _, i := range members {
		d.record(&results[i], d.invoke(ctx, rule, files[i].Path))
	}
}

func (d *Dispatcher) record(res *Result, err error) {
	if err != nil {
		res.Outcome = Failed
		res.Err = err
		return
	}
	res.Outcome = Formatted
}

// invoke runs rule on paths and classifies the failure, if any, as a FormatterError
func (d *Dispatcher) invoke(ctx context.Context, rule Rule, paths ...string) error {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	osPaths := make([]string, len(paths))
	for i, p := range paths {
		osPaths[i] = filepath.FromSlash(p)
	}
	args := rule.Argv(osPaths)
	d.log.Debug("Running %s %v", rule.Command, args)

	res, err := d.runner.Run(ctx, process.Command{
		Name: rule.Command,
		Args: args,
		Dir:  d.root,
	})
	if err == nil {
		return nil
	}

	fe := &gerrors.FormatterError{
		Command:  rule.Command,
		ExitCode: -1,
		Err:      err,
	}
	if res != nil {
		fe.ExitCode = res.ExitCode
		fe.Stderr = res.Stderr
	}
	switch {
	case process.IsNotFound(err):
		fe.Missing = true
	case process.IsTimeout(err):
		fe.TimedOut = true
	}
	return fe
}
