package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/SirVer/giti/internal/cli/helpers"
	"github.com/SirVer/giti/internal/config"
	gerrors "github.com/SirVer/giti/internal/errors"
	"github.com/SirVer/giti/internal/fix"
	"github.com/SirVer/giti/internal/git"
	"github.com/SirVer/giti/internal/runtime"
	"github.com/SirVer/giti/internal/tui"
)

// fixCommitMessage is the message of the commit created by fix --commit
const fixCommitMessage = "Ran git fix."

type fixOptions struct {
	Base      string
	Untracked bool
	Commit    bool
}

// newFixCmd creates the fix command
func newFixCmd() *cobra.Command {
	opts := fixOptions{}

	cmd := &cobra.Command{
		Use:   "fix",
		Short: "Format the files changed relative to a base reference",
		Long: `Format the files changed relative to a base reference.

Every file that was added, modified or renamed since the base reference
(origin/master unless configured otherwise) is handed to the formatter
whose rule matches it first. Deleted files and files without a matching
formatter are skipped. A failing formatter does not stop the remaining
files; fix exits with status 1 if any file failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				return runFix(ctx, opts)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Base, "base", "b", "", "Reference to compute changes against (default from config, origin/master)")
	cmd.Flags().BoolVarP(&opts.Untracked, "untracked", "u", false, "Also format untracked files")
	cmd.Flags().BoolVarP(&opts.Commit, "commit", "c", false, "Commit the formatting changes as \""+fixCommitMessage+"\"")

	return cmd
}

// runFix resolves the change set, formats it and prints one line per file
func runFix(ctx *runtime.Context, opts fixOptions) error {
	base := opts.Base
	if base == "" {
		base = ctx.Config.Base
	}

	repo, err := ctx.OpenRepo()
	if err != nil {
		return newFailure(err.Error(), err)
	}

	// --commit only ever records formatter output
	if opts.Commit {
		dirty, err := repo.DirtyFiles(ctx)
		if err != nil {
			return newFailure(err.Error(), err)
		}
		if len(dirty) > 0 {
			ctx.Splog.Info("Uncommitted changes:")
			for _, f := range dirty {
				ctx.Splog.Info("  %s", f)
			}
			ctx.Splog.Tip("Commit or stash them first, or run fix without --commit.")
			return &ExitError{
				Code:    ExitFailure,
				Message: "working tree has uncommitted changes, refusing to commit",
			}
		}
	}

	files, err := repo.ChangedFiles(ctx, base)
	if err != nil {
		return newFailure(err.Error(), err)
	}
	if opts.Untracked {
		untracked, err := repo.UntrackedFiles(ctx)
		if err != nil {
			return newFailure(err.Error(), err)
		}
		files = append(files, untracked...)
	}

	if len(files) == 0 {
		ctx.Splog.Info("No files changed relative to %s.", base)
		return nil
	}
	ctx.Splog.Debug("Formatting %d files changed relative to %s in %s", len(files), base, repo.Root())

	dispatcher := fix.NewDispatcher(ctx.Runner, repo.Root(),
		fix.WithRules(ctx.Config.Rules()),
		fix.WithTimeout(time.Duration(ctx.Config.FormatterTimeout)),
		fix.WithLogger(ctx.Splog),
	)
	report := dispatcher.Dispatch(ctx, files)
	printReport(ctx.Splog, report)

	if !report.OK() {
		if hasMissingFormatter(report) {
			ctx.Splog.Tip("%s", missingFormatterTip(config.Path()))
		}
		if opts.Commit {
			ctx.Splog.Warn("Not committing, some files failed to format.")
		}
		return &ExitError{
			Code:    ExitFailure,
			Message: fmt.Sprintf("%d of %d files failed to format", report.Count(fix.Failed), len(report.Results)),
		}
	}

	if opts.Commit {
		return commitFixes(ctx, repo)
	}
	return nil
}

// commitFixes commits whatever the formatters changed in tracked files
func commitFixes(ctx *runtime.Context, repo *git.Repo) error {
	dirty, err := repo.DirtyFiles(ctx)
	if err != nil {
		return newFailure(err.Error(), err)
	}
	if len(dirty) == 0 {
		ctx.Splog.Info("Nothing to commit, all files were already formatted.")
		return nil
	}

	ctx.Splog.Info("Fixed files:")
	for _, f := range dirty {
		ctx.Splog.Info("  %s", f)
	}
	if err := repo.CommitAll(ctx, fixCommitMessage); err != nil {
		return newFailure(err.Error(), err)
	}
	return nil
}

// printReport writes one summary line per file
func printReport(splog *tui.Splog, report *fix.Report) {
	for _, res := range report.Results {
		path := res.File.Path
		if res.File.Status == git.StatusRenamed && res.File.From != "" {
			path = res.File.From + " → " + res.File.Path
		}

		switch res.Outcome {
		case fix.Formatted:
			splog.Info("%s %s %s", tui.ColorGreen("formatted"), path, tui.ColorCyan("("+res.Formatter+")"))
		case fix.Skipped:
			splog.Info("%s %s %s", tui.ColorYellow("skipped  "), path, tui.ColorDim("("+res.Reason+")"))
		case fix.Failed:
			splog.Info("%s %s %s", tui.ColorRed("failed   "), path, failureDetail(res.Err))
		}
	}
}

func hasMissingFormatter(report *fix.Report) bool {
	for _, res := range report.Failures() {
		if errors.Is(res.Err, gerrors.ErrFormatterMissing) {
			return true
		}
	}
	return false
}

// missingFormatterTip points at the config file when one can be located
func missingFormatterTip(configPath string) string {
	if configPath == "" {
		return "Install the missing formatters."
	}
	return "Install the missing formatters, or override their rules in " + configPath
}

// failureDetail renders a per-file error, hinting at installation for missing formatters
func failureDetail(err error) string {
	msg, _, _ := strings.Cut(err.Error(), "\n")
	if errors.Is(err, gerrors.ErrFormatterMissing) {
		msg += ", is it installed?"
	}
	return tui.ColorRed("(" + msg + ")")
}
