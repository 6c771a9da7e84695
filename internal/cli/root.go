package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/SirVer/giti/internal/cli/helpers"
	"github.com/SirVer/giti/internal/runtime"
)

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	var (
		update bool
		yes    bool
	)

	rootCmd := &cobra.Command{
		Use:   "g",
		Short: "g is git, plus a formatter for your changes and a self-updater",
		Long: `g is a drop-in alias for git.

"g fix" formats the files changed relative to a base reference and
"g --update" replaces g with the latest release. Every other invocation
is handed to git unchanged.`,
		Version:       buildVersion(version, commit, date),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !update {
				return cmd.Help()
			}
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				return runUpdate(ctx, updateOptions{Version: version, Yes: yes})
			})
		},
	}

	rootCmd.Flags().BoolVar(&update, "update", false, "Replace g with the latest release")
	rootCmd.Flags().BoolVarP(&yes, "yes", "y", false, "Update without asking for confirmation")

	rootCmd.AddCommand(newFixCmd())

	return rootCmd
}

// Execute runs the root command with args and returns the process exit code
func Execute(ctx context.Context, args []string, version, commit, date string) int {
	rootCmd := NewRootCmd(version, commit, date)
	rootCmd.SetArgs(args)

	err := fang.Execute(ctx, rootCmd,
		fang.WithVersion(buildVersion(version, commit, date)),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithoutCompletions(),
		fang.WithoutManpage(),
		fang.WithErrorHandler(errorHandler),
	)
	return ExitCode(err)
}

// errorHandler prints errors that were not already reported by the command
func errorHandler(w io.Writer, styles fang.Styles, err error) {
	if isSilent(err) {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}

// buildVersion returns the full version string including commit and date
func buildVersion(version, commit, date string) string {
	if commit == "none" && date == "unknown" {
		return version
	}
	shortCommit := commit
	if len(commit) > 7 {
		shortCommit = commit[:7]
	}
	return fmt.Sprintf("%s (%s, %s)", version, shortCommit, date)
}
