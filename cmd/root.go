package cmd

import (
	"errors"

	"codebundle/pkg/bundle"
	"codebundle/pkg/logging"
	"codebundle/pkg/version"

	"github.com/spf13/cobra"
)

// Exit statuses returned by ExitCode.
const (
	ExitOK                = 0
	ExitFailure           = 1
	ExitRootInvalid       = 2
	ExitOutputUnavailable = 3
)

// NewRootCmd builds the codebundle command tree.
func NewRootCmd() *cobra.Command {
	var debug, quiet bool

	rootCmd := &cobra.Command{
		Use:   "codebundle",
		Short: "codebundle concatenates project sources into one text bundle",
		Long: `codebundle walks a project tree, selects files by extension, name or path
and concatenates them into a single delimited text file, ready to paste into
an LLM prompt or attach to a review.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logging.Setup(debug, quiet, "codebundle", version.Get().Version)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable development logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log warnings and errors")

	rootCmd.AddCommand(
		newBundleCmd(),
		newListCmd(),
		newWatchCmd(),
		newPresetsCmd(),
		newInitCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the root command with os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// ExitCode maps an error returned by Execute to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, bundle.ErrRootInvalid):
		return ExitRootInvalid
	case errors.Is(err, bundle.ErrOutputUnavailable):
		return ExitOutputUnavailable
	default:
		return ExitFailure
	}
}
