package cmd

import (
	"fmt"
	"io"

	"codebundle/pkg/bundle"

	"github.com/spf13/cobra"
)

func newBundleCmd() *cobra.Command {
	var flags bundleFlags

	bundleCmd := &cobra.Command{
		Use:   "bundle",
		Short: "Concatenate matching files into a single bundle",
		Long: `Walk the project root, select files by extension, name or path and write
them to one bundle file. Each file is introduced by a FILE: header between
two rows of '=' characters.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := flags.builder(cmd)
			if err != nil {
				return err
			}
			summary, err := b.Build()
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), b.Output(), summary)
			return nil
		},
	}

	flags.register(bundleCmd.Flags())
	return bundleCmd
}

func printSummary(w io.Writer, output string, summary *bundle.Summary) {
	for _, s := range summary.Skipped {
		fmt.Fprintf(w, "Warning: skipped %s\n", s)
	}
	fmt.Fprintf(w, "Successfully combined %d files into %s\n", summary.Files, output)
	fmt.Fprintf(w, "Total size: %.2f MB\n", summary.MiB())
}
