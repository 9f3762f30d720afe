package cmd

import (
	"fmt"
	"path/filepath"

	"codebundle/pkg/bundle"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	var (
		flags bundleFlags
		sizes bool
		tree  bool
	)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print the files a bundle run would include",
		Long:  `List the candidate files in bundle order without reading them or writing any output.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := flags.builder(cmd)
			if err != nil {
				return err
			}
			candidates, skips, err := b.Candidates()
			if err != nil {
				return err
			}
			for _, s := range skips {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: skipped %s\n", s)
			}

			out := cmd.OutOrStdout()
			if tree {
				paths := make([]string, 0, len(candidates))
				for _, c := range candidates {
					paths = append(paths, c.RelPath)
				}
				fmt.Fprint(out, bundle.RenderTree(filepath.Base(b.Root()), paths))
				return nil
			}
			for _, c := range candidates {
				if sizes {
					size := "-"
					if c.Size >= 0 {
						size = humanize.IBytes(uint64(c.Size))
					}
					fmt.Fprintf(out, "%10s  %s\n", size, c.RelPath)
					continue
				}
				fmt.Fprintln(out, c.RelPath)
			}
			return nil
		},
	}

	flags.register(listCmd.Flags())
	listCmd.Flags().BoolVarP(&sizes, "sizes", "l", false, "Show file sizes")
	listCmd.Flags().BoolVar(&tree, "as-tree", false, "Render the candidates as a directory tree")
	return listCmd
}
