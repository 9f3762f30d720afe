package cmd

import (
	"fmt"
	"os"

	"codebundle/pkg/config"

	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	var (
		preset string
		force  bool
	)

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a starter config file",
		Long: `Write a config file (default ` + config.DefaultFileName + `) seeded from the defaults
or from a preset, ready to edit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultFileName
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			cfg := config.DefaultConfig()
			if preset != "" {
				var err error
				if cfg, err = config.Preset(preset); err != nil {
					return err
				}
			}
			if err := cfg.Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	initCmd.Flags().StringVarP(&preset, "preset", "p", "", "Seed the file from this preset")
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return initCmd
}
