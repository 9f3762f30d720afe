package cmd

import (
	"fmt"

	"codebundle/pkg/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newPresetsCmd() *cobra.Command {
	var names bool

	presetsCmd := &cobra.Command{
		Use:   "presets [name...]",
		Short: "Show the built-in presets",
		Long: `Print the built-in presets as YAML. The output of a single preset can be
saved as ` + config.DefaultFileName + ` and edited.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if names {
				for _, name := range config.PresetNames() {
					fmt.Fprintln(out, name)
				}
				return nil
			}

			if len(args) == 0 {
				args = config.PresetNames()
			}
			selected := make(map[string]*config.Config, len(args))
			for _, name := range args {
				cfg, err := config.Preset(name)
				if err != nil {
					return err
				}
				selected[name] = cfg
			}

			var doc any = selected
			if len(args) == 1 {
				doc = selected[args[0]]
			}
			data, err := yaml.Marshal(doc)
			if err != nil {
				return fmt.Errorf("failed to marshal presets: %w", err)
			}
			_, err = out.Write(data)
			return err
		},
	}

	presetsCmd.Flags().BoolVar(&names, "names", false, "Print preset names only")
	return presetsCmd
}
