package cmd

import (
	"os/signal"
	"syscall"
	"time"

	"codebundle/pkg/bundle"
	"codebundle/pkg/logging"
	"codebundle/pkg/watch"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newWatchCmd() *cobra.Command {
	var (
		flags    bundleFlags
		debounce time.Duration
	)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the bundle whenever a source file changes",
		Long: `Build the bundle once, then watch every directory the bundle reads from and
rebuild after changes settle. Stops on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := flags.builder(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			w := watch.New(b, debounce, logging.Logger)
			out := cmd.OutOrStdout()
			w.OnBuild = func(summary *bundle.Summary, err error) {
				if err != nil {
					return
				}
				printSummary(out, b.Output(), summary)
			}

			logging.Logger.Info("Watching for changes",
				zap.String("root", b.Root()),
				zap.Duration("debounce", debounce))
			return w.Run(ctx)
		},
	}

	flags.register(watchCmd.Flags())
	watchCmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period before rebuilding")
	return watchCmd
}
