package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"profile-extract-go/pkg/batch"
	"profile-extract-go/pkg/cli/tui"
	"profile-extract-go/pkg/services"
)

func (a *App) newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive terminal UI",
		Long: `Opens a menu to process a single profile, a handful of sources, or a bulk URL file,
with live per-stage progress and a results view that can copy CSV to the clipboard.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := a.componentLog("tui")
			proc, err := services.NewProcessor(a.cfg, log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return tui.Run(ctx, tui.Deps{
				Coordinator: batch.NewCoordinator(proc, log),
				Options:     services.RunDefaults(a.cfg),
				Limits:      services.LimitsFrom(a.cfg),
				Log:         log,
			})
		},
	}
}
