package cli

import (
	"lobster-cli/internal/tui"

	"github.com/spf13/cobra"
)

func newTUICmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive tracker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, app)
		},
	}
}

func runTUI(cmd *cobra.Command, app *App) error {
	eng, s, err := loadEngine(cmd.Context(), app)
	if err != nil {
		return writeErr(cmd, err)
	}
	if err := tui.Run(cmd.Context(), tui.Options{
		Engine: eng,
		Store:  s,
		Config: app.config(),
		Logger: app.logger(),
	}); err != nil {
		return writeErr(cmd, err)
	}
	return nil
}
