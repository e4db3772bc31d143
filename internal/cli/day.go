package cli

import (
	"lobster-cli/internal/engine"
	"lobster-cli/internal/publish"

	"github.com/spf13/cobra"
)

func newDayCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "day",
		Short: "Start or end the working day",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Start the day and begin on the queue head",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(cmd, app, "day start", func(eng *engine.Engine) (engine.Result, error) {
				return eng.StartDay(), nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "end",
		Short: "Close every open block and summarize the day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, s, err := loadEngine(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			res := eng.EndOfDay()
			if err := commit(ctx, s, eng, res); err != nil {
				return writeErr(cmd, err)
			}
			st := eng.Stats()
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"summary": publish.SummaryLine(st.Completed, st.Total),
					"focus":   publish.FormatMinutes(st.FocusMinutes),
					"stats":   st,
					"state":   res.State,
				},
				"meta":   map[string]any{"changed": res.Changed},
				"_hints": []string{"lobster report --render", "lobster timesheet --raw"},
			})
		},
	})
	return cmd
}
