package cli

import (
	"lobster-cli/internal/schedule"

	"github.com/spf13/cobra"
)

func newScheduleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Project today's timeline: recorded blocks, then the queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := loadEngine(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			now := eng.Now()
			entries := schedule.Project(schedule.FromSnapshot(eng.Snapshot(), now))

			meta := map[string]any{"count": len(entries), "state": eng.State()}
			if n := len(entries); n > 0 {
				meta["projectedEnd"] = entries[n-1].End()
			}
			return writeOut(cmd, app, map[string]any{
				"data": entries,
				"meta": meta,
			})
		},
	}
}
