package cli

import (
	"lobster-cli/internal/model"

	"github.com/spf13/cobra"
)

func newEventsCmd(app *App) *cobra.Command {
	var (
		limit  int
		tail   bool
		entity string
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect the local event log",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List events (oldest-first)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, s, err := loadEngine(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			var evs []model.Event
			switch {
			case entity != "":
				evs, err = s.ReadEventsForEntity(ctx, entity, limit)
			case tail:
				evs, err = s.ReadEventsTail(ctx, limit)
			default:
				evs, err = s.ReadEvents(ctx, limit)
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": evs,
				"meta": map[string]any{"count": len(evs)},
			})
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 200, "Max events to return (0 = all)")
	listCmd.Flags().BoolVar(&tail, "tail", false, "Return the newest events instead of the oldest")
	listCmd.Flags().StringVar(&entity, "entity", "", "Only events for this task or block id")

	cmd.AddCommand(listCmd)
	return cmd
}
