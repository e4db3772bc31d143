package cli

import (
	"lobster-cli/internal/store"
	"lobster-cli/internal/timesheet"

	"github.com/spf13/cobra"
)

func newTimesheetCmd(app *App) *cobra.Command {
	var (
		date string
		out  string
		raw  bool
	)

	cmd := &cobra.Command{
		Use:   "timesheet",
		Short: "Export one day's work and break blocks as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := loadEngine(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			day, err := parseDay(date, eng.Now())
			if err != nil {
				return writeErr(cmd, err)
			}
			sheet := timesheet.Build(day, eng.Blocks(), eng.Tasks(), timesheet.Options{
				TimeLayout: app.config().Timesheet.TimeLayout,
			})

			if out != "" {
				if err := store.WriteFileAtomic(out, []byte(sheet.CSV()), 0o644); err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, map[string]any{
					"data": map[string]any{"path": out, "rows": len(sheet.Rows)},
					"meta": map[string]any{"day": sheet.Day, "totals": sheet.Totals},
				})
			}
			if raw {
				return sheet.WriteCSV(cmd.OutOrStdout())
			}
			return writeOut(cmd, app, map[string]any{
				"data": sheet.Rows,
				"meta": map[string]any{"day": sheet.Day, "totals": sheet.Totals},
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day to export: YYYY-MM-DD, today or yesterday (default today)")
	cmd.Flags().StringVar(&out, "out", "", "Write the CSV to this file")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print CSV (no envelope)")
	return cmd
}
