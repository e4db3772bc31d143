package cli

import (
	"fmt"

	"lobster-cli/internal/publish"
	"lobster-cli/internal/tui"

	"github.com/spf13/cobra"
)

func newReportCmd(app *App) *cobra.Command {
	var (
		date      string
		raw       bool
		render    bool
		width     int
		to        string
		overwrite bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Daily report: summary, completed tasks, queue and timesheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := loadEngine(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			now := eng.Now()
			day, err := parseDay(date, now)
			if err != nil {
				return writeErr(cmd, err)
			}
			d := publish.BuildDaily(eng.Snapshot(), day, publish.RenderOptions{
				TimeLayout: app.config().Timesheet.TimeLayout,
				Now:        now,
			})

			if to != "" {
				res, err := publish.WriteDaily(d, to, publish.WriteOptions{Overwrite: overwrite})
				if err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, map[string]any{"data": res})
			}

			md := publish.RenderDailyMarkdown(d)
			switch {
			case render:
				_, err := fmt.Fprintln(cmd.OutOrStdout(), tui.RenderMarkdown(md, width))
				return err
			case raw:
				_, err := fmt.Fprint(cmd.OutOrStdout(), md)
				return err
			}
			return writeOut(cmd, app, map[string]any{
				"data": d,
				"meta": map[string]any{"markdown": md},
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Report day: YYYY-MM-DD, today or yesterday (default today)")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print markdown (no envelope)")
	cmd.Flags().BoolVar(&render, "render", false, "Render markdown for the terminal")
	cmd.Flags().IntVar(&width, "width", 80, "Wrap width for --render")
	cmd.Flags().StringVar(&to, "to", "", "Write <day>.md and <day>-timesheet.csv into this directory")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing files with --to")
	cmd.MarkFlagsMutuallyExclusive("raw", "render", "to")
	return cmd
}
