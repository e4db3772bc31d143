package cli

import (
	"lobster-cli/internal/engine"
	"lobster-cli/internal/model"
	"lobster-cli/internal/timesheet"

	"github.com/spf13/cobra"
)

type currentView struct {
	Task         model.Task `json:"task"`
	SpentMinutes float64    `json:"spentMinutes"`
}

type statusView struct {
	State       engine.State     `json:"state"`
	DayStarted  bool             `json:"dayStarted"`
	Paused      bool             `json:"paused"`
	Current     *currentView     `json:"current"`
	ActiveBreak *model.TimeBlock `json:"activeBreak"`
	Stats       engine.Stats     `json:"stats"`
	Today       timesheet.Totals `json:"today"`
}

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show tracking state, current task and today's totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := loadEngine(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeState(cmd, app, eng, nil)
		},
	}
}

func buildStatus(app *App, eng *engine.Engine) statusView {
	v := statusView{
		State:      eng.State(),
		DayStarted: eng.DayStarted(),
		Paused:     eng.Paused(),
		Stats:      eng.Stats(),
	}
	if t, ok := eng.Current(); ok {
		v.Current = &currentView{Task: t, SpentMinutes: eng.TotalMinutes(t.ID)}
	}
	if b, ok := eng.ActiveBreak(); ok {
		v.ActiveBreak = &b
	}
	sheet := timesheet.Build(eng.Now(), eng.Blocks(), eng.Tasks(), timesheet.Options{TimeLayout: app.config().Timesheet.TimeLayout})
	v.Today = sheet.Totals
	return v
}

// writeState prints the status envelope. meta carries command-specific extras
// such as whether the transition changed anything.
func writeState(cmd *cobra.Command, app *App, eng *engine.Engine, meta map[string]any) error {
	out := map[string]any{
		"data":   buildStatus(app, eng),
		"_hints": stateHints(eng),
	}
	if meta != nil {
		out["meta"] = meta
	}
	return writeOut(cmd, app, out)
}

func stateHints(eng *engine.Engine) []string {
	switch eng.State() {
	case engine.StateTracking:
		return []string{
			"lobster pause --reason lunch",
			"lobster complete",
			"lobster reschedule --progress 50",
			"lobster distract",
		}
	case engine.StatePaused:
		return []string{
			"lobster resume --notes \"...\"",
			"lobster notes --body \"...\"",
		}
	}
	if !eng.DayStarted() {
		return []string{"lobster day start", "lobster tasks add \"...\""}
	}
	if len(eng.Ordered()) == 0 {
		return []string{"lobster tasks add \"...\"", "lobster day end"}
	}
	return []string{"lobster tasks queue", "lobster start <task-id>"}
}
