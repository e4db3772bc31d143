package cli

import (
	"strings"

	"lobster-cli/internal/engine"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// runTransition loads the engine, applies fn and persists whatever changed.
// A transition the current state does not allow is reported with changed=false.
func runTransition(cmd *cobra.Command, app *App, action string, fn func(eng *engine.Engine) (engine.Result, error)) error {
	ctx := cmd.Context()
	eng, s, err := loadEngine(ctx, app)
	if err != nil {
		return writeErr(cmd, err)
	}
	before := eng.State()
	res, err := fn(eng)
	if err != nil {
		return writeErr(cmd, err)
	}
	if err := commit(ctx, s, eng, res); err != nil {
		return writeErr(cmd, err)
	}
	app.logger().Debug("cli transition",
		zap.String("action", action),
		zap.String("from", string(before)),
		zap.String("to", string(res.State)),
		zap.Bool("changed", res.Changed),
	)
	return writeState(cmd, app, eng, map[string]any{
		"action":  action,
		"changed": res.Changed,
		"from":    before,
	})
}

func newStartCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "start <task-id>",
		Short: "Make a task current and track it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(cmd, app, "start", func(eng *engine.Engine) (engine.Result, error) {
				return eng.Start(args[0])
			})
		},
	}
}

func newPauseCmd(app *App) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "pause",
		Short: "Pause tracking and open a break",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(cmd, app, "pause", func(eng *engine.Engine) (engine.Result, error) {
				return eng.Pause(reason), nil
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "Break reason (default \"break\")")
	return cmd
}

func newResumeCmd(app *App) *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Close the break and resume the current task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(cmd, app, "resume", func(eng *engine.Engine) (engine.Result, error) {
				return eng.Resume(notes), nil
			})
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "Notes to attach to the break")
	return cmd
}

func newNotesCmd(app *App) *cobra.Command {
	var body string
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Attach notes to the most recent break",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, s, err := loadEngine(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			b, res, err := eng.AttachBreakNotes(body)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := commit(ctx, s, eng, res); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": b})
		},
	}
	cmd.Flags().StringVar(&body, "body", "", "Notes text")
	_ = cmd.MarkFlagRequired("body")
	return cmd
}

func newCompleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "complete",
		Short: "Complete the current task and advance the queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(cmd, app, "complete", func(eng *engine.Engine) (engine.Result, error) {
				return eng.Complete(), nil
			})
		},
	}
}

func newRescheduleCmd(app *App) *cobra.Command {
	var progress int
	cmd := &cobra.Command{
		Use:   "reschedule [task-id]",
		Short: "Defer a task and re-estimate it from the time spent",
		Long: strings.TrimSpace(`
Defers a task (the current one when no id is given). With --progress N > 0 and
recorded time T, the remaining estimate becomes T/(N/100) - T.`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return runTransition(cmd, app, "reschedule", func(eng *engine.Engine) (engine.Result, error) {
				return eng.Reschedule(id, progress)
			})
		},
	}
	cmd.Flags().IntVar(&progress, "progress", 0, "Percent done (0-100)")
	_ = cmd.MarkFlagRequired("progress")
	return cmd
}

func newDistractCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "distract",
		Short: "Record a distraction on the current task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(cmd, app, "distract", func(eng *engine.Engine) (engine.Result, error) {
				return eng.MarkDistraction(), nil
			})
		},
	}
}
