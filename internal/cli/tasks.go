package cli

import (
	"strings"

	"lobster-cli/internal/model"
	"lobster-cli/internal/queue"

	"github.com/spf13/cobra"
)

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "Manage the task queue",
	}

	cmd.AddCommand(newTasksAddCmd(app))
	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksQueueCmd(app))
	cmd.AddCommand(newTasksShowCmd(app))
	cmd.AddCommand(newTasksUpdateCmd(app))
	cmd.AddCommand(newTasksRemoveCmd(app))
	return cmd
}

func newTasksAddCmd(app *App) *cobra.Command {
	var spec queue.Spec

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a task to the queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, s, err := loadEngine(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			spec.Name = strings.Join(args, " ")
			t, res, err := eng.AddTask(spec)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := commit(ctx, s, eng, res); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": t,
				"meta": map[string]any{"state": res.State},
				"_hints": []string{
					"lobster start " + t.ID,
					"lobster tasks queue",
				},
			})
		},
	}

	cmd.Flags().StringVarP(&spec.Description, "description", "d", "", "Task description")
	cmd.Flags().IntVar(&spec.Duration, "duration", 0, "Estimated minutes (default from config)")
	cmd.Flags().IntVarP(&spec.Priority, "priority", "p", 0, "Priority 1-5, 5 is most urgent (default from config)")
	cmd.Flags().StringSliceVarP(&spec.Tags, "tag", "t", nil, "Tag (repeatable)")
	cmd.Flags().StringVar(&spec.Deadline, "deadline", "", "Deadline date (YYYY-MM-DD)")
	return cmd
}

func newTasksListCmd(app *App) *cobra.Command {
	var (
		pending   bool
		completed bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks in insertion order",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := loadEngine(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			out := []model.Task{}
			for _, t := range eng.Tasks() {
				if pending && t.Completed {
					continue
				}
				if completed && !t.Completed {
					continue
				}
				out = append(out, t)
			}
			return writeOut(cmd, app, map[string]any{
				"data": out,
				"meta": map[string]any{"count": len(out)},
			})
		},
	}

	cmd.Flags().BoolVar(&pending, "pending", false, "Only incomplete tasks")
	cmd.Flags().BoolVar(&completed, "completed", false, "Only completed tasks")
	cmd.MarkFlagsMutuallyExclusive("pending", "completed")
	return cmd
}

func newTasksQueueCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "queue",
		Short: "List incomplete tasks in the order they will be worked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := loadEngine(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			ordered := eng.Ordered()
			var hints []string
			if len(ordered) > 0 {
				hints = append(hints, "lobster start "+ordered[0].ID)
			}
			return writeOut(cmd, app, map[string]any{
				"data":   ordered,
				"meta":   map[string]any{"count": len(ordered), "remainingMinutes": eng.Stats().RemainingMinutes},
				"_hints": hints,
			})
		},
	}
}

func newTasksShowCmd(app *App) *cobra.Command {
	var eventLimit int

	cmd := &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show a task with its time blocks and recent events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, s, err := loadEngine(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			t, err := eng.Task(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			blocks := []model.TimeBlock{}
			for _, b := range eng.Blocks() {
				if b.TaskRef() == t.ID {
					blocks = append(blocks, b)
				}
			}
			evs, err := s.ReadEventsForEntity(ctx, t.ID, eventLimit)
			if err != nil {
				return writeErr(cmd, err)
			}
			cur, _ := eng.Current()
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"task":         t,
					"current":      cur.ID == t.ID,
					"spentMinutes": eng.TotalMinutes(t.ID),
					"timeBlocks":   blocks,
					"events":       evs,
				},
			})
		},
	}

	cmd.Flags().IntVar(&eventLimit, "events", 20, "Max recent events to include (0 = all)")
	return cmd
}

func newTasksUpdateCmd(app *App) *cobra.Command {
	var (
		name          string
		description   string
		priority      int
		duration      int
		tags          []string
		deadline      string
		clearDeadline bool
	)

	cmd := &cobra.Command{
		Use:   "update <task-id>",
		Short: "Edit task fields; only flags that are set change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, s, err := loadEngine(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}

			var p queue.Patch
			flags := cmd.Flags()
			if flags.Changed("name") {
				p.Name = &name
			}
			if flags.Changed("description") {
				p.Description = &description
			}
			if flags.Changed("priority") {
				p.Priority = &priority
			}
			if flags.Changed("duration") {
				p.Duration = &duration
			}
			if flags.Changed("tag") {
				p.Tags = &tags
			}
			if flags.Changed("deadline") {
				p.Deadline = &deadline
			}
			p.ClearDeadline = clearDeadline

			t, res, err := eng.UpdateTask(args[0], p)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := commit(ctx, s, eng, res); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": t})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	cmd.Flags().IntVarP(&priority, "priority", "p", 0, "New priority 1-5")
	cmd.Flags().IntVar(&duration, "duration", 0, "New estimate in minutes")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "Replace tags (repeatable)")
	cmd.Flags().StringVar(&deadline, "deadline", "", "New deadline (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&clearDeadline, "clear-deadline", false, "Remove the deadline")
	cmd.MarkFlagsMutuallyExclusive("deadline", "clear-deadline")
	return cmd
}

func newTasksRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <task-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a task; removing the current task advances the queue",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, s, err := loadEngine(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			t, res, err := eng.RemoveTask(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := commit(ctx, s, eng, res); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"removed": t.ID, "name": t.Name},
				"meta": map[string]any{"state": res.State},
			})
		},
	}
}
