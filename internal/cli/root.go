package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"lobster-cli/internal/config"
	"lobster-cli/internal/engine"
	"lobster-cli/internal/format"
	"lobster-cli/internal/model"
	"lobster-cli/internal/queue"
	"lobster-cli/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type App struct {
	Dir        string
	PrettyJSON bool
	Format     string
	Verbose    bool

	cfg *config.Config
	log *zap.Logger

	// clock is overridden in tests; nil means the system clock.
	clock engine.Clock
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{})
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "lobster",
		Short:        "Single-user task queue and time-block tracker",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive tracker
  lobster

  # Queue work and start the day
  lobster tasks add "Write report" --priority 4 --duration 45
  lobster day start

  # Take a break and come back
  lobster pause --reason lunch
  lobster resume --notes "back at 13:10"

  # Direct task lookup (shortcut for: lobster tasks show <task-id>)
  lobster task-3k2jq8va
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive tracker.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.setup(cmd)
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if app.log != nil {
			_ = app.log.Sync()
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("LOBSTER_DIR", ""), "Path to store dir (default: nearest .lobster, else ~/.lobster/default)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", "json", "Output format (json|edn)")
	cmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "Log debug output to stderr")

	cmd.AddCommand(newInitCmd(app))
	cmd.AddCommand(newDocsCmd(app))
	cmd.AddCommand(newStatusCmd(app))
	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newStartCmd(app))
	cmd.AddCommand(newPauseCmd(app))
	cmd.AddCommand(newResumeCmd(app))
	cmd.AddCommand(newNotesCmd(app))
	cmd.AddCommand(newCompleteCmd(app))
	cmd.AddCommand(newRescheduleCmd(app))
	cmd.AddCommand(newDistractCmd(app))
	cmd.AddCommand(newDayCmd(app))
	cmd.AddCommand(newScheduleCmd(app))
	cmd.AddCommand(newImportCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newTimesheetCmd(app))
	cmd.AddCommand(newReportCmd(app))
	cmd.AddCommand(newEventsCmd(app))
	cmd.AddCommand(newBackupCmd(app))
	cmd.AddCommand(newRestoreCmd(app))
	cmd.AddCommand(newTUICmd(app))

	return cmd
}

// setup resolves the store dir and configuration, then builds the logger.
// Precedence: --dir / LOBSTER_DIR, config dir, nearest .lobster, ~/.lobster/default.
func (app *App) setup(cmd *cobra.Command) error {
	base, err := config.Load("")
	if err != nil {
		return writeErr(cmd, err)
	}
	dir := strings.TrimSpace(app.Dir)
	if dir == "" {
		dir = strings.TrimSpace(base.Dir)
	}
	if dir == "" {
		dir, err = store.DefaultDir()
		if err != nil {
			return writeErr(cmd, err)
		}
	}
	app.Dir = dir

	cfg, err := config.Load(dir)
	if err != nil {
		return writeErr(cmd, err)
	}
	if !cmd.Flags().Changed("format") {
		app.Format = cfg.Format
	}
	if !cmd.Flags().Changed("pretty") {
		app.PrettyJSON = cfg.Pretty
	}
	app.cfg = cfg

	logger, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, app.Verbose)
	if err != nil {
		return writeErr(cmd, err)
	}
	app.log = logger
	zap.ReplaceGlobals(logger)
	return nil
}

func (app *App) config() *config.Config {
	if app.cfg == nil {
		app.cfg = config.DefaultConfig()
	}
	return app.cfg
}

func (app *App) logger() *zap.Logger {
	if app.log == nil {
		app.log = zap.NewNop()
	}
	return app.log
}

func (app *App) engineOptions() engine.Options {
	cfg := app.config()
	return engine.Options{
		Clock:   app.clock,
		TickCap: cfg.Tick.Cap,
		Defaults: queue.Defaults{
			Duration: cfg.Tasks.DefaultDuration,
			Priority: cfg.Tasks.DefaultPriority,
		},
		Logger: app.logger(),
	}
}

// loadEngine restores the engine from the store. Repairs made on load (orphaned
// open blocks) are persisted right away so every command starts from a clean ledger.
func loadEngine(ctx context.Context, app *App) (*engine.Engine, store.Store, error) {
	s := store.Store{Dir: app.Dir}
	snap, err := s.Load(ctx)
	if err != nil {
		return nil, s, err
	}
	eng, res := engine.New(snap, app.engineOptions())
	if res.Changed {
		app.logger().Info("closed orphaned blocks on load", zap.Int("events", len(res.Events)))
		if err := commit(ctx, s, eng, res); err != nil {
			return nil, s, err
		}
	}
	return eng, s, nil
}

// commit saves the snapshot and appends the events of every changed result in
// one transaction.
func commit(ctx context.Context, s store.Store, eng *engine.Engine, results ...engine.Result) error {
	changed := false
	var evs []model.Event
	for _, r := range results {
		if !r.Changed {
			continue
		}
		changed = true
		evs = append(evs, r.Events...)
	}
	if !changed {
		return nil
	}
	return s.Commit(ctx, eng.Snapshot(), evs)
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
