package cli

import (
	"lobster-cli/internal/store"

	"github.com/spf13/cobra"
)

func newBackupCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "backup <dir>",
		Short: "Write state.json and events.jsonl into a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, s, err := loadEngine(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := s.Backup(ctx, args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data":   map[string]any{"dir": args[0]},
				"_hints": []string{"lobster restore " + args[0]},
			})
		},
	}
}

func newRestoreCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <dir>",
		Short: "Replace state and events from a backup directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := store.Store{Dir: app.Dir}
			if err := s.Restore(ctx, args[0]); err != nil {
				return writeErr(cmd, err)
			}
			eng, _, err := loadEngine(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeState(cmd, app, eng, map[string]any{"restoredFrom": args[0]})
		},
	}
}
