package cli

import (
	"lobster-cli/internal/config"
	"lobster-cli/internal/store"

	"github.com/spf13/cobra"
)

func newInitCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the store directory and a project config",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := store.Store{Dir: app.Dir}
			if err := s.Ensure(); err != nil {
				return writeErr(cmd, err)
			}
			eng, s, err := loadEngine(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := s.Save(ctx, eng.Snapshot()); err != nil {
				return writeErr(cmd, err)
			}

			cfgPath := config.ProjectConfigPath(app.Dir)
			created, err := config.WriteDefault(cfgPath)
			if err != nil {
				return writeErr(cmd, err)
			}

			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"dir":           app.Dir,
					"config":        cfgPath,
					"configCreated": created,
					"tasks":         len(eng.Tasks()),
				},
				"_hints": []string{
					"lobster tasks add \"First task\" --priority 3 --duration 30",
					"lobster import todo.txt",
					"lobster day start",
				},
			})
		},
	}
	return cmd
}
