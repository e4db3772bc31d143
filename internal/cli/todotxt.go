package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"lobster-cli/internal/store"
	"lobster-cli/internal/todotxt"

	"github.com/spf13/cobra"
)

func newImportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [file|-]",
		Short: "Import tasks from todo.txt text (stdin when no file or -)",
		Long: strings.TrimSpace(`
One task per line:

  (A) 2026-03-01 Write report +work @desk due:2026-03-05 dur:45 progress:20
  x 2026-03-02 2026-03-01 Already done

See: lobster docs todotxt`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			text, err := readInput(cmd, args)
			if err != nil {
				return writeErr(cmd, err)
			}
			eng, s, err := loadEngine(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			cfg := app.config()
			parsed, err := todotxt.Parse(text, todotxt.Options{
				Now:             eng.Now(),
				DefaultDuration: cfg.Tasks.DefaultDuration,
				DefaultPriority: cfg.Tasks.DefaultPriority,
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			added, res, err := eng.ImportTasks(parsed)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := commit(ctx, s, eng, res); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data":   added,
				"meta":   map[string]any{"count": len(added), "state": res.State},
				"_hints": []string{"lobster tasks queue", "lobster day start"},
			})
		},
	}
	return cmd
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func newExportCmd(app *App) *cobra.Command {
	var (
		out string
		raw bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every task as todo.txt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := loadEngine(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			tasks := eng.Tasks()
			text := todotxt.Format(tasks)

			if out != "" {
				if err := store.WriteFileAtomic(out, []byte(text), 0o644); err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, map[string]any{
					"data": map[string]any{"path": out, "count": len(tasks)},
				})
			}
			if raw {
				_, err := fmt.Fprint(cmd.OutOrStdout(), text)
				return err
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"text": text, "count": len(tasks)},
			})
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Write to this file instead of stdout")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print plain todo.txt (no envelope)")
	return cmd
}
