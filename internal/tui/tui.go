package tui

import (
	"context"

	"lobster-cli/internal/config"
	"lobster-cli/internal/engine"
	"lobster-cli/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

type Options struct {
	Engine *engine.Engine
	Store  store.Store
	Config *config.Config
	Logger *zap.Logger
}

// Run starts the interactive tracker and blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	noColor := opts.Config != nil && opts.Config.TUI.NoColor
	applyThemePreference()
	applyColorProfilePreference(noColor)

	m := newAppModel(ctx, opts)
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if fm, ok := final.(appModel); ok {
		// Covers exits that bypass the quit key (context cancel, kill).
		fm.shutdown()
	}
	return err
}
