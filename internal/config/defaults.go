package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"lobster-cli/internal/model"
	"lobster-cli/internal/timesheet"
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Version:  "1",
		Format:   "json",
		LogLevel: "off",
		Tick: TickConfig{
			Interval: time.Second,
			Cap:      3 * time.Second,
		},
		Tasks: TasksConfig{
			DefaultDuration: model.DefaultDuration,
			DefaultPriority: model.DefaultPriority,
		},
		Timesheet: TimesheetConfig{
			TimeLayout: timesheet.DefaultTimeLayout,
		},
		TUI: TUIConfig{
			SaveDebounce: 2 * time.Second,
		},
	}
}

// fileConfig mirrors Config with durations spelled the way viper reads them back ("1s").
type fileConfig struct {
	Version   string          `yaml:"version"`
	Dir       string          `yaml:"dir,omitempty"`
	Format    string          `yaml:"format"`
	Pretty    bool            `yaml:"pretty"`
	LogLevel  string          `yaml:"log_level"`
	Tick      fileTick        `yaml:"tick"`
	Tasks     TasksConfig     `yaml:"tasks"`
	Timesheet TimesheetConfig `yaml:"timesheet"`
	TUI       fileTUI         `yaml:"tui"`
}

type fileTick struct {
	Interval string `yaml:"interval"`
	Cap      string `yaml:"cap"`
}

type fileTUI struct {
	NoColor      bool   `yaml:"no_color"`
	SaveDebounce string `yaml:"save_debounce"`
}

const defaultHeader = `# lobster configuration
# Layering: ~/.lobster/config.yaml, then <store-dir>/config.yaml, then LOBSTER_* environment variables.
`

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	fc := fileConfig{
		Version:  cfg.Version,
		Dir:      cfg.Dir,
		Format:   cfg.Format,
		Pretty:   cfg.Pretty,
		LogLevel: cfg.LogLevel,
		Tick: fileTick{
			Interval: cfg.Tick.Interval.String(),
			Cap:      cfg.Tick.Cap.String(),
		},
		Tasks:     cfg.Tasks,
		Timesheet: cfg.Timesheet,
		TUI: fileTUI{
			NoColor:      cfg.TUI.NoColor,
			SaveDebounce: cfg.TUI.SaveDebounce.String(),
		},
	}
	return yaml.Marshal(fc)
}

// WriteDefault writes the default configuration to path unless a file already exists there.
// It reports whether a file was written.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	b, err := Marshal(DefaultConfig())
	if err != nil {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	return true, os.WriteFile(path, append([]byte(defaultHeader), b...), 0o644)
}
