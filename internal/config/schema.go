package config

import "time"

// Config is the merged lobster configuration.
type Config struct {
	Version string `yaml:"version" mapstructure:"version"`

	// Dir overrides store directory discovery.
	Dir string `yaml:"dir,omitempty" mapstructure:"dir"`

	// Format is the output envelope encoding: json|edn.
	Format string `yaml:"format" mapstructure:"format"`
	Pretty bool   `yaml:"pretty" mapstructure:"pretty"`

	// LogLevel is one of: off|error|warn|info|debug
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`

	Tick      TickConfig      `yaml:"tick" mapstructure:"tick"`
	Tasks     TasksConfig     `yaml:"tasks" mapstructure:"tasks"`
	Timesheet TimesheetConfig `yaml:"timesheet" mapstructure:"timesheet"`
	TUI       TUIConfig       `yaml:"tui" mapstructure:"tui"`
}

// TickConfig controls how the interactive tracker advances time.
type TickConfig struct {
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
	// Cap bounds the time credited by a single tick.
	Cap time.Duration `yaml:"cap" mapstructure:"cap"`
}

type TasksConfig struct {
	DefaultDuration int `yaml:"default_duration" mapstructure:"default_duration"`
	DefaultPriority int `yaml:"default_priority" mapstructure:"default_priority"`
}

type TimesheetConfig struct {
	TimeLayout string `yaml:"time_layout" mapstructure:"time_layout"`
}

type TUIConfig struct {
	NoColor bool `yaml:"no_color" mapstructure:"no_color"`
	// SaveDebounce delays state writes after ticks.
	SaveDebounce time.Duration `yaml:"save_debounce" mapstructure:"save_debounce"`
}
