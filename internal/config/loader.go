package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"lobster-cli/internal/model"
)

const (
	fileName  = "config.yaml"
	envPrefix = "LOBSTER"

	envConfigDir = "LOBSTER_CONFIG_DIR"
)

// keys lists every setting that may be overridden from the environment (LOBSTER_TICK_INTERVAL etc).
var keys = []string{
	"dir",
	"format",
	"pretty",
	"log_level",
	"tick.interval",
	"tick.cap",
	"tasks.default_duration",
	"tasks.default_priority",
	"timesheet.time_layout",
	"tui.no_color",
	"tui.save_debounce",
}

// Load merges defaults, the global file, the store-local file (when storeDir is set) and LOBSTER_* variables.
// A .env file in the working directory is read first so it can supply those variables.
func Load(storeDir string) (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := DefaultConfig()

	if path, err := GlobalConfigPath(); err == nil {
		if err := loadFile(path, cfg); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	if strings.TrimSpace(storeDir) != "" {
		path := ProjectConfigPath(storeDir)
		if err := loadFile(path, cfg); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	if err := loadEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return err
	}

	return v.Unmarshal(cfg)
}

func loadEnv(cfg *Config) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return err
		}
	}
	return v.Unmarshal(cfg)
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	switch c.Format {
	case "json", "edn":
	default:
		return model.Invalid("format", fmt.Sprintf("must be json or edn, got %q", c.Format))
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "off", "error", "warn", "info", "debug":
	default:
		return model.Invalid("log_level", fmt.Sprintf("unknown level %q", c.LogLevel))
	}
	if c.Tick.Interval <= 0 {
		return model.Invalid("tick.interval", "must be positive")
	}
	if c.Tick.Cap < c.Tick.Interval {
		return model.Invalid("tick.cap", "must be at least tick.interval")
	}
	if c.Tasks.DefaultDuration < 1 {
		return model.Invalid("tasks.default_duration", "must be at least 1 minute")
	}
	if c.Tasks.DefaultPriority < model.MinPriority || c.Tasks.DefaultPriority > model.MaxPriority {
		return model.Invalid("tasks.default_priority", fmt.Sprintf("must be %d..%d", model.MinPriority, model.MaxPriority))
	}
	if strings.TrimSpace(c.Timesheet.TimeLayout) == "" {
		return model.Invalid("timesheet.time_layout", "must not be empty")
	}
	return nil
}

// GlobalDir is ~/.lobster, or LOBSTER_CONFIG_DIR when set.
func GlobalDir() (string, error) {
	if v := strings.TrimSpace(os.Getenv(envConfigDir)); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if home == "" {
		return "", errors.New("no home directory")
	}
	return filepath.Join(home, ".lobster"), nil
}

func GlobalConfigPath() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

func ProjectConfigPath(storeDir string) string {
	return filepath.Join(storeDir, fileName)
}
