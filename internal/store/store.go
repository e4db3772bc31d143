package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"

	"lobster-cli/internal/model"
)

const (
	dirName        = ".lobster"
	sqliteFileName = "lobster.sqlite"

	envConfigDir = "LOBSTER_CONFIG_DIR"
)

// Store is a directory holding the SQLite state db, the event log and small UI state files.
type Store struct {
	Dir string
}

// DiscoverDir walks up from start looking for a .lobster directory.
func DiscoverDir(start string) (string, bool) {
	dir := start
	for {
		candidate := filepath.Join(dir, dirName)
		if st, err := os.Stat(candidate); err == nil && st.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// DefaultDir prefers a project-local .lobster directory and falls back to the per-user one.
func DefaultDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if found, ok := DiscoverDir(cwd); ok {
		return found, nil
	}
	cfg, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "default"), nil
}

// ConfigDir is the per-user directory (~/.lobster), overridable with LOBSTER_CONFIG_DIR.
func ConfigDir() (string, error) {
	if v := strings.TrimSpace(os.Getenv(envConfigDir)); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, dirName), nil
}

func (s Store) Ensure() error {
	return os.MkdirAll(s.Dir, 0o755)
}

func (s Store) sqlitePath() string {
	return filepath.Join(s.Dir, sqliteFileName)
}

// Load returns the persisted snapshot. A fresh directory yields an empty snapshot.
func (s Store) Load(ctx context.Context) (model.Snapshot, error) {
	if err := s.Ensure(); err != nil {
		return model.Snapshot{}, err
	}
	return s.LoadSQLite(ctx)
}

// Save rewrites every state key in one transaction.
func (s Store) Save(ctx context.Context, snap model.Snapshot) error {
	if err := s.Ensure(); err != nil {
		return err
	}
	return s.SaveSQLite(ctx, snap)
}

// Commit saves snap and appends evs in a single transaction, so the event log
// never misses a transition whose state was saved.
func (s Store) Commit(ctx context.Context, snap model.Snapshot, evs []model.Event) error {
	if err := s.Ensure(); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := writeState(ctx, tx, snap); err != nil {
			return fmt.Errorf("save state: %w", err)
		}
		if err := insertEvents(ctx, tx, evs); err != nil {
			return fmt.Errorf("append events: %w", err)
		}
		return nil
	})
}
