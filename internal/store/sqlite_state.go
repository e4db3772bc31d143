package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"lobster-cli/internal/model"
)

const stateVersion = 1

const (
	metaVersion       = "version"
	metaCurrentTaskID = "currentTaskId"
	metaFocusTime     = "focusTime"
	metaIsPaused      = "isPaused"
	metaDayStarted    = "dayStarted"
)

type metaRow struct {
	K         string `db:"k"`
	V         string `db:"v"`
	UpdatedAt int64  `db:"updated_at_unixms"`
}

type taskRow struct {
	ID        string `db:"id"`
	Pos       int    `db:"pos"`
	Name      string `db:"name"`
	Priority  int    `db:"priority"`
	Completed int    `db:"completed"`
	Deadline  string `db:"deadline"`
	JSON      string `db:"json"`
	UpdatedAt int64  `db:"updated_at_unixms"`
}

type blockRow struct {
	ID        string        `db:"id"`
	Pos       int           `db:"pos"`
	Type      string        `db:"type"`
	TaskID    string        `db:"task_id"`
	StartMs   int64         `db:"start_unixms"`
	EndMs     sql.NullInt64 `db:"end_unixms"`
	JSON      string        `db:"json"`
	UpdatedAt int64         `db:"updated_at_unixms"`
}

func (s Store) openSQLite(ctx context.Context) (*sqlx.DB, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	// modernc.org/sqlite registers the "sqlite" driver.
	db, err := sqlx.Open("sqlite", s.sqlitePath())
	if err != nil {
		return nil, err
	}
	// WAL gives one writer plus many readers; busy_timeout keeps the TUI and CLI from tripping over each other.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrateSQLite(ctx context.Context, db *sqlx.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS state_meta (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			pos INTEGER NOT NULL,
			name TEXT NOT NULL,
			priority INTEGER NOT NULL,
			completed INTEGER NOT NULL,
			deadline TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_pos ON tasks(pos);`,
		`CREATE TABLE IF NOT EXISTS time_blocks (
			id TEXT PRIMARY KEY,
			pos INTEGER NOT NULL,
			type TEXT NOT NULL,
			task_id TEXT NOT NULL,
			start_unixms INTEGER NOT NULL,
			end_unixms INTEGER,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_time_blocks_pos ON time_blocks(pos);`,
		`CREATE INDEX IF NOT EXISTS idx_time_blocks_task ON time_blocks(task_id, start_unixms);`,
		`CREATE TABLE IF NOT EXISTS events (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			event_id TEXT NOT NULL UNIQUE,
			type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			issued_at_unixms INTEGER NOT NULL,
			payload_json TEXT NOT NULL,
			created_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_entity ON events(entity_id, seq);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

// LoadSQLite loads the snapshot from lobster.sqlite.
// If the db has never been written but a legacy localstorage.json export sits next to it,
// that export is imported once and saved before loading.
func (s Store) LoadSQLite(ctx context.Context) (model.Snapshot, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return model.Snapshot{}, err
	}
	defer db.Close()

	hasState, err := sqliteStateHasAnyRows(ctx, db)
	if err != nil {
		return model.Snapshot{}, err
	}
	if !hasState {
		legacy, ok, err := s.readLegacyExport()
		if err != nil {
			return model.Snapshot{}, err
		}
		if ok {
			if err := s.SaveSQLite(ctx, legacy); err != nil {
				return model.Snapshot{}, err
			}
		}
	}
	return loadStateFromSQLite(ctx, db)
}

func (s Store) SaveSQLite(ctx context.Context, snap model.Snapshot) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		return writeState(ctx, tx, snap)
	})
}

// inTx runs fn in one write transaction on the state database.
func (s Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func writeState(ctx context.Context, tx *sqlx.Tx, snap model.Snapshot) error {
	nowMs := time.Now().UTC().UnixMilli()

	current := ""
	if snap.CurrentTaskID != nil {
		current = *snap.CurrentTaskID
	}
	meta := []metaRow{
		{K: metaVersion, V: strconv.Itoa(stateVersion)},
		{K: metaCurrentTaskID, V: current},
		{K: metaFocusTime, V: strconv.FormatFloat(snap.FocusMinutes, 'f', -1, 64)},
		{K: metaIsPaused, V: strconv.FormatBool(snap.Paused)},
		{K: metaDayStarted, V: strconv.FormatBool(snap.DayStarted)},
	}
	for _, m := range meta {
		m.UpdatedAt = nowMs
		if _, err := tx.NamedExecContext(ctx, `INSERT OR REPLACE INTO state_meta(k, v, updated_at_unixms) VALUES(:k, :v, :updated_at_unixms)`, m); err != nil {
			return err
		}
	}

	// Replace-all: the snapshot is small and always written whole.
	for _, t := range []string{"tasks", "time_blocks"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+t); err != nil {
			return err
		}
	}

	for i, t := range snap.Tasks {
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("encode task %s: %w", t.ID, err)
		}
		deadline := ""
		if t.Deadline != nil {
			deadline = *t.Deadline
		}
		row := taskRow{
			ID:        t.ID,
			Pos:       i,
			Name:      t.Name,
			Priority:  t.Priority,
			Completed: boolToInt(t.Completed),
			Deadline:  deadline,
			JSON:      string(raw),
			UpdatedAt: nowMs,
		}
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO tasks(id, pos, name, priority, completed, deadline, json, updated_at_unixms)
			VALUES(:id, :pos, :name, :priority, :completed, :deadline, :json, :updated_at_unixms)`, row); err != nil {
			return err
		}
	}

	for i, b := range snap.TimeBlocks {
		raw, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("encode block %s: %w", b.ID, err)
		}
		row := blockRow{
			ID:        b.ID,
			Pos:       i,
			Type:      string(b.Type),
			TaskID:    b.TaskRef(),
			StartMs:   b.StartTime.UTC().UnixMilli(),
			JSON:      string(raw),
			UpdatedAt: nowMs,
		}
		if b.EndTime != nil {
			row.EndMs = sql.NullInt64{Int64: b.EndTime.UTC().UnixMilli(), Valid: true}
		}
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO time_blocks(id, pos, type, task_id, start_unixms, end_unixms, json, updated_at_unixms)
			VALUES(:id, :pos, :type, :task_id, :start_unixms, :end_unixms, :json, :updated_at_unixms)`, row); err != nil {
			return err
		}
	}
	return nil
}

func sqliteStateHasAnyRows(ctx context.Context, db *sqlx.DB) (bool, error) {
	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(1) FROM state_meta`); err != nil {
		return false, err
	}
	return n > 0, nil
}

func loadStateFromSQLite(ctx context.Context, db *sqlx.DB) (model.Snapshot, error) {
	snap := model.Snapshot{
		Tasks:      []model.Task{},
		TimeBlocks: []model.TimeBlock{},
	}

	var meta []metaRow
	if err := db.SelectContext(ctx, &meta, `SELECT k, v, updated_at_unixms FROM state_meta`); err != nil {
		return snap, err
	}
	for _, m := range meta {
		switch m.K {
		case metaCurrentTaskID:
			if m.V != "" {
				v := m.V
				snap.CurrentTaskID = &v
			}
		case metaFocusTime:
			f, err := strconv.ParseFloat(m.V, 64)
			if err != nil {
				return snap, fmt.Errorf("state_meta %s: %w", m.K, err)
			}
			snap.FocusMinutes = f
		case metaIsPaused:
			snap.Paused = m.V == "true"
		case metaDayStarted:
			snap.DayStarted = m.V == "true"
		}
	}

	var tasks []taskRow
	if err := db.SelectContext(ctx, &tasks, `SELECT id, pos, name, priority, completed, deadline, json, updated_at_unixms FROM tasks ORDER BY pos ASC`); err != nil {
		return snap, err
	}
	for _, r := range tasks {
		var t model.Task
		if err := json.Unmarshal([]byte(r.JSON), &t); err != nil {
			return snap, fmt.Errorf("decode task %s: %w", r.ID, err)
		}
		if t.Tags == nil {
			t.Tags = []string{}
		}
		snap.Tasks = append(snap.Tasks, t)
	}

	var blocks []blockRow
	if err := db.SelectContext(ctx, &blocks, `SELECT id, pos, type, task_id, start_unixms, end_unixms, json, updated_at_unixms FROM time_blocks ORDER BY pos ASC`); err != nil {
		return snap, err
	}
	for _, r := range blocks {
		var b model.TimeBlock
		if err := json.Unmarshal([]byte(r.JSON), &b); err != nil {
			return snap, fmt.Errorf("decode block %s: %w", r.ID, err)
		}
		snap.TimeBlocks = append(snap.TimeBlocks, b)
	}
	return snap, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
