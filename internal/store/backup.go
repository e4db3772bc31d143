package store

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lobster-cli/internal/model"
)

const (
	backupStateFileName  = "state.json"
	backupEventsFileName = "events.jsonl"
)

// Backup writes the snapshot as state.json and the event log as events.jsonl into destDir.
func (s Store) Backup(ctx context.Context, destDir string) error {
	destDir = strings.TrimSpace(destDir)
	if destDir == "" {
		return errors.New("backup: missing destination")
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}
	snap, err := s.Load(ctx)
	if err != nil {
		return err
	}
	evs, err := s.ReadEvents(ctx, 0)
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	if err := atomicWriteFile(destDir, ".state-*.tmp", filepath.Join(destDir, backupStateFileName), append(b, '\n'), 0o644); err != nil {
		return err
	}
	return WriteEventsJSONL(filepath.Join(destDir, backupEventsFileName), evs)
}

// Restore replaces the state and event log with a backup written by Backup.
func (s Store) Restore(ctx context.Context, srcDir string) error {
	b, err := os.ReadFile(filepath.Join(srcDir, backupStateFileName))
	if err != nil {
		return err
	}
	var snap model.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return fmt.Errorf("parse %s: %w", backupStateFileName, err)
	}
	evs, err := ReadEventsJSONL(filepath.Join(srcDir, backupEventsFileName))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := s.Save(ctx, snap); err != nil {
		return err
	}
	return s.ReplaceEvents(ctx, evs)
}

// ReplaceEvents swaps the whole event log. Used by restore, not by day-to-day mutations.
func (s Store) ReplaceEvents(ctx context.Context, evs []model.Event) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM events;`); err != nil {
		return err
	}
	nowMs := time.Now().UTC().UnixMilli()
	for _, ev := range evs {
		if strings.TrimSpace(ev.ID) == "" {
			return errors.New("restore: event has empty id")
		}
		if strings.TrimSpace(ev.Type) == "" {
			return errors.New("restore: event has empty type")
		}
		payload, err := json.Marshal(ev.Payload)
		if err != nil {
			return err
		}
		issued := ev.TS.UTC().UnixMilli()
		if ev.TS.IsZero() {
			issued = nowMs
		}
		row := eventRow{
			EventID:     ev.ID,
			Type:        ev.Type,
			EntityID:    ev.EntityID,
			IssuedAtMs:  issued,
			PayloadJSON: string(payload),
			CreatedAtMs: nowMs,
		}
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO events(event_id, type, entity_id, issued_at_unixms, payload_json, created_at_unixms)
			VALUES(:event_id, :type, :entity_id, :issued_at_unixms, :payload_json, :created_at_unixms)`, row); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// WriteEventsJSONL writes one event per line.
func WriteEventsJSONL(path string, evs []model.Event) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	enc := json.NewEncoder(bw)
	for _, ev := range evs {
		if err := enc.Encode(ev); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return f.Close()
}

func ReadEventsJSONL(path string) ([]model.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []model.Event
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var ev model.Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			return nil, fmt.Errorf("parse events jsonl: %w", err)
		}
		out = append(out, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Event{}
	}
	return out, nil
}
