package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"lobster-cli/internal/ids"
	"lobster-cli/internal/model"
)

type eventRow struct {
	Seq         int64  `db:"seq"`
	EventID     string `db:"event_id"`
	Type        string `db:"type"`
	EntityID    string `db:"entity_id"`
	IssuedAtMs  int64  `db:"issued_at_unixms"`
	PayloadJSON string `db:"payload_json"`
	CreatedAtMs int64  `db:"created_at_unixms"`
}

func (r eventRow) toEvent() model.Event {
	ev := model.Event{
		ID:       r.EventID,
		TS:       time.UnixMilli(r.IssuedAtMs).UTC(),
		Type:     r.Type,
		EntityID: r.EntityID,
	}
	if strings.TrimSpace(r.PayloadJSON) != "" && r.PayloadJSON != "null" {
		var payload any
		if err := json.Unmarshal([]byte(r.PayloadJSON), &payload); err == nil {
			ev.Payload = payload
		}
	}
	return ev
}

// AppendEvents writes events to the append-only log in order. Missing ids and timestamps are filled in.
func (s Store) AppendEvents(ctx context.Context, evs []model.Event) error {
	if len(evs) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		return insertEvents(ctx, tx, evs)
	})
}

func insertEvents(ctx context.Context, tx *sqlx.Tx, evs []model.Event) error {
	nowMs := time.Now().UTC().UnixMilli()
	for _, ev := range evs {
		if strings.TrimSpace(ev.Type) == "" {
			return fmt.Errorf("append event: missing type")
		}
		if ev.ID == "" {
			ev.ID = ids.Event()
		}
		issued := nowMs
		if !ev.TS.IsZero() {
			issued = ev.TS.UTC().UnixMilli()
		}
		payload, err := json.Marshal(ev.Payload)
		if err != nil {
			return fmt.Errorf("encode %s payload: %w", ev.Type, err)
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
	return nil
}

// AppendEvent is a convenience wrapper for a single event.
func (s Store) AppendEvent(ctx context.Context, typ, entityID string, payload any) error {
	return s.AppendEvents(ctx, []model.Event{{Type: typ, EntityID: entityID, Payload: payload}})
}

// ReadEvents returns events oldest-first. limit <= 0 means all.
func (s Store) ReadEvents(ctx context.Context, limit int) ([]model.Event, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	q := `SELECT seq, event_id, type, entity_id, issued_at_unixms, payload_json, created_at_unixms FROM events ORDER BY seq ASC`
	var rows []eventRow
	if limit > 0 {
		err = db.SelectContext(ctx, &rows, q+` LIMIT ?`, limit)
	} else {
		err = db.SelectContext(ctx, &rows, q)
	}
	if err != nil {
		return nil, err
	}
	return rowsToEvents(rows), nil
}

// ReadEventsTail returns the last limit events, still oldest-first within the window.
func (s Store) ReadEventsTail(ctx context.Context, limit int) ([]model.Event, error) {
	if limit <= 0 {
		return s.ReadEvents(ctx, 0)
	}
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var rows []eventRow
	if err := db.SelectContext(ctx, &rows, `SELECT * FROM (
			SELECT seq, event_id, type, entity_id, issued_at_unixms, payload_json, created_at_unixms
			FROM events ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC`, limit); err != nil {
		return nil, err
	}
	return rowsToEvents(rows), nil
}

// ReadEventsForEntity returns events about one task or block, oldest-first.
func (s Store) ReadEventsForEntity(ctx context.Context, entityID string, limit int) ([]model.Event, error) {
	entityID = strings.TrimSpace(entityID)
	if entityID == "" {
		return []model.Event{}, nil
	}
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	q := `SELECT seq, event_id, type, entity_id, issued_at_unixms, payload_json, created_at_unixms FROM events WHERE entity_id = ? ORDER BY seq ASC`
	var rows []eventRow
	if limit > 0 {
		err = db.SelectContext(ctx, &rows, q+` LIMIT ?`, entityID, limit)
	} else {
		err = db.SelectContext(ctx, &rows, q, entityID)
	}
	if err != nil {
		return nil, err
	}
	return rowsToEvents(rows), nil
}

func rowsToEvents(rows []eventRow) []model.Event {
	out := make([]model.Event, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toEvent())
	}
	return out
}
