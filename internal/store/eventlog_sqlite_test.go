package store

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"lobster-cli/internal/model"
)

func TestSQLiteEventLog_AppendAndRead(t *testing.T) {
	ctx := context.Background()
	s := Store{Dir: t.TempDir()}

	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	evs := []model.Event{
		{TS: ts, Type: "task.add", EntityID: "task-a", Payload: map[string]any{"name": "A"}},
		{TS: ts.Add(time.Minute), Type: "track.start", EntityID: "task-a"},
		{TS: ts.Add(2 * time.Minute), Type: "task.add", EntityID: "task-b"},
	}
	if err := s.AppendEvents(ctx, evs); err != nil {
		t.Fatalf("append: %v", err)
	}

	all, err := s.ReadEvents(ctx, 0)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 events, got %d", len(all))
	}
	if all[0].Type != "task.add" || all[2].EntityID != "task-b" {
		t.Fatalf("unexpected order: %+v", all)
	}
	if all[0].ID == "" || all[0].ID == all[1].ID {
		t.Fatalf("expected distinct generated ids, got %q %q", all[0].ID, all[1].ID)
	}
	if !all[1].TS.Equal(ts.Add(time.Minute)) {
		t.Fatalf("expected issued time kept, got %v", all[1].TS)
	}
	payload, ok := all[0].Payload.(map[string]any)
	if !ok || payload["name"] != "A" {
		t.Fatalf("unexpected payload: %#v", all[0].Payload)
	}
	if all[1].Payload != nil {
		t.Fatalf("expected nil payload, got %#v", all[1].Payload)
	}

	tail, err := s.ReadEventsTail(ctx, 2)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(tail) != 2 || tail[0].Type != "track.start" || tail[1].EntityID != "task-b" {
		t.Fatalf("unexpected tail: %+v", tail)
	}

	forA, err := s.ReadEventsForEntity(ctx, "task-a", 0)
	if err != nil {
		t.Fatalf("for entity: %v", err)
	}
	if len(forA) != 2 {
		t.Fatalf("expected 2 events for task-a, got %d", len(forA))
	}
}

func TestSQLiteEventLog_RejectsMissingType(t *testing.T) {
	s := Store{Dir: t.TempDir()}
	if err := s.AppendEvent(context.Background(), "", "task-a", nil); err == nil {
		t.Fatalf("expected error for missing type")
	}
}

func TestBackupRestore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s1 := Store{Dir: t.TempDir()}
	snap := model.Snapshot{
		Tasks:        []model.Task{{ID: "task-a", Name: "A", Duration: 30, TimeRemaining: 30, Priority: 3, Tags: []string{}}},
		FocusMinutes: 12,
	}
	if err := s1.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s1.AppendEvent(ctx, "task.add", "task-a", map[string]any{"name": "A"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	backup := filepath.Join(t.TempDir(), "bk")
	if err := s1.Backup(ctx, backup); err != nil {
		t.Fatalf("backup: %v", err)
	}

	s2 := Store{Dir: t.TempDir()}
	if err := s2.Restore(ctx, backup); err != nil {
		t.Fatalf("restore: %v", err)
	}
	got, err := s2.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Tasks) != 1 || got.Tasks[0].ID != "task-a" || got.FocusMinutes != 12 {
		t.Fatalf("unexpected restored state: %#v", got)
	}
	evs, err := s2.ReadEvents(ctx, 0)
	if err != nil {
		t.Fatalf("read events: %v", err)
	}
	if len(evs) != 1 || evs[0].Type != "task.add" {
		t.Fatalf("unexpected restored events: %+v", evs)
	}
}

func TestTUIState_SaveLoad_RoundTrip(t *testing.T) {
	s := Store{Dir: t.TempDir()}

	st0, err := s.LoadTUIState()
	if err != nil {
		t.Fatalf("LoadTUIState: %v", err)
	}
	if st0 == nil || st0.Version != 1 {
		t.Fatalf("expected default Version=1; got %#v", st0)
	}

	want := &TUIState{Version: 1, View: "schedule", SelectedTaskID: "task-a", ShowCompleted: true}
	if err := s.SaveTUIState(want); err != nil {
		t.Fatalf("SaveTUIState: %v", err)
	}
	got, err := s.LoadTUIState()
	if err != nil {
		t.Fatalf("LoadTUIState (after save): %v", err)
	}
	if *got != *want {
		t.Fatalf("roundtrip mismatch:\nwant: %#v\ngot:  %#v", want, got)
	}
}

func TestDebouncedSaver_CoalescesAndFlushes(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncedSaver(DebouncedSaverOpts{
		Debounce: time.Hour,
		Save: func(ctx context.Context) error {
			calls.Add(1)
			return nil
		},
	})
	for i := 0; i < 5; i++ {
		d.Notify()
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no save before the debounce fires")
	}
	if err := d.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 save, got %d", got)
	}
	if err := d.Flush(context.Background()); err != nil {
		t.Fatalf("second flush: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected flush without pending changes to be a no-op, got %d saves", got)
	}
}

func TestDebouncedSaver_FiresAfterQuietPeriod(t *testing.T) {
	done := make(chan struct{}, 1)
	d := NewDebouncedSaver(DebouncedSaverOpts{
		Debounce: 10 * time.Millisecond,
		Save: func(ctx context.Context) error {
			done <- struct{}{}
			return nil
		},
	})
	d.Notify()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected debounced save to fire")
	}
}

func TestCommit_StateAndEventsTogether(t *testing.T) {
	ctx := context.Background()
	s := Store{Dir: t.TempDir()}

	id := "task-a"
	snap := model.Snapshot{
		Tasks:         []model.Task{{ID: id, Name: "A", Duration: 30, TimeRemaining: 30, Priority: 3, Tags: []string{}}},
		CurrentTaskID: &id,
		DayStarted:    true,
	}
	if err := s.Commit(ctx, snap, []model.Event{{Type: "day.start"}}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !got.DayStarted || len(got.Tasks) != 1 {
		t.Fatalf("expected state saved, got %+v", got)
	}
	evs, err := s.ReadEvents(ctx, 0)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(evs) != 1 || evs[0].Type != "day.start" {
		t.Fatalf("expected one event, got %+v", evs)
	}

	// A bad event rolls back the state write as well.
	next := snap
	next.DayStarted = false
	if err := s.Commit(ctx, next, []model.Event{{Type: "day.end"}, {Type: ""}}); err == nil {
		t.Fatalf("expected commit error for event without type")
	}
	got, err = s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !got.DayStarted {
		t.Fatalf("expected state unchanged after failed commit")
	}
	evs, _ = s.ReadEvents(ctx, 0)
	if len(evs) != 1 {
		t.Fatalf("expected no events appended after failed commit, got %d", len(evs))
	}
}
