package ledger

import (
	"errors"
	"testing"
	"time"

	"lobster-cli/internal/model"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)

func TestOpenTaskBlock_RejectsSecondOpen(t *testing.T) {
	t.Parallel()

	l := New(nil)
	id, err := l.OpenTaskBlock("task-a", t0)
	if err != nil || id == "" {
		t.Fatalf("open: id=%q err=%v", id, err)
	}
	if _, err := l.OpenTaskBlock("task-b", t0.Add(time.Minute)); !errors.Is(err, ErrTaskBlockOpen) {
		t.Fatalf("expected ErrTaskBlockOpen, got %v", err)
	}
	// A break is an independent track.
	if _, err := l.OpenBreakBlock("lunch", t0.Add(time.Minute)); err != nil {
		t.Fatalf("open break: %v", err)
	}
	if _, err := l.OpenBreakBlock("again", t0.Add(2*time.Minute)); !errors.Is(err, ErrBreakBlockOpen) {
		t.Fatalf("expected ErrBreakBlockOpen, got %v", err)
	}
	if task, brk := l.OpenCounts(); task != 1 || brk != 1 {
		t.Fatalf("expected one open block per track, got task=%d break=%d", task, brk)
	}
	b, _ := l.ActiveTask()
	if b.OriginalStartTime == nil || !b.OriginalStartTime.Equal(t0) {
		t.Fatalf("expected original start pinned at open, got %v", b.OriginalStartTime)
	}
}

func TestClose_IsIdempotent(t *testing.T) {
	t.Parallel()

	l := New(nil)
	if _, closed := l.CloseOpenTaskBlock("paused", t0); closed {
		t.Fatalf("expected no-op close on empty ledger")
	}
	_, _ = l.OpenTaskBlock("task-a", t0)
	b, closed := l.CloseOpenTaskBlock("paused", t0.Add(10*time.Minute))
	if !closed || b.Reason != "paused" || b.EndTime == nil {
		t.Fatalf("unexpected close result: %+v closed=%v", b, closed)
	}
	if _, closed := l.CloseOpenTaskBlock("switched", t0.Add(11*time.Minute)); closed {
		t.Fatalf("second close must be a no-op")
	}
	got := l.Blocks()[0]
	if got.Reason != "paused" || !got.EndTime.Equal(t0.Add(10*time.Minute)) {
		t.Fatalf("closed block was modified: %+v", got)
	}
}

func TestCloseBreak_KeepsReasonWhenEmpty(t *testing.T) {
	t.Parallel()

	l := New(nil)
	_, _ = l.OpenBreakBlock("meeting", t0)
	b, ok := l.CloseOpenBreakBlock("", t0.Add(30*time.Minute))
	if !ok || b.Reason != "meeting" {
		t.Fatalf("expected reason kept, got %+v", b)
	}
}

func TestTotalMinutes_CountsClosedTaskBlocksOnly(t *testing.T) {
	t.Parallel()

	l := New(nil)
	_, _ = l.OpenTaskBlock("task-a", t0)
	l.CloseOpenTaskBlock("paused", t0.Add(20*time.Minute))
	_, _ = l.OpenBreakBlock("coffee", t0.Add(20*time.Minute))
	l.CloseOpenBreakBlock("", t0.Add(25*time.Minute))
	_, _ = l.OpenTaskBlock("task-a", t0.Add(25*time.Minute))
	l.CloseOpenTaskBlock("switched", t0.Add(35*time.Minute))
	_, _ = l.OpenTaskBlock("task-b", t0.Add(35*time.Minute))
	_, _ = l.OpenTaskBlock("task-a", t0.Add(36*time.Minute))

	if got := l.TotalMinutes("task-a"); got != 30 {
		t.Fatalf("expected 30 minutes, got %v", got)
	}
	if got := l.TotalMinutes("task-b"); got != 0 {
		t.Fatalf("open blocks must not count, got %v", got)
	}
}

func TestBlocksForDay_FiltersAndSorts(t *testing.T) {
	t.Parallel()

	yesterday := t0.AddDate(0, 0, -1)
	end1 := yesterday.Add(time.Hour)
	end2 := t0.Add(2 * time.Hour)
	end3 := t0.Add(30 * time.Minute)
	l := New([]model.TimeBlock{
		{ID: "blk-old", Type: model.BlockTask, StartTime: yesterday, EndTime: &end1},
		{ID: "blk-late", Type: model.BlockTask, StartTime: t0.Add(time.Hour), EndTime: &end2},
		{ID: "blk-early", Type: model.BlockBreak, StartTime: t0, EndTime: &end3},
	})
	got := l.BlocksForDay(t0.Add(5 * time.Hour))
	if len(got) != 2 || got[0].ID != "blk-early" || got[1].ID != "blk-late" {
		t.Fatalf("unexpected blocks: %+v", got)
	}
}

func TestAttachNotes(t *testing.T) {
	t.Parallel()

	l := New(nil)
	id, _ := l.OpenBreakBlock("walk", t0)
	l.CloseOpenBreakBlock("", t0.Add(15*time.Minute))
	b, err := l.AttachNotes(id, "  cleared my head ")
	if err != nil || b.Notes != "cleared my head" {
		t.Fatalf("attach notes: %+v %v", b, err)
	}
	if _, err := l.AttachNotes("blk-missing", "x"); !model.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	taskID, _ := l.OpenTaskBlock("task-a", t0)
	if _, err := l.AttachNotes(taskID, "x"); !model.IsValidation(err) {
		t.Fatalf("expected validation error on task block, got %v", err)
	}
}

func TestReconcile_ClosesOrphans(t *testing.T) {
	t.Parallel()

	a, b := "task-a", "task-b"
	l := New([]model.TimeBlock{
		{ID: "blk-1", Type: model.BlockTask, TaskID: &b, StartTime: t0},
		{ID: "blk-2", Type: model.BlockTask, TaskID: &a, StartTime: t0.Add(time.Minute)},
		{ID: "blk-3", Type: model.BlockBreak, StartTime: t0.Add(2 * time.Minute)},
		{ID: "blk-4", Type: model.BlockMarker, StartTime: t0.Add(3 * time.Minute), Reason: "distracted"},
	})
	closed := l.Reconcile("task-a", false, model.ReasonOrphanedCleanup, t0.Add(time.Hour))
	if len(closed) != 2 {
		t.Fatalf("expected 2 closed blocks, got %v", closed)
	}
	if task, brk := l.OpenCounts(); task != 1 || brk != 0 {
		t.Fatalf("unexpected open counts task=%d break=%d", task, brk)
	}
	active, _ := l.ActiveTask()
	if active.ID != "blk-2" {
		t.Fatalf("expected current task block kept open, got %s", active.ID)
	}
	for _, blk := range l.Blocks() {
		switch blk.ID {
		case "blk-1", "blk-3":
			if blk.Reason != model.ReasonOrphanedCleanup {
				t.Fatalf("expected orphan reason on %s, got %q", blk.ID, blk.Reason)
			}
		case "blk-4":
			if blk.EndTime == nil || !blk.EndTime.Equal(blk.StartTime) || blk.Reason != "distracted" {
				t.Fatalf("marker should be closed at its start: %+v", blk)
			}
		}
	}
}

func TestReconcile_KeepsExistingReason(t *testing.T) {
	t.Parallel()

	l := New([]model.TimeBlock{
		{ID: "blk-1", Type: model.BlockBreak, StartTime: t0, Reason: "lunch"},
	})
	closed := l.Reconcile("", false, model.ReasonOrphanedCleanup, t0.Add(time.Hour))
	if len(closed) != 1 {
		t.Fatalf("expected break closed, got %v", closed)
	}
	b := l.Blocks()[0]
	if b.Open() || b.Reason != "lunch" {
		t.Fatalf("expected closed break keeping its reason, got %+v", b)
	}
}
