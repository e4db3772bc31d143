package schedule

import (
	"testing"
	"time"

	"lobster-cli/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(h, m int) time.Time {
	return time.Date(2026, 3, 2, h, m, 0, 0, time.Local)
}

func tp(t time.Time) *time.Time { return &t }
func sp(s string) *string       { return &s }

func TestProject_PastActiveAndFuture(t *testing.T) {
	t.Parallel()

	tasks := []model.Task{
		{ID: "a", Name: "A", Duration: 30, Completed: true, Priority: 3},
		{ID: "b", Name: "B", Duration: 60, TimeRemaining: 45, Priority: 4},
		{ID: "c", Name: "C", Duration: 30, TimeRemaining: 30, Priority: 5},
		{ID: "d", Name: "D", Duration: 20, TimeRemaining: 20, Priority: 3},
	}
	blocks := []model.TimeBlock{
		{ID: "blk-brk", Type: model.BlockBreak, StartTime: at(9, 30), EndTime: tp(at(9, 40)), Reason: "coffee"},
		{ID: "blk-a", Type: model.BlockTask, TaskID: sp("a"), StartTime: at(9, 0), EndTime: tp(at(9, 30)), Reason: "completed"},
		{ID: "blk-tiny", Type: model.BlockTask, TaskID: sp("b"), StartTime: at(9, 40), EndTime: tp(at(9, 40).Add(20 * time.Second))},
		{ID: "blk-old", Type: model.BlockTask, TaskID: sp("a"), StartTime: at(9, 0).AddDate(0, 0, -1), EndTime: tp(at(10, 0).AddDate(0, 0, -1))},
		{ID: "blk-mark", Type: model.BlockMarker, StartTime: at(9, 41), EndTime: tp(at(9, 41)), Reason: "distracted"},
		{ID: "blk-b", Type: model.BlockTask, TaskID: sp("b"), StartTime: at(9, 50), OriginalStartTime: tp(at(9, 45))},
	}

	got := Project(Input{Tasks: tasks, CurrentTaskID: "b", Blocks: blocks, Now: at(10, 0)})
	require.Len(t, got, 5)

	want := []struct {
		kind  Kind
		label string
		start time.Time
		mins  float64
	}{
		{KindCompleted, "A", at(9, 0), 30},
		{KindBreak, "Break: coffee", at(9, 30), 10},
		{KindCurrent, "B", at(9, 45), 60},
		{KindFuture, "C", at(10, 45), 30},
		{KindFuture, "D", at(11, 15), 20},
	}
	for i, w := range want {
		assert.Equal(t, w.kind, got[i].Kind, "entry %d", i)
		assert.Equal(t, w.label, got[i].Label, "entry %d", i)
		assert.True(t, w.start.Equal(got[i].Start), "entry %d: start %v want %v", i, got[i].Start, w.start)
		assert.InDelta(t, w.mins, got[i].DurationMinutes, 1e-9, "entry %d", i)
	}
}

func TestProject_PausedShowsElapsedBreakAndNoQueue(t *testing.T) {
	t.Parallel()

	tasks := []model.Task{
		{ID: "a", Name: "A", Duration: 30, TimeRemaining: 10, Priority: 3},
		{ID: "b", Name: "B", Duration: 30, TimeRemaining: 30, Priority: 3},
	}
	blocks := []model.TimeBlock{
		{ID: "blk-a", Type: model.BlockTask, TaskID: sp("a"), StartTime: at(9, 0), EndTime: tp(at(9, 20)), Reason: "paused"},
		{ID: "blk-brk", Type: model.BlockBreak, StartTime: at(9, 20), Reason: "meeting"},
	}

	got := Project(Input{Tasks: tasks, CurrentTaskID: "a", Blocks: blocks, Paused: true, Now: at(9, 20).Add(30 * time.Second)})
	require.Len(t, got, 2)
	assert.Equal(t, KindCompleted, got[0].Kind)
	assert.Equal(t, KindBreak, got[1].Kind)
	assert.Equal(t, 1.0, got[1].DurationMinutes, "an open break is at least one minute")
}

func TestProject_OmitsTasksPastMidnight(t *testing.T) {
	t.Parallel()

	tasks := []model.Task{
		{ID: "long", Name: "Long", Duration: 90, TimeRemaining: 90, Priority: 5},
		{ID: "short", Name: "Short", Duration: 30, TimeRemaining: 30, Priority: 3},
		{ID: "done", Name: "Done", Duration: 30, Completed: true, Priority: 5},
	}
	got := Project(Input{Tasks: tasks, Now: at(23, 0)})
	require.Len(t, got, 1)
	assert.Equal(t, "short", got[0].TaskID)
	assert.True(t, got[0].Start.Equal(at(23, 0)))
}

func TestProject_SelectedTaskRunsNextWhenIdle(t *testing.T) {
	t.Parallel()

	tasks := []model.Task{
		{ID: "hi", Name: "High", Duration: 10, TimeRemaining: 10, Priority: 5},
		{ID: "lo", Name: "Low", Duration: 15, TimeRemaining: 15, Priority: 1},
	}
	got := Project(Input{Tasks: tasks, CurrentTaskID: "lo", Now: at(14, 0)})
	require.Len(t, got, 2)
	assert.Equal(t, "lo", got[0].TaskID)
	assert.Equal(t, "hi", got[1].TaskID)
	assert.True(t, got[1].Start.Equal(at(14, 15)))
}

func TestProject_OverrunTaskPushesQueueFromNow(t *testing.T) {
	t.Parallel()

	tasks := []model.Task{
		{ID: "a", Name: "A", Duration: 15, TimeRemaining: 0.5, Priority: 3},
		{ID: "b", Name: "B", Duration: 10, TimeRemaining: 10, Priority: 3},
	}
	blocks := []model.TimeBlock{
		{ID: "blk-a", Type: model.BlockTask, TaskID: sp("a"), StartTime: at(8, 0), OriginalStartTime: tp(at(8, 0))},
	}
	got := Project(Input{Tasks: tasks, CurrentTaskID: "a", Blocks: blocks, Now: at(9, 0)})
	require.Len(t, got, 2)
	assert.Equal(t, KindCurrent, got[0].Kind)
	assert.True(t, got[1].Start.Equal(at(9, 0)), "queued work never starts in the past")
}

func TestFromSnapshot(t *testing.T) {
	t.Parallel()

	id := "a"
	in := FromSnapshot(model.Snapshot{CurrentTaskID: &id, Paused: true}, at(8, 0))
	assert.Equal(t, "a", in.CurrentTaskID)
	assert.True(t, in.Paused)
}
