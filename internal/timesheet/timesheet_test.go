package timesheet

import (
	"strings"
	"testing"
	"time"

	"lobster-cli/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(h, m int) time.Time { return time.Date(2026, 3, 2, h, m, 0, 0, time.Local) }
func tp(t time.Time) *time.Time { return &t }
func sp(s string) *string       { return &s }

func TestBuild_RowsAndCSV(t *testing.T) {
	t.Parallel()

	tasks := []model.Task{{ID: "a", Name: "Plan, then build"}}
	blocks := []model.TimeBlock{
		{ID: "b3", Type: model.BlockTask, TaskID: sp("a"), StartTime: at(10, 0)},
		{ID: "b1", Type: model.BlockTask, TaskID: sp("a"), StartTime: at(9, 0), EndTime: tp(at(9, 25).Add(40 * time.Second)), Reason: "paused"},
		{ID: "m", Type: model.BlockMarker, StartTime: at(9, 0), EndTime: tp(at(9, 0)), Reason: "Day Started"},
		{ID: "b2", Type: model.BlockBreak, StartTime: at(9, 26), EndTime: tp(at(9, 40)), Reason: `coffee, "quick"`},
		{ID: "b0", Type: model.BlockTask, TaskID: sp("gone"), StartTime: at(8, 0), EndTime: tp(at(8, 30))},
		{ID: "old", Type: model.BlockTask, TaskID: sp("a"), StartTime: at(9, 0).AddDate(0, 0, -1), EndTime: tp(at(9, 30).AddDate(0, 0, -1))},
	}

	sh := Build(at(18, 0), blocks, tasks, Options{})
	require.Len(t, sh.Rows, 4)
	assert.Equal(t, "2026-03-02", sh.Day)

	want := strings.Join([]string{
		Header,
		`08:00,08:30,30,"Unknown","Completed"`,
		`09:00,09:25,26,"Plan; then build","paused"`,
		`09:26,09:40,14,"Break: coffee; ""quick""","coffee; ""quick"""`,
		`10:00,Active,Ongoing,"Plan; then build","Active"`,
	}, "\n") + "\n"
	assert.Equal(t, want, sh.CSV())

	assert.Equal(t, 56.0, sh.Totals.WorkMinutes)
	assert.Equal(t, 14.0, sh.Totals.BreakMinutes)
	assert.Equal(t, 70.0, sh.Totals.TotalMinutes)
}

func TestBuild_EmptyDayHasHeaderOnly(t *testing.T) {
	t.Parallel()

	sh := Build(at(12, 0), nil, nil, Options{TimeLayout: "15:04:05"})
	assert.Empty(t, sh.Rows)
	assert.Equal(t, Header+"\n", sh.CSV())
}
