package publish

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"lobster-cli/internal/ledger"
	"lobster-cli/internal/model"
	"lobster-cli/internal/queue"
	"lobster-cli/internal/timesheet"
)

type RenderOptions struct {
	TimeLayout string
	// Now stamps the report and measures open blocks. Zero means time.Now().
	Now time.Time
}

// Daily is everything the end-of-day report shows for one calendar day.
type Daily struct {
	Day          string          `json:"day"`
	GeneratedAt  time.Time       `json:"generatedAt"`
	FocusMinutes float64         `json:"focusMinutes"`
	Completed    int             `json:"completed"`
	Total        int             `json:"total"`
	Distractions int             `json:"distractions"`
	Current      *model.Task     `json:"current,omitempty"`
	Paused       bool            `json:"paused"`
	DoneToday    []model.Task    `json:"doneToday"`
	Queue        []model.Task    `json:"queue"`
	Timesheet    timesheet.Sheet `json:"timesheet"`
}

// BuildDaily summarizes snap for day. Completed counts span the whole list, the
// same numbers the end-of-day prompt shows; DoneToday only holds tasks finished on day.
func BuildDaily(snap model.Snapshot, day time.Time, opt RenderOptions) Daily {
	now := opt.Now
	if now.IsZero() {
		now = time.Now()
	}
	d := Daily{
		Day:          day.Format(model.DateLayout),
		GeneratedAt:  now,
		FocusMinutes: snap.FocusMinutes,
		Paused:       snap.Paused,
		DoneToday:    []model.Task{},
		Queue:        []model.Task{},
		Timesheet:    timesheet.Build(day, snap.TimeBlocks, snap.Tasks, timesheet.Options{TimeLayout: opt.TimeLayout}),
	}

	dayStart := ledger.StartOfDay(day)
	dayEnd := dayStart.AddDate(0, 0, 1)
	for _, t := range snap.Tasks {
		d.Total++
		if t.Completed {
			d.Completed++
			if t.CompletedAt != nil && !t.CompletedAt.Before(dayStart) && t.CompletedAt.Before(dayEnd) {
				d.DoneToday = append(d.DoneToday, t)
			}
			continue
		}
		d.Queue = append(d.Queue, t)
		if snap.CurrentTaskID != nil && *snap.CurrentTaskID == t.ID {
			cur := t
			d.Current = &cur
		}
	}
	queue.Sort(d.Queue)

	for _, b := range ledger.New(snap.TimeBlocks).BlocksForDay(day) {
		if b.Type == model.BlockMarker && b.Reason == model.ReasonDistracted {
			d.Distractions++
		}
	}
	return d
}

// RenderDailyMarkdown renders the report as GitHub-flavored markdown.
func RenderDailyMarkdown(d Daily) string {
	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	writeLn("# Daily report: " + d.Day)
	writeLn("")

	writeLn("## Summary")
	writeLn("")
	writeLn("- " + SummaryLine(d.Completed, d.Total))
	writeLn("- Focus time: " + FormatMinutes(d.FocusMinutes))
	writeLn(fmt.Sprintf("- Work: %s, breaks: %s, total: %s",
		FormatMinutes(d.Timesheet.Totals.WorkMinutes),
		FormatMinutes(d.Timesheet.Totals.BreakMinutes),
		FormatMinutes(d.Timesheet.Totals.TotalMinutes)))
	if d.Distractions > 0 {
		writeLn("- Distractions: " + strconv.Itoa(d.Distractions))
	}
	if d.Current != nil {
		state := "tracking"
		if d.Paused {
			state = "paused"
		}
		writeLn(fmt.Sprintf("- Current: %s (%s, %s left)", d.Current.Name, state, FormatMinutes(d.Current.TimeRemaining)))
	}
	writeLn("- Generated: " + d.GeneratedAt.Format(time.RFC3339))

	if len(d.DoneToday) > 0 {
		writeLn("")
		writeLn("## Completed")
		writeLn("")
		for _, t := range d.DoneToday {
			writeLn("- [x] " + t.Name + taskSuffix(t, false))
		}
	}

	if len(d.Queue) > 0 {
		writeLn("")
		writeLn("## Queue")
		writeLn("")
		for i, t := range d.Queue {
			writeLn(fmt.Sprintf("%d. %s%s", i+1, t.Name, taskSuffix(t, true)))
		}
	}

	writeLn("")
	writeLn("## Timesheet")
	writeLn("")
	if len(d.Timesheet.Rows) == 0 {
		writeLn("No time recorded.")
		return buf.String()
	}
	writeLn("| Start | End | Minutes | Activity | Status |")
	writeLn("|---|---|---:|---|---|")
	for _, r := range d.Timesheet.Rows {
		activity := r.Activity
		if r.Notes != "" {
			activity += " (" + r.Notes + ")"
		}
		writeLn("| " + strings.Join([]string{
			cell(r.Start), cell(r.End), cell(r.Duration), cell(activity), cell(r.Status),
		}, " | ") + " |")
	}
	return buf.String()
}

func taskSuffix(t model.Task, pending bool) string {
	parts := []string{"P" + strconv.Itoa(t.Priority)}
	if pending {
		parts = append(parts, FormatMinutes(t.TimeRemaining)+" left")
		if t.Progress > 0 {
			parts = append(parts, strconv.Itoa(t.Progress)+"%")
		}
	} else {
		parts = append(parts, FormatMinutes(float64(t.Duration))+" planned")
	}
	if t.HasDeadline() {
		parts = append(parts, "due "+*t.Deadline)
	}
	if t.RescheduleCount > 0 {
		parts = append(parts, "rescheduled "+strconv.Itoa(t.RescheduleCount)+"x")
	}
	s := " (" + strings.Join(parts, ", ") + ")"
	for _, tag := range t.Tags {
		s += " @" + tag
	}
	return s
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// SummaryLine is the one-line completion summary shown when the day ends.
func SummaryLine(completed, total int) string {
	if total > 0 && completed == total {
		return "All tasks completed. Great work today!"
	}
	return fmt.Sprintf("You completed %d of %d tasks today.", completed, total)
}

// FormatMinutes renders minutes as "1h 5m" or "25m".
func FormatMinutes(m float64) string {
	if m < 0 {
		m = 0
	}
	total := int(math.Round(m))
	h, rem := total/60, total%60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, rem)
	}
	return fmt.Sprintf("%dm", rem)
}
