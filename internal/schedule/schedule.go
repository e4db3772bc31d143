package schedule

import (
	"math"
	"sort"
	"time"

	"lobster-cli/internal/ledger"
	"lobster-cli/internal/model"
	"lobster-cli/internal/queue"
)

type Kind string

const (
	KindCompleted Kind = "completed"
	KindBreak     Kind = "break"
	KindCurrent   Kind = "current"
	KindFuture    Kind = "future"
)

type Entry struct {
	Start           time.Time `json:"start"`
	DurationMinutes float64   `json:"durationMinutes"`
	Label           string    `json:"label"`
	Kind            Kind      `json:"kind"`
	TaskID          string    `json:"taskId,omitempty"`
	BlockID         string    `json:"blockId,omitempty"`
	Priority        int       `json:"priority,omitempty"`
	Reason          string    `json:"reason,omitempty"`
}

func (e Entry) End() time.Time {
	return e.Start.Add(time.Duration(e.DurationMinutes * float64(time.Minute)))
}

type Input struct {
	Tasks         []model.Task
	CurrentTaskID string
	Blocks        []model.TimeBlock
	Paused        bool
	Now           time.Time
}

func FromSnapshot(s model.Snapshot, now time.Time) Input {
	in := Input{
		Tasks:  s.Tasks,
		Blocks: s.TimeBlocks,
		Paused: s.Paused,
		Now:    now,
	}
	if s.CurrentTaskID != nil {
		in.CurrentTaskID = *s.CurrentTaskID
	}
	return in
}

// Project lays out today's schedule: closed blocks from today, the open block,
// then (unless paused) the remaining queue back to back. The tracked task
// occupies its full estimate from where it started; queued tasks follow from
// that slot's end or now, whichever is later, and are dropped when they would
// run past midnight.
func Project(in Input) []Entry {
	byID := make(map[string]model.Task, len(in.Tasks))
	for _, t := range in.Tasks {
		byID[t.ID] = t
	}
	dayStart := ledger.StartOfDay(in.Now)
	dayEnd := dayStart.Add(24 * time.Hour)

	out := make([]Entry, 0)
	var activeTask *model.TimeBlock
	for i := range in.Blocks {
		b := in.Blocks[i]
		if b.Type == model.BlockMarker {
			continue
		}
		if b.Open() {
			switch b.Type {
			case model.BlockBreak:
				out = append(out, Entry{
					Start:           b.StartTime,
					DurationMinutes: math.Max(1, math.Round(b.Minutes(in.Now))),
					Label:           BreakLabel(b.Reason),
					Kind:            KindBreak,
					BlockID:         b.ID,
					Reason:          b.Reason,
				})
			case model.BlockTask:
				activeTask = &in.Blocks[i]
			}
			continue
		}
		st := b.StartTime.In(in.Now.Location())
		if st.Before(dayStart) || !st.Before(dayEnd) {
			continue
		}
		mins := math.Round(b.Minutes(in.Now))
		if mins < 1 {
			continue
		}
		e := Entry{
			Start:           b.StartTime,
			DurationMinutes: mins,
			BlockID:         b.ID,
			Reason:          b.Reason,
		}
		if b.Type == model.BlockBreak {
			e.Kind = KindBreak
			e.Label = BreakLabel(b.Reason)
		} else {
			e.Kind = KindCompleted
			e.TaskID = b.TaskRef()
			e.Label = TaskLabel(byID, b.TaskRef())
			e.Priority = byID[b.TaskRef()].Priority
		}
		out = append(out, e)
	}

	next := in.Now
	skip := ""
	if activeTask != nil {
		skip = activeTask.TaskRef()
		t, ok := byID[activeTask.TaskRef()]
		if ok {
			cur := Entry{
				Start:           activeTask.Anchor(),
				DurationMinutes: float64(t.Duration),
				Label:           t.Name,
				Kind:            KindCurrent,
				TaskID:          t.ID,
				BlockID:         activeTask.ID,
				Priority:        t.Priority,
			}
			out = append(out, cur)
			if end := cur.End(); end.After(next) {
				next = end
			}
		}
	}

	if !in.Paused {
		pending := make([]model.Task, 0, len(in.Tasks))
		for _, t := range in.Tasks {
			if t.Completed || t.ID == skip {
				continue
			}
			pending = append(pending, t)
		}
		queue.Sort(pending)
		if skip == "" && in.CurrentTaskID != "" {
			pending = selectedFirst(pending, in.CurrentTaskID)
		}
		for _, t := range pending {
			if t.TimeRemaining <= 0 {
				continue
			}
			slot := time.Duration(t.TimeRemaining * float64(time.Minute))
			if next.Add(slot).After(dayEnd) {
				continue
			}
			out = append(out, Entry{
				Start:           next,
				DurationMinutes: t.TimeRemaining,
				Label:           t.Name,
				Kind:            KindFuture,
				TaskID:          t.ID,
				Priority:        t.Priority,
			})
			next = next.Add(slot)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// selectedFirst moves the selected-but-untracked task to the front: it runs next.
func selectedFirst(tasks []model.Task, id string) []model.Task {
	for i, t := range tasks {
		if t.ID != id {
			continue
		}
		out := make([]model.Task, 0, len(tasks))
		out = append(out, t)
		out = append(out, tasks[:i]...)
		return append(out, tasks[i+1:]...)
	}
	return tasks
}

func BreakLabel(reason string) string {
	if reason == "" {
		return "Break"
	}
	return "Break: " + reason
}

func TaskLabel(byID map[string]model.Task, id string) string {
	if t, ok := byID[id]; ok {
		return t.Name
	}
	return "Unknown"
}
