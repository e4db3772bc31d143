package engine

import (
	"math"
	"strings"
	"time"

	"lobster-cli/internal/model"
	"lobster-cli/internal/queue"

	"go.uber.org/zap"
)

const defaultBreakReason = "break"

// AddTask validates and appends a task. When the day is running and nothing
// is current, the queue head is picked up and tracked.
func (e *Engine) AddTask(spec queue.Spec) (model.Task, Result, error) {
	now := e.clock.Now()
	t, err := e.tasks.Add(spec, now)
	if err != nil {
		return model.Task{}, e.finish(Result{}), err
	}
	var res Result
	e.emit(&res, "task.add", t.ID, map[string]any{"task": t})
	e.autoStart(&res, now)
	return t, e.finish(res), nil
}

// ImportTasks appends tasks parsed from text. An empty batch is rejected.
func (e *Engine) ImportTasks(parsed []model.Task) ([]model.Task, Result, error) {
	if len(parsed) == 0 {
		return nil, e.finish(Result{}), model.ValidationError{Field: "import", Reason: "no tasks found", Err: model.ErrNoTasksParsed}
	}
	now := e.clock.Now()
	added := e.tasks.Import(parsed, now)
	var res Result
	taskIDs := make([]string, 0, len(added))
	for _, t := range added {
		taskIDs = append(taskIDs, t.ID)
	}
	e.emit(&res, "tasks.import", "", map[string]any{"count": len(added), "taskIds": taskIDs})
	e.autoStart(&res, now)
	return added, e.finish(res), nil
}

func (e *Engine) UpdateTask(id string, p queue.Patch) (model.Task, Result, error) {
	t, err := e.tasks.Update(id, p)
	if err != nil {
		return model.Task{}, e.finish(Result{}), err
	}
	var res Result
	e.emit(&res, "task.update", t.ID, map[string]any{"task": t})
	return t, e.finish(res), nil
}

// RemoveTask deletes a task. Removing the current task closes its work block
// and advances the queue the way Complete does.
func (e *Engine) RemoveTask(id string) (model.Task, Result, error) {
	now := e.clock.Now()
	if _, ok := e.tasks.Get(id); !ok {
		return model.Task{}, e.finish(Result{}), model.NotFoundError{Kind: "task", ID: id}
	}
	wasCurrent := e.tasks.CurrentID() == id
	if wasCurrent {
		e.ledger.CloseOpenTaskBlock(model.ReasonRemoved, now)
	}
	t, err := e.tasks.Remove(id)
	if err != nil {
		return model.Task{}, e.finish(Result{}), err
	}
	var res Result
	e.emit(&res, "task.remove", t.ID, map[string]any{"wasCurrent": wasCurrent})
	if wasCurrent {
		e.advance(&res, "", now)
	}
	return t, e.finish(res), nil
}

// Start makes id the current task. While tracking, the previous work block is
// closed as switched and a new one opened. While paused only the pointer moves;
// tracking begins on Resume.
func (e *Engine) Start(id string) (Result, error) {
	now := e.clock.Now()
	t, ok := e.tasks.Get(id)
	if !ok {
		return e.finish(Result{}), model.NotFoundError{Kind: "task", ID: id}
	}
	if t.Completed {
		return e.finish(Result{}), model.Invalid("task", "cannot track a completed task: "+id)
	}
	if e.tasks.CurrentID() == t.ID && (e.State() == StateTracking || e.paused) {
		return e.finish(Result{}), nil
	}

	var res Result
	prev := e.tasks.CurrentID()
	if e.paused {
		_ = e.tasks.SetCurrent(t.ID)
		e.emit(&res, "track.select", t.ID, map[string]any{"from": prev})
		return e.finish(res), nil
	}
	if closed, ok := e.ledger.CloseOpenTaskBlock(model.ReasonSwitched, now); ok {
		e.emit(&res, "track.switch", closed.TaskRef(), map[string]any{"blockId": closed.ID, "to": t.ID})
	}
	_ = e.tasks.SetCurrent(t.ID)
	e.openWork(&res, t.ID, now)
	return e.finish(res), nil
}

// Pause closes the work block and opens a break. Only valid while tracking.
func (e *Engine) Pause(reason string) Result {
	if e.State() != StateTracking {
		return e.finish(Result{})
	}
	now := e.clock.Now()
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultBreakReason
	}
	var res Result
	closed, _ := e.ledger.CloseOpenTaskBlock(model.ReasonPaused, now)
	breakID, err := e.ledger.OpenBreakBlock(reason, now)
	if err != nil {
		// A stray open break means the track was already inconsistent; close it first.
		e.ledger.CloseOpenBreakBlock("", now)
		breakID, _ = e.ledger.OpenBreakBlock(reason, now)
	}
	e.paused = true
	e.lastTick = nil
	e.emit(&res, "track.pause", closed.TaskRef(), map[string]any{"reason": reason, "breakId": breakID, "blockId": closed.ID})
	return e.finish(res)
}

// Resume closes the break (keeping its reason), attaches notes if given and
// reopens work on the current task. Only valid while paused.
func (e *Engine) Resume(notes string) Result {
	if !e.paused {
		return e.finish(Result{})
	}
	now := e.clock.Now()
	var res Result
	brk, closed := e.ledger.CloseOpenBreakBlock("", now)
	if closed && strings.TrimSpace(notes) != "" {
		if b, err := e.ledger.AttachNotes(brk.ID, notes); err == nil {
			brk = b
		}
	}
	e.paused = false
	payload := map[string]any{"breakId": brk.ID, "reason": brk.Reason}
	if brk.Notes != "" {
		payload["notes"] = brk.Notes
	}
	e.emit(&res, "track.resume", e.tasks.CurrentID(), payload)
	if cur, ok := e.tasks.Current(); ok {
		e.openWork(&res, cur.ID, now)
	} else {
		e.advance(&res, "", now)
	}
	return e.finish(res)
}

// AttachBreakNotes attaches notes to the most recent break, which stays
// addressable until the next break opens.
func (e *Engine) AttachBreakNotes(notes string) (model.TimeBlock, Result, error) {
	last, ok := e.ledger.LastBreak()
	if !ok {
		return model.TimeBlock{}, e.finish(Result{}), model.NotFoundError{Kind: "break", ID: "latest"}
	}
	b, err := e.ledger.AttachNotes(last.ID, notes)
	if err != nil {
		return model.TimeBlock{}, e.finish(Result{}), err
	}
	var res Result
	e.emit(&res, "break.notes", b.ID, map[string]any{"notes": b.Notes})
	return b, e.finish(res), nil
}

// Tick credits wall-clock time since the previous tick to the current task.
// The first tick after start, resume or load only records a baseline. Each
// tick credits at most the tick cap; the excess is discarded.
func (e *Engine) Tick(now time.Time) Result {
	if e.State() != StateTracking {
		e.lastTick = nil
		return e.finish(Result{})
	}
	if e.lastTick == nil {
		e.lastTick = &now
		return e.finish(Result{})
	}
	elapsed := now.Sub(*e.lastTick)
	e.lastTick = &now
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > e.tickCap {
		e.log.Debug("tick capped", zap.Duration("elapsed", elapsed), zap.Duration("cap", e.tickCap))
		elapsed = e.tickCap
	}

	var res Result
	t, _ := e.tasks.Current()
	mins := elapsed.Minutes()
	if mins > 0 {
		t.TimeRemaining = math.Max(0, t.TimeRemaining-mins)
		if p := derivedProgress(*t); p > t.Progress {
			t.Progress = p
		}
		e.focus += mins
		res.Changed = true
	}
	if t.TimeRemaining <= 0 {
		e.complete(&res, now, true)
	}
	return e.finish(res)
}

// Complete finishes the current task and advances to the queue head.
func (e *Engine) Complete() Result {
	var res Result
	e.complete(&res, e.clock.Now(), false)
	return e.finish(res)
}

func (e *Engine) complete(res *Result, now time.Time, auto bool) {
	t, ok := e.tasks.Current()
	if !ok {
		return
	}
	block, _ := e.ledger.CloseOpenTaskBlock(model.ReasonCompleted, now)
	done := now
	t.Completed = true
	t.CompletedAt = &done
	t.Progress = 100
	t.TimeRemaining = 0
	id := t.ID
	_ = e.tasks.SetCurrent("")
	e.lastTick = nil
	e.emit(res, "track.complete", id, map[string]any{"auto": auto, "blockId": block.ID, "spentMinutes": e.ledger.TotalMinutes(id)})
	e.advance(res, "", now)
}

// Reschedule defers a task instead of completing it, re-estimating what is
// left from the time actually spent: total = spent / (pct/100). A zero
// percentage, or no recorded time, leaves timeRemaining untouched.
func (e *Engine) Reschedule(id string, pct int) (Result, error) {
	if pct < 0 || pct > 100 {
		return e.finish(Result{}), model.Invalid("progress", "must be between 0 and 100")
	}
	if strings.TrimSpace(id) == "" {
		id = e.tasks.CurrentID()
		if id == "" {
			return e.finish(Result{}), model.Invalid("task", "no current task to reschedule")
		}
	}
	t, ok := e.tasks.Get(id)
	if !ok {
		return e.finish(Result{}), model.NotFoundError{Kind: "task", ID: id}
	}
	if t.Completed {
		return e.finish(Result{}), model.Invalid("task", "cannot reschedule a completed task: "+id)
	}

	now := e.clock.Now()
	isCurrent := e.tasks.CurrentID() == t.ID
	if isCurrent {
		e.ledger.CloseOpenTaskBlock(model.ReasonRescheduled, now)
		e.lastTick = nil
	}
	spent := e.ledger.TotalMinutes(t.ID)
	if pct > 0 && spent > 0 {
		estimated := spent / (float64(pct) / 100)
		t.TimeRemaining = math.Max(0, estimated-spent)
	}
	t.Progress = pct
	t.RescheduleCount++

	var res Result
	e.emit(&res, "track.reschedule", t.ID, map[string]any{
		"progress":        pct,
		"spentMinutes":    spent,
		"timeRemaining":   t.TimeRemaining,
		"rescheduleCount": t.RescheduleCount,
	})
	if isCurrent {
		_ = e.tasks.SetCurrent("")
		e.advance(&res, id, now)
	}
	return e.finish(res), nil
}

// MarkDistraction records a zero-length marker on the current task.
func (e *Engine) MarkDistraction() Result {
	cur := e.tasks.CurrentID()
	if cur == "" {
		return e.finish(Result{})
	}
	var res Result
	m := e.ledger.AddMarker(cur, model.ReasonDistracted, e.clock.Now())
	e.emit(&res, "track.distraction", cur, map[string]any{"blockId": m.ID})
	return e.finish(res)
}

// StartDay marks the day open and starts on the queue head.
func (e *Engine) StartDay() Result {
	if e.dayStarted {
		return e.finish(Result{})
	}
	now := e.clock.Now()
	var res Result
	e.dayStarted = true
	m := e.ledger.AddMarker("", model.ReasonDayStarted, now)
	e.emit(&res, "day.start", "", map[string]any{"blockId": m.ID})
	if cur, ok := e.tasks.Current(); ok {
		if !e.paused && e.State() != StateTracking {
			e.openWork(&res, cur.ID, now)
		}
		return e.finish(res)
	}
	e.autoStart(&res, now)
	return e.finish(res)
}

// EndOfDay closes every open block as day-ended, drops the current task
// without choosing a replacement and leaves the engine idle.
func (e *Engine) EndOfDay() Result {
	_, breakOpen := e.ledger.ActiveBreak()
	_, taskOpen := e.ledger.ActiveTask()
	if !e.dayStarted && !e.paused && !breakOpen && !taskOpen && e.tasks.CurrentID() == "" {
		return e.finish(Result{})
	}
	now := e.clock.Now()
	var res Result
	prev := e.tasks.CurrentID()
	e.ledger.CloseOpenTaskBlock(model.ReasonDayEnded, now)
	e.ledger.CloseOpenBreakBlock(model.ReasonDayEnded, now)
	m := e.ledger.AddMarker("", model.ReasonDayEnd, now)
	_ = e.tasks.SetCurrent("")
	e.paused = false
	e.dayStarted = false
	e.lastTick = nil
	e.emit(&res, "day.end", prev, map[string]any{"blockId": m.ID, "focusMinutes": e.focus})
	return e.finish(res)
}

func (e *Engine) autoStart(res *Result, now time.Time) {
	if !e.dayStarted || e.paused || e.tasks.CurrentID() != "" {
		return
	}
	e.advance(res, "", now)
}

// advance selects the queue head (preferring anything but exclude) and starts
// it unless paused. An empty queue leaves nothing current.
func (e *Engine) advance(res *Result, exclude string, now time.Time) {
	next, ok := e.tasks.Next(exclude)
	if !ok {
		_ = e.tasks.SetCurrent("")
		return
	}
	id := next.ID
	_ = e.tasks.SetCurrent(id)
	if e.paused {
		e.emit(res, "track.select", id, nil)
		return
	}
	e.openWork(res, id, now)
}

func (e *Engine) openWork(res *Result, taskID string, now time.Time) {
	blockID, err := e.ledger.OpenTaskBlock(taskID, now)
	if err != nil {
		e.log.Warn("closing stray work block", zap.String("task_id", taskID), zap.Error(err))
		e.ledger.CloseOpenTaskBlock(model.ReasonSwitched, now)
		blockID, _ = e.ledger.OpenTaskBlock(taskID, now)
	}
	e.lastTick = &now
	e.emit(res, "track.start", taskID, map[string]any{"blockId": blockID})
}

func derivedProgress(t model.Task) int {
	if t.Duration <= 0 {
		return 100
	}
	p := int(math.Round(100 * (1 - t.TimeRemaining/float64(t.Duration))))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
