// Package engine couples the task queue and the time ledger into the
// Idle/Tracking/Paused state machine.
//
// Transitions are synchronous and return a Result describing what changed.
// The engine never persists anything itself: callers save Snapshot() and
// append Result.Events when Result.Changed is true.
package engine

import (
	"time"

	"lobster-cli/internal/ledger"
	"lobster-cli/internal/model"
	"lobster-cli/internal/queue"

	"go.uber.org/zap"
)

type State string

const (
	StateIdle     State = "idle"
	StateTracking State = "tracking"
	StatePaused   State = "paused"
)

// DefaultTickCap bounds how much wall-clock time a single Tick may credit.
const DefaultTickCap = 3 * time.Second

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

var SystemClock Clock = ClockFunc(time.Now)

type Options struct {
	Clock    Clock
	TickCap  time.Duration
	Defaults queue.Defaults
	Logger   *zap.Logger
}

type Result struct {
	State   State
	Changed bool
	Events  []model.Event
}

type Stats struct {
	FocusMinutes     float64 `json:"focusMinutes"`
	Completed        int     `json:"completed"`
	Total            int     `json:"total"`
	RemainingMinutes float64 `json:"remainingMinutes"`
}

type Engine struct {
	clock   Clock
	tickCap time.Duration
	log     *zap.Logger

	tasks  *queue.Store
	ledger *ledger.Ledger

	focus      float64
	paused     bool
	dayStarted bool

	// lastTick is in-memory only: a fresh process has observed no elapsed time.
	lastTick *time.Time
}

// New restores an engine from a persisted snapshot. Open blocks that cannot
// belong to the restored session are closed with reason orphaned-cleanup; the
// returned Result reports them so the caller can persist the repair.
func New(snap model.Snapshot, opts Options) (*Engine, Result) {
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	if opts.TickCap <= 0 {
		opts.TickCap = DefaultTickCap
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	e := &Engine{
		clock:      opts.Clock,
		tickCap:    opts.TickCap,
		log:        opts.Logger,
		tasks:      queue.New(snap.Tasks, snap.CurrentTaskID),
		ledger:     ledger.New(snap.TimeBlocks),
		focus:      snap.FocusMinutes,
		paused:     snap.Paused,
		dayStarted: snap.DayStarted,
	}
	if opts.Defaults != (queue.Defaults{}) {
		e.tasks.SetDefaults(opts.Defaults)
	}

	var res Result
	keepTask := ""
	if !e.paused {
		keepTask = e.tasks.CurrentID()
	}
	closed := e.ledger.Reconcile(keepTask, e.paused, model.ReasonOrphanedCleanup, e.clock.Now())
	if len(closed) > 0 {
		e.emit(&res, "ledger.cleanup", "", map[string]any{"closedBlockIds": closed})
	}
	return e, e.finish(res)
}

func (e *Engine) State() State {
	if e.paused {
		return StatePaused
	}
	if cur := e.tasks.CurrentID(); cur != "" {
		if b, ok := e.ledger.ActiveTask(); ok && b.TaskRef() == cur {
			return StateTracking
		}
	}
	return StateIdle
}

func (e *Engine) Paused() bool     { return e.paused }
func (e *Engine) DayStarted() bool { return e.dayStarted }

func (e *Engine) FocusMinutes() float64 { return e.focus }

func (e *Engine) Now() time.Time { return e.clock.Now() }

func (e *Engine) Current() (model.Task, bool) {
	t, ok := e.tasks.Current()
	if !ok {
		return model.Task{}, false
	}
	return *t, true
}

func (e *Engine) Task(id string) (model.Task, error) {
	t, ok := e.tasks.Get(id)
	if !ok {
		return model.Task{}, model.NotFoundError{Kind: "task", ID: id}
	}
	return *t, nil
}

func (e *Engine) Tasks() []model.Task     { return e.tasks.All() }
func (e *Engine) Ordered() []model.Task   { return e.tasks.Ordered() }
func (e *Engine) Completed() []model.Task { return e.tasks.Completed() }

func (e *Engine) Blocks() []model.TimeBlock { return e.ledger.Blocks() }

func (e *Engine) BlocksForDay(day time.Time) []model.TimeBlock {
	return e.ledger.BlocksForDay(day)
}

func (e *Engine) ActiveBreak() (model.TimeBlock, bool) { return e.ledger.ActiveBreak() }

func (e *Engine) TotalMinutes(taskID string) float64 { return e.ledger.TotalMinutes(taskID) }

func (e *Engine) Stats() Stats {
	st := Stats{FocusMinutes: e.focus}
	for _, t := range e.tasks.All() {
		st.Total++
		if t.Completed {
			st.Completed++
			continue
		}
		st.RemainingMinutes += t.TimeRemaining
	}
	return st
}

// Snapshot returns the full persisted state.
func (e *Engine) Snapshot() model.Snapshot {
	var cur *string
	if id := e.tasks.CurrentID(); id != "" {
		cur = &id
	}
	return model.Snapshot{
		Tasks:         e.tasks.All(),
		CurrentTaskID: cur,
		TimeBlocks:    e.ledger.Blocks(),
		FocusMinutes:  e.focus,
		Paused:        e.paused,
		DayStarted:    e.dayStarted,
	}
}

func (e *Engine) emit(res *Result, typ, entityID string, payload map[string]any) {
	res.Changed = true
	res.Events = append(res.Events, model.Event{
		TS:       e.clock.Now().UTC(),
		Type:     typ,
		EntityID: entityID,
		Payload:  payload,
	})
	e.log.Debug("transition",
		zap.String("event", typ),
		zap.String("task_id", entityID),
		zap.String("state", string(e.State())),
	)
}

func (e *Engine) finish(res Result) Result {
	res.State = e.State()
	return res
}
