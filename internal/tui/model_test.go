package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	"lobster-cli/internal/config"
	"lobster-cli/internal/engine"
	"lobster-cli/internal/model"
	"lobster-cli/internal/queue"
	"lobster-cli/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestModel(t *testing.T, specs ...queue.Spec) (appModel, *fakeClock, store.Store) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)}
	eng, _ := engine.New(model.Snapshot{}, engine.Options{Clock: clock})
	for _, sp := range specs {
		if _, _, err := eng.AddTask(sp); err != nil {
			t.Fatalf("add task: %v", err)
		}
	}
	st := store.Store{Dir: t.TempDir()}
	cfg := config.DefaultConfig()
	cfg.TUI.SaveDebounce = time.Hour
	m := newAppModel(context.Background(), Options{Engine: eng, Store: st, Config: cfg})
	return m, clock, st
}

func send(t *testing.T, m appModel, msgs ...tea.Msg) appModel {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(appModel)
		if !ok {
			t.Fatalf("unexpected model type %T", next)
		}
	}
	return m
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(s string) []tea.Msg {
	out := make([]tea.Msg, 0, len(s))
	for _, r := range s {
		out = append(out, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return out
}

func loadSnapshot(t *testing.T, st store.Store) model.Snapshot {
	t.Helper()
	snap, err := st.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return snap
}

func TestBeginDay_StartsQueueHeadAndWritesThrough(t *testing.T) {
	m, _, st := newTestModel(t,
		queue.Spec{Name: "Low", Priority: 1},
		queue.Spec{Name: "High", Priority: 5},
	)

	m = send(t, m, keyRunes("b"))

	if m.eng.State() != engine.StateTracking {
		t.Fatalf("expected tracking, got %s", m.eng.State())
	}
	cur, _ := m.eng.Current()
	if cur.Name != "High" {
		t.Fatalf("expected highest priority task, got %q", cur.Name)
	}
	snap := loadSnapshot(t, st)
	if !snap.DayStarted || snap.CurrentTaskID == nil || *snap.CurrentTaskID != cur.ID {
		t.Fatalf("expected day start persisted, got %+v", snap)
	}
	evs, err := st.ReadEvents(context.Background(), 0)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(evs) == 0 || evs[0].Type != "day.start" {
		t.Fatalf("expected day.start event first, got %+v", evs)
	}
}

func TestPausePrompt_UsesTypedReason(t *testing.T) {
	m, clock, st := newTestModel(t, queue.Spec{Name: "Write", Duration: 30})
	m = send(t, m, keyRunes("b"))
	clock.advance(10 * time.Minute)

	m = send(t, m, keyRunes("p"))
	if m.prompt != promptPause {
		t.Fatalf("expected pause prompt")
	}
	m = send(t, m, typeText("lunch")...)
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.prompt != promptNone {
		t.Fatalf("expected prompt closed")
	}
	if m.eng.State() != engine.StatePaused {
		t.Fatalf("expected paused, got %s", m.eng.State())
	}
	brk, ok := m.eng.ActiveBreak()
	if !ok || brk.Reason != "lunch" {
		t.Fatalf("expected open lunch break, got %+v", brk)
	}
	if !loadSnapshot(t, st).Paused {
		t.Fatalf("expected paused state persisted")
	}

	// Resume with notes attaches them to the closed break.
	clock.advance(30 * time.Minute)
	m = send(t, m, keyRunes("r"))
	m = send(t, m, typeText("ate")...)
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.eng.State() != engine.StateTracking {
		t.Fatalf("expected tracking after resume, got %s", m.eng.State())
	}
	var found bool
	for _, b := range m.eng.Blocks() {
		if b.Type == model.BlockBreak && b.Notes == "ate" && !b.Open() {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected closed break with notes")
	}
}

func TestPromptEscape_DoesNothing(t *testing.T) {
	m, _, _ := newTestModel(t, queue.Spec{Name: "Write"})
	m = send(t, m, keyRunes("b"), keyRunes("p"))
	m = send(t, m, typeText("x")...)
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.prompt != promptNone || m.eng.State() != engine.StateTracking {
		t.Fatalf("expected escape to cancel; prompt=%v state=%s", m.prompt, m.eng.State())
	}
}

func TestTick_DebouncesSaveUntilFlush(t *testing.T) {
	m, clock, st := newTestModel(t, queue.Spec{Name: "Write", Duration: 30})
	m = send(t, m, keyRunes("b"))

	// Baseline tick, then two credited ticks.
	m = send(t, m, tickMsg(clock.now))
	clock.advance(2 * time.Second)
	m = send(t, m, tickMsg(clock.now))
	clock.advance(2 * time.Second)
	m = send(t, m, tickMsg(clock.now))

	cur, _ := m.eng.Current()
	if cur.TimeRemaining >= 30 {
		t.Fatalf("expected time credited, got %v", cur.TimeRemaining)
	}
	if got := loadSnapshot(t, st).FocusMinutes; got != 0 {
		t.Fatalf("expected tick not yet saved, got focus %v", got)
	}

	m.shutdown()
	if got := loadSnapshot(t, st).FocusMinutes; got <= 0 {
		t.Fatalf("expected focus saved on shutdown, got %v", got)
	}
}

func TestAddPrompt_ParsesTodoLine(t *testing.T) {
	m, _, st := newTestModel(t)
	m = send(t, m, keyRunes("a"))
	m = send(t, m, typeText("(A) Write report @work dur:45")...)
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	tasks := m.eng.Tasks()
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	got := tasks[0]
	if got.Name != "Write report" || got.Priority != 5 || got.Duration != 45 {
		t.Fatalf("unexpected task: %+v", got)
	}
	if len(loadSnapshot(t, st).Tasks) != 1 {
		t.Fatalf("expected task persisted")
	}
}

func TestRescheduleAndNext(t *testing.T) {
	m, clock, _ := newTestModel(t,
		queue.Spec{Name: "First", Priority: 5, Duration: 60},
		queue.Spec{Name: "Second", Priority: 4, Duration: 30},
	)
	m = send(t, m, keyRunes("b"))
	clock.advance(15 * time.Minute)

	m = send(t, m, keyRunes("s"))
	// Prompt is prefilled with current progress.
	m.input.SetValue("")
	m = send(t, m, typeText("50")...)
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	cur, ok := m.eng.Current()
	if !ok || cur.Name != "Second" {
		t.Fatalf("expected Second current after reschedule, got %+v", cur)
	}
	first := m.eng.Tasks()[0]
	if first.RescheduleCount != 1 || first.TimeRemaining != 15 {
		t.Fatalf("unexpected rescheduled task: %+v", first)
	}

	m = send(t, m, keyRunes("n"))
	cur, _ = m.eng.Current()
	if cur.Name != "First" {
		t.Fatalf("expected next to switch to First, got %q", cur.Name)
	}
}

func TestEndDay_ShowsSummary(t *testing.T) {
	m, _, _ := newTestModel(t, queue.Spec{Name: "Write"})
	m = send(t, m, keyRunes("b"), keyRunes("c"), keyRunes("e"))
	if m.summary != "All tasks completed. Great work today!" {
		t.Fatalf("unexpected summary %q", m.summary)
	}
	if m.eng.DayStarted() || m.eng.State() != engine.StateIdle {
		t.Fatalf("expected idle after end of day")
	}
	if !strings.Contains(m.View(), m.summary) {
		t.Fatalf("expected summary in view")
	}
}

func TestViewSwitchAndStatePersisted(t *testing.T) {
	m, _, st := newTestModel(t, queue.Spec{Name: "A", Priority: 5}, queue.Spec{Name: "B", Priority: 1})
	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.view != viewQueue {
		t.Fatalf("expected queue view, got %s", m.view)
	}
	m = send(t, m, keyRunes("j"))
	if m.selectedID == "" || m.listTasks()[m.selected].Name != "B" {
		t.Fatalf("expected B selected")
	}
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	cur, _ := m.eng.Current()
	if cur.Name != "B" {
		t.Fatalf("expected enter to track B, got %q", cur.Name)
	}

	next, cmd := m.Update(keyRunes("q"))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	m = next.(appModel)
	saved, err := st.LoadTUIState()
	if err != nil {
		t.Fatalf("load tui state: %v", err)
	}
	if saved.View != "queue" || saved.SelectedTaskID != m.selectedID {
		t.Fatalf("unexpected tui state: %+v", saved)
	}

	reopened := newAppModel(context.Background(), Options{Engine: m.eng, Store: st, Config: m.cfg})
	if reopened.view != viewQueue || reopened.selectedID != m.selectedID {
		t.Fatalf("expected view and selection restored")
	}
}

func TestView_RendersEachView(t *testing.T) {
	t.Setenv("LOBSTER_TUI_MD_STYLE", "notty")
	m, clock, _ := newTestModel(t, queue.Spec{Name: "Write report", Duration: 30})
	m = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 40}, keyRunes("b"))
	clock.advance(5 * time.Minute)

	for i := 0; i < len(viewNames); i++ {
		out := m.View()
		if !strings.Contains(out, "Write report") {
			t.Fatalf("view %s missing task name:\n%s", m.view, out)
		}
		m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	}
}
