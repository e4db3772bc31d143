package tui

import (
	"context"
	"time"

	"lobster-cli/internal/config"
	"lobster-cli/internal/engine"
	"lobster-cli/internal/model"
	"lobster-cli/internal/store"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

type view int

const (
	viewSchedule view = iota
	viewQueue
	viewTimesheet
	viewReport
)

var viewNames = []string{"schedule", "queue", "timesheet", "report"}

func (v view) String() string {
	if int(v) < 0 || int(v) >= len(viewNames) {
		return viewNames[0]
	}
	return viewNames[v]
}

func parseView(s string) view {
	for i, n := range viewNames {
		if n == s {
			return view(i)
		}
	}
	return viewSchedule
}

type promptKind int

const (
	promptNone promptKind = iota
	promptPause
	promptResume
	promptReschedule
	promptAdd
)

type tickMsg time.Time

type flashDoneMsg struct{ seq int }

type appModel struct {
	ctx  context.Context
	eng  *engine.Engine
	st   store.Store
	cfg  *config.Config
	log  *zap.Logger
	save *persister

	keys  keyMap
	help  help.Model
	bar   progress.Model
	input textinput.Model

	prompt        promptKind
	view          view
	selected      int
	selectedID    string
	showCompleted bool

	width  int
	height int

	flash    string
	flashErr bool
	flashSeq int

	// summary is set once the day has been ended from the tracker.
	summary string
}

func newAppModel(ctx context.Context, opts Options) appModel {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	in := textinput.New()
	in.CharLimit = 400
	in.Width = 60

	m := appModel{
		ctx:   ctx,
		eng:   opts.Engine,
		st:    opts.Store,
		cfg:   cfg,
		log:   log,
		save:  newPersister(opts.Store, cfg.TUI.SaveDebounce, log),
		keys:  defaultKeyMap(),
		help:  help.New(),
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		input: in,
		width: 80,
	}

	if st, err := opts.Store.LoadTUIState(); err == nil && st != nil {
		m.view = parseView(st.View)
		m.selectedID = st.SelectedTaskID
		m.showCompleted = st.ShowCompleted
	}
	m.syncSelection()
	return m
}

func (m appModel) Init() tea.Cmd {
	// The first tick only records a baseline in the engine.
	m.eng.Tick(m.eng.Now())
	return tea.Batch(textinput.Blink, m.tickCmd())
}

func (m appModel) tickCmd() tea.Cmd {
	interval := m.cfg.Tick.Interval
	if interval <= 0 {
		interval = time.Second
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// listTasks is what the queue view shows: the ordered queue, then completed
// tasks when they are not hidden.
func (m appModel) listTasks() []model.Task {
	tasks := m.eng.Ordered()
	if m.showCompleted {
		tasks = append(tasks, m.eng.Completed()...)
	}
	return tasks
}

// syncSelection keeps the cursor on the same task id across list changes.
func (m *appModel) syncSelection() {
	tasks := m.listTasks()
	if len(tasks) == 0 {
		m.selected = 0
		m.selectedID = ""
		return
	}
	for i, t := range tasks {
		if t.ID == m.selectedID {
			m.selected = i
			return
		}
	}
	if m.selected >= len(tasks) {
		m.selected = len(tasks) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
	m.selectedID = tasks[m.selected].ID
}

func (m appModel) tuiState() *store.TUIState {
	return &store.TUIState{
		Version:        1,
		View:           m.view.String(),
		SelectedTaskID: m.selectedID,
		ShowCompleted:  m.showCompleted,
	}
}
