package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"lobster-cli/internal/engine"
	"lobster-cli/internal/model"
	"lobster-cli/internal/publish"
	"lobster-cli/internal/todotxt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

const flashDuration = 3 * time.Second

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.bar.Width = max(10, min(msg.Width-8, 60))
		return m, nil

	case tickMsg:
		m.onTick()
		return m, m.tickCmd()

	case flashDoneMsg:
		if msg.seq == m.flashSeq {
			m.flash = ""
			m.flashErr = false
		}
		return m, nil

	case tea.KeyMsg:
		if m.prompt != promptNone {
			return m.updatePrompt(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *appModel) onTick() {
	res := m.eng.Tick(m.eng.Now())
	if !res.Changed {
		return
	}
	if len(res.Events) > 0 {
		// Auto-completion is a transition: write through.
		m.commit(res)
		m.syncSelection()
		return
	}
	m.save.touch(m.eng.Snapshot())
}

func (m appModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.shutdown()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Pause):
		if m.eng.State() != engine.StateTracking {
			return m, m.setFlash("nothing is being tracked", true)
		}
		return m, m.openPrompt(promptPause, "Break reason (enter for \"break\")", "")

	case key.Matches(msg, m.keys.Resume):
		if !m.eng.Paused() {
			return m, m.setFlash("not on a break", true)
		}
		return m, m.openPrompt(promptResume, "Break notes (optional)", "")

	case key.Matches(msg, m.keys.Reschedule):
		cur, ok := m.eng.Current()
		if !ok {
			return m, m.setFlash("no current task", true)
		}
		return m, m.openPrompt(promptReschedule, "Progress 0-100", strconv.Itoa(cur.Progress))

	case key.Matches(msg, m.keys.Add):
		return m, m.openPrompt(promptAdd, "todo.txt line, e.g. (B) Write report @work dur:45", "")

	case key.Matches(msg, m.keys.Complete):
		cur, ok := m.eng.Current()
		res := m.eng.Complete()
		if !ok || !res.Changed {
			return m, m.setFlash("no current task", true)
		}
		m.commit(res)
		m.syncSelection()
		return m, m.setFlash("completed: "+cur.Name, false)

	case key.Matches(msg, m.keys.Distract):
		res := m.eng.MarkDistraction()
		if !res.Changed {
			return m, m.setFlash("no current task", true)
		}
		m.commit(res)
		return m, m.setFlash("distraction noted", false)

	case key.Matches(msg, m.keys.Next):
		return m, m.startNext()

	case key.Matches(msg, m.keys.Select):
		if m.view != viewQueue || m.selectedID == "" {
			return m, nil
		}
		return m, m.start(m.selectedID)

	case key.Matches(msg, m.keys.BeginDay):
		res := m.eng.StartDay()
		if !res.Changed {
			return m, m.setFlash("day already started", true)
		}
		m.summary = ""
		m.commit(res)
		m.syncSelection()
		return m, m.setFlash("day started", false)

	case key.Matches(msg, m.keys.EndDay):
		res := m.eng.EndOfDay()
		if !res.Changed {
			return m, m.setFlash("day not started", true)
		}
		m.commit(res)
		st := m.eng.Stats()
		m.summary = publish.SummaryLine(st.Completed, st.Total)
		return m, m.setFlash(m.summary, false)

	case key.Matches(msg, m.keys.Report):
		if m.view == viewReport {
			m.view = viewSchedule
		} else {
			m.view = viewReport
		}
		return m, nil

	case key.Matches(msg, m.keys.NextView):
		m.view = (m.view + 1) % view(len(viewNames))
		return m, nil

	case key.Matches(msg, m.keys.Completed):
		m.showCompleted = !m.showCompleted
		m.syncSelection()
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.view == viewQueue && m.selected > 0 {
			m.selected--
			m.selectedID = m.listTasks()[m.selected].ID
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.view == viewQueue {
			tasks := m.listTasks()
			if m.selected+1 < len(tasks) {
				m.selected++
				m.selectedID = tasks[m.selected].ID
			}
		}
		return m, nil
	}
	return m, nil
}

func (m *appModel) openPrompt(kind promptKind, placeholder, value string) tea.Cmd {
	m.prompt = kind
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *appModel) closePrompt() {
	m.prompt = promptNone
	m.input.Blur()
	m.input.SetValue("")
}

func (m appModel) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closePrompt()
		return m, nil
	case tea.KeyCtrlC:
		m.shutdown()
		return m, tea.Quit
	case tea.KeyEnter:
		kind := m.prompt
		value := strings.TrimSpace(m.input.Value())
		m.closePrompt()
		return m, m.submitPrompt(kind, value)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *appModel) submitPrompt(kind promptKind, value string) tea.Cmd {
	switch kind {
	case promptPause:
		res := m.eng.Pause(value)
		if !res.Changed {
			return m.setFlash("nothing is being tracked", true)
		}
		m.commit(res)
		return m.setFlash("on a break", false)

	case promptResume:
		res := m.eng.Resume(value)
		if !res.Changed {
			return m.setFlash("not on a break", true)
		}
		m.commit(res)
		return m.setFlash("back to work", false)

	case promptReschedule:
		pct, err := strconv.Atoi(value)
		if err != nil {
			return m.setFlash("progress must be a number 0-100", true)
		}
		res, err := m.eng.Reschedule("", pct)
		if err != nil {
			return m.setFlash(err.Error(), true)
		}
		m.commit(res)
		m.syncSelection()
		return m.setFlash(fmt.Sprintf("rescheduled at %d%%", pct), false)

	case promptAdd:
		return m.addFromLine(value)
	}
	return nil
}

func (m *appModel) addFromLine(line string) tea.Cmd {
	if line == "" {
		return nil
	}
	parsed, err := todotxt.Parse(line, todotxt.Options{
		Now:             m.eng.Now(),
		DefaultDuration: m.cfg.Tasks.DefaultDuration,
		DefaultPriority: m.cfg.Tasks.DefaultPriority,
	})
	if err != nil {
		return m.setFlash(err.Error(), true)
	}
	if strings.TrimSpace(parsed[0].Name) == "" {
		return m.setFlash(model.ErrEmptyName.Error(), true)
	}
	added, res, err := m.eng.ImportTasks(parsed)
	if err != nil {
		return m.setFlash(err.Error(), true)
	}
	m.commit(res)
	m.syncSelection()
	return m.setFlash("added: "+added[0].Name, false)
}

// startNext tracks the first queued task that is not already current.
func (m *appModel) startNext() tea.Cmd {
	cur, _ := m.eng.Current()
	for _, t := range m.eng.Ordered() {
		if t.ID != cur.ID {
			return m.start(t.ID)
		}
	}
	return m.setFlash("queue is empty", true)
}

func (m *appModel) start(id string) tea.Cmd {
	res, err := m.eng.Start(id)
	if err != nil {
		return m.setFlash(err.Error(), true)
	}
	if !res.Changed {
		return nil
	}
	m.commit(res)
	m.syncSelection()
	t, _ := m.eng.Task(id)
	return m.setFlash("tracking: "+t.Name, false)
}

func (m *appModel) commit(res engine.Result) {
	if !res.Changed {
		return
	}
	if err := m.save.commit(m.ctx, m.eng.Snapshot(), res.Events); err != nil {
		m.log.Error("save failed", zap.Error(err))
		m.flash = "save failed: " + err.Error()
		m.flashErr = true
	}
}

func (m *appModel) shutdown() {
	if err := m.save.flush(m.ctx); err != nil {
		m.log.Error("final save failed", zap.Error(err))
	}
	if err := m.st.SaveTUIState(m.tuiState()); err != nil {
		m.log.Warn("save tui state", zap.Error(err))
	}
}

func (m *appModel) setFlash(text string, isErr bool) tea.Cmd {
	m.flash = text
	m.flashErr = isErr
	m.flashSeq++
	seq := m.flashSeq
	return tea.Tick(flashDuration, func(time.Time) tea.Msg { return flashDoneMsg{seq: seq} })
}
