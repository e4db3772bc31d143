package tui

import (
	"fmt"
	"strings"

	"lobster-cli/internal/engine"
	"lobster-cli/internal/model"
	"lobster-cli/internal/publish"
	"lobster-cli/internal/schedule"
	"lobster-cli/internal/timesheet"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

func (m appModel) View() string {
	var b strings.Builder
	b.WriteString(m.viewHeader())
	b.WriteString("\n\n")
	b.WriteString(m.viewCurrent())
	b.WriteString("\n\n")

	switch m.view {
	case viewQueue:
		b.WriteString(m.viewQueue())
	case viewTimesheet:
		b.WriteString(m.viewTimesheet())
	case viewReport:
		b.WriteString(m.viewReport())
	default:
		b.WriteString(m.viewSchedule())
	}
	b.WriteString("\n")

	if m.prompt != promptNone {
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	if m.flash != "" {
		b.WriteString("\n")
		if m.flashErr {
			b.WriteString(styleError().Render(m.flash))
		} else {
			b.WriteString(styleMuted().Render(m.flash))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m appModel) viewHeader() string {
	now := m.eng.Now()
	var badge string
	switch m.eng.State() {
	case engine.StateTracking:
		badge = styleBadge(colorTracking).Render("TRACKING")
	case engine.StatePaused:
		badge = styleBadge(colorPaused).Render("PAUSED")
	default:
		badge = styleBadge(colorIdle).Render("IDLE")
	}
	day := "day not started"
	if m.eng.DayStarted() {
		day = "day started"
	}
	parts := []string{
		styleTitle().Render("lobster"),
		now.Format("Mon 2006-01-02 15:04"),
		badge,
		"focus " + publish.FormatMinutes(m.eng.FocusMinutes()),
		styleMuted().Render(day),
		styleMuted().Render("[" + m.view.String() + "]"),
	}
	return m.truncate(strings.Join(parts, "  "))
}

func (m appModel) viewCurrent() string {
	cur, ok := m.eng.Current()
	if !ok {
		msg := "No current task."
		if m.summary != "" {
			msg = m.summary
		} else if !m.eng.DayStarted() {
			msg = "No current task. Press b to begin the day."
		} else if len(m.eng.Ordered()) == 0 {
			msg = "Queue is empty. Press a to add a task."
		}
		return styleCard().Render(msg)
	}

	lines := []string{
		styleTitle().Render(m.truncateTo(cur.Name, m.width-6)),
		m.bar.ViewAs(float64(cur.Progress) / 100),
		fmt.Sprintf("%s left  ·  spent %s  ·  P%d  ·  %d%%",
			publish.FormatMinutes(cur.TimeRemaining),
			publish.FormatMinutes(m.eng.TotalMinutes(cur.ID)),
			cur.Priority,
			cur.Progress,
		),
	}
	if cur.HasDeadline() {
		lines = append(lines, styleMuted().Render("due "+*cur.Deadline))
	}
	if brk, ok := m.eng.ActiveBreak(); ok {
		lines = append(lines, lipgloss.NewStyle().Foreground(colorBreak).Render(
			fmt.Sprintf("On break (%s) since %s", brk.Reason, brk.StartTime.Format("15:04"))))
	}
	return styleCard().Render(strings.Join(lines, "\n"))
}

func (m appModel) viewSchedule() string {
	entries := schedule.Project(schedule.FromSnapshot(m.eng.Snapshot(), m.eng.Now()))
	if len(entries) == 0 {
		return styleMuted().Render("Nothing scheduled today.")
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		line := fmt.Sprintf("%s %s  %-5s  %s",
			kindGlyph(e.Kind),
			e.Start.Format("15:04"),
			publish.FormatMinutes(e.DurationMinutes),
			e.Label,
		)
		st := lipgloss.NewStyle()
		switch e.Kind {
		case schedule.KindCompleted:
			st = faintIfDark(st.Foreground(colorDone))
		case schedule.KindBreak:
			st = st.Foreground(colorBreak)
		case schedule.KindCurrent:
			st = st.Bold(true).Foreground(colorTracking)
		}
		lines = append(lines, st.Render(m.truncate(line)))
	}
	return strings.Join(lines, "\n")
}

func kindGlyph(k schedule.Kind) string {
	switch k {
	case schedule.KindCompleted:
		return "✓"
	case schedule.KindBreak:
		return "☕"
	case schedule.KindCurrent:
		return "▶"
	default:
		return "·"
	}
}

func (m appModel) viewQueue() string {
	tasks := m.listTasks()
	if len(tasks) == 0 {
		return styleMuted().Render("No tasks. Press a to add one.")
	}
	cur, _ := m.eng.Current()
	lines := make([]string, 0, len(tasks))
	for i, t := range tasks {
		lines = append(lines, m.renderTaskRow(t, t.ID == cur.ID, i == m.selected))
	}
	return strings.Join(lines, "\n")
}

func (m appModel) renderTaskRow(t model.Task, current, selected bool) string {
	mark := "  "
	switch {
	case t.Completed:
		mark = "✓ "
	case current:
		mark = "▶ "
	}
	meta := []string{"P" + fmt.Sprint(t.Priority), publish.FormatMinutes(t.TimeRemaining)}
	if t.HasDeadline() {
		meta = append(meta, "due "+*t.Deadline)
	}
	for _, tag := range t.Tags {
		meta = append(meta, "@"+tag)
	}
	line := m.truncate(mark + t.Name + "  " + styleMuted().Render(strings.Join(meta, " ")))
	if selected {
		return styleSelectedRow().Render(line)
	}
	if t.Completed {
		return faintIfDark(lipgloss.NewStyle().Foreground(colorDone)).Render(line)
	}
	return line
}

func (m appModel) viewTimesheet() string {
	sheet := timesheet.Build(m.eng.Now(), m.eng.Blocks(), m.eng.Tasks(), timesheet.Options{
		TimeLayout: m.cfg.Timesheet.TimeLayout,
	})
	if len(sheet.Rows) == 0 {
		return styleMuted().Render("No time recorded today.")
	}
	lines := make([]string, 0, len(sheet.Rows)+2)
	for _, r := range sheet.Rows {
		activity := r.Activity
		if r.Notes != "" {
			activity += " (" + r.Notes + ")"
		}
		lines = append(lines, m.truncate(fmt.Sprintf("%-6s %-6s %7s  %s  %s",
			r.Start, r.End, r.Duration, activity, styleMuted().Render(r.Status))))
	}
	t := sheet.Totals
	lines = append(lines, "", fmt.Sprintf("work %s  ·  breaks %s  ·  total %s",
		publish.FormatMinutes(t.WorkMinutes),
		publish.FormatMinutes(t.BreakMinutes),
		publish.FormatMinutes(t.TotalMinutes),
	))
	return strings.Join(lines, "\n")
}

func (m appModel) viewReport() string {
	now := m.eng.Now()
	d := publish.BuildDaily(m.eng.Snapshot(), now, publish.RenderOptions{
		TimeLayout: m.cfg.Timesheet.TimeLayout,
		Now:        now,
	})
	return RenderMarkdown(publish.RenderDailyMarkdown(d), m.width)
}

func (m appModel) truncate(s string) string {
	return m.truncateTo(s, m.width)
}

func (m appModel) truncateTo(s string, width int) string {
	if width <= 0 {
		return s
	}
	return ansi.Truncate(s, width, "…")
}
