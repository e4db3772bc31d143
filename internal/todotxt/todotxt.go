// Package todotxt reads and writes the task list as todo.txt-style lines:
//
//	[x [<completed>] ][(A) ][<created> ]<name>[ @tag]*[ due:YYYY-MM-DD][ dur:N][ progress:N]
//
// Priorities A..E map to 5..1; any other letter imports as 1. "+project"
// tokens import as tags. dur: and progress: are extensions of the format.
package todotxt

import (
	"bufio"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"lobster-cli/internal/model"
)

var (
	rePriority = regexp.MustCompile(`^\(([A-Z])\)$`)
	reDate     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	// @context takes any token; +project must not start with a digit so "+1" stays text.
	reTag      = regexp.MustCompile(`^(?:@(\S+)|\+([^\s\d]\S*))$`)
	reDue      = regexp.MustCompile(`^due:(\d{4}-\d{2}-\d{2})$`)
	reDur      = regexp.MustCompile(`^dur:(\d+)$`)
	reProgress = regexp.MustCompile(`^progress:(\d{1,3})$`)
)

type Options struct {
	// Now stamps createdAt on lines without a creation date; its location
	// anchors parsed dates.
	Now             time.Time
	DefaultDuration int
	DefaultPriority int
}

func (o Options) withDefaults() Options {
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	if o.DefaultDuration <= 0 {
		o.DefaultDuration = model.DefaultDuration
	}
	if o.DefaultPriority < model.MinPriority || o.DefaultPriority > model.MaxPriority {
		o.DefaultPriority = model.DefaultPriority
	}
	return o
}

// Parse reads one task per non-blank line. Lines are never rejected
// individually, but text with no task lines at all is an error.
func Parse(text string, opt Options) ([]model.Task, error) {
	opt = opt.withDefaults()
	var out []model.Task
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		out = append(out, ParseLine(line, opt))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read todo.txt: %w", err)
	}
	if len(out) == 0 {
		return nil, model.ValidationError{Field: "import", Reason: "no tasks found", Err: model.ErrNoTasksParsed}
	}
	return out, nil
}

func ParseLine(line string, opt Options) model.Task {
	opt = opt.withDefaults()
	loc := opt.Now.Location()
	toks := strings.Fields(line)

	t := model.Task{
		Duration:  opt.DefaultDuration,
		Priority:  opt.DefaultPriority,
		Tags:      []string{},
		CreatedAt: opt.Now,
	}

	i := 0
	if i < len(toks) && toks[i] == "x" {
		t.Completed = true
		i++
	}
	maxDates := 1
	if t.Completed {
		maxDates = 2
	}
	var dates []time.Time
	gotPriority := false
	for i < len(toks) {
		if m := rePriority.FindStringSubmatch(toks[i]); m != nil && !gotPriority {
			t.Priority = letterPriority(m[1][0])
			gotPriority = true
			i++
			continue
		}
		if len(dates) < maxDates && reDate.MatchString(toks[i]) {
			d, err := time.ParseInLocation(model.DateLayout, toks[i], loc)
			if err != nil {
				break
			}
			dates = append(dates, d)
			i++
			continue
		}
		break
	}
	switch {
	case t.Completed && len(dates) == 2:
		t.CompletedAt = &dates[0]
		t.CreatedAt = dates[1]
	case t.Completed && len(dates) == 1:
		t.CompletedAt = &dates[0]
	case len(dates) == 1:
		t.CreatedAt = dates[0]
	}

	progress := 0
	var name []string
	for _, tok := range toks[i:] {
		if m := reTag.FindStringSubmatch(tok); m != nil {
			t.Tags = append(t.Tags, m[1]+m[2])
			continue
		}
		if m := reDue.FindStringSubmatch(tok); m != nil {
			if d, err := time.ParseInLocation(model.DateLayout, m[1], loc); err == nil {
				s := d.Format(model.DateLayout)
				t.Deadline = &s
				continue
			}
		}
		if m := reDur.FindStringSubmatch(tok); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				t.Duration = max(1, n)
				continue
			}
		}
		if m := reProgress.FindStringSubmatch(tok); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				progress = min(100, max(0, n))
				continue
			}
		}
		name = append(name, tok)
	}
	t.Name = strings.Join(name, " ")

	if t.Completed {
		t.Progress = 100
		t.TimeRemaining = 0
		if t.CompletedAt == nil {
			done := opt.Now
			t.CompletedAt = &done
		}
	} else {
		t.Progress = progress
		t.TimeRemaining = math.Round(float64(t.Duration) * (1 - float64(progress)/100))
	}
	return t
}

// Format writes one line per task in the fixed field order.
func Format(tasks []model.Task) string {
	var b strings.Builder
	for _, t := range tasks {
		b.WriteString(FormatLine(t))
		b.WriteByte('\n')
	}
	return b.String()
}

func FormatLine(t model.Task) string {
	var parts []string
	if t.Completed {
		parts = append(parts, "x")
		if t.CompletedAt != nil {
			parts = append(parts, t.CompletedAt.Local().Format(model.DateLayout))
		}
	}
	if t.Priority >= model.MinPriority && t.Priority <= model.MaxPriority {
		parts = append(parts, "("+string(priorityLetter(t.Priority))+")")
	}
	parts = append(parts, t.CreatedAt.Local().Format(model.DateLayout))
	if name := strings.Join(strings.Fields(t.Name), " "); name != "" {
		parts = append(parts, name)
	}
	for _, tag := range t.Tags {
		if tag = strings.Join(strings.Fields(tag), "-"); tag != "" {
			parts = append(parts, "@"+tag)
		}
	}
	if t.HasDeadline() {
		parts = append(parts, "due:"+*t.Deadline)
	}
	parts = append(parts, "dur:"+strconv.Itoa(t.Duration))
	parts = append(parts, "progress:"+strconv.Itoa(t.Progress))
	return strings.Join(parts, " ")
}

func letterPriority(c byte) int {
	switch c {
	case 'A':
		return 5
	case 'B':
		return 4
	case 'C':
		return 3
	case 'D':
		return 2
	default:
		return 1
	}
}

func priorityLetter(p int) byte {
	return byte('A' + (model.MaxPriority - p))
}
