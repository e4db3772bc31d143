package timesheet

import (
	"bufio"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"lobster-cli/internal/ledger"
	"lobster-cli/internal/model"
	"lobster-cli/internal/schedule"
)

const (
	Header = "Start Time,End Time,Duration (minutes),Activity,Status"

	DefaultTimeLayout = "15:04"

	openEnd      = "Active"
	openDuration = "Ongoing"
	openStatus   = "Active"
	doneStatus   = "Completed"
)

type Row struct {
	BlockID  string          `json:"blockId"`
	Type     model.BlockType `json:"type"`
	Start    string          `json:"start"`
	End      string          `json:"end"`
	Duration string          `json:"duration"`
	Activity string          `json:"activity"`
	Status   string          `json:"status"`
	Notes    string          `json:"notes,omitempty"`
	Minutes  float64         `json:"minutes"`
	Open     bool            `json:"open"`
}

// Totals only count closed blocks.
type Totals struct {
	WorkMinutes  float64 `json:"workMinutes"`
	BreakMinutes float64 `json:"breakMinutes"`
	TotalMinutes float64 `json:"totalMinutes"`
}

type Sheet struct {
	Day    string `json:"day"`
	Rows   []Row  `json:"rows"`
	Totals Totals `json:"totals"`
}

type Options struct {
	TimeLayout string
}

// Build collects the non-marker blocks starting on day's calendar date.
func Build(day time.Time, blocks []model.TimeBlock, tasks []model.Task, opt Options) Sheet {
	layout := opt.TimeLayout
	if layout == "" {
		layout = DefaultTimeLayout
	}
	byID := make(map[string]model.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	dayBlocks := ledger.New(blocks).BlocksForDay(day)
	sort.SliceStable(dayBlocks, func(i, j int) bool { return dayBlocks[i].StartTime.Before(dayBlocks[j].StartTime) })

	sh := Sheet{Day: day.Format(model.DateLayout), Rows: make([]Row, 0, len(dayBlocks))}
	for _, b := range dayBlocks {
		if b.Type == model.BlockMarker {
			continue
		}
		r := Row{
			BlockID: b.ID,
			Type:    b.Type,
			Start:   b.StartTime.In(day.Location()).Format(layout),
			Notes:   b.Notes,
			Open:    b.Open(),
		}
		if b.Type == model.BlockBreak {
			r.Activity = schedule.BreakLabel(b.Reason)
		} else {
			r.Activity = schedule.TaskLabel(byID, b.TaskRef())
		}
		if b.Open() {
			r.End = openEnd
			r.Duration = openDuration
			r.Status = openStatus
		} else {
			r.Minutes = math.Round(b.Minutes(*b.EndTime))
			r.End = b.EndTime.In(day.Location()).Format(layout)
			r.Duration = strconv.Itoa(int(r.Minutes))
			r.Status = b.Reason
			if r.Status == "" {
				r.Status = doneStatus
			}
			switch b.Type {
			case model.BlockTask:
				sh.Totals.WorkMinutes += r.Minutes
			case model.BlockBreak:
				sh.Totals.BreakMinutes += r.Minutes
			}
		}
		sh.Rows = append(sh.Rows, r)
	}
	sh.Totals.TotalMinutes = sh.Totals.WorkMinutes + sh.Totals.BreakMinutes
	return sh
}

// WriteCSV writes the header and one row per block. Activity and Status are
// always quoted; commas in them become semicolons and quotes are doubled.
func (s Sheet) WriteCSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(Header)
	bw.WriteByte('\n')
	for _, r := range s.Rows {
		bw.WriteString(r.Start)
		bw.WriteByte(',')
		bw.WriteString(r.End)
		bw.WriteByte(',')
		bw.WriteString(r.Duration)
		bw.WriteByte(',')
		bw.WriteString(quote(r.Activity))
		bw.WriteByte(',')
		bw.WriteString(quote(r.Status))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func (s Sheet) CSV() string {
	var b strings.Builder
	_ = s.WriteCSV(&b)
	return b.String()
}

func quote(field string) string {
	field = strings.ReplaceAll(field, ",", ";")
	field = strings.ReplaceAll(field, `"`, `""`)
	field = strings.ReplaceAll(field, "\n", " ")
	return `"` + field + `"`
}
