package ledger

import (
	"errors"
	"sort"
	"strings"
	"time"

	"lobster-cli/internal/ids"
	"lobster-cli/internal/model"
)

var (
	ErrTaskBlockOpen  = errors.New("a task block is already open")
	ErrBreakBlockOpen = errors.New("a break block is already open")
)

// Ledger is the append-only list of time blocks. At most one task block and
// one break block may be open at any time.
type Ledger struct {
	blocks []model.TimeBlock
}

func New(blocks []model.TimeBlock) *Ledger {
	return &Ledger{blocks: append([]model.TimeBlock(nil), blocks...)}
}

func (l *Ledger) Blocks() []model.TimeBlock {
	return append([]model.TimeBlock(nil), l.blocks...)
}

func (l *Ledger) exists(id string) bool {
	for i := range l.blocks {
		if l.blocks[i].ID == id {
			return true
		}
	}
	return false
}

func (l *Ledger) openIndex(typ model.BlockType) int {
	for i := len(l.blocks) - 1; i >= 0; i-- {
		if l.blocks[i].Type == typ && l.blocks[i].Open() {
			return i
		}
	}
	return -1
}

func (l *Ledger) OpenTaskBlock(taskID string, at time.Time) (string, error) {
	if l.openIndex(model.BlockTask) >= 0 {
		return "", ErrTaskBlockOpen
	}
	tid := taskID
	start := at
	b := model.TimeBlock{
		ID:                ids.Unique(ids.PrefixBlock, l.exists),
		Type:              model.BlockTask,
		TaskID:            &tid,
		StartTime:         at,
		OriginalStartTime: &start,
	}
	l.blocks = append(l.blocks, b)
	return b.ID, nil
}

func (l *Ledger) OpenBreakBlock(reason string, at time.Time) (string, error) {
	if l.openIndex(model.BlockBreak) >= 0 {
		return "", ErrBreakBlockOpen
	}
	b := model.TimeBlock{
		ID:        ids.Unique(ids.PrefixBlock, l.exists),
		Type:      model.BlockBreak,
		StartTime: at,
		Reason:    strings.TrimSpace(reason),
	}
	l.blocks = append(l.blocks, b)
	return b.ID, nil
}

// CloseOpenTaskBlock closes the open work block. Closing when none is open is a no-op.
func (l *Ledger) CloseOpenTaskBlock(reason string, at time.Time) (model.TimeBlock, bool) {
	return l.closeOpen(model.BlockTask, reason, at)
}

// CloseOpenBreakBlock closes the open break. An empty reason keeps the one given at open.
func (l *Ledger) CloseOpenBreakBlock(reason string, at time.Time) (model.TimeBlock, bool) {
	return l.closeOpen(model.BlockBreak, reason, at)
}

func (l *Ledger) closeOpen(typ model.BlockType, reason string, at time.Time) (model.TimeBlock, bool) {
	i := l.openIndex(typ)
	if i < 0 {
		return model.TimeBlock{}, false
	}
	l.closeAt(i, reason, at)
	return l.blocks[i], true
}

func (l *Ledger) closeAt(i int, reason string, at time.Time) {
	b := &l.blocks[i]
	end := at
	if end.Before(b.StartTime) {
		end = b.StartTime
	}
	b.EndTime = &end
	if reason = strings.TrimSpace(reason); reason != "" {
		b.Reason = reason
	}
}

// AddMarker appends a zero-length marker; taskID may be empty.
func (l *Ledger) AddMarker(taskID, reason string, at time.Time) model.TimeBlock {
	end := at
	b := model.TimeBlock{
		ID:        ids.Unique(ids.PrefixBlock, l.exists),
		Type:      model.BlockMarker,
		StartTime: at,
		EndTime:   &end,
		Reason:    reason,
	}
	if taskID != "" {
		tid := taskID
		b.TaskID = &tid
	}
	l.blocks = append(l.blocks, b)
	return b
}

func (l *Ledger) ActiveTask() (model.TimeBlock, bool) {
	if i := l.openIndex(model.BlockTask); i >= 0 {
		return l.blocks[i], true
	}
	return model.TimeBlock{}, false
}

func (l *Ledger) ActiveBreak() (model.TimeBlock, bool) {
	if i := l.openIndex(model.BlockBreak); i >= 0 {
		return l.blocks[i], true
	}
	return model.TimeBlock{}, false
}

// LastBreak returns the most recently opened break block, open or closed.
func (l *Ledger) LastBreak() (model.TimeBlock, bool) {
	for i := len(l.blocks) - 1; i >= 0; i-- {
		if l.blocks[i].Type == model.BlockBreak {
			return l.blocks[i], true
		}
	}
	return model.TimeBlock{}, false
}

// BlocksForDay returns blocks starting on day's calendar date (in day's location), by start time.
func (l *Ledger) BlocksForDay(day time.Time) []model.TimeBlock {
	start := StartOfDay(day)
	end := start.AddDate(0, 0, 1)
	out := make([]model.TimeBlock, 0)
	for _, b := range l.blocks {
		st := b.StartTime.In(day.Location())
		if !st.Before(start) && st.Before(end) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

// TotalMinutes sums closed work blocks for taskID.
func (l *Ledger) TotalMinutes(taskID string) float64 {
	total := 0.0
	for _, b := range l.blocks {
		if b.Type != model.BlockTask || b.Open() || b.TaskRef() != taskID {
			continue
		}
		total += b.Minutes(*b.EndTime)
	}
	return total
}

func (l *Ledger) AttachNotes(blockID, notes string) (model.TimeBlock, error) {
	for i := range l.blocks {
		if l.blocks[i].ID != blockID {
			continue
		}
		if l.blocks[i].Type != model.BlockBreak {
			return model.TimeBlock{}, model.Invalid("block", "notes can only be attached to breaks")
		}
		l.blocks[i].Notes = strings.TrimSpace(notes)
		return l.blocks[i], nil
	}
	return model.TimeBlock{}, model.NotFoundError{Kind: "block", ID: blockID}
}

// Reconcile closes open blocks that cannot belong to the live session: work
// blocks for any task other than keepTask, breaks unless keepBreak, and all but
// the newest open block per track. reason is written only to blocks that have
// none. Returns the ids it closed.
func (l *Ledger) Reconcile(keepTask string, keepBreak bool, reason string, at time.Time) []string {
	var closed []string
	keptTask, keptBreak := false, false
	for i := len(l.blocks) - 1; i >= 0; i-- {
		b := l.blocks[i]
		if !b.Open() {
			continue
		}
		switch b.Type {
		case model.BlockTask:
			if !keptTask && keepTask != "" && b.TaskRef() == keepTask {
				keptTask = true
				continue
			}
		case model.BlockBreak:
			if !keptBreak && keepBreak {
				keptBreak = true
				continue
			}
		case model.BlockMarker:
			end := b.StartTime
			l.blocks[i].EndTime = &end
			continue
		}
		if b.Reason != "" {
			// Keep what the user recorded; reason only fills a blank.
			l.closeAt(i, "", at)
		} else {
			l.closeAt(i, reason, at)
		}
		closed = append(closed, b.ID)
	}
	return closed
}

// OpenCounts reports how many task and break blocks are open.
func (l *Ledger) OpenCounts() (task, brk int) {
	for _, b := range l.blocks {
		if !b.Open() {
			continue
		}
		switch b.Type {
		case model.BlockTask:
			task++
		case model.BlockBreak:
			brk++
		}
	}
	return task, brk
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
