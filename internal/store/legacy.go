package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"lobster-cli/internal/model"
)

// LegacyExportFileName is a browser localStorage dump (one key per stored value) placed in the store dir.
const LegacyExportFileName = "localstorage.json"

// Older exports tag distraction markers with their own block type.
const legacyDistractionMarker = "distraction-marker"

// looseString accepts either a JSON string or a JSON number.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	*s = looseString(string(b))
	return nil
}

type legacyTask struct {
	ID              looseString `json:"id"`
	Name            string      `json:"name"`
	Description     string      `json:"description"`
	Duration        *float64    `json:"duration"`
	TimeRemaining   *float64    `json:"timeRemaining"`
	Priority        *float64    `json:"priority"`
	Tags            []string    `json:"tags"`
	Deadline        *string     `json:"deadline"`
	CreatedAt       string      `json:"createdAt"`
	Completed       bool        `json:"completed"`
	CompletedAt     *string     `json:"completedAt"`
	Progress        *float64    `json:"progress"`
	RescheduleCount int         `json:"rescheduleCount"`
}

type legacyBlock struct {
	ID                looseString  `json:"id"`
	TaskID            *looseString `json:"taskId"`
	Type              string       `json:"type"`
	Reason            string       `json:"reason"`
	Notes             string       `json:"notes"`
	StartTime         string       `json:"startTime"`
	OriginalStartTime *string      `json:"originalStartTime"`
	EndTime           *string      `json:"endTime"`
}

func (s Store) legacyExportPath() string {
	return filepath.Join(s.Dir, LegacyExportFileName)
}

// readLegacyExport returns ok=false when no export is present.
func (s Store) readLegacyExport() (model.Snapshot, bool, error) {
	b, err := os.ReadFile(s.legacyExportPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.Snapshot{}, false, nil
		}
		return model.Snapshot{}, false, err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return model.Snapshot{}, false, nil
	}
	snap, err := DecodeLegacyExport(b)
	if err != nil {
		return model.Snapshot{}, false, fmt.Errorf("import %s: %w", LegacyExportFileName, err)
	}
	return snap, true, nil
}

// DecodeLegacyExport converts a localStorage dump into a snapshot.
// Values may be stored either as JSON or as JSON-encoded strings, the way localStorage keeps them.
func DecodeLegacyExport(b []byte) (model.Snapshot, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return model.Snapshot{}, err
	}
	snap := model.Snapshot{
		Tasks:      []model.Task{},
		TimeBlocks: []model.TimeBlock{},
	}

	if v, ok := raw["tasks"]; ok {
		var tasks []legacyTask
		if err := unmarshalStored(v, &tasks); err != nil {
			return snap, fmt.Errorf("tasks: %w", err)
		}
		for _, lt := range tasks {
			t, err := lt.toTask()
			if err != nil {
				return snap, err
			}
			snap.Tasks = append(snap.Tasks, t)
		}
	}

	if v, ok := raw["timeBlocks"]; ok {
		var blocks []legacyBlock
		if err := unmarshalStored(v, &blocks); err != nil {
			return snap, fmt.Errorf("timeBlocks: %w", err)
		}
		for _, lb := range blocks {
			blk, err := lb.toBlock()
			if err != nil {
				return snap, err
			}
			snap.TimeBlocks = append(snap.TimeBlocks, blk)
		}
	}

	if v, ok := raw["currentTaskId"]; ok {
		if id := storedScalar(v); id != "" && id != "null" {
			snap.CurrentTaskID = &id
		}
	}
	if v, ok := raw["focusTime"]; ok {
		if f, err := strconv.ParseFloat(storedScalar(v), 64); err == nil && f > 0 {
			snap.FocusMinutes = math.Trunc(f)
		}
	}
	if v, ok := raw["isPaused"]; ok {
		snap.Paused = storedScalar(v) == "true"
	}
	if v, ok := raw["dayStarted"]; ok {
		snap.DayStarted = storedScalar(v) == "true"
	}
	return snap, nil
}

// unmarshalStored decodes v directly, or decodes the JSON text held inside a JSON string.
func unmarshalStored(v json.RawMessage, dst any) error {
	v = bytes.TrimSpace(v)
	if len(v) > 0 && v[0] == '"' {
		var inner string
		if err := json.Unmarshal(v, &inner); err != nil {
			return err
		}
		if strings.TrimSpace(inner) == "" || inner == "null" {
			return nil
		}
		return json.Unmarshal([]byte(inner), dst)
	}
	if bytes.Equal(v, []byte("null")) {
		return nil
	}
	return json.Unmarshal(v, dst)
}

func storedScalar(v json.RawMessage) string {
	var s looseString
	if err := json.Unmarshal(v, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(string(s))
}

func (lt legacyTask) toTask() (model.Task, error) {
	t := model.Task{
		ID:              strings.TrimSpace(string(lt.ID)),
		Name:            strings.TrimSpace(lt.Name),
		Description:     lt.Description,
		Duration:        model.DefaultDuration,
		Priority:        model.DefaultPriority,
		Tags:            lt.Tags,
		Completed:       lt.Completed,
		RescheduleCount: lt.RescheduleCount,
	}
	if t.ID == "" {
		return t, errors.New("task without id")
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if lt.Duration != nil && *lt.Duration >= 0 {
		t.Duration = int(math.Round(*lt.Duration))
	}
	if lt.Priority != nil {
		p := int(math.Round(*lt.Priority))
		if p >= model.MinPriority && p <= model.MaxPriority {
			t.Priority = p
		}
	}
	if lt.Progress != nil {
		t.Progress = int(math.Max(0, math.Min(100, math.Round(*lt.Progress))))
	}
	t.TimeRemaining = float64(t.Duration)
	if lt.TimeRemaining != nil {
		t.TimeRemaining = math.Max(0, *lt.TimeRemaining)
	}
	if lt.Deadline != nil && strings.TrimSpace(*lt.Deadline) != "" {
		d := strings.TrimSpace(*lt.Deadline)
		t.Deadline = &d
	}
	created, err := parseLegacyTime(lt.CreatedAt)
	if err != nil {
		return t, fmt.Errorf("task %s createdAt: %w", t.ID, err)
	}
	t.CreatedAt = created
	if lt.CompletedAt != nil && *lt.CompletedAt != "" {
		ts, err := parseLegacyTime(*lt.CompletedAt)
		if err != nil {
			return t, fmt.Errorf("task %s completedAt: %w", t.ID, err)
		}
		t.CompletedAt = &ts
	}
	if t.Completed {
		t.Progress = 100
		t.TimeRemaining = 0
	}
	return t, nil
}

func (lb legacyBlock) toBlock() (model.TimeBlock, error) {
	b := model.TimeBlock{
		ID:     strings.TrimSpace(string(lb.ID)),
		Type:   model.BlockType(lb.Type),
		Reason: lb.Reason,
		Notes:  lb.Notes,
	}
	if b.ID == "" {
		return b, errors.New("time block without id")
	}
	if lb.Type == legacyDistractionMarker {
		b.Type = model.BlockMarker
		if b.Reason == "" {
			b.Reason = model.ReasonDistracted
		}
	}
	if !b.Type.Valid() {
		return b, fmt.Errorf("time block %s: unknown type %q", b.ID, lb.Type)
	}
	if lb.TaskID != nil && *lb.TaskID != "" {
		id := string(*lb.TaskID)
		b.TaskID = &id
	}
	start, err := parseLegacyTime(lb.StartTime)
	if err != nil {
		return b, fmt.Errorf("time block %s startTime: %w", b.ID, err)
	}
	b.StartTime = start
	if lb.OriginalStartTime != nil && *lb.OriginalStartTime != "" {
		ts, err := parseLegacyTime(*lb.OriginalStartTime)
		if err != nil {
			return b, fmt.Errorf("time block %s originalStartTime: %w", b.ID, err)
		}
		b.OriginalStartTime = &ts
	}
	if lb.EndTime != nil && *lb.EndTime != "" {
		ts, err := parseLegacyTime(*lb.EndTime)
		if err != nil {
			return b, fmt.Errorf("time block %s endTime: %w", b.ID, err)
		}
		if ts.Before(start) {
			ts = start
		}
		b.EndTime = &ts
	}
	return b, nil
}

// parseLegacyTime accepts ISO-8601 timestamps (Date.toISOString) and bare calendar dates.
func parseLegacyTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts, nil
	}
	if ts, err := time.ParseInLocation(model.DateLayout, s, time.Local); err == nil {
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}
