package model

import "time"

// DateLayout is the calendar-date layout used for deadlines and todo.txt dates.
const DateLayout = "2006-01-02"

const (
	MinPriority = 1
	MaxPriority = 5

	DefaultPriority = 3
	DefaultDuration = 30
)

type Task struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// Duration is the estimated length in minutes. TimeRemaining starts equal to it.
	Duration      int     `json:"duration"`
	TimeRemaining float64 `json:"timeRemaining"`

	Priority int      `json:"priority"`
	Tags     []string `json:"tags"`
	Deadline *string  `json:"deadline,omitempty"`

	CreatedAt       time.Time  `json:"createdAt"`
	Completed       bool       `json:"completed"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	Progress        int        `json:"progress"`
	RescheduleCount int        `json:"rescheduleCount"`
}

// HasDeadline reports whether the task carries a non-empty deadline date.
func (t Task) HasDeadline() bool {
	return t.Deadline != nil && *t.Deadline != ""
}

type BlockType string

const (
	BlockTask   BlockType = "task"
	BlockBreak  BlockType = "break"
	BlockMarker BlockType = "marker"
)

func (t BlockType) Valid() bool {
	switch t {
	case BlockTask, BlockBreak, BlockMarker:
		return true
	default:
		return false
	}
}

// Closure reasons written by the tracking engine.
const (
	ReasonCompleted       = "completed"
	ReasonPaused          = "paused"
	ReasonSwitched        = "switched"
	ReasonRescheduled     = "rescheduled"
	ReasonDayEnded        = "day-ended"
	ReasonRemoved         = "removed"
	ReasonOrphanedCleanup = "orphaned-cleanup"

	ReasonDistracted = "distracted"
	ReasonDayStarted = "Day Started"
	ReasonDayEnd     = "Day Ended"
)

type TimeBlock struct {
	ID                string     `json:"id"`
	Type              BlockType  `json:"type"`
	TaskID            *string    `json:"taskId"`
	StartTime         time.Time  `json:"startTime"`
	OriginalStartTime *time.Time `json:"originalStartTime,omitempty"`
	EndTime           *time.Time `json:"endTime"`
	Reason            string     `json:"reason,omitempty"`
	Notes             string     `json:"notes,omitempty"`
}

func (b TimeBlock) Open() bool { return b.EndTime == nil }

// Minutes returns the block length in minutes; open blocks are measured up to now.
func (b TimeBlock) Minutes(now time.Time) float64 {
	end := now
	if b.EndTime != nil {
		end = *b.EndTime
	}
	d := end.Sub(b.StartTime).Minutes()
	if d < 0 {
		return 0
	}
	return d
}

// Anchor is where the block sits on a schedule: OriginalStartTime when pinned, else StartTime.
func (b TimeBlock) Anchor() time.Time {
	if b.OriginalStartTime != nil {
		return *b.OriginalStartTime
	}
	return b.StartTime
}

func (b TimeBlock) TaskRef() string {
	if b.TaskID == nil {
		return ""
	}
	return *b.TaskID
}

// Snapshot is the full persisted state: every key is rewritten on each save.
type Snapshot struct {
	Tasks         []Task      `json:"tasks"`
	CurrentTaskID *string     `json:"currentTaskId"`
	TimeBlocks    []TimeBlock `json:"timeBlocks"`
	FocusMinutes  float64     `json:"focusTime"`
	Paused        bool        `json:"isPaused"`
	DayStarted    bool        `json:"dayStarted"`
}

type Event struct {
	ID       string    `json:"id"`
	TS       time.Time `json:"ts"`
	Type     string    `json:"type"`
	EntityID string    `json:"entityId"`
	Payload  any       `json:"payload,omitempty"`
}
