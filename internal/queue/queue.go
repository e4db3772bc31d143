package queue

import (
	"math"
	"sort"
	"strings"
	"time"

	"lobster-cli/internal/ids"
	"lobster-cli/internal/model"
)

// Defaults fill in fields a caller left at zero.
type Defaults struct {
	Duration int
	Priority int
}

func DefaultDefaults() Defaults {
	return Defaults{Duration: model.DefaultDuration, Priority: model.DefaultPriority}
}

// Spec is the caller-supplied shape of a new task. Zero values take Defaults.
type Spec struct {
	Name        string
	Description string
	Duration    int
	Priority    int
	Tags        []string
	Deadline    string
}

// Patch carries partial task edits. Nil fields are left unchanged.
type Patch struct {
	Name          *string
	Description   *string
	Priority      *int
	Tags          *[]string
	Deadline      *string
	ClearDeadline bool
	Duration      *int
}

// Store owns the task list (in insertion order) and the current-task pointer.
type Store struct {
	tasks    []model.Task
	current  string
	defaults Defaults
}

func New(tasks []model.Task, currentID *string) *Store {
	s := &Store{
		tasks:    append([]model.Task(nil), tasks...),
		defaults: DefaultDefaults(),
	}
	for i := range s.tasks {
		if s.tasks[i].Tags == nil {
			s.tasks[i].Tags = []string{}
		}
	}
	if currentID != nil {
		if t, ok := s.Get(*currentID); ok && !t.Completed {
			s.current = t.ID
		}
	}
	return s
}

func (s *Store) SetDefaults(d Defaults) {
	if d.Duration <= 0 {
		d.Duration = model.DefaultDuration
	}
	if d.Priority < model.MinPriority || d.Priority > model.MaxPriority {
		d.Priority = model.DefaultPriority
	}
	s.defaults = d
}

func (s *Store) Defaults() Defaults { return s.defaults }

func (s *Store) exists(id string) bool {
	_, ok := s.Get(id)
	return ok
}

// Add validates spec, assigns an id and appends the task with zero progress.
func (s *Store) Add(spec Spec, now time.Time) (model.Task, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return model.Task{}, model.ValidationError{Field: "name", Reason: "must not be empty", Err: model.ErrEmptyName}
	}
	dur := spec.Duration
	switch {
	case dur == 0:
		dur = s.defaults.Duration
	case dur < 0:
		return model.Task{}, model.Invalid("duration", "must be a positive number of minutes")
	}
	prio := spec.Priority
	switch {
	case prio == 0:
		prio = s.defaults.Priority
	case prio < model.MinPriority || prio > model.MaxPriority:
		return model.Task{}, model.Invalid("priority", "must be between 1 and 5")
	}
	deadline, err := normalizeDeadline(spec.Deadline)
	if err != nil {
		return model.Task{}, err
	}

	t := model.Task{
		ID:            ids.Unique(ids.PrefixTask, s.exists),
		Name:          name,
		Description:   strings.TrimSpace(spec.Description),
		Duration:      dur,
		TimeRemaining: float64(dur),
		Priority:      prio,
		Tags:          cleanTags(spec.Tags),
		Deadline:      deadline,
		CreatedAt:     now,
	}
	s.tasks = append(s.tasks, t)
	return t, nil
}

// Import appends already-parsed tasks, assigning fresh ids and clamping fields
// into range. Names are not validated here.
func (s *Store) Import(parsed []model.Task, now time.Time) []model.Task {
	out := make([]model.Task, 0, len(parsed))
	for _, t := range parsed {
		t.ID = ids.Unique(ids.PrefixTask, s.exists)
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		normalize(&t, s.defaults)
		s.tasks = append(s.tasks, t)
		out = append(out, t)
	}
	return out
}

func normalize(t *model.Task, d Defaults) {
	if t.Duration < 1 {
		t.Duration = d.Duration
	}
	if t.Priority < model.MinPriority || t.Priority > model.MaxPriority {
		t.Priority = d.Priority
	}
	t.Progress = clampPercent(t.Progress)
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if t.Completed {
		t.Progress = 100
		t.TimeRemaining = 0
		return
	}
	if t.TimeRemaining <= 0 || t.TimeRemaining > float64(t.Duration) {
		t.TimeRemaining = math.Round(float64(t.Duration) * (1 - float64(t.Progress)/100))
	}
}

func (s *Store) Get(id string) (*model.Task, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, false
	}
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return &s.tasks[i], true
		}
	}
	return nil, false
}

func (s *Store) Update(id string, p Patch) (model.Task, error) {
	t, ok := s.Get(id)
	if !ok {
		return model.Task{}, model.NotFoundError{Kind: "task", ID: id}
	}
	next := *t
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return model.Task{}, model.ValidationError{Field: "name", Reason: "must not be empty", Err: model.ErrEmptyName}
		}
		next.Name = name
	}
	if p.Description != nil {
		next.Description = strings.TrimSpace(*p.Description)
	}
	if p.Priority != nil {
		if *p.Priority < model.MinPriority || *p.Priority > model.MaxPriority {
			return model.Task{}, model.Invalid("priority", "must be between 1 and 5")
		}
		next.Priority = *p.Priority
	}
	if p.Tags != nil {
		next.Tags = cleanTags(*p.Tags)
	}
	if p.ClearDeadline {
		next.Deadline = nil
	} else if p.Deadline != nil {
		d, err := normalizeDeadline(*p.Deadline)
		if err != nil {
			return model.Task{}, err
		}
		next.Deadline = d
	}
	if p.Duration != nil && *p.Duration != next.Duration {
		if next.Completed {
			return model.Task{}, model.Invalid("duration", "cannot change the estimate of a completed task")
		}
		if *p.Duration < 1 {
			return model.Task{}, model.Invalid("duration", "must be a positive number of minutes")
		}
		next.Duration = *p.Duration
		next.TimeRemaining = math.Round(float64(next.Duration) * (1 - float64(next.Progress)/100))
	}
	*t = next
	return next, nil
}

// SetCurrent points at id; an empty id clears the pointer.
func (s *Store) SetCurrent(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		s.current = ""
		return nil
	}
	t, ok := s.Get(id)
	if !ok {
		return model.NotFoundError{Kind: "task", ID: id}
	}
	if t.Completed {
		return model.Invalid("task", "completed task cannot be current: "+id)
	}
	s.current = id
	return nil
}

func (s *Store) CurrentID() string { return s.current }

func (s *Store) Current() (*model.Task, bool) {
	if s.current == "" {
		return nil, false
	}
	return s.Get(s.current)
}

func (s *Store) All() []model.Task {
	return append([]model.Task(nil), s.tasks...)
}

func (s *Store) Incomplete() []model.Task {
	out := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !t.Completed {
			out = append(out, t)
		}
	}
	return out
}

func (s *Store) Completed() []model.Task {
	out := make([]model.Task, 0)
	for _, t := range s.tasks {
		if t.Completed {
			out = append(out, t)
		}
	}
	return out
}

// Ordered returns incomplete tasks in queue order.
func (s *Store) Ordered() []model.Task {
	out := s.Incomplete()
	Sort(out)
	return out
}

// Next returns the head of the queue, skipping exclude when another task is available.
func (s *Store) Next(exclude string) (*model.Task, bool) {
	ordered := s.Ordered()
	for _, t := range ordered {
		if t.ID != exclude {
			return s.Get(t.ID)
		}
	}
	if len(ordered) > 0 {
		return s.Get(ordered[0].ID)
	}
	return nil, false
}

func (s *Store) Remove(id string) (model.Task, error) {
	id = strings.TrimSpace(id)
	for i := range s.tasks {
		if s.tasks[i].ID != id {
			continue
		}
		t := s.tasks[i]
		s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
		if s.current == id {
			s.current = ""
		}
		return t, nil
	}
	return model.Task{}, model.NotFoundError{Kind: "task", ID: id}
}

// Sort orders tasks in place: priority desc, dated before undated, earlier
// deadline, fewer reschedules, earlier createdAt. Equal keys keep input order.
func Sort(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool { return Less(tasks[i], tasks[j]) })
}

func Less(a, b model.Task) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	ad, bd := a.HasDeadline(), b.HasDeadline()
	if ad != bd {
		return ad
	}
	if ad && *a.Deadline != *b.Deadline {
		return *a.Deadline < *b.Deadline
	}
	if a.RescheduleCount != b.RescheduleCount {
		return a.RescheduleCount < b.RescheduleCount
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func normalizeDeadline(raw string) (*string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := time.Parse(model.DateLayout, raw)
	if err != nil {
		return nil, model.Invalid("deadline", "expected YYYY-MM-DD: "+raw)
	}
	s := d.Format(model.DateLayout)
	return &s, nil
}

// cleanTags drops sigils and joins inner whitespace with "-" so every tag is
// a single todo.txt token.
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.Join(strings.Fields(t), "-")
		t = strings.TrimLeft(t, "@+")
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
