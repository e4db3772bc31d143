package queue

import (
	"errors"
	"testing"
	"time"

	"lobster-cli/internal/model"
)

func strPtr(s string) *string { return &s }

func mustAdd(t *testing.T, s *Store, spec Spec, at time.Time) model.Task {
	t.Helper()
	task, err := s.Add(spec, at)
	if err != nil {
		t.Fatalf("add %q: %v", spec.Name, err)
	}
	return task
}

func TestAdd_AppliesDefaults(t *testing.T) {
	t.Parallel()

	s := New(nil, nil)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)
	task := mustAdd(t, s, Spec{Name: "  Write report  ", Tags: []string{"@work", " ", "+q1"}}, now)

	if task.Name != "Write report" {
		t.Fatalf("expected trimmed name, got %q", task.Name)
	}
	if task.Duration != model.DefaultDuration || task.TimeRemaining != float64(model.DefaultDuration) {
		t.Fatalf("unexpected duration/remaining: %d/%v", task.Duration, task.TimeRemaining)
	}
	if task.Priority != model.DefaultPriority {
		t.Fatalf("expected default priority, got %d", task.Priority)
	}
	if task.Progress != 0 || task.Completed || task.RescheduleCount != 0 {
		t.Fatalf("unexpected initial state: %+v", task)
	}
	if len(task.Tags) != 2 || task.Tags[0] != "work" || task.Tags[1] != "q1" {
		t.Fatalf("unexpected tags: %#v", task.Tags)
	}
	if !task.CreatedAt.Equal(now) {
		t.Fatalf("expected createdAt %v, got %v", now, task.CreatedAt)
	}
}

func TestAdd_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		spec Spec
	}{
		{name: "empty name", spec: Spec{Name: "   "}},
		{name: "priority too high", spec: Spec{Name: "x", Priority: 6}},
		{name: "negative duration", spec: Spec{Name: "x", Duration: -5}},
		{name: "bad deadline", spec: Spec{Name: "x", Deadline: "tomorrow"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := New(nil, nil)
			if _, err := s.Add(tt.spec, time.Now()); !model.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if got := len(s.All()); got != 0 {
				t.Fatalf("expected no tasks after rejected add, got %d", got)
			}
		})
	}

	s := New(nil, nil)
	_, err := s.Add(Spec{Name: ""}, time.Now())
	if !errors.Is(err, model.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestOrdered_DeadlineBreaksPriorityTie(t *testing.T) {
	t.Parallel()

	s := New(nil, nil)
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)
	a := mustAdd(t, s, Spec{Name: "A", Priority: 5}, base)
	b := mustAdd(t, s, Spec{Name: "B", Priority: 5, Deadline: "2026-03-02"}, base.Add(time.Minute))

	got := s.Ordered()
	if len(got) != 2 || got[0].ID != b.ID || got[1].ID != a.ID {
		t.Fatalf("expected [B, A], got %v", names(got))
	}
}

func TestOrdered_FullTieBreakChain(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)
	tasks := []model.Task{
		{ID: "t-low", Name: "low", Priority: 1, CreatedAt: base},
		{ID: "t-late-deadline", Name: "late deadline", Priority: 4, Deadline: strPtr("2026-04-01"), CreatedAt: base},
		{ID: "t-early-deadline", Name: "early deadline", Priority: 4, Deadline: strPtr("2026-03-10"), CreatedAt: base.Add(time.Hour)},
		{ID: "t-resched", Name: "rescheduled", Priority: 4, RescheduleCount: 2, CreatedAt: base},
		{ID: "t-newer", Name: "newer", Priority: 4, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "t-older", Name: "older", Priority: 4, CreatedAt: base.Add(time.Hour)},
		{ID: "t-done", Name: "done", Priority: 5, Completed: true, CreatedAt: base},
	}
	want := []string{"t-early-deadline", "t-late-deadline", "t-older", "t-newer", "t-resched", "t-low"}

	got := New(tasks, nil).Ordered()
	if len(got) != len(want) {
		t.Fatalf("expected %d tasks, got %v", len(want), names(got))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Fatalf("position %d: expected %s, got %s (order %v)", i, want[i], got[i].ID, names(got))
		}
	}
}

func TestOrdered_IdenticalKeysKeepInsertionOrder(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)
	forward := New([]model.Task{
		{ID: "x", Priority: 3, CreatedAt: at},
		{ID: "y", Priority: 3, CreatedAt: at},
		{ID: "z", Priority: 3, CreatedAt: at},
	}, nil).Ordered()
	if forward[0].ID != "x" || forward[1].ID != "y" || forward[2].ID != "z" {
		t.Fatalf("expected insertion order, got %v", names(forward))
	}

	// Distinct keys: insertion order of the input must not matter.
	a := model.Task{ID: "a", Priority: 3, CreatedAt: at}
	b := model.Task{ID: "b", Priority: 3, CreatedAt: at.Add(time.Second)}
	c := model.Task{ID: "c", Priority: 2, CreatedAt: at}
	one := New([]model.Task{a, b, c}, nil).Ordered()
	two := New([]model.Task{c, b, a}, nil).Ordered()
	for i := range one {
		if one[i].ID != two[i].ID {
			t.Fatalf("order depends on insertion: %v vs %v", names(one), names(two))
		}
	}
}

func TestSetCurrent(t *testing.T) {
	t.Parallel()

	s := New([]model.Task{
		{ID: "open", Name: "open", Priority: 3},
		{ID: "done", Name: "done", Priority: 3, Completed: true},
	}, strPtr("done"))
	if _, ok := s.Current(); ok {
		t.Fatalf("completed task must not be restored as current")
	}
	if err := s.SetCurrent("missing"); !model.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := s.SetCurrent("done"); !model.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := s.SetCurrent("open"); err != nil {
		t.Fatalf("set current: %v", err)
	}
	cur, ok := s.Current()
	if !ok || cur.ID != "open" {
		t.Fatalf("expected open current, got %+v", cur)
	}
	if err := s.SetCurrent(""); err != nil || s.CurrentID() != "" {
		t.Fatalf("expected cleared current, got %q (%v)", s.CurrentID(), err)
	}
}

func TestUpdate(t *testing.T) {
	t.Parallel()

	s := New(nil, nil)
	task := mustAdd(t, s, Spec{Name: "draft", Duration: 40, Deadline: "2026-05-01"}, time.Now())

	if _, err := s.Update("nope", Patch{}); !model.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	empty := " "
	if _, err := s.Update(task.ID, Patch{Name: &empty}); !model.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	name := "final"
	dur := 20
	prio := 5
	got, err := s.Update(task.ID, Patch{Name: &name, Duration: &dur, Priority: &prio, ClearDeadline: true})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Name != "final" || got.Duration != 20 || got.TimeRemaining != 20 || got.Priority != 5 || got.Deadline != nil {
		t.Fatalf("unexpected task after update: %+v", got)
	}
	stored, _ := s.Get(task.ID)
	if stored.Name != "final" {
		t.Fatalf("update not persisted in store: %+v", stored)
	}
}

func TestImport_NormalizesAndAssignsIDs(t *testing.T) {
	t.Parallel()

	s := New(nil, nil)
	now := time.Now()
	got := s.Import([]model.Task{
		{Name: "", Duration: 0, Priority: 9, Progress: 140},
		{Name: "done", Duration: 15, Priority: 2, Completed: true},
	}, now)
	if len(got) != 2 {
		t.Fatalf("expected 2 imported tasks, got %d", len(got))
	}
	if got[0].ID == "" || got[0].ID == got[1].ID {
		t.Fatalf("expected unique ids, got %q and %q", got[0].ID, got[1].ID)
	}
	if got[0].Duration != model.DefaultDuration || got[0].Priority != model.DefaultPriority || got[0].Progress != 100 {
		t.Fatalf("expected clamped fields, got %+v", got[0])
	}
	if !got[1].Completed || got[1].Progress != 100 || got[1].TimeRemaining != 0 {
		t.Fatalf("expected completed import to be fully spent, got %+v", got[1])
	}
}

func TestRemove_ClearsCurrent(t *testing.T) {
	t.Parallel()

	s := New(nil, nil)
	task := mustAdd(t, s, Spec{Name: "gone"}, time.Now())
	_ = s.SetCurrent(task.ID)
	if _, err := s.Remove(task.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if s.CurrentID() != "" {
		t.Fatalf("expected current cleared")
	}
	if _, err := s.Remove(task.ID); !model.IsNotFound(err) {
		t.Fatalf("expected not found on second remove, got %v", err)
	}
}

func names(ts []model.Task) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.ID)
	}
	return out
}

func TestAdd_TagsBecomeSingleTokens(t *testing.T) {
	t.Parallel()

	s := New(nil, nil)
	task := mustAdd(t, s, Spec{Name: "Plan", Tags: []string{" deep  work ", "high-prio", "@café"}}, time.Now())
	want := []string{"deep-work", "high-prio", "café"}
	if len(task.Tags) != len(want) {
		t.Fatalf("unexpected tags: %#v", task.Tags)
	}
	for i := range want {
		if task.Tags[i] != want[i] {
			t.Fatalf("tag %d: got %q want %q", i, task.Tags[i], want[i])
		}
	}
}
