package ids

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNew_PrefixAndSuffixLength(t *testing.T) {
	t.Parallel()

	for _, prefix := range []string{PrefixTask, PrefixBlock} {
		id := New(prefix)
		if !strings.HasPrefix(id, prefix+"-") {
			t.Fatalf("expected %s prefix, got %q", prefix, id)
		}
		suffix := strings.TrimPrefix(id, prefix+"-")
		if got, want := len(suffix), 8; got != want {
			t.Fatalf("expected suffix len %d, got %d (%q)", want, got, suffix)
		}
		if suffix != strings.ToLower(suffix) {
			t.Fatalf("expected lowercase suffix, got %q", suffix)
		}
	}
}

func TestUnique_SkipsTakenIDs(t *testing.T) {
	t.Parallel()

	calls := 0
	id := Unique(PrefixTask, func(string) bool {
		calls++
		return calls < 3
	})
	if calls != 3 {
		t.Fatalf("expected 3 probes, got %d", calls)
	}
	if !strings.HasPrefix(id, "task-") {
		t.Fatalf("unexpected id %q", id)
	}
}

func TestEvent_IsUUID(t *testing.T) {
	t.Parallel()

	if _, err := uuid.Parse(Event()); err != nil {
		t.Fatalf("expected uuid: %v", err)
	}
}
