package docs

import (
	"testing"
)

func TestTopics_AllResolvable(t *testing.T) {
	topics := Topics()
	if len(topics) == 0 {
		t.Fatalf("expected embedded topics")
	}
	for _, topic := range topics {
		body, ok := Get(topic)
		if !ok || body == "" {
			t.Fatalf("topic %q not readable", topic)
		}
		if Title(topic) == topic {
			t.Fatalf("topic %q has no heading", topic)
		}
	}
}

func TestGet_CaseInsensitiveAndRejectsPaths(t *testing.T) {
	if _, ok := Get("TODOTXT"); !ok {
		t.Fatalf("expected case-insensitive lookup")
	}
	if _, ok := Get("../docs"); ok {
		t.Fatalf("expected path-like topic to be rejected")
	}
	if _, ok := Get("nope"); ok {
		t.Fatalf("expected unknown topic to miss")
	}
}
