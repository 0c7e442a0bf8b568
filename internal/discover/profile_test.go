package discover

import (
	"strings"
	"testing"
	"time"
)

func TestNewProfileID(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)
	id := NewProfileID("Fitness Yoga", now)
	if !strings.HasPrefix(id, "fitness_yoga_20260307_") {
		t.Fatalf("NewProfileID = %q, want fitness_yoga_20260307_ prefix", id)
	}
	suffix := strings.TrimPrefix(id, "fitness_yoga_20260307_")
	if len(suffix) != 5 {
		t.Fatalf("NewProfileID suffix %q has length %d, want 5", suffix, len(suffix))
	}
	if id2 := NewProfileID("Fitness Yoga", now); id2 == id {
		t.Fatalf("NewProfileID returned duplicate id %q", id)
	}
}
