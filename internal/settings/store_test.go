package settings

import (
	"context"
	"errors"
	"testing"
)

func TestDefaults(t *testing.T) {
	s := New(NewMemorySubstrate(), NewBroker(), nil)
	ctx := context.Background()

	if s.NativeReplyEnabled(ctx, "n4-short") {
		t.Error("native reply should default to false")
	}
	if s.ImageHidden(ctx, "n4-short") {
		t.Error("image hidden should default to false")
	}
	if got := s.Streak(ctx, "n4-short"); got != 0 {
		t.Errorf("streak default = %d, want 0", got)
	}
}

func TestStreakCounting(t *testing.T) {
	s := New(NewMemorySubstrate(), NewBroker(), nil)
	ctx := context.Background()

	// N consecutive corrects leave the streak at exactly N.
	for i := 1; i <= 7; i++ {
		if got := s.IncrementStreak(ctx, "c"); got != i {
			t.Fatalf("increment %d returned %d", i, got)
		}
	}
	if got := s.Streak(ctx, "c"); got != 7 {
		t.Errorf("streak = %d, want 7", got)
	}

	// Two consecutive resets leave it at zero, never negative.
	s.ResetStreak(ctx, "c")
	s.ResetStreak(ctx, "c")
	if got := s.Streak(ctx, "c"); got != 0 {
		t.Errorf("streak after double reset = %d, want 0", got)
	}
}

func TestStreaksAreNamespacedPerCourse(t *testing.T) {
	s := New(NewMemorySubstrate(), NewBroker(), nil)
	ctx := context.Background()

	s.IncrementStreak(ctx, "n4-short")
	s.IncrementStreak(ctx, "n4-short")
	s.IncrementStreak(ctx, "n2-long")

	if got := s.Streak(ctx, "n4-short"); got != 2 {
		t.Errorf("n4-short streak = %d, want 2", got)
	}
	if got := s.Streak(ctx, "n2-long"); got != 1 {
		t.Errorf("n2-long streak = %d, want 1", got)
	}
}

// TestCrossTabVisibility simulates two tabs as two stores sharing one
// substrate and one broker: a write in one is readable in the other without
// any reload or re-open.
func TestCrossTabVisibility(t *testing.T) {
	sub := NewMemorySubstrate()
	broker := NewBroker()
	tabA := New(sub, broker, nil)
	tabB := New(sub, broker, nil)
	ctx := context.Background()

	tabA.SetImageHidden(ctx, "n4-short", true)
	if !tabB.ImageHidden(ctx, "n4-short") {
		t.Error("tab B should observe tab A's hide_image write")
	}

	tabB.IncrementStreak(ctx, "n4-short")
	tabB.IncrementStreak(ctx, "n4-short")
	if got := tabA.Streak(ctx, "n4-short"); got != 2 {
		t.Errorf("tab A streak = %d, want 2", got)
	}
}

// failingSubstrate errors on every write, to exercise best-effort durability.
type failingSubstrate struct{ MemorySubstrate }

func (f *failingSubstrate) Set(context.Context, string, string) error {
	return errors.New("quota exceeded")
}

func TestWriteFailureKeepsMemoryValue(t *testing.T) {
	sub := &failingSubstrate{MemorySubstrate{m: make(map[string]string)}}
	s := New(sub, NewBroker(), nil)
	ctx := context.Background()

	s.SetNativeReplyEnabled(ctx, "c", true)
	if !s.NativeReplyEnabled(ctx, "c") {
		t.Error("in-memory value should update even when persistence fails")
	}
}

func TestShareMilestones(t *testing.T) {
	tests := []struct {
		streak int
		want   bool
	}{
		{0, false}, {1, false}, {4, false},
		{5, true}, {6, false},
		{10, true}, {15, false},
		{20, true}, {30, true}, {40, false},
		{50, true}, {100, true},
		{150, false}, {200, true},
	}
	for _, tt := range tests {
		if got := IsShareMilestone(tt.streak); got != tt.want {
			t.Errorf("IsShareMilestone(%d) = %v, want %v", tt.streak, got, tt.want)
		}
	}

	if got := NextShareMilestone(0); got != 5 {
		t.Errorf("NextShareMilestone(0) = %d, want 5", got)
	}
	if got := NextShareMilestone(30); got != 50 {
		t.Errorf("NextShareMilestone(30) = %d, want 50", got)
	}
	if got := NextShareMilestone(120); got != 200 {
		t.Errorf("NextShareMilestone(120) = %d, want 200", got)
	}
}
