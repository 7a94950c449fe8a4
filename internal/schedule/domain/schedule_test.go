package domain

import (
	"testing"
	"time"
)

func day(month time.Month, d int) time.Time {
	return time.Date(2026, month, d, 0, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func TestResolveActive_NewestCreatedWins(t *testing.T) {
	a := Assignment{ID: "A", ShiftID: "s-a", EffectiveFrom: day(1, 1), EffectiveUntil: ptr(day(12, 31)), CreatedAt: day(1, 1)}
	b := Assignment{ID: "B", ShiftID: "s-b", EffectiveFrom: day(6, 1), CreatedAt: day(6, 1)}

	got, ok := ResolveActive(day(7, 1), []Assignment{a, b})
	if !ok {
		t.Fatal("expected an active assignment")
	}
	if got.ID != "B" {
		t.Errorf("ResolveActive = %q, want B", got.ID)
	}

	// Order of input must not matter.
	got, _ = ResolveActive(day(7, 1), []Assignment{b, a})
	if got.ID != "B" {
		t.Errorf("ResolveActive (reversed) = %q, want B", got.ID)
	}
}

func TestResolveActive_OlderStillActiveWhenNewerNotStarted(t *testing.T) {
	a := Assignment{ID: "A", EffectiveFrom: day(1, 1), CreatedAt: day(1, 1)}
	b := Assignment{ID: "B", EffectiveFrom: day(9, 1), CreatedAt: day(6, 1)}

	got, ok := ResolveActive(day(7, 1), []Assignment{a, b})
	if !ok || got.ID != "A" {
		t.Errorf("ResolveActive = (%q, %v), want (A, true)", got.ID, ok)
	}
}

func TestResolveActive_InclusiveBounds(t *testing.T) {
	from := day(3, 1)
	until := day(3, 31)
	a := Assignment{ID: "A", EffectiveFrom: from, EffectiveUntil: &until, CreatedAt: from}

	if _, ok := ResolveActive(from, []Assignment{a}); !ok {
		t.Error("window should include its start")
	}
	if _, ok := ResolveActive(until, []Assignment{a}); !ok {
		t.Error("window should include its end")
	}
	if _, ok := ResolveActive(until.Add(time.Nanosecond), []Assignment{a}); ok {
		t.Error("window should exclude instants after its end")
	}
	if _, ok := ResolveActive(from.Add(-time.Nanosecond), []Assignment{a}); ok {
		t.Error("window should exclude instants before its start")
	}
}

func TestResolveActive_None(t *testing.T) {
	if _, ok := ResolveActive(day(7, 1), nil); ok {
		t.Error("empty set should resolve to none")
	}
	expired := Assignment{ID: "A", EffectiveFrom: day(1, 1), EffectiveUntil: ptr(day(2, 1)), CreatedAt: day(1, 1)}
	if _, ok := ResolveActive(day(7, 1), []Assignment{expired}); ok {
		t.Error("expired window should resolve to none")
	}
}

func TestResolveActive_ToleratesInvertedWindow(t *testing.T) {
	inverted := Assignment{ID: "bad", EffectiveFrom: day(8, 1), EffectiveUntil: ptr(day(6, 1)), CreatedAt: day(9, 1)}
	ok := Assignment{ID: "good", EffectiveFrom: day(1, 1), CreatedAt: day(1, 1)}
	zero := Assignment{ID: "zero", CreatedAt: day(9, 2)}

	got, found := ResolveActive(day(7, 1), []Assignment{inverted, ok, zero})
	if !found || got.ID != "good" {
		t.Errorf("ResolveActive = (%q, %v), want (good, true)", got.ID, found)
	}
	if inverted.WindowValid() {
		t.Error("inverted window should be invalid")
	}
}

func TestResolveActive_TieBreakDeterministic(t *testing.T) {
	created := day(5, 1)
	a := Assignment{ID: "A", EffectiveFrom: day(1, 1), CreatedAt: created}
	b := Assignment{ID: "B", EffectiveFrom: day(2, 1), CreatedAt: created}
	c := Assignment{ID: "C", EffectiveFrom: day(2, 1), CreatedAt: created}

	got, _ := ResolveActive(day(7, 1), []Assignment{c, a, b})
	if got.ID != "C" {
		t.Errorf("ResolveActive = %q, want C", got.ID)
	}
}

func TestShiftByID(t *testing.T) {
	m := ShiftByID([]Shift{{ID: "s1", Name: "Morning"}, {ID: "s2", Name: "Night"}})
	if m["s2"].Name != "Night" {
		t.Errorf("ShiftByID[s2] = %+v", m["s2"])
	}
}
