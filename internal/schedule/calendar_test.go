package schedule

import (
	"testing"
	"time"
)

func TestCalendarWindow(t *testing.T) {
	pivot := time.Date(2026, 3, 2, 17, 45, 0, 0, time.UTC)
	cal := NewCalendar(pivot)

	start, end := cal.Window()
	if !start.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected window start %v", start)
	}
	if !end.Equal(time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected window end %v", end)
	}

	days := cal.Days()
	if !days[1].Equal(cal.Pivot()) {
		t.Fatalf("middle day %v does not match pivot %v", days[1], cal.Pivot())
	}
}

func TestCalendarAdvanceShiftsPivotAndDropsSelection(t *testing.T) {
	pivot := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	cal := NewCalendar(pivot)

	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	if !cal.Select(nil, pivot, "9:00 AM", now) {
		t.Fatal("expected selection of an available slot to succeed")
	}
	if _, ok := cal.Selection(); !ok {
		t.Fatal("expected a recorded selection")
	}

	cal.Advance(Forward)
	if !cal.Pivot().Equal(pivot.AddDate(0, 0, 1)) {
		t.Fatalf("unexpected pivot after advance: %v", cal.Pivot())
	}
	if _, ok := cal.Selection(); ok {
		t.Fatal("expected advance to drop the selection")
	}

	cal.Advance(Backward)
	cal.Advance(Backward)
	if !cal.Pivot().Equal(pivot.AddDate(0, 0, -1)) {
		t.Fatalf("unexpected pivot after backward advances: %v", cal.Pivot())
	}
}

func TestCalendarSelectIgnoresUnavailableSlot(t *testing.T) {
	pivot := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	cal := NewCalendar(pivot)

	// Slot already in the past relative to now.
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	if cal.Select(nil, pivot, "9:00 AM", now) {
		t.Fatal("expected selection of a past slot to be refused")
	}
	if _, ok := cal.Selection(); ok {
		t.Fatal("expected no selection after refused select")
	}
}

func TestCalendarClearSelection(t *testing.T) {
	pivot := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	cal := NewCalendar(pivot)

	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	if !cal.Select(nil, pivot, "2:00 PM", now) {
		t.Fatal("expected selection to succeed")
	}

	cal.ClearSelection()
	if _, ok := cal.Selection(); ok {
		t.Fatal("expected selection to be cleared")
	}
	if state := cal.StateFor(nil, pivot, "2:00 PM", now); state != SlotAvailable {
		t.Fatalf("expected slot to read available again, got %q", state)
	}
}

func TestCalendarStateForOverlaysSelection(t *testing.T) {
	pivot := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	cal := NewCalendar(pivot)

	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	if !cal.Select(nil, pivot, "10:00 AM", now) {
		t.Fatal("expected selection to succeed")
	}

	if state := cal.StateFor(nil, pivot, "10:00 AM", now); state != SlotSelected {
		t.Fatalf("expected selected, got %q", state)
	}
	if state := cal.StateFor(nil, pivot, "11:00 AM", now); state != SlotAvailable {
		t.Fatalf("expected other slots unaffected, got %q", state)
	}
}
