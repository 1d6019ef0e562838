package schedule

import (
	"time"

	"github.com/haritha-dev/TherapyAppBack/internal/models"
)

type Direction int

const (
	Forward Direction = iota
	Backward
)

// Slot is a tentative selection: one calendar day plus a time label.
type Slot struct {
	Day   time.Time
	Label string
}

// Calendar tracks the 3-day rolling window around a pivot date and the
// in-progress slot selection. The selection never persists; it only signals
// that a confirmation step should be shown.
type Calendar struct {
	pivot     time.Time
	selection *Slot
}

func NewCalendar(pivot time.Time) *Calendar {
	return &Calendar{pivot: truncateToDay(pivot)}
}

func (c *Calendar) Pivot() time.Time {
	return c.pivot
}

// Window returns the inclusive [pivot-1, pivot+1] day range.
func (c *Calendar) Window() (time.Time, time.Time) {
	return c.pivot.AddDate(0, 0, -1), c.pivot.AddDate(0, 0, 1)
}

func (c *Calendar) Days() [3]time.Time {
	return [3]time.Time{
		c.pivot.AddDate(0, 0, -1),
		c.pivot,
		c.pivot.AddDate(0, 0, 1),
	}
}

// Advance shifts the pivot one day and drops any tentative selection, since
// the selection belongs to the window it was made in.
func (c *Calendar) Advance(direction Direction) {
	offset := 1
	if direction == Backward {
		offset = -1
	}
	c.pivot = c.pivot.AddDate(0, 0, offset)
	c.selection = nil
}

// Select records a tentative selection and reports whether the caller should
// present the confirmation step. Slots that are not available are a no-op.
func (c *Calendar) Select(bookings []models.BookingRequest, day time.Time, label string, now time.Time) bool {
	if StateFor(bookings, day, label, now) != SlotAvailable {
		return false
	}
	c.selection = &Slot{Day: truncateToDay(day), Label: label}
	return true
}

func (c *Calendar) Selection() (Slot, bool) {
	if c.selection == nil {
		return Slot{}, false
	}
	return *c.selection, true
}

// ClearSelection cancels the confirmation step; no booking is created.
func (c *Calendar) ClearSelection() {
	c.selection = nil
}

// StateFor reports the presentation state of a slot, overlaying the transient
// selected state on top of the derived availability.
func (c *Calendar) StateFor(bookings []models.BookingRequest, day time.Time, label string, now time.Time) SlotState {
	if c.selection != nil && c.selection.Label == label && sameDay(c.selection.Day, day) {
		return SlotSelected
	}
	return StateFor(bookings, day, label, now)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
