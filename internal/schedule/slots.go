package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/haritha-dev/TherapyAppBack/internal/models"
)

// Bookable time labels, fixed per product. Labels are stored verbatim on
// booking rows, so parsing must round-trip exactly.
var (
	MorningSlots   = []string{"9:00 AM", "10:00 AM", "11:00 AM"}
	AfternoonSlots = []string{"1:00 PM", "2:00 PM", "3:00 PM", "4:00 PM"}
)

func SlotLabels() []string {
	labels := make([]string, 0, len(MorningSlots)+len(AfternoonSlots))
	labels = append(labels, MorningSlots...)
	labels = append(labels, AfternoonSlots...)
	return labels
}

func IsSlotLabel(label string) bool {
	for _, known := range SlotLabels() {
		if known == label {
			return true
		}
	}
	return false
}

type SlotState string

const (
	SlotAvailable SlotState = "available"
	SlotBlocked   SlotState = "blocked"
	SlotCompleted SlotState = "completed"
	SlotSelected  SlotState = "selected"
)

// ParseSlotLabel converts a 12-hour label such as "9:00 AM" into a 24-hour
// hour/minute pair. 12 AM maps to hour 0 and 12 PM stays 12.
func ParseSlotLabel(label string) (hour int, minute int, err error) {
	clock, meridiem, found := strings.Cut(strings.TrimSpace(label), " ")
	if !found {
		return 0, 0, fmt.Errorf("invalid slot label %q", label)
	}

	hourPart, minutePart, found := strings.Cut(clock, ":")
	if !found {
		return 0, 0, fmt.Errorf("invalid slot label %q", label)
	}
	hour, err = strconv.Atoi(hourPart)
	if err != nil || hour < 1 || hour > 12 {
		return 0, 0, fmt.Errorf("invalid hour in slot label %q", label)
	}
	minute, err = strconv.Atoi(minutePart)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in slot label %q", label)
	}

	switch meridiem {
	case "AM":
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour != 12 {
			hour += 12
		}
	default:
		return 0, 0, fmt.Errorf("invalid meridiem in slot label %q", label)
	}

	return hour, minute, nil
}

// SlotTime anchors a slot label on a calendar day.
func SlotTime(day time.Time, label string) (time.Time, error) {
	hour, minute, err := ParseSlotLabel(label)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location()), nil
}

// StateFor derives the state of one slot from the bookings fetched for the
// window. Completion is computed against now on every call, never cached:
// an accepted booking whose slot time has passed reads as completed, any
// booking in a blocking status keeps the slot unavailable, and a slot whose
// time has already passed cannot be selected even when empty.
func StateFor(bookings []models.BookingRequest, day time.Time, label string, now time.Time) SlotState {
	slotTime, err := SlotTime(day, label)
	if err != nil {
		return SlotBlocked
	}

	hasAccepted := false
	hasBlocking := false
	for _, booking := range bookings {
		if booking.TimeSlot != label || !sameDay(booking.SessionDate, day) {
			continue
		}
		switch strings.ToLower(booking.Status) {
		case models.BookingStatusAccepted:
			hasAccepted = true
			hasBlocking = true
		case models.BookingStatusPending:
			hasBlocking = true
		}
	}

	if hasAccepted && slotTime.Before(now) {
		return SlotCompleted
	}
	if hasBlocking || slotTime.Before(now) {
		return SlotBlocked
	}
	return SlotAvailable
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
