package scheduling

import (
	"sort"
	"time"
)

// SlotDuration is the fixed length of every bookable slot.
const SlotDuration = time.Hour

// Bookable hours: a slot may start at or after 09:00 and before 17:00.
const (
	businessStartHour = 9
	businessEndHour   = 17
)

// FindSlot computes the next bookable slot given the existing busy
// intervals and the current time. The search is greedy first-fit: it
// takes the first sufficient gap between adjacent events in start
// order, not the earliest free interval overall, and it never considers
// free time before the first event of the day. Known limitation, kept
// intentionally.
func FindSlot(events []CalendarEvent, now time.Time) Slot {
	sorted := make([]CalendarEvent, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	tomorrow := now.AddDate(0, 0, 1)
	candidate := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), businessStartHour, 0, 0, 0, now.Location())

	found := false
	for i := 0; i+1 < len(sorted); i++ {
		if sorted[i+1].Start.Sub(sorted[i].End) >= SlotDuration {
			candidate = sorted[i].End
			found = true
			break
		}
	}
	if !found && len(sorted) > 0 {
		candidate = sorted[len(sorted)-1].End
	}

	switch {
	case candidate.Hour() >= businessEndHour:
		next := candidate.AddDate(0, 0, 1)
		candidate = time.Date(next.Year(), next.Month(), next.Day(), businessStartHour, 0, 0, 0, candidate.Location())
	case candidate.Hour() < businessStartHour:
		candidate = time.Date(candidate.Year(), candidate.Month(), candidate.Day(), businessStartHour, 0, 0, 0, candidate.Location())
	}

	return Slot{Start: candidate, End: candidate.Add(SlotDuration)}
}
