package scheduling

import "time"

// CalendarEvent is a read-only snapshot of an existing booking on the
// user's calendar. Start is always before End; the calendar client
// discards upstream rows violating that.
type CalendarEvent struct {
	URI   string    `json:"uri"`
	Name  string    `json:"name"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Slot is a fixed-duration candidate free interval on the calendar.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// BookingDetails is the payload handed to the booking capability.
type BookingDetails struct {
	Subject     string
	Description string
	Start       time.Time
	End         time.Time
}

// BookingResult is returned to the caller after a scheduling attempt.
// ScheduledTime is present iff the booking succeeded.
type BookingResult struct {
	Success       bool       `json:"success"`
	Message       string     `json:"message"`
	ScheduledTime *time.Time `json:"scheduledTime,omitempty"`
}

// Request represents the incoming scheduling payload.
type Request struct {
	Subject     string `json:"subject"`
	Description string `json:"description"`
}
