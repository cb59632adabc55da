package services

import (
	"time"

	"github.com/facetrack/facetrackbackend/models"
)

// Attendance actions accepted by the workflow.
const (
	ActionCheckIn    = "checkin"
	ActionBreakStart = "break_start"
	ActionBreakEnd   = "break_end"
	ActionCheckOut   = "checkout"
)

// Workflow outcome statuses. Success and rejection are both plain statuses;
// an out-of-order action is a normal answer, not an error.
const (
	StatusCheckedIn            = "checked_in"
	StatusAlreadyCheckedIn     = "already_checked_in"
	StatusBreakStarted         = "break_started"
	StatusAlreadyOnBreak       = "already_on_break"
	StatusBreakEnded           = "break_ended"
	StatusBreakNotStarted      = "break_not_started"
	StatusAlreadyBreakEnded    = "already_break_ended"
	StatusCheckedOut           = "checked_out"
	StatusAlreadyCheckedOut    = "already_checked_out"
	StatusCheckinMissing       = "checkin_missing"
	StatusCannotCheckoutBreak  = "cannot_checkout_on_break"
	StatusInvalidAction        = "invalid_action"
)

// ValidAction reports whether the action name is one the workflow accepts.
func ValidAction(action string) bool {
	switch action {
	case ActionCheckIn, ActionBreakStart, ActionBreakEnd, ActionCheckOut:
		return true
	}
	return false
}

// ApplyAction runs one action through the per-day attendance state machine,
// mutating the record in place on success. It returns the outcome status and
// whether the record changed. Repeating a successful action is
// idempotent-safe: it returns a descriptive rejection and mutates nothing.
// Once check_out is set the record is immutable for the day.
func ApplyAction(record *models.Attendance, action string, now time.Time) (string, bool) {
	switch action {
	case ActionCheckIn:
		if record.Closed() {
			return StatusAlreadyCheckedOut, false
		}
		if record.CheckIn != nil {
			return StatusAlreadyCheckedIn, false
		}
		t := now
		record.CheckIn = &t
		return StatusCheckedIn, true

	case ActionBreakStart:
		if record.Closed() {
			return StatusAlreadyCheckedOut, false
		}
		if record.CheckIn == nil {
			return StatusCheckinMissing, false
		}
		if record.OnBreak() {
			return StatusAlreadyOnBreak, false
		}
		if record.BreakEnd != nil {
			return StatusAlreadyBreakEnded, false
		}
		t := now
		record.BreakStart = &t
		return StatusBreakStarted, true

	case ActionBreakEnd:
		if record.Closed() {
			return StatusAlreadyCheckedOut, false
		}
		if record.CheckIn == nil {
			return StatusCheckinMissing, false
		}
		if record.BreakStart == nil {
			return StatusBreakNotStarted, false
		}
		if record.BreakEnd != nil {
			return StatusAlreadyBreakEnded, false
		}
		t := now
		record.BreakEnd = &t
		recomputeDurations(record)
		return StatusBreakEnded, true

	case ActionCheckOut:
		if record.Closed() {
			return StatusAlreadyCheckedOut, false
		}
		if record.CheckIn == nil {
			return StatusCheckinMissing, false
		}
		if record.OnBreak() {
			return StatusCannotCheckoutBreak, false
		}
		t := now
		record.CheckOut = &t
		recomputeDurations(record)
		return StatusCheckedOut, true

	default:
		return StatusInvalidAction, false
	}
}

// recomputeDurations derives the record's duration fields from its
// timestamps: total work from check-in to check-out, break time from the
// break pair, actual work as their difference floored at zero.
func recomputeDurations(record *models.Attendance) {
	if record.BreakStart != nil && record.BreakEnd != nil {
		record.BreakSecs = int64(record.BreakEnd.Sub(*record.BreakStart).Seconds())
	}
	if record.CheckIn != nil && record.CheckOut != nil {
		record.TotalWorkSecs = int64(record.CheckOut.Sub(*record.CheckIn).Seconds())
		actual := record.TotalWorkSecs - record.BreakSecs
		if actual < 0 {
			actual = 0
		}
		record.ActualWorkSecs = actual
	}
}
