package services

import (
	"testing"
	"time"

	"github.com/facetrack/facetrackbackend/models"
)

func at(hour, min int) time.Time {
	return time.Date(2026, 3, 2, hour, min, 0, 0, time.UTC)
}

func TestValidAction(t *testing.T) {
	tests := []struct {
		action string
		want   bool
	}{
		{ActionCheckIn, true},
		{ActionBreakStart, true},
		{ActionBreakEnd, true},
		{ActionCheckOut, true},
		{"check_in", false},
		{"", false},
		{"CHECKIN", false},
	}
	for _, tc := range tests {
		t.Run(tc.action, func(t *testing.T) {
			if got := ValidAction(tc.action); got != tc.want {
				t.Errorf("ValidAction(%q) = %v, want %v", tc.action, got, tc.want)
			}
		})
	}
}

func TestApplyActionFullDay(t *testing.T) {
	rec := &models.Attendance{}

	steps := []struct {
		action  string
		now     time.Time
		status  string
		mutated bool
	}{
		{ActionCheckIn, at(9, 0), StatusCheckedIn, true},
		{ActionBreakStart, at(12, 0), StatusBreakStarted, true},
		{ActionBreakEnd, at(13, 0), StatusBreakEnded, true},
		{ActionCheckOut, at(18, 0), StatusCheckedOut, true},
	}
	for _, step := range steps {
		status, mutated := ApplyAction(rec, step.action, step.now)
		if status != step.status || mutated != step.mutated {
			t.Fatalf("ApplyAction(%s) = (%q, %v), want (%q, %v)",
				step.action, status, mutated, step.status, step.mutated)
		}
	}

	if rec.TotalWorkSecs != 9*3600 {
		t.Errorf("TotalWorkSecs = %d, want %d", rec.TotalWorkSecs, 9*3600)
	}
	if rec.BreakSecs != 3600 {
		t.Errorf("BreakSecs = %d, want %d", rec.BreakSecs, 3600)
	}
	if rec.ActualWorkSecs != 8*3600 {
		t.Errorf("ActualWorkSecs = %d, want %d", rec.ActualWorkSecs, 8*3600)
	}
}

func TestApplyActionOrdering(t *testing.T) {
	now := at(9, 0)

	tests := []struct {
		name   string
		setup  func() *models.Attendance
		action string
		want   string
	}{
		{
			"break start before checkin",
			func() *models.Attendance { return &models.Attendance{} },
			ActionBreakStart, StatusCheckinMissing,
		},
		{
			"break end before checkin",
			func() *models.Attendance { return &models.Attendance{} },
			ActionBreakEnd, StatusCheckinMissing,
		},
		{
			"checkout before checkin",
			func() *models.Attendance { return &models.Attendance{} },
			ActionCheckOut, StatusCheckinMissing,
		},
		{
			"break end without break start",
			func() *models.Attendance {
				ci := at(9, 0)
				return &models.Attendance{CheckIn: &ci}
			},
			ActionBreakEnd, StatusBreakNotStarted,
		},
		{
			"checkout while on break",
			func() *models.Attendance {
				ci, bs := at(9, 0), at(12, 0)
				return &models.Attendance{CheckIn: &ci, BreakStart: &bs}
			},
			ActionCheckOut, StatusCannotCheckoutBreak,
		},
		{
			"second break not allowed",
			func() *models.Attendance {
				ci, bs, be := at(9, 0), at(12, 0), at(13, 0)
				return &models.Attendance{CheckIn: &ci, BreakStart: &bs, BreakEnd: &be}
			},
			ActionBreakStart, StatusAlreadyBreakEnded,
		},
		{
			"unknown action",
			func() *models.Attendance { return &models.Attendance{} },
			"wave", StatusInvalidAction,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := tc.setup()
			before := *rec
			status, mutated := ApplyAction(rec, tc.action, now)
			if status != tc.want {
				t.Errorf("status = %q, want %q", status, tc.want)
			}
			if mutated {
				t.Error("rejected action mutated the record")
			}
			if *rec != before {
				t.Error("rejected action changed record fields")
			}
		})
	}
}

func TestApplyActionIdempotence(t *testing.T) {
	ci := at(9, 0)

	tests := []struct {
		name   string
		setup  func() *models.Attendance
		action string
		want   string
	}{
		{
			"double checkin",
			func() *models.Attendance { return &models.Attendance{CheckIn: &ci} },
			ActionCheckIn, StatusAlreadyCheckedIn,
		},
		{
			"double break start",
			func() *models.Attendance {
				bs := at(12, 0)
				return &models.Attendance{CheckIn: &ci, BreakStart: &bs}
			},
			ActionBreakStart, StatusAlreadyOnBreak,
		},
		{
			"double break end",
			func() *models.Attendance {
				bs, be := at(12, 0), at(13, 0)
				return &models.Attendance{CheckIn: &ci, BreakStart: &bs, BreakEnd: &be}
			},
			ActionBreakEnd, StatusAlreadyBreakEnded,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := tc.setup()
			status, mutated := ApplyAction(rec, tc.action, at(14, 0))
			if status != tc.want || mutated {
				t.Errorf("ApplyAction = (%q, %v), want (%q, false)", status, mutated, tc.want)
			}
		})
	}
}

func TestApplyActionClosedDayIsImmutable(t *testing.T) {
	ci, co := at(9, 0), at(18, 0)
	rec := &models.Attendance{CheckIn: &ci, CheckOut: &co, TotalWorkSecs: 9 * 3600, ActualWorkSecs: 9 * 3600}

	for _, action := range []string{ActionCheckIn, ActionBreakStart, ActionBreakEnd, ActionCheckOut} {
		t.Run(action, func(t *testing.T) {
			before := *rec
			status, mutated := ApplyAction(rec, action, at(19, 0))
			if status != StatusAlreadyCheckedOut {
				t.Errorf("status = %q, want %q", status, StatusAlreadyCheckedOut)
			}
			if mutated || *rec != before {
				t.Error("closed record was mutated")
			}
		})
	}
}

func TestApplyActionCheckoutWithoutBreak(t *testing.T) {
	rec := &models.Attendance{}
	ApplyAction(rec, ActionCheckIn, at(9, 0))
	status, mutated := ApplyAction(rec, ActionCheckOut, at(17, 30))

	if status != StatusCheckedOut || !mutated {
		t.Fatalf("ApplyAction(checkout) = (%q, %v), want (%q, true)", status, mutated, StatusCheckedOut)
	}
	want := int64(8*3600 + 1800)
	if rec.TotalWorkSecs != want || rec.ActualWorkSecs != want || rec.BreakSecs != 0 {
		t.Errorf("durations = total %d break %d actual %d, want total/actual %d break 0",
			rec.TotalWorkSecs, rec.BreakSecs, rec.ActualWorkSecs, want)
	}
}
