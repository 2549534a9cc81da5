package reminder

import (
	"testing"
	"time"

	"reminder-service/internal/models"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func appt(id string, startIn time.Duration, status models.AppointmentStatus) models.Appointment {
	return models.Appointment{
		ID:         id,
		BusinessID: "biz1",
		Status:     status,
		StartTime:  now.Add(startIn),
	}
}

func TestFindDueMatchesOffset(t *testing.T) {
	offsets := map[string][]int{"biz1": {1440, 60}}

	appts := []models.Appointment{
		appt("a1", 24*time.Hour, models.AppointmentScheduled),
		appt("a2", 60*time.Minute, models.AppointmentConfirmed),
		appt("a3", 7*time.Hour, models.AppointmentScheduled), // no offset near
	}

	due := FindDue(now, appts, offsets, MatchOptions{})
	if len(due) != 2 {
		t.Fatalf("expected 2 due reminders, got %d: %+v", len(due), due)
	}

	if due[0].Appointment.ID != "a1" || due[0].OffsetMinutes != 1440 {
		t.Fatalf("unexpected first match: %+v", due[0])
	}
	if due[0].Final {
		t.Fatal("24h tier must not be final")
	}

	if due[1].Appointment.ID != "a2" || due[1].OffsetMinutes != 60 {
		t.Fatalf("unexpected second match: %+v", due[1])
	}
	if !due[1].Final {
		t.Fatal("60m tier must be final")
	}
}

func TestFindDueToleranceBoundary(t *testing.T) {
	offsets := map[string][]int{"biz1": {60}}

	// the offset point has not been reached yet; never fire early
	due := FindDue(now, []models.Appointment{appt("a1", 61*time.Minute, models.AppointmentScheduled)}, offsets, MatchOptions{})
	if len(due) != 0 {
		t.Fatalf("61m must not match the 60m offset yet, got %+v", due)
	}

	due = FindDue(now, []models.Appointment{appt("a1", 60*time.Minute, models.AppointmentScheduled)}, offsets, MatchOptions{})
	if len(due) != 1 {
		t.Fatalf("60m should match the 60m offset, got %d", len(due))
	}
	if !due[0].Final {
		t.Fatal("60m tier must be final")
	}

	// a sweep running late still catches the offset within tolerance
	due = FindDue(now, []models.Appointment{appt("a1", 55*time.Minute, models.AppointmentScheduled)}, offsets, MatchOptions{})
	if len(due) != 1 {
		t.Fatalf("55m should still match the 60m offset")
	}

	due = FindDue(now, []models.Appointment{appt("a1", 54*time.Minute, models.AppointmentScheduled)}, offsets, MatchOptions{})
	if len(due) != 0 {
		t.Fatalf("54m is past the tolerance, got %+v", due)
	}
}

func TestFindDueSkipsIneligibleStatuses(t *testing.T) {
	offsets := map[string][]int{"biz1": {60}}

	appts := []models.Appointment{
		appt("a1", 60*time.Minute, models.AppointmentCancelled),
		appt("a2", 60*time.Minute, models.AppointmentCompleted),
		appt("a3", 60*time.Minute, models.AppointmentInProgress),
		appt("a4", 60*time.Minute, models.AppointmentNoShow),
	}

	if due := FindDue(now, appts, offsets, MatchOptions{}); len(due) != 0 {
		t.Fatalf("ineligible statuses matched: %+v", due)
	}
}

func TestFindDueIgnoresPastAndBeyondWindow(t *testing.T) {
	offsets := map[string][]int{"biz1": {60, 1440}}

	appts := []models.Appointment{
		appt("past", -10*time.Minute, models.AppointmentScheduled),
		appt("far", 26*time.Hour, models.AppointmentScheduled),
	}

	if due := FindDue(now, appts, offsets, MatchOptions{}); len(due) != 0 {
		t.Fatalf("out-of-window appointments matched: %+v", due)
	}
}

func TestFindDueFirstOffsetWins(t *testing.T) {
	// Degenerate configuration: two offsets inside one tolerance band.
	offsets := map[string][]int{"biz1": {65, 60}}

	due := FindDue(now, []models.Appointment{appt("a1", 62*time.Minute, models.AppointmentScheduled)}, offsets, MatchOptions{})
	if len(due) != 1 {
		t.Fatalf("expected a single reminder per appointment per sweep, got %d", len(due))
	}
	if due[0].OffsetMinutes != 65 {
		t.Fatalf("first offset in configuration order must win, got %d", due[0].OffsetMinutes)
	}
}

func TestFindDueUnknownBusinessHasNoOffsets(t *testing.T) {
	a := appt("a1", 60*time.Minute, models.AppointmentScheduled)
	a.BusinessID = "unknown"

	if due := FindDue(now, []models.Appointment{a}, map[string][]int{"biz1": {60}}, MatchOptions{}); len(due) != 0 {
		t.Fatalf("business without offsets matched: %+v", due)
	}
}

func TestValidateOffsets(t *testing.T) {
	cases := []struct {
		name    string
		offsets []int
		want    bool
	}{
		{"standard tiers", []int{1440, 60, 15}, true},
		{"within band", []int{60, 65}, false},
		{"exactly 2x tolerance", []int{60, 70}, false},
		{"just outside band", []int{60, 71}, true},
		{"zero offset", []int{0, 60}, false},
		{"negative offset", []int{-10}, false},
		{"empty", nil, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ValidateOffsets(tc.offsets, DefaultTolerance); got != tc.want {
				t.Fatalf("ValidateOffsets(%v) = %v, want %v", tc.offsets, got, tc.want)
			}
		})
	}
}
