package schedule

import (
	"testing"
	"time"

	"reminder-service/internal/interval"
)

// week builds a schedule enabled on the given days with one common range.
func week(start, end int, days ...time.Weekday) WeeklySchedule {
	var s WeeklySchedule
	for i, d := range WeekOrder {
		s[i] = WorkInterval{Day: d, StartMinute: start, EndMinute: end}
		for _, enabled := range days {
			if enabled == d {
				s[i].Enabled = true
			}
		}
	}
	return s
}

func TestCheckConflictDisjointDays(t *testing.T) {
	candidate := week(540, 1020, time.Monday, time.Wednesday)

	employments := []Employment{
		{EmployerID: "b1", EmployerName: "Barber One", Schedule: week(540, 1020, time.Tuesday, time.Thursday)},
		{EmployerID: "b2", EmployerName: "Salon Two", Schedule: week(540, 1020, time.Saturday)},
	}

	result := CheckConflict(candidate, employments)
	if result.HasConflict {
		t.Fatalf("expected no conflict, got %+v", result.Conflicts)
	}
	if len(result.Conflicts) != 0 {
		t.Fatalf("expected empty conflicts, got %d", len(result.Conflicts))
	}
}

func TestCheckConflictDisabledDayNeverConflicts(t *testing.T) {
	// Same times on Monday, but Monday disabled on the existing side.
	candidate := week(540, 1020, time.Monday)
	existing := week(540, 1020) // nothing enabled

	result := CheckConflict(candidate, []Employment{{EmployerID: "b1", Schedule: existing}})
	if result.HasConflict {
		t.Fatal("disabled day must never conflict")
	}
}

func TestCheckConflictTouchingRanges(t *testing.T) {
	candidate := week(540, 720, time.Monday)   // 09:00-12:00
	existing := week(720, 1020, time.Monday)   // 12:00-17:00

	result := CheckConflict(candidate, []Employment{{EmployerID: "b1", Schedule: existing}})
	if result.HasConflict {
		t.Fatal("touching ranges must not conflict")
	}
}

func TestCheckConflictReportsOverlapDetail(t *testing.T) {
	candidate := week(540, 840, time.Monday, time.Friday) // 09:00-14:00

	employments := []Employment{
		{EmployerID: "b2", EmployerName: "Salon Two", Schedule: week(780, 1080, time.Friday)},  // 13:00-18:00
		{EmployerID: "b1", EmployerName: "Barber One", Schedule: week(600, 660, time.Monday)},  // 10:00-11:00
	}

	result := CheckConflict(candidate, employments)
	if !result.HasConflict {
		t.Fatal("expected conflict")
	}
	if len(result.Conflicts) != 2 {
		t.Fatalf("expected 2 conflict reports, got %d", len(result.Conflicts))
	}

	// input order preserved
	if result.Conflicts[0].EmployerID != "b2" || result.Conflicts[1].EmployerID != "b1" {
		t.Fatalf("conflict order not preserved: %s, %s", result.Conflicts[0].EmployerID, result.Conflicts[1].EmployerID)
	}

	first := result.Conflicts[0]
	if len(first.Overlaps) != 1 || first.Overlaps[0].Day != time.Friday {
		t.Fatalf("unexpected overlaps for b2: %+v", first.Overlaps)
	}
	want := interval.Range{Start: 780, End: 840} // 13:00-14:00
	if first.Overlaps[0].OverlapRange != want {
		t.Fatalf("overlap range = %+v, want %+v", first.Overlaps[0].OverlapRange, want)
	}

	second := result.Conflicts[1]
	if second.Overlaps[0].OverlapRange != (interval.Range{Start: 600, End: 660}) {
		t.Fatalf("contained overlap = %+v", second.Overlaps[0].OverlapRange)
	}
}

func TestCheckConflictDaysInWeekOrder(t *testing.T) {
	candidate := week(540, 1020, time.Monday, time.Wednesday, time.Sunday)
	existing := week(540, 1020, time.Sunday, time.Monday, time.Wednesday)

	result := CheckConflict(candidate, []Employment{{EmployerID: "b1", Schedule: existing}})
	if !result.HasConflict {
		t.Fatal("expected conflict")
	}

	days := result.Conflicts[0].ConflictingDays
	wantDays := []time.Weekday{time.Monday, time.Wednesday, time.Sunday}
	if len(days) != len(wantDays) {
		t.Fatalf("conflicting days = %v, want %v", days, wantDays)
	}
	for i := range wantDays {
		if days[i] != wantDays[i] {
			t.Fatalf("conflicting days = %v, want %v", days, wantDays)
		}
	}
}
