package schedule

import (
	"time"

	"reminder-service/internal/interval"
)

// Weekdays in canonical order, Monday first. Index into WeeklySchedule.
var WeekOrder = [7]time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
	time.Sunday,
}

type WorkInterval struct {
	Day         time.Weekday
	StartMinute int
	EndMinute   int
	Enabled     bool
}

// WeeklySchedule holds one interval per day in WeekOrder.
type WeeklySchedule [7]WorkInterval

// Employment is a read-only snapshot of an already-approved commitment
// to one employer, fetched at conflict-check time.
type Employment struct {
	EmployerID   string
	EmployerName string
	Schedule     WeeklySchedule
}

type DayOverlap struct {
	Day            time.Weekday
	ExistingRange  interval.Range
	CandidateRange interval.Range
	OverlapRange   interval.Range
}

type ConflictReport struct {
	EmployerID      string
	EmployerName    string
	ConflictingDays []time.Weekday
	Overlaps        []DayOverlap
}

type ConflictResult struct {
	HasConflict bool
	Conflicts   []ConflictReport
}

// CheckConflict reports, per employment, the days on which the candidate
// schedule overlaps the existing one. A day disabled on either side is
// never a conflict. Employment input order is preserved; days within a
// report follow WeekOrder. Interval validity (start < end when enabled)
// is enforced upstream.
func CheckConflict(candidate WeeklySchedule, employments []Employment) ConflictResult {
	result := ConflictResult{}

	for _, emp := range employments {
		report := ConflictReport{
			EmployerID:   emp.EmployerID,
			EmployerName: emp.EmployerName,
		}

		for i := range WeekOrder {
			cand := candidate[i]
			existing := emp.Schedule[i]

			if !cand.Enabled || !existing.Enabled {
				continue
			}

			ov, ok := interval.Overlap(cand.StartMinute, cand.EndMinute, existing.StartMinute, existing.EndMinute)
			if !ok {
				continue
			}

			report.ConflictingDays = append(report.ConflictingDays, WeekOrder[i])
			report.Overlaps = append(report.Overlaps, DayOverlap{
				Day:            WeekOrder[i],
				ExistingRange:  interval.Range{Start: existing.StartMinute, End: existing.EndMinute},
				CandidateRange: interval.Range{Start: cand.StartMinute, End: cand.EndMinute},
				OverlapRange:   ov,
			})
		}

		if len(report.ConflictingDays) > 0 {
			result.HasConflict = true
			result.Conflicts = append(result.Conflicts, report)
		}
	}

	return result
}
