package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"reminder-service/api"
	"reminder-service/internal/interval"
	"reminder-service/internal/schedule"
	"reminder-service/pkg/response"
)

// CheckConflict validates a candidate weekly schedule and reports overlaps
// against the employee's existing employments. Upstream fetch failures
// surface as ErrFetch; a failed fetch never reads as "no conflict".
func (s *Service) CheckConflict(ctx context.Context, req *api.ConflictCheckRequest) (*api.ConflictCheckResponse, error) {
	const op = "service.CheckConflict"

	candidate, err := buildCandidate(req.Schedule)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	employments, err := s.store.ListEmployments(ctx, req.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, response.ErrFetch, err)
	}

	result := schedule.CheckConflict(candidate, employments)

	resp := &api.ConflictCheckResponse{
		HasConflict: result.HasConflict,
		Conflicts:   make([]api.ConflictReportResponse, 0, len(result.Conflicts)),
	}

	for _, report := range result.Conflicts {
		out := api.ConflictReportResponse{
			EmployerID:   report.EmployerID,
			EmployerName: report.EmployerName,
		}
		for _, d := range report.ConflictingDays {
			out.ConflictingDays = append(out.ConflictingDays, strings.ToLower(d.String()))
		}
		for _, ov := range report.Overlaps {
			out.Overlaps = append(out.Overlaps, api.DayOverlapResponse{
				Day:            strings.ToLower(ov.Day.String()),
				ExistingRange:  ov.ExistingRange.String(),
				CandidateRange: ov.CandidateRange.String(),
				OverlapRange:   ov.OverlapRange.String(),
			})
		}
		resp.Conflicts = append(resp.Conflicts, out)
	}

	return resp, nil
}

func buildCandidate(entries []api.WorkIntervalRequest) (schedule.WeeklySchedule, error) {
	var candidate schedule.WeeklySchedule

	for i, d := range schedule.WeekOrder {
		candidate[i] = schedule.WorkInterval{Day: d}
	}

	for _, entry := range entries {
		wd, ok := parseWeekdayFlexible(entry.Day)
		if !ok {
			return candidate, fmt.Errorf("invalid day %q: %w", entry.Day, response.ErrBadRequest)
		}

		// a disabled day never conflicts regardless of times, so the
		// times are not parsed at all
		if !entry.Enabled {
			candidate[weekIndex(wd)] = schedule.WorkInterval{Day: wd}
			continue
		}

		start, err := interval.ToMinutes(entry.Start)
		if err != nil {
			return candidate, err
		}

		end, err := interval.ToMinutes(entry.End)
		if err != nil {
			return candidate, err
		}

		if start >= end {
			return candidate, fmt.Errorf("day %q: start must precede end: %w", entry.Day, response.ErrBadRequest)
		}

		candidate[weekIndex(wd)] = schedule.WorkInterval{
			Day:         wd,
			StartMinute: start,
			EndMinute:   end,
			Enabled:     true,
		}
	}

	return candidate, nil
}

// weekIndex maps a time.Weekday onto the Monday-first WeekOrder index.
func weekIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// parseWeekdayFlexible accepts the formats callers tend to send:
// "mon", "monday", "Mon", "1", "0" and so on (0 = Sunday).
func parseWeekdayFlexible(s string) (time.Weekday, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, false
	}
	// numeric
	if n, err := strconv.Atoi(s); err == nil {
		// 0..6 (Sunday=0)
		if n >= 0 && n <= 6 {
			return time.Weekday(n), true
		}
		// 1..7 (Mon=1..Sun=7)
		if n == 7 {
			return time.Sunday, true
		}
		return 0, false
	}

	switch s {
	case "sun", "sunday":
		return time.Sunday, true
	case "mon", "monday":
		return time.Monday, true
	case "tue", "tues", "tuesday":
		return time.Tuesday, true
	case "wed", "wednesday":
		return time.Wednesday, true
	case "thu", "thur", "thursday":
		return time.Thursday, true
	case "fri", "friday":
		return time.Friday, true
	case "sat", "saturday":
		return time.Saturday, true
	default:
		return 0, false
	}
}
