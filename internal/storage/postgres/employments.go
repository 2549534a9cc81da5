package postgres

import (
	"context"
	"fmt"

	"reminder-service/internal/schedule"
)

// #### employments ####

// ListEmployments returns the employee's approved commitments with their
// weekly schedules, in employer insertion order. Days are stored with
// Monday = 0; missing rows stay disabled.
func (s *Storage) ListEmployments(ctx context.Context, employeeID string) ([]schedule.Employment, error) {
	const op = "storage.postgres.ListEmployments"

	rows, err := s.db.QueryContext(ctx, `SELECT e.id, e.business_id, b.name,
			ws.day, ws.start_minute, ws.end_minute, ws.enabled
		FROM employments e
		JOIN businesses b ON b.id = e.business_id
		LEFT JOIN work_schedules ws ON ws.employment_id = e.id
		WHERE e.employee_id = $1 AND e.status = 'active'
		ORDER BY e.created_at, ws.day`,
		employeeID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var employments []schedule.Employment
	index := make(map[string]int)

	for rows.Next() {
		var employmentID, businessID, businessName string
		var day, startMinute, endMinute *int
		var enabled *bool

		err := rows.Scan(&employmentID, &businessID, &businessName, &day, &startMinute, &endMinute, &enabled)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		i, seen := index[employmentID]
		if !seen {
			emp := schedule.Employment{
				EmployerID:   businessID,
				EmployerName: businessName,
			}
			for d := range schedule.WeekOrder {
				emp.Schedule[d] = schedule.WorkInterval{Day: schedule.WeekOrder[d]}
			}

			employments = append(employments, emp)
			i = len(employments) - 1
			index[employmentID] = i
		}

		if day == nil {
			continue
		}
		if *day < 0 || *day > 6 {
			return nil, fmt.Errorf("%s: day %d out of range", op, *day)
		}

		employments[i].Schedule[*day] = schedule.WorkInterval{
			Day:         schedule.WeekOrder[*day],
			StartMinute: deref(startMinute),
			EndMinute:   deref(endMinute),
			Enabled:     enabled != nil && *enabled,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return employments, nil
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
