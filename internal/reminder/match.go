package reminder

import (
	"time"

	"reminder-service/internal/models"
)

const (
	// DefaultLookahead keeps the largest supported offset (24h) reachable
	// by the next sweep without gaps.
	DefaultLookahead = 25 * time.Hour

	// DefaultTolerance absorbs sweep-cadence jitter around each offset.
	DefaultTolerance = 5

	// FinalThresholdMinutes: a dispatch at or under this mark also sets
	// reminder_sent on the appointment. Earlier tiers do not.
	FinalThresholdMinutes = 60
)

type MatchOptions struct {
	Lookahead        time.Duration
	ToleranceMinutes int
}

func (o MatchOptions) withDefaults() MatchOptions {
	if o.Lookahead <= 0 {
		o.Lookahead = DefaultLookahead
	}
	if o.ToleranceMinutes <= 0 {
		o.ToleranceMinutes = DefaultTolerance
	}
	return o
}

type DueReminder struct {
	Appointment   models.Appointment
	OffsetMinutes int
	MinutesUntil  int
	// Final marks the terminal reminder tier; on successful dispatch the
	// appointment's reminder_sent flag is set.
	Final bool
}

// FindDue selects, per appointment, the first configured offset (in
// configuration order) that now has passed by at most the tolerance. The
// tolerance is one-sided: sweeps run late, never early, so a reminder fires
// at or after its offset point but never before it. At most one reminder per
// appointment per sweep.
func FindDue(now time.Time, appts []models.Appointment, offsetsByBusiness map[string][]int, opts MatchOptions) []DueReminder {
	opts = opts.withDefaults()

	var due []DueReminder

	for _, appt := range appts {
		if appt.Status != models.AppointmentScheduled && appt.Status != models.AppointmentConfirmed {
			continue
		}

		until := appt.StartTime.Sub(now)
		if until < 0 || until > opts.Lookahead {
			continue
		}

		minutesUntil := int(until / time.Minute)

		for _, offset := range offsetsByBusiness[appt.BusinessID] {
			if minutesUntil > offset || offset-minutesUntil > opts.ToleranceMinutes {
				continue
			}

			due = append(due, DueReminder{
				Appointment:   appt,
				OffsetMinutes: offset,
				MinutesUntil:  minutesUntil,
				Final:         minutesUntil <= FinalThresholdMinutes,
			})
			break
		}
	}

	return due
}

// ValidateOffsets rejects configurations where two offsets sit close
// enough that both could match the same sweep.
func ValidateOffsets(offsets []int, toleranceMinutes int) bool {
	if toleranceMinutes <= 0 {
		toleranceMinutes = DefaultTolerance
	}

	for i := 0; i < len(offsets); i++ {
		if offsets[i] <= 0 {
			return false
		}
		for j := i + 1; j < len(offsets); j++ {
			diff := offsets[i] - offsets[j]
			if diff < 0 {
				diff = -diff
			}
			if diff <= 2*toleranceMinutes {
				return false
			}
		}
	}

	return true
}
