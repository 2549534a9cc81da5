package interval

import (
	"fmt"

	"reminder-service/pkg/response"
)

// Range is a half-open span of minutes since midnight: [Start, End).
type Range struct {
	Start int
	End   int
}

func (r Range) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", r.Start/60, r.Start%60, r.End/60, r.End%60)
}

// ToMinutes parses a strict "HH:MM" value into minutes since midnight.
func ToMinutes(hhmm string) (int, error) {
	const op = "interval.ToMinutes"

	if len(hhmm) != 5 || hhmm[2] != ':' {
		return 0, fmt.Errorf("%s: %q: %w", op, hhmm, response.ErrParse)
	}

	for _, i := range []int{0, 1, 3, 4} {
		if hhmm[i] < '0' || hhmm[i] > '9' {
			return 0, fmt.Errorf("%s: %q: %w", op, hhmm, response.ErrParse)
		}
	}

	hours := int(hhmm[0]-'0')*10 + int(hhmm[1]-'0')
	minutes := int(hhmm[3]-'0')*10 + int(hhmm[4]-'0')

	if hours > 23 || minutes > 59 {
		return 0, fmt.Errorf("%s: %q: %w", op, hhmm, response.ErrParse)
	}

	return hours*60 + minutes, nil
}

// Overlap returns the intersection of two half-open ranges. Touching
// endpoints do not overlap.
func Overlap(aStart, aEnd, bStart, bEnd int) (Range, bool) {
	if aEnd <= bStart || bEnd <= aStart {
		return Range{}, false
	}

	return Range{
		Start: max(aStart, bStart),
		End:   min(aEnd, bEnd),
	}, true
}
