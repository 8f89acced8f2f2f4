package booking

import (
	"fmt"
	"time"

	"labportal/internal/models"
)

// Period is a half-open absolute time range [Start, End).
type Period struct {
	Start time.Time
	End   time.Time
}

// Overlaps treats touching endpoints as disjoint.
func (p Period) Overlaps(o Period) bool {
	return p.Start.Before(o.End) && o.Start.Before(p.End)
}

// PeriodOf converts a booking's date/time fields into an absolute range.
// Equipment covers whole days; labs are resolved to the minute, with absent
// times defaulting to 00:00 and 23:59.
func PeriodOf(b *models.Booking) (Period, error) {
	startDay, err := time.Parse(models.DateLayout, b.StartDate)
	if err != nil {
		return Period{}, fmt.Errorf("booking %s start date: %w", b.ID, err)
	}
	endDay, err := time.Parse(models.DateLayout, b.EndDate)
	if err != nil {
		return Period{}, fmt.Errorf("booking %s end date: %w", b.ID, err)
	}

	if b.ItemType != models.ItemTypeLab {
		return Period{
			Start: startDay,
			End:   endDay.Add(24*time.Hour - time.Millisecond),
		}, nil
	}

	startClock, err := clockOrDefault(b.StartTime, "00:00")
	if err != nil {
		return Period{}, fmt.Errorf("booking %s start time: %w", b.ID, err)
	}
	endClock, err := clockOrDefault(b.EndTime, "23:59")
	if err != nil {
		return Period{}, fmt.Errorf("booking %s end time: %w", b.ID, err)
	}
	return Period{
		Start: startDay.Add(startClock),
		End:   endDay.Add(endClock),
	}, nil
}

func clockOrDefault(raw, def string) (time.Duration, error) {
	if raw == "" {
		raw = def
	}
	m, err := clockMinutes(raw)
	if err != nil {
		return 0, err
	}
	return time.Duration(m) * time.Minute, nil
}

// Overlaps reports whether two bookings compete for the same item at the same
// time. Different items and declined bookings never overlap.
func Overlaps(a, b *models.Booking) bool {
	_, ok := overlap(a, b)
	return ok
}

func overlap(candidate, other *models.Booking) (models.ConflictType, bool) {
	if candidate.ItemID != other.ItemID {
		return "", false
	}
	if candidate.Status == models.StatusDeclined || other.Status == models.StatusDeclined {
		return "", false
	}
	pc, err := PeriodOf(candidate)
	if err != nil {
		return "", false
	}
	po, err := PeriodOf(other)
	if err != nil {
		return "", false
	}
	if !pc.Overlaps(po) {
		return "", false
	}
	return Classify(pc, po), true
}

// Classify describes candidate relative to other. Both ranges must overlap.
func Classify(candidate, other Period) models.ConflictType {
	sameStart := candidate.Start.Equal(other.Start)
	sameEnd := candidate.End.Equal(other.End)
	switch {
	case sameStart && sameEnd:
		return models.ConflictExactMatch
	case !candidate.Start.Before(other.Start) && !candidate.End.After(other.End):
		return models.ConflictFullyContained
	case !candidate.Start.After(other.Start) && !candidate.End.Before(other.End):
		return models.ConflictFullyContains
	default:
		return models.ConflictPartialOverlap
	}
}
