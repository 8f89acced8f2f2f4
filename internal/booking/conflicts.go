package booking

import (
	"fmt"
	"strings"

	"labportal/internal/models"
)

type findOptions struct {
	criticalOnly bool
}

// FindOption tunes FindConflicts.
type FindOption func(*findOptions)

// CriticalOnly restricts the search to already approved bookings.
func CriticalOnly() FindOption {
	return func(o *findOptions) { o.criticalOnly = true }
}

// FindConflicts lists every booking in existing that overlaps candidate.
// The candidate itself (by id) and declined bookings are skipped.
func FindConflicts(candidate *models.Booking, existing []*models.Booking, opts ...FindOption) []models.ConflictRecord {
	var o findOptions
	for _, opt := range opts {
		opt(&o)
	}

	var conflicts []models.ConflictRecord
	for _, other := range existing {
		if other == nil {
			continue
		}
		if candidate.ID != "" && other.ID == candidate.ID {
			continue
		}
		if o.criticalOnly && other.Status != models.StatusApproved {
			continue
		}
		kind, ok := overlap(candidate, other)
		if !ok {
			continue
		}
		conflicts = append(conflicts, other.Snapshot(kind))
	}
	return conflicts
}

// HasCriticalConflict is true when any competing booking is already approved.
func HasCriticalConflict(conflicts []models.ConflictRecord) bool {
	for _, c := range conflicts {
		if c.Status == models.StatusApproved {
			return true
		}
	}
	return false
}

// ConflictWarning summarises conflicts for the requester, e.g.
// "Found 2 conflicting booking(s): 1 already approved, 1 pending review".
// It returns "" when there are none.
func ConflictWarning(conflicts []models.ConflictRecord) string {
	if len(conflicts) == 0 {
		return ""
	}
	var approved, pending int
	for _, c := range conflicts {
		switch c.Status {
		case models.StatusApproved:
			approved++
		case models.StatusPending:
			pending++
		}
	}

	var parts []string
	if approved > 0 {
		parts = append(parts, fmt.Sprintf("%d already approved", approved))
	}
	if pending > 0 {
		parts = append(parts, fmt.Sprintf("%d pending review", pending))
	}
	msg := fmt.Sprintf("Found %d conflicting booking(s)", len(conflicts))
	if len(parts) > 0 {
		msg += ": " + strings.Join(parts, ", ")
	}
	return msg
}
