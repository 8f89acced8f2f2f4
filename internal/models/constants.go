package models

// BookingStatus is the primary state of a booking request.
type BookingStatus string

const (
	StatusPending  BookingStatus = "pending"
	StatusApproved BookingStatus = "approved"
	StatusDeclined BookingStatus = "declined"
)

// Valid reports whether s is one of the known statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDeclined:
		return true
	}
	return false
}

// ItemType decides how a booking's time range is interpreted.
type ItemType string

const (
	ItemTypeLab       ItemType = "lab"
	ItemTypeEquipment ItemType = "equipment"
)

func (t ItemType) Valid() bool {
	return t == ItemTypeLab || t == ItemTypeEquipment
}

// ConflictType classifies how a candidate range relates to a competing one.
type ConflictType string

const (
	ConflictExactMatch     ConflictType = "exact_match"
	ConflictFullyContained ConflictType = "fully_contained"
	ConflictFullyContains  ConflictType = "fully_contains"
	ConflictPartialOverlap ConflictType = "partial_overlap"
)

// Mirror returns the classification as seen from the other booking.
func (c ConflictType) Mirror() ConflictType {
	switch c {
	case ConflictFullyContained:
		return ConflictFullyContains
	case ConflictFullyContains:
		return ConflictFullyContained
	}
	return c
}

// NotificationKind enumerates the events the notification gateway understands.
type NotificationKind string

const (
	NotifyStatusApproved        NotificationKind = "status-approved"
	NotifyStatusDeclined        NotificationKind = "status-declined"
	NotifyStatusRevoked         NotificationKind = "status-revoked"
	NotifyConflictDetectedUser  NotificationKind = "conflict-detected-user"
	NotifyConflictDetectedAdmin NotificationKind = "conflict-detected-admin"
	NotifyConflictClearedAdmin  NotificationKind = "conflict-cleared-admin"
)

const (
	// DateLayout is the wire format for startDate/endDate.
	DateLayout = "2006-01-02"
	// TimeLayout is the wire format for startTime/endTime (24-hour).
	TimeLayout = "15:04"
)
