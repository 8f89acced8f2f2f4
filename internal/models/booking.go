package models

import "time"

// ConflictRecord is the lightweight snapshot of a competing booking kept on
// each side of a conflict.
type ConflictRecord struct {
	BookingID    string        `json:"bookingId"`
	UserEmail    string        `json:"userEmail"`
	UserName     string        `json:"userName"`
	Status       BookingStatus `json:"status"`
	StartDate    string        `json:"startDate"`
	EndDate      string        `json:"endDate"`
	StartTime    string        `json:"startTime,omitempty"`
	EndTime      string        `json:"endTime,omitempty"`
	ConflictType ConflictType  `json:"conflictType"`
}

type Booking struct {
	ID        string   `json:"id"`
	ItemID    string   `json:"itemId"`
	ItemType  ItemType `json:"itemType"`
	ItemTitle string   `json:"itemTitle"`

	UserEmail       string `json:"userEmail"`
	UserName        string `json:"userName"`
	ContactInfo     string `json:"contactInfo"`
	Purpose         string `json:"purpose"`
	AdditionalNotes string `json:"additionalNotes,omitempty"`

	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	StartTime string `json:"startTime,omitempty"` // labs only
	EndTime   string `json:"endTime,omitempty"`   // labs only

	Status              BookingStatus    `json:"status"`
	HasConflict         bool             `json:"hasConflict"`
	ConflictingBookings []ConflictRecord `json:"conflictingBookings"`

	PreviousStatus        BookingStatus `json:"previousStatus,omitempty"`
	WasApprovedBefore     bool          `json:"wasApprovedBefore"`
	DeclinedAfterApproval bool          `json:"declinedAfterApproval"`

	SubmittedAt time.Time  `json:"submittedAt"`
	ReviewedAt  *time.Time `json:"reviewedAt,omitempty"`
	AdminNote   string     `json:"adminNote,omitempty"`
	TotalCost   float64    `json:"totalCost"`
	Version     int64      `json:"version"`
}

// ConflictWith returns the conflict entry referencing id, if any.
func (b *Booking) ConflictWith(id string) (ConflictRecord, bool) {
	for _, c := range b.ConflictingBookings {
		if c.BookingID == id {
			return c, true
		}
	}
	return ConflictRecord{}, false
}

// Snapshot builds the record other bookings store about b.
func (b *Booking) Snapshot(kind ConflictType) ConflictRecord {
	return ConflictRecord{
		BookingID:    b.ID,
		UserEmail:    b.UserEmail,
		UserName:     b.UserName,
		Status:       b.Status,
		StartDate:    b.StartDate,
		EndDate:      b.EndDate,
		StartTime:    b.StartTime,
		EndTime:      b.EndTime,
		ConflictType: kind,
	}
}

// BookingFilter narrows listing queries. Zero values match everything.
type BookingFilter struct {
	ItemID   string
	Statuses []BookingStatus
	From     string // endDate >= From (YYYY-MM-DD)
	To       string // startDate <= To (YYYY-MM-DD)
}
