package models

import "time"

// NotificationResult is what the gateway reports back for a single delivery.
type NotificationResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NotificationRecord is one row of a booking's notification history.
type NotificationRecord struct {
	ID        int64            `json:"id"`
	BookingID string           `json:"bookingId"`
	Kind      NotificationKind `json:"kind"`
	Recipient string           `json:"recipient"`
	Subject   string           `json:"subject"`
	Success   bool             `json:"success"`
	MessageID string           `json:"messageId,omitempty"`
	Error     string           `json:"error,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

// NotifyContext carries the extra detail a message needs besides the booking.
type NotifyContext struct {
	AdminNote        string           `json:"adminNote,omitempty"`
	Conflicts        []ConflictRecord `json:"conflicts,omitempty"`
	RelatedBookingID string           `json:"relatedBookingId,omitempty"`
}
