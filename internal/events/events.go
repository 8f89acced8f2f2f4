package events

import (
	"encoding/json"
	"sync"
	"time"

	"labportal/internal/models"

	"github.com/rs/zerolog"
)

const (
	EventBookingCreated      = "booking_created"
	EventBookingApproved     = "booking_approved"
	EventBookingDeclined     = "booking_declined"
	EventBookingRevoked      = "booking_revoked"
	EventBookingAutoDeclined = "booking_auto_declined"
	EventBookingReopened     = "booking_reopened"
)

// BookingLifecycleEvents lists every event type published for booking state changes.
var BookingLifecycleEvents = []string{
	EventBookingCreated,
	EventBookingApproved,
	EventBookingDeclined,
	EventBookingRevoked,
	EventBookingAutoDeclined,
	EventBookingReopened,
}

// BookingEventPayload describes the booking snapshot handed to event consumers.
type BookingEventPayload struct {
	BookingID      string               `json:"booking_id"`
	ItemID         string               `json:"item_id"`
	UserEmail      string               `json:"user_email"`
	Status         models.BookingStatus `json:"status"`
	PreviousStatus models.BookingStatus `json:"previous_status,omitempty"`
	HasConflict    bool                 `json:"has_conflict"`
	CausedBy       string               `json:"caused_by,omitempty"`
	Booking        *models.Booking      `json:"booking,omitempty"`
	OccurredAt     time.Time            `json:"occurred_at"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	logger      *zerolog.Logger
}

// NewEventBus constructs an empty bus. Handler failures are logged to logger when it is set.
func NewEventBus(logger *zerolog.Logger) *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler), logger: logger}
}

// Subscribe registers a handler for one or more event types.
func (b *EventBus) Subscribe(handler EventHandler, eventTypes ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range eventTypes {
		b.subscribers[t] = append(b.subscribers[t], handler)
	}
}

// Publish runs subscribers synchronously, in subscription order.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		if err := handler(event); err != nil && b.logger != nil {
			b.logger.Warn().Err(err).Str("event", event.Type).Msg("event handler failed")
		}
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}

// DecodeBooking unpacks a booking lifecycle event.
func DecodeBooking(event *Event) (BookingEventPayload, error) {
	var p BookingEventPayload
	err := json.Unmarshal(event.Payload, &p)
	return p, err
}
