package domain

import (
	"context"

	"labportal/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type BookingRepository interface {
	// CreateBooking stores the booking together with its own conflict list atomically.
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ListBookingsByItem(ctx context.Context, itemID string, statuses ...models.BookingStatus) ([]*models.Booking, error)
	ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error)
	// UpdateBookingReview persists status and audit fields if the stored version
	// still equals fromVersion, and bumps the version.
	UpdateBookingReview(ctx context.Context, booking *models.Booking, fromVersion int64) error
}

// ConflictLinkRepository owns the conflictingBookings lists. Links are a set
// keyed by (owner, target).
type ConflictLinkRepository interface {
	// AddConflictLink adds rec to owner's list unless a link to rec.BookingID
	// exists, and marks owner as conflicted.
	AddConflictLink(ctx context.Context, ownerID string, rec models.ConflictRecord) error
	// RemoveConflictLink drops owner's link to target and returns how many links owner has left.
	RemoveConflictLink(ctx context.Context, ownerID, targetID string) (int, error)
	SetHasConflict(ctx context.Context, bookingID string, hasConflict bool) error
	// RefreshConflictStatus rewrites the status snapshot of target in every list that references it.
	RefreshConflictStatus(ctx context.Context, targetID string, status models.BookingStatus) error
}

type ItemRepository interface {
	GetItem(ctx context.Context, id string) (*models.Item, error)
	ListItems(ctx context.Context) ([]*models.Item, error)
	CreateItem(ctx context.Context, item *models.Item) error
	UpdateItem(ctx context.Context, item *models.Item) error
	DeleteItem(ctx context.Context, id string) error
}

type NotificationRepository interface {
	SaveNotification(ctx context.Context, rec *models.NotificationRecord) error
	ListNotifications(ctx context.Context, bookingID string) ([]*models.NotificationRecord, error)
}

// NotificationGateway never fails the caller; delivery problems are reported in the result.
type NotificationGateway interface {
	Notify(ctx context.Context, kind models.NotificationKind, booking *models.Booking, nctx models.NotifyContext) models.NotificationResult
}

type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// SheetsWriter mirrors bookings into the shared spreadsheet.
type SheetsWriter interface {
	UpsertBooking(ctx context.Context, booking *models.Booking) error
	UpdateBookingStatus(ctx context.Context, bookingID string, status models.BookingStatus) error
}
