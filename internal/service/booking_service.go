package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"labportal/internal/booking"
	"labportal/internal/database"
	"labportal/internal/domain"
	"labportal/internal/events"
	"labportal/internal/metrics"
	"labportal/internal/models"

	"github.com/rs/zerolog"
)

// BookingDeps are the collaborators BookingService needs.
type BookingDeps struct {
	Bookings domain.BookingRepository
	Links    domain.ConflictLinkRepository
	Items    domain.ItemRepository
	History  domain.NotificationRepository
	Notifier domain.NotificationGateway
	Limiter  domain.RateLimiter
	Events   domain.EventPublisher
}

type BookingService struct {
	bookings  domain.BookingRepository
	links     domain.ConflictLinkRepository
	items     domain.ItemRepository
	history   domain.NotificationRepository
	notifier  domain.NotificationGateway
	limiter   domain.RateLimiter
	eventBus  domain.EventPublisher
	validator *booking.Validator
	rules     booking.Rules
	logger    *zerolog.Logger
	now       func() time.Time
}

func NewBookingService(deps BookingDeps, validator *booking.Validator, rules booking.Rules, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		bookings:  deps.Bookings,
		links:     deps.Links,
		items:     deps.Items,
		history:   deps.History,
		notifier:  deps.Notifier,
		limiter:   deps.Limiter,
		eventBus:  deps.Events,
		validator: validator,
		rules:     rules,
		logger:    logger,
		now:       time.Now,
	}
}

type CreateBookingInput struct {
	ItemID          string          `json:"itemId"`
	ItemType        models.ItemType `json:"itemType"`
	UserEmail       string          `json:"userEmail"`
	UserName        string          `json:"userName"`
	ContactInfo     string          `json:"contactInfo"`
	Purpose         string          `json:"purpose"`
	AdditionalNotes string          `json:"additionalNotes,omitempty"`
	StartDate       string          `json:"startDate"`
	EndDate         string          `json:"endDate"`
	StartTime       string          `json:"startTime,omitempty"`
	EndTime         string          `json:"endTime,omitempty"`
	TotalCost       float64         `json:"totalCost"`
}

type CreateBookingResult struct {
	Booking             *models.Booking `json:"booking"`
	ConflictWarning     *string         `json:"conflictWarning"`
	HasCriticalConflict bool            `json:"hasCriticalConflict"`
}

// CreateBooking validates the request, records conflicts on both sides and
// notifies the requester and admin when conflicts were found.
func (s *BookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (*CreateBookingResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.UserEmail))
	if err := s.checkRateLimit(ctx, email); err != nil {
		return nil, err
	}

	item, err := s.items.GetItem(ctx, in.ItemID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrItemNotFound, in.ItemID)
		}
		return nil, fmt.Errorf("load item %s: %w", in.ItemID, err)
	}
	if in.ItemType != "" && in.ItemType != item.Type {
		return nil, &booking.ValidationError{
			Field:  "itemType",
			Reason: fmt.Sprintf("itemType %q does not match %s, which is a %s", in.ItemType, item.Title, item.Type),
		}
	}

	b := &models.Booking{
		ItemID:          item.ID,
		ItemType:        item.Type,
		ItemTitle:       item.Title,
		UserEmail:       email,
		UserName:        strings.TrimSpace(in.UserName),
		ContactInfo:     in.ContactInfo,
		Purpose:         in.Purpose,
		AdditionalNotes: in.AdditionalNotes,
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
		StartTime:       in.StartTime,
		EndTime:         in.EndTime,
		Status:          models.StatusPending,
		SubmittedAt:     s.now(),
		TotalCost:       in.TotalCost,
	}
	if b.ItemType == models.ItemTypeEquipment {
		b.StartTime, b.EndTime = "", ""
	}

	if err := s.validator.Validate(b); err != nil {
		return nil, err
	}

	existing, err := s.bookings.ListBookingsByItem(ctx, item.ID, models.StatusPending, models.StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("load bookings for %s: %w", item.ID, err)
	}
	conflicts := booking.FindConflicts(b, existing)
	b.ConflictingBookings = conflicts
	b.HasConflict = len(conflicts) > 0
	if b.TotalCost <= 0 {
		b.TotalCost = booking.EstimateCost(item, b, s.rules)
	}

	if err := s.bookings.CreateBooking(ctx, b); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	metrics.IncBookingCreated(b.HasConflict)

	s.logger.Info().
		Str("booking_id", b.ID).
		Str("item_id", b.ItemID).
		Int("conflicts", len(conflicts)).
		Msg("booking created")

	c := s.newCascade()
	if b.HasConflict {
		nctx := models.NotifyContext{Conflicts: conflicts}
		s.notify(ctx, models.NotifyConflictDetectedUser, b, nctx)
		s.notify(ctx, models.NotifyConflictDetectedAdmin, b, nctx)
		for _, rec := range conflicts {
			c.push(effect{kind: effectLink, ownerID: rec.BookingID, rec: b.Snapshot(rec.ConflictType.Mirror())})
		}
	}
	c.run(ctx)

	s.publish(events.EventBookingCreated, b, "")

	res := &CreateBookingResult{Booking: b, HasCriticalConflict: booking.HasCriticalConflict(conflicts)}
	if w := booking.ConflictWarning(conflicts); w != "" {
		res.ConflictWarning = &w
	}
	return res, nil
}

func (s *BookingService) checkRateLimit(ctx context.Context, key string) error {
	if s.limiter == nil {
		return nil
	}
	allowed, err := s.limiter.Allow(ctx, key)
	if err != nil {
		// fail open on limiter store errors
		s.logger.Warn().Err(err).Str("user_email", key).Msg("rate limiter unavailable")
		return nil
	}
	s.logger.Info().Str("user_email", key).Bool("allowed", allowed).Msg("booking attempt")
	if !allowed {
		metrics.IncRateLimited()
		return ErrRateLimited
	}
	return nil
}

type StatusChangeInput struct {
	BookingID       string               `json:"-"`
	Status          models.BookingStatus `json:"status"`
	AdminNote       string               `json:"adminNote"`
	ExpectedVersion *int64               `json:"expectedVersion,omitempty"`
}

type StatusChangeResult struct {
	Booking           *models.Booking `json:"booking"`
	NotificationSent  bool            `json:"notificationSent"`
	NotificationError string          `json:"notificationError,omitempty"`
}

// ChangeStatus persists the new status with a version check and then runs the
// cascade for the transition. Cascade failures never fail the call.
func (s *BookingService) ChangeStatus(ctx context.Context, in StatusChangeInput) (*StatusChangeResult, error) {
	if !in.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, in.Status)
	}

	current, err := s.bookings.GetBooking(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}
	if in.ExpectedVersion != nil && *in.ExpectedVersion != current.Version {
		return nil, database.ErrConcurrentModification
	}

	prev := current.Status
	revoked := prev == models.StatusApproved && in.Status == models.StatusDeclined

	updated := *current
	updated.PreviousStatus = prev
	updated.Status = in.Status
	now := s.now()
	updated.ReviewedAt = &now
	updated.AdminNote = in.AdminNote
	if revoked {
		updated.WasApprovedBefore = true
		updated.DeclinedAfterApproval = true
	}

	if err := s.bookings.UpdateBookingReview(ctx, &updated, current.Version); err != nil {
		return nil, err
	}
	metrics.IncStatusTransition(string(prev), string(in.Status))
	s.logger.Info().
		Str("booking_id", updated.ID).
		Str("from", string(prev)).
		Str("to", string(in.Status)).
		Msg("booking status changed")

	c := s.newCascade()
	c.refreshSnapshot(ctx, &updated)

	res := &StatusChangeResult{Booking: &updated}
	var primary *models.NotificationResult
	eventType := events.EventBookingReopened

	switch {
	case in.Status == models.StatusApproved:
		eventType = events.EventBookingApproved
		r := s.notify(ctx, models.NotifyStatusApproved, &updated, models.NotifyContext{AdminNote: in.AdminNote})
		primary = &r
		for _, rec := range updated.ConflictingBookings {
			if rec.Status == models.StatusPending {
				c.push(effect{kind: effectAutoDecline, targetID: rec.BookingID, cause: &updated})
			}
		}

	case revoked:
		eventType = events.EventBookingRevoked
		r := s.notify(ctx, models.NotifyStatusRevoked, &updated, models.NotifyContext{AdminNote: in.AdminNote})
		primary = &r
		for _, rec := range updated.ConflictingBookings {
			if rec.Status == models.StatusPending {
				c.push(effect{kind: effectReview, targetID: rec.BookingID, cause: &updated})
			}
		}
		c.pushUnlinks(&updated)

	case in.Status == models.StatusDeclined && prev == models.StatusPending:
		eventType = events.EventBookingDeclined
		r := s.notify(ctx, models.NotifyStatusDeclined, &updated, models.NotifyContext{AdminNote: in.AdminNote})
		primary = &r
		c.pushUnlinks(&updated)

	case in.Status == models.StatusDeclined:
		eventType = events.EventBookingDeclined
	}

	c.run(ctx)

	if fresh, err := s.bookings.GetBooking(ctx, updated.ID); err == nil {
		res.Booking = fresh
	}
	if primary != nil {
		res.NotificationSent = primary.Success
		res.NotificationError = primary.Error
	}

	s.publish(eventType, res.Booking, prev)
	return res, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return s.bookings.GetBooking(ctx, id)
}

func (s *BookingService) ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	for _, st := range filter.Statuses {
		if !st.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, st)
		}
	}
	return s.bookings.ListBookings(ctx, filter)
}

// ListNotifications returns the delivery history of a booking.
func (s *BookingService) ListNotifications(ctx context.Context, bookingID string) ([]*models.NotificationRecord, error) {
	if _, err := s.bookings.GetBooking(ctx, bookingID); err != nil {
		return nil, err
	}
	return s.history.ListNotifications(ctx, bookingID)
}

func (s *BookingService) notify(ctx context.Context, kind models.NotificationKind, b *models.Booking, nctx models.NotifyContext) models.NotificationResult {
	if s.notifier == nil {
		return models.NotificationResult{Error: "notifications disabled"}
	}
	return s.notifier.Notify(ctx, kind, b, nctx)
}

func (s *BookingService) publish(eventType string, b *models.Booking, prev models.BookingStatus) {
	if s.eventBus == nil {
		return
	}
	payload := events.BookingEventPayload{
		BookingID:      b.ID,
		ItemID:         b.ItemID,
		UserEmail:      b.UserEmail,
		Status:         b.Status,
		PreviousStatus: prev,
		HasConflict:    b.HasConflict,
		Booking:        b,
		OccurredAt:     s.now(),
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", b.ID).Msg("publish event error")
	}
}
