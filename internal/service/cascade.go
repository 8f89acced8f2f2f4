package service

import (
	"context"
	"errors"
	"fmt"

	"labportal/internal/booking"
	"labportal/internal/database"
	"labportal/internal/events"
	"labportal/internal/metrics"
	"labportal/internal/models"
)

type effectKind string

const (
	effectLink        effectKind = "link_reciprocal"
	effectAutoDecline effectKind = "auto_decline"
	effectUnlink      effectKind = "unlink"
	effectReview      effectKind = "review_opportunity"
	effectRefresh     effectKind = "refresh_snapshot"
)

// effect is one secondary write of a cascade. Effects are applied in FIFO
// order; a failing effect is logged and dropped, earlier writes stay.
type effect struct {
	kind     effectKind
	ownerID  string                // link/unlink: booking whose list is edited
	targetID string                // unlink: removed link; autoDecline/review: booking acted on
	rec      models.ConflictRecord // link: entry to add
	cause    *models.Booking       // autoDecline/review: booking whose transition triggered the effect
}

type cascade struct {
	s     *BookingService
	queue []effect
}

func (s *BookingService) newCascade() *cascade {
	return &cascade{s: s}
}

func (c *cascade) push(e effect) {
	c.queue = append(c.queue, e)
}

// pushUnlinks tears down every link pointing at b from the other side.
func (c *cascade) pushUnlinks(b *models.Booking) {
	for _, rec := range b.ConflictingBookings {
		c.push(effect{kind: effectUnlink, ownerID: rec.BookingID, targetID: b.ID})
	}
}

func (c *cascade) run(ctx context.Context) {
	for len(c.queue) > 0 {
		e := c.queue[0]
		c.queue = c.queue[1:]

		err := c.apply(ctx, e)
		metrics.IncCascadeEffect(string(e.kind), err == nil)
		if err == nil {
			continue
		}

		ev := c.s.logger.Warn()
		if errors.Is(err, database.ErrNotFound) {
			ev = c.s.logger.Info()
		}
		ev.Err(err).
			Str("effect", string(e.kind)).
			Str("booking_id", e.ownerID).
			Str("target_id", e.targetID).
			Msg("cascade step skipped")
	}
}

func (c *cascade) apply(ctx context.Context, e effect) error {
	switch e.kind {
	case effectLink:
		return c.s.links.AddConflictLink(ctx, e.ownerID, e.rec)
	case effectUnlink:
		return c.unlink(ctx, e.ownerID, e.targetID)
	case effectAutoDecline:
		return c.autoDecline(ctx, e.targetID, e.cause)
	case effectReview:
		return c.reviewOpportunity(ctx, e.targetID, e.cause)
	}
	return fmt.Errorf("unknown cascade effect %q", e.kind)
}

// refreshSnapshot rewrites b's status in every list that references it.
func (c *cascade) refreshSnapshot(ctx context.Context, b *models.Booking) {
	err := c.s.links.RefreshConflictStatus(ctx, b.ID, b.Status)
	metrics.IncCascadeEffect(string(effectRefresh), err == nil)
	if err != nil {
		c.s.logger.Warn().Err(err).Str("effect", string(effectRefresh)).Str("booking_id", b.ID).Msg("cascade step skipped")
	}
}

func (c *cascade) unlink(ctx context.Context, ownerID, targetID string) error {
	remaining, err := c.s.links.RemoveConflictLink(ctx, ownerID, targetID)
	if err != nil {
		return err
	}
	return c.s.links.SetHasConflict(ctx, ownerID, remaining > 0)
}

// autoDecline declines a pending competitor of an approved booking. The
// declined booking only gets its links torn down; it starts no cascade of its own.
func (c *cascade) autoDecline(ctx context.Context, targetID string, approved *models.Booking) error {
	target, err := c.s.bookings.GetBooking(ctx, targetID)
	if err != nil {
		return err
	}
	if target.Status != models.StatusPending {
		c.s.logger.Debug().Str("booking_id", targetID).Str("status", string(target.Status)).Msg("auto-decline skipped, no longer pending")
		return nil
	}

	declined := *target
	now := c.s.now()
	declined.PreviousStatus = target.Status
	declined.Status = models.StatusDeclined
	declined.ReviewedAt = &now
	declined.AdminNote = fmt.Sprintf("Automatically declined: conflicts with booking %s by %s for %s, which was approved.",
		approved.ID, approved.UserName, describePeriod(approved))

	if err := c.s.bookings.UpdateBookingReview(ctx, &declined, target.Version); err != nil {
		return err
	}
	metrics.IncStatusTransition(string(models.StatusPending), string(models.StatusDeclined))
	c.s.logger.Info().
		Str("booking_id", declined.ID).
		Str("approved_id", approved.ID).
		Msg("booking auto-declined")

	c.refreshSnapshot(ctx, &declined)
	c.s.notify(ctx, models.NotifyStatusDeclined, &declined, models.NotifyContext{
		AdminNote:        declined.AdminNote,
		RelatedBookingID: approved.ID,
	})
	c.s.publish(events.EventBookingAutoDeclined, &declined, models.StatusPending)

	c.pushUnlinks(&declined)
	return nil
}

// reviewOpportunity tells the admin when a pending booking lost its last
// approved competitor with the revocation of revoked. It never approves
// anything and only looks one level deep.
func (c *cascade) reviewOpportunity(ctx context.Context, pendingID string, revoked *models.Booking) error {
	pending, err := c.s.bookings.GetBooking(ctx, pendingID)
	if err != nil {
		return err
	}
	if pending.Status != models.StatusPending {
		return nil
	}

	approved, err := c.s.bookings.ListBookingsByItem(ctx, pending.ItemID, models.StatusApproved)
	if err != nil {
		return err
	}
	var others []*models.Booking
	for _, b := range approved {
		if b.ID != revoked.ID {
			others = append(others, b)
		}
	}

	if blocking := booking.FindConflicts(pending, others, booking.CriticalOnly()); len(blocking) > 0 {
		c.s.logger.Debug().
			Str("booking_id", pending.ID).
			Int("approved_conflicts", len(blocking)).
			Msg("pending booking still blocked")
		return nil
	}

	res := c.s.notify(ctx, models.NotifyConflictClearedAdmin, pending, models.NotifyContext{RelatedBookingID: revoked.ID})
	if !res.Success {
		return fmt.Errorf("conflict-cleared notification for %s: %s", pending.ID, res.Error)
	}
	return nil
}

func describePeriod(b *models.Booking) string {
	if b.ItemType == models.ItemTypeLab {
		if b.StartDate == b.EndDate {
			return fmt.Sprintf("%s %s-%s", b.StartDate, b.StartTime, b.EndTime)
		}
		return fmt.Sprintf("%s %s to %s %s", b.StartDate, b.StartTime, b.EndDate, b.EndTime)
	}
	if b.StartDate == b.EndDate {
		return b.StartDate
	}
	return b.StartDate + " to " + b.EndDate
}
