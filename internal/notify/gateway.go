package notify

import (
	"context"
	"strings"
	"time"

	"labportal/internal/domain"
	"labportal/internal/metrics"
	"labportal/internal/models"

	"github.com/rs/zerolog"
)

// Gateway implements domain.NotificationGateway. It never returns an error;
// failures end up in the result and in the notification history.
type Gateway struct {
	userSender  Sender
	adminSender Sender
	adminEmails []string
	history     domain.NotificationRepository
	logger      *zerolog.Logger
	now         func() time.Time
}

func NewGateway(user, admin Sender, adminEmails []string, history domain.NotificationRepository, logger *zerolog.Logger) *Gateway {
	return &Gateway{
		userSender:  user,
		adminSender: admin,
		adminEmails: adminEmails,
		history:     history,
		logger:      logger,
		now:         time.Now,
	}
}

func (g *Gateway) Notify(ctx context.Context, kind models.NotificationKind, booking *models.Booking, nctx models.NotifyContext) models.NotificationResult {
	msg, err := Compose(kind, booking, nctx)
	if err != nil {
		return g.finish(ctx, kind, booking, msg, "", err)
	}

	sender := g.userSender
	msg.Recipient = booking.UserEmail
	if AudienceOf(kind) == AudienceAdmin {
		sender = g.adminSender
		msg.Recipient = strings.Join(g.adminEmails, ",")
		if msg.Recipient == "" {
			msg.Recipient = "admin"
		}
	}

	id, err := sender.Send(ctx, msg)
	return g.finish(ctx, kind, booking, msg, id, err)
}

func (g *Gateway) finish(ctx context.Context, kind models.NotificationKind, booking *models.Booking, msg Message, id string, sendErr error) models.NotificationResult {
	res := models.NotificationResult{Success: sendErr == nil, MessageID: id}
	if sendErr != nil {
		res.Error = sendErr.Error()
		g.logger.Warn().Err(sendErr).
			Str("kind", string(kind)).
			Str("booking_id", booking.ID).
			Msg("notification failed")
	}
	metrics.IncNotification(string(kind), res.Success)

	if g.history != nil {
		rec := &models.NotificationRecord{
			BookingID: booking.ID,
			Kind:      kind,
			Recipient: msg.Recipient,
			Subject:   msg.Subject,
			Success:   res.Success,
			MessageID: res.MessageID,
			Error:     res.Error,
			CreatedAt: g.now(),
		}
		if err := g.history.SaveNotification(ctx, rec); err != nil {
			g.logger.Error().Err(err).Str("booking_id", booking.ID).Msg("failed to store notification history")
		}
	}
	return res
}
