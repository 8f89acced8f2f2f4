package notify

import (
	"fmt"
	"strings"

	"labportal/internal/models"
)

// Audience says who a notification kind is addressed to.
type Audience int

const (
	AudienceUser Audience = iota
	AudienceAdmin
)

// Message is a composed notification ready for a sender.
type Message struct {
	Recipient string
	Subject   string
	Body      string
}

// AudienceOf maps a kind to its audience.
func AudienceOf(kind models.NotificationKind) Audience {
	switch kind {
	case models.NotifyConflictDetectedAdmin, models.NotifyConflictClearedAdmin:
		return AudienceAdmin
	}
	return AudienceUser
}

// Compose renders the subject and body for kind. Recipient is filled by the gateway.
func Compose(kind models.NotificationKind, b *models.Booking, nctx models.NotifyContext) (Message, error) {
	var subject string
	var body strings.Builder

	switch kind {
	case models.NotifyStatusApproved:
		subject = fmt.Sprintf("Your booking for %s was approved", b.ItemTitle)
		fmt.Fprintf(&body, "Hello %s,\n\nyour booking for %s (%s) has been approved.\n", b.UserName, b.ItemTitle, describeRange(b))
		writeNote(&body, "Note from the admin", nctx.AdminNote)

	case models.NotifyStatusDeclined:
		subject = fmt.Sprintf("Your booking for %s was declined", b.ItemTitle)
		fmt.Fprintf(&body, "Hello %s,\n\nyour booking for %s (%s) has been declined.\n", b.UserName, b.ItemTitle, describeRange(b))
		if nctx.RelatedBookingID != "" {
			fmt.Fprintf(&body, "It overlapped with booking %s, which was approved.\n", nctx.RelatedBookingID)
		}
		writeNote(&body, "Reason", nctx.AdminNote)

	case models.NotifyStatusRevoked:
		subject = fmt.Sprintf("Your approved booking for %s was revoked", b.ItemTitle)
		fmt.Fprintf(&body, "Hello %s,\n\nthe approval of your booking for %s (%s) has been revoked.\n", b.UserName, b.ItemTitle, describeRange(b))
		writeNote(&body, "Reason", nctx.AdminNote)

	case models.NotifyConflictDetectedUser:
		subject = fmt.Sprintf("Your booking for %s overlaps other requests", b.ItemTitle)
		fmt.Fprintf(&body, "Hello %s,\n\nwe received your booking for %s (%s). It overlaps %d other booking(s):\n",
			b.UserName, b.ItemTitle, describeRange(b), len(nctx.Conflicts))
		writeConflicts(&body, nctx.Conflicts)
		body.WriteString("An admin will review the overlap before a decision is made.\n")

	case models.NotifyConflictDetectedAdmin:
		subject = fmt.Sprintf("Booking conflict on %s needs review", b.ItemTitle)
		fmt.Fprintf(&body, "Booking %s by %s <%s> for %s (%s) conflicts with:\n",
			b.ID, b.UserName, b.UserEmail, b.ItemTitle, describeRange(b))
		writeConflicts(&body, nctx.Conflicts)

	case models.NotifyConflictClearedAdmin:
		subject = fmt.Sprintf("Booking %s is now conflict-free", b.ID)
		fmt.Fprintf(&body, "Booking %s by %s <%s> for %s (%s) no longer conflicts with an approved booking",
			b.ID, b.UserName, b.UserEmail, b.ItemTitle, describeRange(b))
		if nctx.RelatedBookingID != "" {
			fmt.Fprintf(&body, " after the approval of %s was revoked", nctx.RelatedBookingID)
		}
		body.WriteString(".\nIt is still pending and ready for manual re-review.\n")

	default:
		return Message{}, fmt.Errorf("unknown notification kind %q", kind)
	}

	return Message{Subject: subject, Body: body.String()}, nil
}

func describeRange(b *models.Booking) string {
	if b.ItemType == models.ItemTypeLab {
		if b.StartDate == b.EndDate {
			return fmt.Sprintf("%s %s-%s", b.StartDate, b.StartTime, b.EndTime)
		}
		return fmt.Sprintf("%s %s to %s %s", b.StartDate, b.StartTime, b.EndDate, b.EndTime)
	}
	if b.StartDate == b.EndDate {
		return b.StartDate
	}
	return fmt.Sprintf("%s to %s", b.StartDate, b.EndDate)
}

func writeNote(sb *strings.Builder, label, note string) {
	if note = strings.TrimSpace(note); note != "" {
		fmt.Fprintf(sb, "\n%s: %s\n", label, note)
	}
}

func writeConflicts(sb *strings.Builder, conflicts []models.ConflictRecord) {
	for _, c := range conflicts {
		fmt.Fprintf(sb, "  - %s by %s (%s, %s)\n", c.BookingID, c.UserName, c.Status, c.ConflictType)
	}
}
