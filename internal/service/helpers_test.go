package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"labportal/internal/booking"
	"labportal/internal/database"
	"labportal/internal/domain"
	"labportal/internal/events"
	"labportal/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// Monday 2024-05-27 08:00 UTC; every fixture date lies after it.
var fixedNow = time.Date(2024, 5, 27, 8, 0, 0, 0, time.UTC)

type sentNotification struct {
	kind      models.NotificationKind
	bookingID string
	nctx      models.NotifyContext
}

type fakeGateway struct {
	mu   sync.Mutex
	sent []sentNotification
	fail map[models.NotificationKind]bool
}

func (g *fakeGateway) Notify(_ context.Context, kind models.NotificationKind, b *models.Booking, nctx models.NotifyContext) models.NotificationResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, sentNotification{kind: kind, bookingID: b.ID, nctx: nctx})
	if g.fail[kind] {
		return models.NotificationResult{Error: "mailbox unavailable"}
	}
	return models.NotificationResult{Success: true, MessageID: "m-" + b.ID}
}

func (g *fakeGateway) kindsFor(bookingID string) []models.NotificationKind {
	g.mu.Lock()
	defer g.mu.Unlock()
	var kinds []models.NotificationKind
	for _, n := range g.sent {
		if n.bookingID == bookingID {
			kinds = append(kinds, n.kind)
		}
	}
	return kinds
}

func (g *fakeGateway) ofKind(kind models.NotificationKind) []sentNotification {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []sentNotification
	for _, n := range g.sent {
		if n.kind == kind {
			out = append(out, n)
		}
	}
	return out
}

type harness struct {
	db        *database.DB
	svc       *BookingService
	gw        *fakeGateway
	published []string
}

type harnessOption func(*BookingDeps)

func withLimiter(l domain.RateLimiter) harnessOption {
	return func(d *BookingDeps) { d.Limiter = l }
}

func withLinks(l domain.ConflictLinkRepository) harnessOption {
	return func(d *BookingDeps) { d.Links = l }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.SyncItems(context.Background(), []models.Item{
		{ID: "L1", Title: "Wet Lab", Type: models.ItemTypeLab, PriceRate: 20, Capacity: "10"},
		{ID: "L2", Title: "Dry Lab", Type: models.ItemTypeLab, PriceRate: 15},
		{ID: "E1", Title: "Spectrometer", Type: models.ItemTypeEquipment, PriceRate: 40},
	}))

	h := &harness{db: db, gw: &fakeGateway{fail: map[models.NotificationKind]bool{}}}
	bus := events.NewEventBus(&logger)
	bus.Subscribe(func(e *events.Event) error {
		h.published = append(h.published, e.Type)
		return nil
	}, events.BookingLifecycleEvents...)

	deps := BookingDeps{
		Bookings: db,
		Links:    db,
		Items:    db,
		History:  db,
		Notifier: h.gw,
		Events:   bus,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	rules := booking.DefaultRules()
	validator, err := booking.NewValidator(rules, time.UTC, func() time.Time { return fixedNow })
	require.NoError(t, err)

	h.svc = NewBookingService(deps, validator, rules, &logger)
	h.svc.now = func() time.Time { return fixedNow }
	return h
}

func labInput(email, day, from, to string) CreateBookingInput {
	return CreateBookingInput{
		ItemID: "L1", ItemType: models.ItemTypeLab,
		UserEmail: email, UserName: email, ContactInfo: "555-0100", Purpose: "PCR run",
		StartDate: day, EndDate: day, StartTime: from, EndTime: to,
	}
}

func (h *harness) create(t *testing.T, in CreateBookingInput) *models.Booking {
	t.Helper()
	res, err := h.svc.CreateBooking(context.Background(), in)
	require.NoError(t, err)
	return res.Booking
}

func (h *harness) setStatus(t *testing.T, id string, status models.BookingStatus, note string) *StatusChangeResult {
	t.Helper()
	res, err := h.svc.ChangeStatus(context.Background(), StatusChangeInput{BookingID: id, Status: status, AdminNote: note})
	require.NoError(t, err)
	return res
}

func (h *harness) get(t *testing.T, id string) *models.Booking {
	t.Helper()
	b, err := h.db.GetBooking(context.Background(), id)
	require.NoError(t, err)
	return b
}

func conflictIDs(b *models.Booking) []string {
	ids := make([]string, 0, len(b.ConflictingBookings))
	for _, c := range b.ConflictingBookings {
		ids = append(ids, c.BookingID)
	}
	return ids
}
