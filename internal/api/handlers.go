package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"labportal/internal/export"
	"labportal/internal/models"
	"labportal/internal/service"

	"github.com/rs/zerolog"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var in service.CreateBookingInput
	if !decodeBody(w, r, &in) {
		return
	}
	res, err := s.bookings.CreateBooking(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.BookingFilter{
		ItemID: strings.TrimSpace(q.Get("item_id")),
		From:   strings.TrimSpace(q.Get("from")),
		To:     strings.TrimSpace(q.Get("to")),
	}
	for _, st := range splitCSV(q.Get("status")) {
		filter.Statuses = append(filter.Statuses, models.BookingStatus(st))
	}

	bookings, err := s.bookings.ListBookings(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	b, err := s.bookings.GetBooking(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *HTTPServer) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	records, err := s.bookings.ListNotifications(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if records == nil {
		records = []*models.NotificationRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": records})
}

func (s *HTTPServer) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	var in service.StatusChangeInput
	if !decodeBody(w, r, &in) {
		return
	}
	in.BookingID = r.PathValue("id")

	res, err := s.bookings.ChangeStatus(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	zerolog.Ctx(r.Context()).Info().
		Str("booking_id", in.BookingID).
		Str("status", string(res.Booking.Status)).
		Bool("notification_sent", res.NotificationSent).
		Msg("status changed by admin")
	writeJSON(w, http.StatusOK, res)
}

func (s *HTTPServer) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.items.ListItems(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if items == nil {
		items = []*models.Item{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *HTTPServer) handleGetItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.items.GetItem(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *HTTPServer) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var item models.Item
	if !decodeBody(w, r, &item) {
		return
	}
	if err := s.items.CreateItem(r.Context(), &item); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, &item)
}

func (s *HTTPServer) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var item models.Item
	if !decodeBody(w, r, &item) {
		return
	}
	item.ID = r.PathValue("id")
	if err := s.items.UpdateItem(r.Context(), &item); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, &item)
}

func (s *HTTPServer) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.items.DeleteItem(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExport streams every booking as an xlsx workbook.
func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	bookings, err := s.bookings.ListBookings(r.Context(), models.BookingFilter{
		From: strings.TrimSpace(r.URL.Query().Get("from")),
		To:   strings.TrimSpace(r.URL.Query().Get("to")),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	name := fmt.Sprintf("bookings_%s.xlsx", s.now().Format("2006-01-02_15-04-05"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if err := export.WriteBookings(w, bookings); err != nil {
		// headers are already sent
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("export failed")
	}
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
