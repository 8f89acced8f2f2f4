package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"labportal/internal/booking"
	"labportal/internal/config"
	"labportal/internal/database"
	"labportal/internal/metrics"
	"labportal/internal/models"
	"labportal/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BookingAPI is the booking engine as seen by the HTTP layer.
type BookingAPI interface {
	CreateBooking(ctx context.Context, in service.CreateBookingInput) (*service.CreateBookingResult, error)
	ChangeStatus(ctx context.Context, in service.StatusChangeInput) (*service.StatusChangeResult, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error)
	ListNotifications(ctx context.Context, bookingID string) ([]*models.NotificationRecord, error)
}

type ItemAPI interface {
	ListItems(ctx context.Context) ([]*models.Item, error)
	GetItem(ctx context.Context, id string) (*models.Item, error)
	CreateItem(ctx context.Context, item *models.Item) error
	UpdateItem(ctx context.Context, item *models.Item) error
	DeleteItem(ctx context.Context, id string) error
}

// HTTPServer exposes the booking portal's JSON API.
type HTTPServer struct {
	cfg      *config.APIConfig
	bookings BookingAPI
	items    ItemAPI
	auth     *AdminAuth
	limiter  *clientLimiter
	server   *http.Server
	logger   zerolog.Logger
	now      func() time.Time
}

func NewHTTPServer(cfg *config.APIConfig, bookings BookingAPI, items ItemAPI, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{
		cfg:      cfg,
		bookings: bookings,
		items:    items,
		auth:     NewAdminAuth(cfg.Auth),
		limiter:  newClientLimiter(cfg.RateLimit),
		logger:   zerolog.Nop(),
		now:      time.Now,
	}
	if logger != nil {
		srv.logger = logger.With().Str("component", "http").Logger()
	}

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return srv
}

func (s *HTTPServer) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("POST /api/v1/bookings", s.handleCreateBooking)
	mux.HandleFunc("GET /api/v1/bookings", s.handleListBookings)
	mux.HandleFunc("GET /api/v1/bookings/{id}", s.handleGetBooking)
	mux.Handle("GET /api/v1/bookings/{id}/notifications", s.auth.Require(permBookings, s.handleListNotifications))
	mux.Handle("POST /api/v1/bookings/{id}/status", s.auth.Require(permBookings, s.handleChangeStatus))

	mux.HandleFunc("GET /api/v1/items", s.handleListItems)
	mux.HandleFunc("GET /api/v1/items/{id}", s.handleGetItem)
	mux.Handle("POST /api/v1/items", s.auth.Require(permItems, s.handleCreateItem))
	mux.Handle("PUT /api/v1/items/{id}", s.auth.Require(permItems, s.handleUpdateItem))
	mux.Handle("DELETE /api/v1/items/{id}", s.auth.Require(permItems, s.handleDeleteItem))

	mux.Handle("GET /api/v1/admin/export", s.auth.Require(permExport, s.handleExport))

	return s.requestLogger(s.rateLimit(mux))
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" && !s.limiter.Allow(s.clientKey(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey prefers the admin token over the remote address.
func (s *HTTPServer) clientKey(r *http.Request) string {
	if token := strings.TrimSpace(r.Header.Get(s.auth.header)); token != "" {
		return "token:" + token
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return clientKeyUnknown
}

// requestLogger tags each request with an id, stores a request-scoped logger
// in the context and records the matched route.
func (s *HTTPServer) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(requestIDMetadataKey))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDMetadataKey, requestID)

		reqLogger := s.logger.With().Str("request_id", requestID).Logger()
		r = r.WithContext(reqLogger.WithContext(r.Context()))

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.IncHTTP(route)

		ev := reqLogger.Info()
		if recorder.status >= http.StatusInternalServerError {
			ev = reqLogger.Error()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeServiceError maps domain errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *booking.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Reason, "field": verr.Field})
	case errors.Is(err, service.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, service.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrItemNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, database.ErrConcurrentModification):
		writeError(w, http.StatusConflict, err.Error())
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
