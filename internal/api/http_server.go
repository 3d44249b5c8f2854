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

	"radiantbloom/internal/config"
	"radiantbloom/internal/database"
	"radiantbloom/internal/domain"
	"radiantbloom/internal/export"
	"radiantbloom/internal/metrics"
	"radiantbloom/internal/models"
	"radiantbloom/internal/schedule"
	"radiantbloom/internal/service"

	"github.com/rs/zerolog"
)

// HTTPServer exposes the public booking API and the authenticated
// back-office API on one port.
type HTTPServer struct {
	cfg      config.APIConfig
	catalog  *service.CatalogService
	booking  *service.BookingService
	schedule *service.ScheduleService
	exporter *export.Exporter
	limiter  domain.RateLimiter
	logger   *zerolog.Logger
	server   *http.Server
	auth     *HTTPAuth
}

func NewHTTPServer(
	cfg config.APIConfig,
	catalog *service.CatalogService,
	booking *service.BookingService,
	scheduleSvc *service.ScheduleService,
	exporter *export.Exporter,
	limiter domain.RateLimiter,
	logger *zerolog.Logger,
) *HTTPServer {
	srv := &HTTPServer{
		cfg:      cfg,
		catalog:  catalog,
		booking:  booking,
		schedule: scheduleSvc,
		exporter: exporter,
		limiter:  limiter,
		logger:   logger,
	}
	srv.auth = NewHTTPAuth(cfg)

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", srv.handleHealth)

	mux.HandleFunc("/api/public/services", srv.handleServices)
	mux.HandleFunc("/api/public/availability/", srv.handleAvailability)
	mux.HandleFunc("/api/public/bookings", srv.throttled(srv.handleCreateBooking))
	mux.HandleFunc("/api/public/newsletter", srv.throttled(srv.handleNewsletter))

	admin := http.NewServeMux()
	admin.HandleFunc("/api/admin/bookings", srv.handleAdminBookings)
	admin.HandleFunc("/api/admin/bookings/", srv.handleAdminBooking)
	admin.HandleFunc("/api/admin/schedule", srv.handleAdminSchedule)
	admin.HandleFunc("/api/admin/closures", srv.handleAdminClosures)
	admin.HandleFunc("/api/admin/closures/", srv.handleAdminClosure)
	admin.HandleFunc("/api/admin/blocks", srv.handleAdminBlocks)
	admin.HandleFunc("/api/admin/services", srv.handleAdminServices)
	admin.HandleFunc("/api/admin/export", srv.handleAdminExport)
	mux.Handle("/api/admin/", srv.auth.Wrap(admin))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.loggingMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

// Handler returns the configured root handler, used by tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleServices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("public_services")

	services, err := s.catalog.ListActiveServices(r.Context())
	if err != nil {
		s.writeMapped(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": services})
}

func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("public_availability")

	const prefix = "/api/public/availability/"
	slug := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, prefix))
	if slug == "" || strings.Contains(slug, "/") {
		writeError(w, http.StatusBadRequest, "service slug is required")
		return
	}

	var from, to time.Time
	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		parsed, err := time.Parse(models.DateLayout, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from date; expected YYYY-MM-DD")
			return
		}
		from = parsed
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
		parsed, err := time.Parse(models.DateLayout, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to date; expected YYYY-MM-DD")
			return
		}
		to = parsed
	}

	started := time.Now()
	result, err := s.booking.GetAvailability(r.Context(), slug, from, to)
	if err != nil {
		s.writeMapped(w, err)
		return
	}
	metrics.ObserveAvailabilityBuild(slug, time.Since(started).Seconds())

	writeJSON(w, http.StatusOK, map[string]any{
		"service":      result.Service,
		"availability": result.Matrix,
		"window": map[string]string{
			"from": result.From.Format(time.RFC3339),
			"to":   result.To.Format(time.RFC3339),
		},
	})
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("public_create_booking")

	var req service.CreateBookingRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	booking, err := s.booking.CreateBooking(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrSlotUnavailable) || errors.Is(err, database.ErrSlotTaken) {
			metrics.IncBookingConflict()
		}
		s.writeMapped(w, err)
		return
	}
	metrics.IncBookingCreated()

	writeJSON(w, http.StatusCreated, map[string]any{
		"confirmation_code": booking.ConfirmationCode,
		"public_token":      booking.PublicToken,
		"service_name":      booking.ServiceName,
		"status":            booking.Status,
		"start_time":        booking.StartTime.Format(time.RFC3339),
		"end_time":          booking.EndTime.Format(time.RFC3339),
	})
}

func (s *HTTPServer) handleNewsletter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("public_newsletter")

	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.catalog.SubscribeNewsletter(r.Context(), req.Email); err != nil {
		s.writeMapped(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "subscribed"})
}

// throttled applies the per-IP public rate limit to mutating endpoints.
func (s *HTTPServer) throttled(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && s.cfg.PublicRateLimit.Requests > 0 {
			window := time.Duration(s.cfg.PublicRateLimit.WindowSeconds) * time.Second
			allowed, err := s.limiter.Allow(r.Context(), clientIP(r), s.cfg.PublicRateLimit.Requests, window)
			if err != nil {
				s.logger.Warn().Err(err).Msg("public rate limit check failed")
			} else if !allowed {
				writeError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
		}
		next(w, r)
	}
}

// writeMapped converts domain errors to the HTTP error taxonomy.
func (s *HTTPServer) writeMapped(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrPastSlot),
		errors.Is(err, schedule.ErrInvalidSchedule),
		errors.Is(err, database.ErrInvalidTransition):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrSlotUnavailable),
		errors.Is(err, database.ErrSlotTaken),
		errors.Is(err, database.ErrVersionConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func clientIP(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		if idx := strings.Index(fwd, ","); idx > 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
