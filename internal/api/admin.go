package api

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"radiantbloom/internal/metrics"
	"radiantbloom/internal/models"
)

func (s *HTTPServer) handleAdminBookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("admin_bookings")

	filter := models.BookingFilter{}
	query := r.URL.Query()

	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		for _, status := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(status); trimmed != "" {
				filter.Statuses = append(filter.Statuses, trimmed)
			}
		}
	}
	if raw := strings.TrimSpace(query.Get("from")); raw != "" {
		parsed, err := time.Parse(models.DateLayout, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from date; expected YYYY-MM-DD")
			return
		}
		filter.From = parsed
	}
	if raw := strings.TrimSpace(query.Get("to")); raw != "" {
		parsed, err := time.Parse(models.DateLayout, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to date; expected YYYY-MM-DD")
			return
		}
		filter.To = parsed.AddDate(0, 0, 1)
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = limit
	}

	bookings, err := s.booking.ListBookings(r.Context(), filter)
	if err != nil {
		s.writeMapped(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *HTTPServer) handleAdminBooking(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/admin/bookings/"
	rawID := strings.TrimPrefix(r.URL.Path, prefix)
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		metrics.IncHTTP("admin_booking_get")
		booking, err := s.booking.GetBooking(r.Context(), id)
		if err != nil {
			s.writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusOK, booking)
	case http.MethodPatch:
		metrics.IncHTTP("admin_booking_patch")
		s.patchBooking(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) patchBooking(w http.ResponseWriter, r *http.Request, id int64) {
	var req struct {
		Status       string     `json:"status"`
		Version      int64      `json:"version"`
		InternalNote string     `json:"internal_note"`
		StaffID      int64      `json:"staff_id"`
		StartTime    *time.Time `json:"start_time"`
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	switch {
	case req.StartTime != nil:
		if req.Status != "" {
			writeError(w, http.StatusBadRequest, "reschedule and status change are separate operations")
			return
		}
		booking, err := s.booking.RescheduleBooking(r.Context(), id, req.Version, req.StaffID, *req.StartTime)
		if err != nil {
			s.writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusOK, booking)
	case req.Status != "":
		booking, err := s.booking.UpdateBookingStatus(r.Context(), id, req.Version, req.Status, req.InternalNote)
		if err != nil {
			s.writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusOK, booking)
	default:
		writeError(w, http.StatusBadRequest, "status or start_time is required")
	}
}

func (s *HTTPServer) handleAdminSchedule(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		metrics.IncHTTP("admin_schedule_get")
		settings, err := s.schedule.GetOperatingSettings(r.Context())
		if err != nil {
			s.writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusOK, settings)
	case http.MethodPut:
		metrics.IncHTTP("admin_schedule_put")
		var settings models.OperatingSettings
		if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		saved, err := s.schedule.UpdateOperatingSettings(r.Context(), settings)
		if err != nil {
			s.writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleAdminClosures(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		metrics.IncHTTP("admin_closures_list")
		query := r.URL.Query()
		days, err := s.schedule.ListClosedDays(r.Context(),
			strings.TrimSpace(query.Get("from")),
			strings.TrimSpace(query.Get("to")))
		if err != nil {
			s.writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"closed_days": days})
	case http.MethodPost:
		metrics.IncHTTP("admin_closures_add")
		var req struct {
			ClosedOn string `json:"closed_on"`
			Reason   string `json:"reason"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		day, err := s.schedule.AddClosedDay(r.Context(), req.ClosedOn, req.Reason)
		if err != nil {
			s.writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, day)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleAdminClosure(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("admin_closures_delete")

	const prefix = "/api/admin/closures/"
	id := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, prefix))
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "closure id is required")
		return
	}

	if err := s.schedule.RemoveClosedDay(r.Context(), id); err != nil {
		s.writeMapped(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleAdminBlocks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("admin_blocks_add")

	var block models.AvailabilityBlock
	if err := json.NewDecoder(r.Body).Decode(&block); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.schedule.AddAvailabilityBlock(r.Context(), &block); err != nil {
		s.writeMapped(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, block)
}

func (s *HTTPServer) handleAdminServices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("admin_services_add")

	var svc models.Service
	if err := json.NewDecoder(r.Body).Decode(&svc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.catalog.CreateService(r.Context(), &svc); err != nil {
		s.writeMapped(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, svc)
}

func (s *HTTPServer) handleAdminExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("admin_export")

	query := r.URL.Query()
	from, err := time.Parse(models.DateLayout, strings.TrimSpace(query.Get("from")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from date; expected YYYY-MM-DD")
		return
	}
	to, err := time.Parse(models.DateLayout, strings.TrimSpace(query.Get("to")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to date; expected YYYY-MM-DD")
		return
	}

	path, err := s.exporter.BookingsToExcel(r.Context(), from, to.AddDate(0, 0, 1))
	if err != nil {
		s.writeMapped(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(filepath.Base(path)))
	http.ServeFile(w, r, path)
	_ = os.Remove(path)
}
