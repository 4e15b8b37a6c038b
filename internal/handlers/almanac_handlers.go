package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"almanac-platform/internal/calendar"
	"almanac-platform/internal/models"
	"almanac-platform/internal/repository"
	"almanac-platform/internal/services"
	"almanac-platform/pkg/logging"
	"almanac-platform/pkg/metrics"
)

// AlmanacHandler handles almanac API endpoints
type AlmanacHandler struct {
	almanacService *services.AlmanacService
	exportService  *services.ExportService
	logger         *logging.StructuredLogger
	metrics        *metrics.Collector
}

// NewAlmanacHandler creates a new almanac handler
func NewAlmanacHandler(
	almanacService *services.AlmanacService,
	exportService *services.ExportService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *AlmanacHandler {
	return &AlmanacHandler{
		almanacService: almanacService,
		exportService:  exportService,
		logger:         logger,
		metrics:        metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

// MonthSummary is one entry of the month index
type MonthSummary struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// parseDayFilter reads start, end, phase and holidays query parameters
func parseDayFilter(r *http.Request) (repository.DayFilter, error) {
	var filter repository.DayFilter
	q := r.URL.Query()

	if s := q.Get("start"); s != "" {
		if _, err := models.ParseCivilDate(s); err != nil {
			return filter, &models.ValidationError{Field: "start", Value: s, Message: "invalid start format, expected YYYY-MM-DD"}
		}
		filter.Start = &s
	}

	if s := q.Get("end"); s != "" {
		if _, err := models.ParseCivilDate(s); err != nil {
			return filter, &models.ValidationError{Field: "end", Value: s, Message: "invalid end format, expected YYYY-MM-DD"}
		}
		filter.End = &s
	}

	if filter.Start != nil && filter.End != nil && *filter.End < *filter.Start {
		return filter, &models.ValidationError{Field: "end", Value: *filter.End, Message: "end must not be before start"}
	}

	if s := q.Get("phase"); s != "" {
		phase := models.PhaseSlug(s)
		known := false
		for _, p := range models.PhaseSlugs {
			if p == phase {
				known = true
				break
			}
		}
		if !known {
			return filter, &models.ValidationError{Field: "phase", Value: s, Message: "unknown moon phase"}
		}
		filter.Phase = &phase
	}

	if s := q.Get("holidays"); s != "" {
		holidays, err := strconv.ParseBool(s)
		if err != nil {
			return filter, &models.ValidationError{Field: "holidays", Value: s, Message: "holidays must be true or false"}
		}
		filter.HolidaysOnly = holidays
	}

	return filter, nil
}

// GetDays handles GET /api/almanac/days
func (h *AlmanacHandler) GetDays(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/almanac/days").Observe(duration.Seconds())
	}()

	pageStr := r.URL.Query().Get("page")
	limitStr := r.URL.Query().Get("limit")

	// Default pagination
	page := 1
	limit := 100

	if pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}

	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 1000 {
			limit = l
		}
	}

	filter, err := parseDayFilter(r)
	if err != nil {
		h.handleError(w, r, "/api/almanac/days", err)
		return
	}
	filter.Limit = limit
	filter.Offset = (page - 1) * limit

	mode, err := calendar.ParseFilterMode(r.URL.Query().Get("filter"))
	if err != nil {
		h.handleError(w, r, "/api/almanac/days", err)
		return
	}

	days, total, err := h.almanacService.Days(ctx, filter, mode)
	if err != nil {
		h.handleError(w, r, "/api/almanac/days", err)
		return
	}

	response := PaginatedResponse{
		Data:       days,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}

	h.metrics.RecordAPIRequest("/api/almanac/days", "GET", "200")
	h.sendJSON(w, response, http.StatusOK)
}

// GetDay handles GET /api/almanac/days/{date}
func (h *AlmanacHandler) GetDay(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues("/api/almanac/days/{date}").Observe(time.Since(startTime).Seconds())
	}()

	day, err := h.almanacService.Day(r.Context(), mux.Vars(r)["date"])
	if err != nil {
		h.handleError(w, r, "/api/almanac/days/{date}", err)
		return
	}

	h.metrics.RecordAPIRequest("/api/almanac/days/{date}", "GET", "200")
	h.sendJSON(w, day, http.StatusOK)
}

// GetMonths handles GET /api/almanac/months
func (h *AlmanacHandler) GetMonths(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues("/api/almanac/months").Observe(time.Since(startTime).Seconds())
	}()

	keys, err := h.almanacService.MonthKeys(r.Context())
	if err != nil {
		h.handleError(w, r, "/api/almanac/months", err)
		return
	}

	months := make([]MonthSummary, 0, len(keys))
	for _, k := range keys {
		months = append(months, MonthSummary{Key: k, Label: calendar.MonthLabel(k)})
	}

	h.metrics.RecordAPIRequest("/api/almanac/months", "GET", "200")
	h.sendJSON(w, map[string]interface{}{"months": months}, http.StatusOK)
}

// GetMonth handles GET /api/almanac/months/{month}
func (h *AlmanacHandler) GetMonth(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues("/api/almanac/months/{month}").Observe(time.Since(startTime).Seconds())
	}()

	mode, err := calendar.ParseFilterMode(r.URL.Query().Get("filter"))
	if err != nil {
		h.handleError(w, r, "/api/almanac/months/{month}", err)
		return
	}

	view, err := h.almanacService.MonthView(r.Context(), mux.Vars(r)["month"], mode)
	if err != nil {
		h.handleError(w, r, "/api/almanac/months/{month}", err)
		return
	}

	h.metrics.RecordAPIRequest("/api/almanac/months/{month}", "GET", "200")
	h.sendJSON(w, view, http.StatusOK)
}

// GetToday handles GET /api/almanac/today
func (h *AlmanacHandler) GetToday(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues("/api/almanac/today").Observe(time.Since(startTime).Seconds())
	}()

	entry, err := h.almanacService.Today(r.Context(), r.URL.Query().Get("selected"))
	if err != nil {
		h.handleError(w, r, "/api/almanac/today", err)
		return
	}

	h.metrics.RecordAPIRequest("/api/almanac/today", "GET", "200")
	h.sendJSON(w, entry, http.StatusOK)
}

// Export handles GET /api/almanac/export?format=ics|csv
func (h *AlmanacHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()
	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues("/api/almanac/export").Observe(time.Since(startTime).Seconds())
	}()

	filter, err := parseDayFilter(r)
	if err != nil {
		h.handleError(w, r, "/api/almanac/export", err)
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "ics":
		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="almanac.ics"`)
		err = h.exportService.WriteICS(ctx, w, filter)
	case "csv":
		mode, modeErr := calendar.ParseFilterMode(r.URL.Query().Get("filter"))
		if modeErr != nil {
			h.handleError(w, r, "/api/almanac/export", modeErr)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="almanac.csv"`)
		err = h.exportService.WriteCSV(ctx, w, filter, mode)
	default:
		err = &models.ValidationError{Field: "format", Value: format, Message: "invalid format, expected ics or csv"}
	}

	if err != nil {
		// headers are only committed once the encoder writes
		w.Header().Del("Content-Disposition")
		h.handleError(w, r, "/api/almanac/export", err)
		return
	}

	h.metrics.RecordAPIRequest("/api/almanac/export", "GET", "200")
}

// HealthCheck handles GET /health
func (h *AlmanacHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})

	if err := h.almanacService.HealthCheck(ctx); err != nil {
		h.logger.Warn(ctx, "[HEALTH_CHECK_FAILED] Storage unavailable", logging.Fields{
			"error": err.Error(),
		})
		status["status"] = "unhealthy"
		h.sendJSON(w, status, http.StatusServiceUnavailable)
		return
	}

	h.sendJSON(w, status, http.StatusOK)
}

// handleError maps service errors to HTTP responses
func (h *AlmanacHandler) handleError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	var validationErr *models.ValidationError
	var notFoundErr *repository.NotFoundError

	switch {
	case errors.As(err, &validationErr):
		h.metrics.RecordAPIError("validation_error", endpoint)
		h.sendError(w, r, validationErr.Message, http.StatusBadRequest)
	case errors.As(err, &notFoundErr):
		h.metrics.RecordAPIError("not_found", endpoint)
		h.sendError(w, r, notFoundErr.Error(), http.StatusNotFound)
	default:
		h.logger.Error(r.Context(), "[API_ERROR] Request failed", logging.Fields{
			"endpoint": endpoint,
			"path":     r.URL.Path,
		}, err)
		h.metrics.RecordAPIError("internal_error", endpoint)
		h.sendError(w, r, "internal server error", http.StatusInternalServerError)
	}
}

// sendJSON sends a JSON response
func (h *AlmanacHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *AlmanacHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(routeTemplate(r), r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RegisterRoutes registers all almanac API routes
func (h *AlmanacHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/almanac/days", h.GetDays).Methods("GET")
	router.HandleFunc("/api/almanac/days/{date}", h.GetDay).Methods("GET")
	router.HandleFunc("/api/almanac/months", h.GetMonths).Methods("GET")
	router.HandleFunc("/api/almanac/months/{month}", h.GetMonth).Methods("GET")
	router.HandleFunc("/api/almanac/today", h.GetToday).Methods("GET")
	router.HandleFunc("/api/almanac/export", h.Export).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}
