package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"almanac-platform/internal/almanac"
	"almanac-platform/internal/calendar"
	"almanac-platform/internal/models"
	"almanac-platform/internal/repository"
	"almanac-platform/internal/services"
	"almanac-platform/pkg/logging"
	"almanac-platform/pkg/metrics"
)

var lunation = []string{
	"New", "Waxing Crescent", "First Quarter", "Waxing Gibbous",
	"Full", "Waning Gibbous", "Last Quarter", "Waning Crescent",
}

type testServer struct {
	router  *mux.Router
	repo    *repository.FileRepository
	metrics *metrics.Collector
}

func newTestServer(t *testing.T, seed bool) *testServer {
	t.Helper()

	logger := logging.NewStructuredLogger("handlers-test", "test", logging.ErrorLevel)
	logger.SetOutput(io.Discard)
	m := metrics.NewCollectorWith("handlers_test", prometheus.NewRegistry())

	repo := repository.NewFileRepository(filepath.Join(t.TempDir(), "almanac.json"), logger)
	if seed {
		epoch := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
		phases := almanac.PhaseFunc(func(at time.Time) string {
			days := int(models.CivilDateOf(at).In(time.UTC).Sub(epoch).Hours() / 24)
			return lunation[days%8]
		})
		gen := services.NewGenerationService(almanac.NewGenerator(phases, almanac.DefaultOptions()), repo, logger, m)
		_, err := gen.Run(context.Background(), services.GenerationRequest{
			Start:     models.NewCivilDate(2025, time.October, 1),
			End:       models.NewCivilDate(2025, time.December, 31),
			Load:      true,
			BatchSize: 100,
		})
		require.NoError(t, err)
	}

	return &testServer{
		router:  newRouter(repo, logger, m),
		repo:    repo,
		metrics: m,
	}
}

func newRouter(repo repository.AlmanacRepository, logger *logging.StructuredLogger, m *metrics.Collector) *mux.Router {
	// 03:00 UTC on the 16th is the evening of the 15th in Central time
	clock := services.FixedClock(time.Date(2025, time.November, 16, 3, 0, 0, 0, time.UTC))
	cst := time.FixedZone("CST", -6*3600)

	almanacSvc := services.NewAlmanacService(repo, cst, clock, logger, m)
	exportSvc := services.NewExportService(repo, clock, logger, m)

	router := mux.NewRouter()
	router.Use(RequestID, RequestLogger(logger))
	NewAlmanacHandler(almanacSvc, exportSvc, logger, m).RegisterRoutes(router)
	NewCalendarPage(almanacSvc, logger, m).RegisterRoutes(router)
	router.HandleFunc("/api/docs/openapi.json", OpenAPISpec).Methods("GET")
	return router
}

func (s *testServer) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

type daysPage struct {
	Data       []models.DayRecord `json:"data"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
}

func TestGetDays_Pagination(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.get(t, "/api/almanac/days?limit=10&page=2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp daysPage
	decodeBody(t, rec, &resp)
	assert.Equal(t, 92, resp.Total)
	assert.Equal(t, 2, resp.Page)
	assert.Equal(t, 10, resp.TotalPages)
	require.Len(t, resp.Data, 10)
	assert.Equal(t, "2025-10-11", resp.Data[0].Date)

	// out-of-range limit falls back to the default
	rec = s.get(t, "/api/almanac/days?limit=5000")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	assert.Equal(t, 100, resp.Limit)
	assert.Len(t, resp.Data, 92)
}

func TestGetDays_Filters(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.get(t, "/api/almanac/days?holidays=true")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp daysPage
	decodeBody(t, rec, &resp)
	require.NotEmpty(t, resp.Data)
	holidays := map[string]bool{}
	for _, d := range resp.Data {
		require.NotNil(t, d.Holiday, d.Date)
		holidays[*d.Holiday] = true
	}
	assert.True(t, holidays["Christmas Day"])
	assert.True(t, holidays["Thanksgiving"])

	rec = s.get(t, "/api/almanac/days?start=2025-11-01&end=2025-11-30&phase=full")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	require.NotEmpty(t, resp.Data)
	for _, d := range resp.Data {
		assert.Equal(t, models.PhaseFull, d.MoonPhase)
		require.NotNil(t, d.MoonName)
		assert.Equal(t, "Beaver Moon", *d.MoonName)
	}

	rec = s.get(t, "/api/almanac/days?filter=farming")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	assert.Less(t, resp.Total, 92)
	for _, d := range resp.Data {
		assert.False(t, d.Farming.IsEmpty(), d.Date)
	}
}

func TestGetDays_InvalidParameters(t *testing.T) {
	s := newTestServer(t, true)

	tests := []struct {
		name  string
		query string
	}{
		{"bad start", "start=11/01/2025"},
		{"bad end", "end=2025-02-30"},
		{"reversed range", "start=2025-12-01&end=2025-11-01"},
		{"unknown phase", "phase=blue"},
		{"bad holidays flag", "holidays=maybe"},
		{"unknown filter", "filter=fishing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.get(t, "/api/almanac/days?"+tt.query)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp ErrorResponse
			decodeBody(t, rec, &resp)
			assert.Equal(t, http.StatusBadRequest, resp.Code)
			assert.Equal(t, "Bad Request", resp.Error)
			assert.NotEmpty(t, resp.Message)
		})
	}

	assert.Equal(t, float64(len(tests)), testutil.ToFloat64(
		s.metrics.APIErrorsTotal.WithLabelValues("validation_error", "/api/almanac/days")))
}

func TestGetDay(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.get(t, "/api/almanac/days/2025-12-25")
	require.Equal(t, http.StatusOK, rec.Code)
	var day models.DayRecord
	decodeBody(t, rec, &day)
	require.NotNil(t, day.Holiday)
	assert.Equal(t, "Christmas Day", *day.Holiday)
	assert.Equal(t, models.SeasonWinter, day.Season)
	assert.NotNil(t, day.Crops)

	rec = s.get(t, "/api/almanac/days/2026-05-01")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var errResp ErrorResponse
	decodeBody(t, rec, &errResp)
	assert.Equal(t, http.StatusNotFound, errResp.Code)

	rec = s.get(t, "/api/almanac/days/tomorrow")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(
		s.metrics.APIRequestsTotal.WithLabelValues("/api/almanac/days/{date}", "GET", "400")))
}

func TestGetMonths(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.get(t, "/api/almanac/months")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Months []MonthSummary `json:"months"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, []MonthSummary{
		{Key: "2025-10", Label: "October 2025"},
		{Key: "2025-11", Label: "November 2025"},
		{Key: "2025-12", Label: "December 2025"},
	}, resp.Months)

	empty := newTestServer(t, false)
	rec = empty.get(t, "/api/almanac/months")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"months":[]}`, rec.Body.String())
}

type monthResponse struct {
	Key           string          `json:"key"`
	Label         string          `json:"label"`
	Prev          string          `json:"prev"`
	Next          string          `json:"next"`
	Filter        string          `json:"filter"`
	WeekdayLabels []string        `json:"weekdayLabels"`
	Cells         []calendar.Cell `json:"cells"`
}

func TestGetMonth(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.get(t, "/api/almanac/months/2025-11")
	require.Equal(t, http.StatusOK, rec.Code)

	var view monthResponse
	decodeBody(t, rec, &view)
	assert.Equal(t, "November 2025", view.Label)
	assert.Equal(t, "2025-10", view.Prev)
	assert.Equal(t, "2025-12", view.Next)
	assert.Len(t, view.WeekdayLabels, 7)
	require.Len(t, view.Cells, 6+30)
	for _, c := range view.Cells[:6] {
		assert.Equal(t, 0, c.DayNumber)
		assert.Nil(t, c.Entry)
	}
	assert.Equal(t, 1, view.Cells[6].DayNumber)
	require.NotNil(t, view.Cells[6].Entry)
	assert.Equal(t, "2025-11-01", view.Cells[6].Entry.Date)

	rec = s.get(t, "/api/almanac/months/2025-12?filter=business")
	require.Equal(t, http.StatusOK, rec.Code)
	var december monthResponse
	decodeBody(t, rec, &december)
	assert.Equal(t, "business", december.Filter)
	assert.Len(t, december.Cells, 1+31)
	assert.Equal(t, "2025-11", december.Prev)
	assert.Equal(t, "", december.Next)

	assert.Equal(t, http.StatusBadRequest, s.get(t, "/api/almanac/months/2025-13").Code)
	assert.Equal(t, http.StatusBadRequest, s.get(t, "/api/almanac/months/2025-11?filter=fishing").Code)
	assert.Equal(t, http.StatusNotFound, s.get(t, "/api/almanac/months/2030-01").Code)
}

func TestGetToday(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.get(t, "/api/almanac/today")
	require.Equal(t, http.StatusOK, rec.Code)
	var day models.DayRecord
	decodeBody(t, rec, &day)
	assert.Equal(t, "2025-11-15", day.Date)

	rec = s.get(t, "/api/almanac/today?selected=2025-10-31")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &day)
	assert.Equal(t, "2025-10-31", day.Date)
	require.NotNil(t, day.Holiday)
	assert.Equal(t, "Halloween", *day.Holiday)

	empty := newTestServer(t, false)
	assert.Equal(t, http.StatusNotFound, empty.get(t, "/api/almanac/today").Code)
}

func TestExport(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.get(t, "/api/almanac/export?format=ics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "almanac.ics")
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "BEGIN:VCALENDAR"))
	assert.Contains(t, body, "SUMMARY:Christmas Day")
	assert.Contains(t, body, "SUMMARY:Beaver Moon")

	rec = s.get(t, "/api/almanac/export?format=csv&start=2025-12-01&end=2025-12-07")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 8)
	assert.True(t, strings.HasPrefix(lines[0], "date,"))
	assert.True(t, strings.HasPrefix(lines[1], "2025-12-01,"))

	rec = s.get(t, "/api/almanac/export?format=pdf")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// a lone quarter day has nothing to put on a calendar
	rec = s.get(t, "/api/almanac/export?start=2025-10-02&end=2025-10-02")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.get(t, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	var status map[string]string
	decodeBody(t, rec, &status)
	assert.Equal(t, "healthy", status["status"])

	require.NoError(t, os.Remove(s.repo.Path()))
	rec = s.get(t, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	decodeBody(t, rec, &status)
	assert.Equal(t, "unhealthy", status["status"])
}

// brokenRepo fails every call
type brokenRepo struct{}

var errStorage = errors.New("storage offline")

func (brokenRepo) SaveDays(context.Context, []models.DayRecord) error { return errStorage }
func (brokenRepo) GetDay(context.Context, string) (*models.DayRecord, error) {
	return nil, errStorage
}
func (brokenRepo) ListDays(context.Context, repository.DayFilter) ([]models.DayRecord, int, error) {
	return nil, 0, errStorage
}
func (brokenRepo) ListMonth(context.Context, int, time.Month) ([]models.DayRecord, error) {
	return nil, errStorage
}
func (brokenRepo) HealthCheck(context.Context) error { return errStorage }

func TestInternalErrorsAreMasked(t *testing.T) {
	logger := logging.NewStructuredLogger("handlers-test", "test", logging.ErrorLevel)
	logger.SetOutput(io.Discard)
	m := metrics.NewCollectorWith("handlers_test", prometheus.NewRegistry())
	s := &testServer{router: newRouter(brokenRepo{}, logger, m), metrics: m}

	for _, target := range []string{"/api/almanac/days", "/api/almanac/days/2025-01-01", "/api/almanac/months"} {
		rec := s.get(t, target)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, target)

		var resp ErrorResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, "internal server error", resp.Message)
		assert.NotContains(t, resp.Message, errStorage.Error())
	}

	assert.Equal(t, float64(1), testutil.ToFloat64(
		m.APIErrorsTotal.WithLabelValues("internal_error", "/api/almanac/months")))
}

func TestCalendarPage(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.get(t, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "<h2>November 2025</h2>")
	assert.Contains(t, body, "Today: 2025-11-15")
	assert.Contains(t, body, "Farming focus")
	assert.Contains(t, body, `href="/?month=2025-12"`)
	assert.Contains(t, body, `href="/?month=2025-10"`)

	rec = s.get(t, "/?date=2025-12-25&filter=business")
	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	assert.Contains(t, body, "<h2>December 2025</h2>")
	assert.Contains(t, body, "Selected: 2025-12-25")
	assert.Contains(t, body, "Christmas Day")
	assert.Contains(t, body, `class="active">Business focus`)

	assert.Equal(t, http.StatusBadRequest, s.get(t, "/?filter=fishing").Code)
	assert.Equal(t, http.StatusNotFound, s.get(t, "/?month=2030-01").Code)

	empty := newTestServer(t, false)
	assert.Equal(t, http.StatusNotFound, empty.get(t, "/").Code)
}

func TestPageURL(t *testing.T) {
	assert.Equal(t, "/", pageURL("", calendar.FilterAll, ""))
	assert.Equal(t, "/?month=2025-11", pageURL("2025-11", calendar.FilterAll, ""))
	assert.Equal(t, "/?date=2025-11-05&filter=farming&month=2025-11", pageURL("2025-11", calendar.FilterFarming, "2025-11-05"))
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.get(t, "/health")
	id := rec.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, incoming)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, incoming, rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.NotEqual(t, "<script>", rec.Header().Get(RequestIDHeader))

	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
	}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, rec.Header().Get(RequestIDHeader), seen)
}

func TestOpenAPISpec(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.get(t, "/api/docs/openapi.json")
	require.Equal(t, http.StatusOK, rec.Code)

	var doc struct {
		OpenAPI string                 `json:"openapi"`
		Paths   map[string]interface{} `json:"paths"`
	}
	decodeBody(t, rec, &doc)
	assert.Equal(t, "3.0.0", doc.OpenAPI)
	for _, path := range []string{
		"/api/almanac/days", "/api/almanac/days/{date}", "/api/almanac/months",
		"/api/almanac/months/{month}", "/api/almanac/today", "/api/almanac/export", "/health",
	} {
		assert.Contains(t, doc.Paths, path)
	}
}
