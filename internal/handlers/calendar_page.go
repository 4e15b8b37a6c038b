package handlers

import (
	"bytes"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"almanac-platform/internal/calendar"
	"almanac-platform/internal/models"
	"almanac-platform/internal/services"
	"almanac-platform/pkg/logging"
	"almanac-platform/pkg/metrics"
)

// CalendarPage renders the browsable month calendar
type CalendarPage struct {
	almanacService *services.AlmanacService
	logger         *logging.StructuredLogger
	metrics        *metrics.Collector
}

// NewCalendarPage creates a new calendar page handler
func NewCalendarPage(almanacService *services.AlmanacService, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *CalendarPage {
	return &CalendarPage{
		almanacService: almanacService,
		logger:         logger,
		metrics:        metricsCollector,
	}
}

type filterLink struct {
	Label  string
	URL    string
	Active bool
}

type cellView struct {
	Blank      bool
	DayNumber  int
	Subtitle   string
	Badge      string
	URL        string
	IsToday    bool
	IsSelected bool
}

type pageData struct {
	View         *services.MonthView
	Months       []MonthSummary
	Today        *models.DayRecord
	TodayHeading string
	Selected     *models.DayRecord
	PrevURL      string
	NextURL      string
	Filters      []filterLink
	Rows         [][]cellView
}

func pageURL(month string, mode calendar.FilterMode, date string) string {
	q := url.Values{}
	if month != "" {
		q.Set("month", month)
	}
	if mode != "" && mode != calendar.FilterAll {
		q.Set("filter", string(mode))
	}
	if date != "" {
		q.Set("date", date)
	}
	if len(q) == 0 {
		return "/"
	}
	return "/?" + q.Encode()
}

// ServeHTTP handles GET /?month=YYYY-MM&filter=all|farming|business&date=YYYY-MM-DD
func (p *CalendarPage) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()
	defer func() {
		p.metrics.APIRequestDuration.WithLabelValues("/").Observe(time.Since(startTime).Seconds())
	}()

	q := r.URL.Query()
	mode, err := calendar.ParseFilterMode(q.Get("filter"))
	if err != nil {
		p.fail(w, r, err.Error(), http.StatusBadRequest)
		return
	}

	selectedDate := q.Get("date")
	month := q.Get("month")
	if month == "" && len(selectedDate) >= 7 {
		month = selectedDate[:7]
	}

	entry, err := p.almanacService.Today(ctx, selectedDate)
	if err != nil {
		p.fail(w, r, "no almanac data available", http.StatusNotFound)
		return
	}
	if month == "" {
		month = entry.Date[:7]
	}

	view, err := p.almanacService.MonthView(ctx, month, mode)
	if err != nil {
		p.fail(w, r, "month not available: "+month, http.StatusNotFound)
		return
	}

	keys, err := p.almanacService.MonthKeys(ctx)
	if err != nil {
		p.fail(w, r, "failed to list months", http.StatusInternalServerError)
		return
	}

	today := p.almanacService.TodayDate().String()
	data := pageData{
		View:         view,
		Today:        entry,
		TodayHeading: "Today",
		Selected:     entry,
	}
	if entry.Date != today {
		data.TodayHeading = "Selected"
	}
	if view.Prev != "" {
		data.PrevURL = pageURL(view.Prev, mode, "")
	}
	if view.Next != "" {
		data.NextURL = pageURL(view.Next, mode, "")
	}
	for _, k := range keys {
		data.Months = append(data.Months, MonthSummary{Key: k, Label: calendar.MonthLabel(k)})
	}
	for _, m := range calendar.FilterModes {
		data.Filters = append(data.Filters, filterLink{
			Label:  m.Label(),
			URL:    pageURL(view.Key, m, selectedDate),
			Active: m == mode,
		})
	}
	for _, row := range view.Rows {
		cells := make([]cellView, 0, len(row))
		for _, c := range row {
			if c.IsBlank() {
				cells = append(cells, cellView{Blank: true})
				continue
			}
			cells = append(cells, cellView{
				DayNumber:  c.DayNumber,
				Subtitle:   calendar.Subtitle(c.Entry),
				Badge:      calendar.Badge(c.Entry),
				URL:        pageURL(view.Key, mode, c.Date),
				IsToday:    c.Date == today,
				IsSelected: c.Date == entry.Date,
			})
		}
		data.Rows = append(data.Rows, cells)
	}

	var buf bytes.Buffer
	if err := calendarTemplate.Execute(&buf, data); err != nil {
		p.logger.Error(ctx, "[PAGE_RENDER_ERROR] Failed to render calendar", logging.Fields{
			"month": view.Key,
		}, err)
		p.fail(w, r, "failed to render page", http.StatusInternalServerError)
		return
	}

	p.metrics.RecordAPIRequest("/", "GET", "200")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (p *CalendarPage) fail(w http.ResponseWriter, r *http.Request, message string, status int) {
	p.metrics.RecordAPIRequest("/", r.Method, strconv.Itoa(status))
	http.Error(w, message, status)
}

// RegisterRoutes registers the page route
func (p *CalendarPage) RegisterRoutes(router *mux.Router) {
	router.Handle("/", p).Methods("GET")
}
