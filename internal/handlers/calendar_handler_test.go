package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/asucbc/cbc-api/internal/models"
	apperrors "github.com/asucbc/cbc-api/pkg/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func calendarRouter(svc *MockCalendarService, now time.Time) *gin.Engine {
	handler := NewCalendarHandler(svc)
	handler.now = func() time.Time { return now }

	router := gin.New()
	router.GET("/api/calendar/month", handler.Month)
	router.GET("/api/calendar/today", handler.Today)
	router.GET("/api/calendar/metadata", handler.Metadata)
	router.GET("/api/calendar/subscribe", handler.Subscribe)
	return router
}

func get(router *gin.Engine, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestCalendarHandler_Month(t *testing.T) {
	svc := new(MockCalendarService)
	svc.On("Month", mock.Anything, 2025, time.March, (*time.Time)(nil)).
		Return(&models.CalendarMonth{Year: 2025, Month: 3, MonthName: "March"}, nil)

	w := get(calendarRouter(svc, time.Now()), "/api/calendar/month?year=2025&month=3")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"monthName":"March"`)
	assert.Equal(t, calendarCacheControl, w.Header().Get("Cache-Control"))
	svc.AssertExpectations(t)
}

func TestCalendarHandler_Month_DefaultsToCurrentMonth(t *testing.T) {
	svc := new(MockCalendarService)
	svc.On("Month", mock.Anything, 2026, time.October, (*time.Time)(nil)).
		Return(&models.CalendarMonth{Year: 2026, Month: 10}, nil)

	now := time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC)
	w := get(calendarRouter(svc, now), "/api/calendar/month")

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestCalendarHandler_Month_SelectedDay(t *testing.T) {
	svc := new(MockCalendarService)
	svc.On("Month", mock.Anything, 2025, time.March, mock.MatchedBy(func(day *time.Time) bool {
		return day != nil && day.Format("2006-01-02") == "2025-03-14"
	})).Return(&models.CalendarMonth{Year: 2025, Month: 3}, nil)

	w := get(calendarRouter(svc, time.Now()), "/api/calendar/month?year=2025&month=3&selected=2025-03-14")

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestCalendarHandler_Month_InvalidQuery(t *testing.T) {
	router := calendarRouter(new(MockCalendarService), time.Now())

	for _, target := range []string{
		"/api/calendar/month?year=2025&month=13",
		"/api/calendar/month?year=2025&month=0x",
		"/api/calendar/month?year=2025&month=3&selected=14-03-2025",
	} {
		w := get(router, target)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
		assert.Contains(t, w.Body.String(), MsgInvalidQuery, target)
	}

	w := get(router, "/api/calendar/month?year=2025&month=13")
	assert.Contains(t, w.Body.String(), `"field":"month"`)
}

func TestCalendarHandler_Today_Errors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"upstream down", apperrors.UnavailableError("google calendar events"), http.StatusServiceUnavailable, MsgCalendarUnavailable},
		{"not configured", apperrors.NotConfiguredError("GOOGLE_CALENDAR_API_KEY"), http.StatusServiceUnavailable, MsgCalendarNotConfigured},
		{"unexpected", assert.AnError, http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockCalendarService)
			svc.On("Today", mock.Anything).Return(nil, tt.err)

			w := get(calendarRouter(svc, time.Now()), "/api/calendar/today")

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.message)
		})
	}
}

func TestCalendarHandler_Today(t *testing.T) {
	svc := new(MockCalendarService)
	svc.On("Today", mock.Anything).Return(&models.CalendarDayEvents{
		Date:   "2026-10-14",
		Events: []models.CalendarEvent{{ID: "evt-1", Summary: "Build Night"}},
	}, nil)

	w := get(calendarRouter(svc, time.Now()), "/api/calendar/today")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"summary":"Build Night"`)
}

func TestCalendarHandler_MetadataAndSubscribe(t *testing.T) {
	svc := new(MockCalendarService)
	svc.On("Metadata", mock.Anything).Return(&models.CalendarMetadata{ID: "asu.edu_primary", CanReadEvents: true}, nil)
	svc.On("SubscribeURL").Return("https://calendar.google.com/calendar/embed?src=asu.edu_primary")
	router := calendarRouter(svc, time.Now())

	w := get(router, "/api/calendar/metadata")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"canReadEvents":true`)

	w = get(router, "/api/calendar/subscribe")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"subscribeUrl":"https://calendar.google.com/calendar/embed?src=asu.edu_primary"}`, w.Body.String())
}
