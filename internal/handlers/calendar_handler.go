package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/asucbc/cbc-api/internal/services"
	apperrors "github.com/asucbc/cbc-api/pkg/errors"
	"github.com/gin-gonic/gin"
)

const (
	MsgCalendarNotConfigured = "Calendar not configured"
	MsgCalendarUnavailable   = "Failed to fetch calendar events"
	MsgInvalidQuery          = "Invalid query parameters"

	calendarCacheControl = "public, max-age=300"
)

type CalendarHandler struct {
	service services.CalendarServiceInterface
	now     func() time.Time
}

func NewCalendarHandler(service services.CalendarServiceInterface) *CalendarHandler {
	return &CalendarHandler{service: service, now: time.Now}
}

type monthQuery struct {
	Year     int    `form:"year" binding:"omitempty,min=1970,max=9999"`
	Month    int    `form:"month" binding:"omitempty,min=1,max=12"`
	Selected string `form:"selected" binding:"omitempty,datetime=2006-01-02"`
}

// Month returns the month grid; year and month default to the current month
func (h *CalendarHandler) Month(c *gin.Context) {
	var q monthQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondErrorWithDetails(c, http.StatusBadRequest, MsgInvalidQuery, ParseValidationErrors(err), err)
		return
	}

	loc := h.service.Location()
	now := h.now().In(loc)
	if q.Year == 0 {
		q.Year = now.Year()
	}
	if q.Month == 0 {
		q.Month = int(now.Month())
	}

	var selected *time.Time
	if q.Selected != "" {
		day, err := time.ParseInLocation("2006-01-02", q.Selected, loc)
		if err != nil {
			respondError(c, http.StatusBadRequest, MsgInvalidQuery, err)
			return
		}
		selected = &day
	}

	month, err := h.service.Month(c.Request.Context(), q.Year, time.Month(q.Month), selected)
	if err != nil {
		h.respondCalendarError(c, err)
		return
	}

	c.Header("Cache-Control", calendarCacheControl)
	c.JSON(http.StatusOK, month)
}

// Today returns events for the current day in the calendar's zone
func (h *CalendarHandler) Today(c *gin.Context) {
	day, err := h.service.Today(c.Request.Context())
	if err != nil {
		h.respondCalendarError(c, err)
		return
	}

	c.Header("Cache-Control", calendarCacheControl)
	c.JSON(http.StatusOK, day)
}

func (h *CalendarHandler) Metadata(c *gin.Context) {
	meta, err := h.service.Metadata(c.Request.Context())
	if err != nil {
		h.respondCalendarError(c, err)
		return
	}

	c.Header("Cache-Control", calendarCacheControl)
	c.JSON(http.StatusOK, meta)
}

func (h *CalendarHandler) Subscribe(c *gin.Context) {
	c.Header("Cache-Control", calendarCacheControl)
	c.JSON(http.StatusOK, gin.H{"subscribeUrl": h.service.SubscribeURL()})
}

func (h *CalendarHandler) respondCalendarError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		respondError(c, http.StatusBadRequest, MsgInvalidQuery, err)
	case errors.Is(err, apperrors.ErrNotConfigured):
		respondError(c, http.StatusServiceUnavailable, MsgCalendarNotConfigured, err)
	case errors.Is(err, apperrors.ErrUnavailable):
		respondError(c, http.StatusServiceUnavailable, MsgCalendarUnavailable, err)
	default:
		respondInternalError(c, err)
	}
}
