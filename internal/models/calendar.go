package models

import "time"

// EventTime is either a timed instant or an all-day date
type EventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// IsAllDay reports whether the time carries only a date
func (t EventTime) IsAllDay() bool {
	return t.DateTime == "" && t.Date != ""
}

// Resolve parses the time. All-day dates are placed at midnight in loc.
func (t EventTime) Resolve(loc *time.Location) (time.Time, bool) {
	if t.DateTime != "" {
		parsed, err := time.Parse(time.RFC3339, t.DateTime)
		if err != nil {
			return time.Time{}, false
		}
		return parsed.In(loc), true
	}
	if t.Date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", t.Date, loc)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	}
	return time.Time{}, false
}

// CalendarEvent is a club event read from Google Calendar
type CalendarEvent struct {
	ID               string    `json:"id"`
	Summary          string    `json:"summary"`
	Description      string    `json:"description,omitempty"`
	Start            EventTime `json:"start"`
	End              EventTime `json:"end"`
	Location         string    `json:"location,omitempty"`
	Status           string    `json:"status,omitempty"`
	HTMLLink         string    `json:"htmlLink,omitempty"`
	Created          string    `json:"created,omitempty"`
	Updated          string    `json:"updated,omitempty"`
	AddToCalendarURL string    `json:"addToCalendarUrl,omitempty"`
}

// CalendarMetadata describes a calendar and whether its events are readable
type CalendarMetadata struct {
	ID            string `json:"id"`
	Summary       string `json:"summary"`
	Description   string `json:"description,omitempty"`
	Location      string `json:"location,omitempty"`
	TimeZone      string `json:"timeZone,omitempty"`
	CanReadEvents bool   `json:"canReadEvents"`
}

// CalendarDay is one cell of a month grid
type CalendarDay struct {
	Date           string          `json:"date"`
	IsCurrentMonth bool            `json:"isCurrentMonth"`
	IsToday        bool            `json:"isToday"`
	IsSelected     bool            `json:"isSelected"`
	HasEvents      bool            `json:"hasEvents"`
	Events         []CalendarEvent `json:"events"`
}

// CalendarMonth is a six-week grid anchored on a month
type CalendarMonth struct {
	Year           int           `json:"year"`
	Month          int           `json:"month"`
	MonthName      string        `json:"monthName"`
	FirstDayOfWeek int           `json:"firstDayOfWeek"`
	DaysInMonth    int           `json:"daysInMonth"`
	Days           []CalendarDay `json:"days"`
}

// CalendarDayEvents is the response for a single day's events
type CalendarDayEvents struct {
	Date   string          `json:"date"`
	Events []CalendarEvent `json:"events"`
}
