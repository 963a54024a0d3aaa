// Package calendar builds month grids and calendar links from Google
// Calendar events. All functions take the clock and location explicitly.
package calendar

import (
	"net/url"
	"time"

	"github.com/asucbc/cbc-api/internal/models"
)

// GridCells is six weeks of seven days
const GridCells = 42

const dateLayout = "2006-01-02"

// DaysInMonth returns the number of days in month
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FirstWeekday returns the weekday of the 1st, 0 for Sunday
func FirstWeekday(year int, month time.Month) int {
	return int(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday())
}

// SameDay reports whether a and b fall on the same calendar date
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// NextMonth returns the month after year/month
func NextMonth(year int, month time.Month) (int, time.Month) {
	if month == time.December {
		return year + 1, time.January
	}
	return year, month + 1
}

// PreviousMonth returns the month before year/month
func PreviousMonth(year int, month time.Month) (int, time.Month) {
	if month == time.January {
		return year - 1, time.December
	}
	return year, month - 1
}

// MonthRange returns the first instant of the month and the last second of
// its final day in loc
func MonthRange(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	end := time.Date(year, month+1, 0, 23, 59, 59, 0, loc)
	return start, end
}

// DayRange returns the start of day and its last second in loc
func DayRange(day time.Time, loc *time.Location) (time.Time, time.Time) {
	y, m, d := day.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc), time.Date(y, m, d, 23, 59, 59, 0, loc)
}

// EventsOn returns the events whose start falls on date in loc
func EventsOn(date time.Time, events []models.CalendarEvent, loc *time.Location) []models.CalendarEvent {
	out := []models.CalendarEvent{}
	for _, event := range events {
		start, ok := event.Start.Resolve(loc)
		if ok && SameDay(start, date) {
			out = append(out, event)
		}
	}
	return out
}

// NewMonth builds a 42-cell grid for month. Leading cells come from the
// previous month and trailing cells from the next; only days of the month
// itself carry events. selected may be nil.
func NewMonth(year int, month time.Month, selected *time.Time, events []models.CalendarEvent, now time.Time, loc *time.Location) models.CalendarMonth {
	firstWeekday := FirstWeekday(year, month)
	daysInMonth := DaysInMonth(year, month)
	today := now.In(loc)

	cell := func(date time.Time, current bool) models.CalendarDay {
		day := models.CalendarDay{
			Date:           date.Format(dateLayout),
			IsCurrentMonth: current,
			IsToday:        SameDay(date, today),
			IsSelected:     selected != nil && SameDay(date, selected.In(loc)),
			Events:         []models.CalendarEvent{},
		}
		if current {
			day.Events = EventsOn(date, events, loc)
			day.HasEvents = len(day.Events) > 0
		}
		return day
	}

	days := make([]models.CalendarDay, 0, GridCells)

	// time.Date normalizes day 0 and negatives into the previous month
	for offset := firstWeekday; offset > 0; offset-- {
		days = append(days, cell(time.Date(year, month, 1-offset, 0, 0, 0, 0, loc), false))
	}
	for d := 1; d <= daysInMonth; d++ {
		days = append(days, cell(time.Date(year, month, d, 0, 0, 0, 0, loc), true))
	}
	for d := 1; len(days) < GridCells; d++ {
		days = append(days, cell(time.Date(year, month+1, d, 0, 0, 0, 0, loc), false))
	}

	return models.CalendarMonth{
		Year:           year,
		Month:          int(month),
		MonthName:      month.String(),
		FirstDayOfWeek: firstWeekday,
		DaysInMonth:    daysInMonth,
		Days:           days,
	}
}

// TruncateSummary shortens summary to maxLen runes with a trailing ellipsis
func TruncateSummary(summary string, maxLen int) string {
	runes := []rune(summary)
	if len(runes) <= maxLen {
		return summary
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// SubscriptionURL is the public embed link for calendarID
func SubscriptionURL(calendarID, timeZone string) string {
	q := url.Values{}
	q.Set("src", calendarID)
	q.Set("ctz", timeZone)
	return "https://calendar.google.com/calendar/embed?" + q.Encode()
}

// AddToCalendarURL builds a Google Calendar template link for event, or ""
// when its times cannot be parsed
func AddToCalendarURL(event models.CalendarEvent, loc *time.Location) string {
	start, ok := event.Start.Resolve(loc)
	if !ok {
		return ""
	}
	end, ok := event.End.Resolve(loc)
	if !ok {
		end = start
	}

	const googleLayout = "20060102T150405Z"
	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", event.Summary)
	q.Set("dates", start.UTC().Format(googleLayout)+"/"+end.UTC().Format(googleLayout))
	q.Set("details", event.Description)
	q.Set("location", event.Location)
	return "https://calendar.google.com/calendar/render?" + q.Encode()
}
