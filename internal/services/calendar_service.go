package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/asucbc/cbc-api/config"
	"github.com/asucbc/cbc-api/internal/cache"
	"github.com/asucbc/cbc-api/internal/calendar"
	"github.com/asucbc/cbc-api/internal/models"
	apperrors "github.com/asucbc/cbc-api/pkg/errors"
	"github.com/asucbc/cbc-api/pkg/logger"
	"github.com/asucbc/cbc-api/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// CalendarSource reads events and metadata for one calendar
type CalendarSource interface {
	ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]models.CalendarEvent, error)
	Metadata(ctx context.Context) (*models.CalendarMetadata, error)
}

// CalendarService serves the club calendar from a cached Google Calendar source
type CalendarService struct {
	source     CalendarSource
	cache      *cache.CalendarCache
	calendarID string
	timeZone   string
	location   *time.Location
	now        func() time.Time
}

// NewCalendarService creates a new calendar service instance. An unknown time
// zone falls back to UTC.
func NewCalendarService(cfg config.CalendarConfig, source CalendarSource, calendarCache *cache.CalendarCache) *CalendarService {
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		logger.Warn("Unknown calendar time zone, using UTC",
			zap.String("time_zone", cfg.TimeZone),
			zap.Error(err))
		loc = time.UTC
	}

	return &CalendarService{
		source:     source,
		cache:      calendarCache,
		calendarID: cfg.CalendarID,
		timeZone:   loc.String(),
		location:   loc,
		now:        time.Now,
	}
}

// Location is the zone used to bin events into days
func (s *CalendarService) Location() *time.Location {
	return s.location
}

// Month returns the 42-cell grid for year/month with events binned per day
func (s *CalendarService) Month(ctx context.Context, year int, month time.Month, selected *time.Time) (*models.CalendarMonth, error) {
	if month < time.January || month > time.December {
		return nil, apperrors.InvalidInputError("month", "must be between 1 and 12")
	}

	ctx, span := tracing.StartSpan(ctx, "calendar.month",
		attribute.Int("calendar.year", year),
		attribute.Int("calendar.month", int(month)))
	defer span.End()

	timeMin, timeMax := calendar.MonthRange(year, month, s.location)
	events, err := s.events(ctx, fmt.Sprintf("events:%04d-%02d", year, month), timeMin, timeMax)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	grid := calendar.NewMonth(year, month, selected, events, s.now(), s.location)
	return &grid, nil
}

// Today returns events starting today in the calendar's zone
func (s *CalendarService) Today(ctx context.Context) (*models.CalendarDayEvents, error) {
	ctx, span := tracing.StartSpan(ctx, "calendar.today")
	defer span.End()

	timeMin, timeMax := calendar.DayRange(s.now(), s.location)
	events, err := s.events(ctx, "events:"+timeMin.Format("2006-01-02"), timeMin, timeMax)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	return &models.CalendarDayEvents{
		Date:   timeMin.Format("2006-01-02"),
		Events: events,
	}, nil
}

// Metadata returns the calendar's details
func (s *CalendarService) Metadata(ctx context.Context) (*models.CalendarMetadata, error) {
	meta, err := cache.Remember(s.cache, "metadata", func() (*models.CalendarMetadata, error) {
		return s.source.Metadata(ctx)
	})
	if err != nil {
		return nil, s.upstreamError("metadata", err)
	}
	return meta, nil
}

// SubscribeURL is the public embed link for the calendar
func (s *CalendarService) SubscribeURL() string {
	return calendar.SubscriptionURL(s.calendarID, s.timeZone)
}

// events fetches a range after confirming the calendar is readable. Without
// an API key there is nothing to show, so the list is empty.
func (s *CalendarService) events(ctx context.Context, key string, timeMin, timeMax time.Time) ([]models.CalendarEvent, error) {
	meta, err := s.Metadata(ctx)
	if errors.Is(err, apperrors.ErrNotConfigured) {
		return []models.CalendarEvent{}, nil
	}
	if err != nil {
		return nil, err
	}
	if !meta.CanReadEvents {
		logger.Warn("Insufficient permissions to read calendar events", zap.String("calendar_id", s.calendarID))
		return []models.CalendarEvent{}, nil
	}

	events, err := cache.Remember(s.cache, key, func() ([]models.CalendarEvent, error) {
		list, err := s.source.ListEvents(ctx, timeMin, timeMax)
		if err != nil {
			return nil, err
		}
		for i := range list {
			list[i].AddToCalendarURL = calendar.AddToCalendarURL(list[i], s.location)
		}
		return list, nil
	})
	if err != nil {
		return nil, s.upstreamError("events", err)
	}
	return events, nil
}

func (s *CalendarService) upstreamError(what string, err error) error {
	if errors.Is(err, apperrors.ErrNotConfigured) {
		return err
	}
	logger.Error("Failed to fetch calendar "+what, zap.Error(err))
	return fmt.Errorf("%w: %w", apperrors.UnavailableError("google calendar "+what), err)
}
