// Package googlecalendar reads public events from the Google Calendar v3 REST
// API with an API key.
package googlecalendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/asucbc/cbc-api/internal/models"
	"github.com/asucbc/cbc-api/pkg/circuitbreaker"
	apperrors "github.com/asucbc/cbc-api/pkg/errors"
	"github.com/asucbc/cbc-api/pkg/httpclient"
	"github.com/asucbc/cbc-api/pkg/logger"
	"github.com/asucbc/cbc-api/pkg/metrics"
	"github.com/asucbc/cbc-api/pkg/retry"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL   = "https://www.googleapis.com/calendar/v3"
	DefaultMaxEvents = 250
	untitledEvent    = "No Title"
)

// ErrNotConfigured is returned when no API key is set
var ErrNotConfigured = apperrors.NotConfiguredError("GOOGLE_CALENDAR_API_KEY")

// StatusError is a non-2xx answer from the API
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("google calendar API error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Temporary reports whether the request may succeed later
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Config holds the calendar to read
type Config struct {
	APIKey     string
	CalendarID string
	BaseURL    string
	MaxEvents  int
}

// Client is a Google Calendar client with retry and circuit breaker protection
type Client struct {
	cfg            Config
	httpClient     httpclient.Client
	circuitBreaker *gobreaker.CircuitBreaker
}

// NewClient creates a calendar client. A missing API key is not an error here;
// calls return ErrNotConfigured.
func NewClient(cfg Config, httpClient httpclient.Client) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxEvents <= 0 {
		cfg.MaxEvents = DefaultMaxEvents
	}

	cbConfig := circuitbreaker.DefaultConfig("google_calendar")
	// Client errors mean a bad request, not an unhealthy upstream
	cbConfig.IsSuccessful = func(err error) bool {
		var se *StatusError
		if errors.As(err, &se) {
			return !se.Temporary()
		}
		return err == nil
	}

	if cfg.APIKey == "" {
		logger.Warn("Google Calendar API key not configured")
	} else {
		logger.Info("Google Calendar client initialized", zap.String("calendar_id", cfg.CalendarID))
	}

	return &Client{
		cfg:            cfg,
		httpClient:     httpClient,
		circuitBreaker: circuitbreaker.NewCircuitBreaker(cbConfig),
	}
}

// CalendarID returns the calendar this client reads
func (c *Client) CalendarID() string {
	return c.cfg.CalendarID
}

type eventsResponse struct {
	Items         []googleEvent `json:"items"`
	NextPageToken string        `json:"nextPageToken"`
}

type googleEvent struct {
	ID          string           `json:"id"`
	Summary     string           `json:"summary"`
	Description string           `json:"description"`
	Start       models.EventTime `json:"start"`
	End         models.EventTime `json:"end"`
	Location    string           `json:"location"`
	Status      string           `json:"status"`
	HTMLLink    string           `json:"htmlLink"`
	Created     string           `json:"created"`
	Updated     string           `json:"updated"`
}

type calendarResponse struct {
	ID          string `json:"id"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Location    string `json:"location"`
	TimeZone    string `json:"timeZone"`
	AccessRole  string `json:"accessRole"`
}

// ListEvents returns single (expanded) events ordered by start time within
// [timeMin, timeMax]. Either bound may be zero.
func (c *Client) ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]models.CalendarEvent, error) {
	params := url.Values{}
	params.Set("maxResults", strconv.Itoa(c.cfg.MaxEvents))
	params.Set("singleEvents", "true")
	params.Set("orderBy", "startTime")
	if !timeMin.IsZero() {
		params.Set("timeMin", timeMin.UTC().Format(time.RFC3339))
	}
	if !timeMax.IsZero() {
		params.Set("timeMax", timeMax.UTC().Format(time.RFC3339))
	}

	var data eventsResponse
	if err := c.call(ctx, "listEvents", "/calendars/"+url.PathEscape(c.cfg.CalendarID)+"/events", params, &data); err != nil {
		return nil, err
	}

	events := make([]models.CalendarEvent, 0, len(data.Items))
	for _, item := range data.Items {
		events = append(events, toCalendarEvent(item))
	}
	return events, nil
}

// Metadata returns calendar details. Only an explicit accessRole below
// reader marks events unreadable; calendars.get omits the field.
func (c *Client) Metadata(ctx context.Context) (*models.CalendarMetadata, error) {
	var data calendarResponse
	if err := c.call(ctx, "getMetadata", "/calendars/"+url.PathEscape(c.cfg.CalendarID), url.Values{}, &data); err != nil {
		return nil, err
	}

	return &models.CalendarMetadata{
		ID:            data.ID,
		Summary:       data.Summary,
		Description:   data.Description,
		Location:      data.Location,
		TimeZone:      data.TimeZone,
		CanReadEvents: canReadEvents(data.AccessRole),
	}, nil
}

func canReadEvents(accessRole string) bool {
	switch accessRole {
	case "", "reader", "writer", "owner":
		return true
	}
	return false
}

func toCalendarEvent(e googleEvent) models.CalendarEvent {
	summary := e.Summary
	if summary == "" {
		summary = untitledEvent
	}
	return models.CalendarEvent{
		ID:          e.ID,
		Summary:     summary,
		Description: e.Description,
		Start:       e.Start,
		End:         e.End,
		Location:    e.Location,
		Status:      e.Status,
		HTMLLink:    e.HTMLLink,
		Created:     e.Created,
		Updated:     e.Updated,
	}
}

// call performs one GET through the circuit breaker, retrying temporary failures
func (c *Client) call(ctx context.Context, operation, path string, params url.Values, out any) error {
	if c.cfg.APIKey == "" {
		return ErrNotConfigured
	}

	start := time.Now()
	params.Set("key", c.cfg.APIKey)
	endpoint := c.cfg.BaseURL + path + "?" + params.Encode()

	_, err := circuitbreaker.Execute(c.circuitBreaker, func() (struct{}, error) {
		return struct{}{}, retry.Do(ctx, retry.GoogleAPIConfig(), "google_calendar."+operation, func() error {
			return c.get(ctx, endpoint, out)
		})
	})

	duration := metrics.MeasureDuration(start)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.CalendarRequestDuration.WithLabelValues(operation, status).Observe(duration)
	metrics.CalendarRequestTotal.WithLabelValues(operation, status).Inc()

	if err != nil {
		logger.LogAPICall("google_calendar", operation, status, duration, zap.Error(err))
		return fmt.Errorf("google calendar %s: %w", operation, err)
	}
	logger.LogAPICall("google_calendar", operation, status, duration)
	return nil
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return retry.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096)) //nolint:errcheck // best effort
		se := &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
		if se.Temporary() {
			return se
		}
		return retry.Permanent(se)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return retry.Permanent(fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}
